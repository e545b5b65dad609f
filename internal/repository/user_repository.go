package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

// UserRepo persists rows of the `users` table. Secret columns are never part
// of the default projection; the session layer goes through PrincipalRepo
// when it needs them, and the OTP flows use the dedicated verification
// lookups below.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "user_id,first_name,last_name,email,phone_number,profile_picture,registration_date,status,account_type,last_login"

// CreateUserParams carries the fields accepted on account creation.
type CreateUserParams struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
	AccountType string
}

// Create inserts a new user with a generated UUID and a bcrypt password
// hash, and returns its id. New accounts start inactive until the emailed
// OTP is confirmed.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams, bcryptCost int) (string, error) {
	hash, err := auth.HashSecret(p.Password, bcryptCost)
	if err != nil {
		return "", err
	}
	accountType := p.AccountType
	if accountType != model.AccountPremium {
		accountType = model.AccountFree
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (user_id, first_name, last_name, email, phone_number, password_hash, status, account_type) VALUES (?,?,?,?,?,?,?,?)",
		id, p.FirstName, p.LastName, strings.ToLower(strings.TrimSpace(p.Email)), p.PhoneNumber, hash, model.StatusInactive, accountType)
	if err != nil {
		if isDuplicate(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByID fetches a user by id without secret columns.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id=? LIMIT 1", id))
}

// GetByEmail fetches a user by normalized email without secret columns.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email))))
}

// UserFilter narrows and pages List results. Page is 1-based; SortBy is
// checked against a whitelist so filter input can never reach the SQL text.
type UserFilter struct {
	Search      string
	Status      string
	AccountType string
	Page        int
	Limit       int
	SortBy      string
	SortOrder   string
}

// UserSummary is a list row: the user plus counts of owned records.
type UserSummary struct {
	model.User
	QuotesCount  int
	TicketsCount int
	VisitsCount  int
}

var userSortColumns = map[string]string{
	"registration_date": "registration_date",
	"last_login":        "last_login",
	"email":             "email",
	"first_name":        "first_name",
	"last_name":         "last_name",
}

// List returns a page of users matching the filter and the total match
// count. Search applies a LIKE across name and email columns.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]UserSummary, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.AccountType != "" {
		where = append(where, "account_type=?")
		args = append(args, f.AccountType)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		where = append(where, "(first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ""
	if col, ok := userSortColumns[f.SortBy]; ok {
		dir := "ASC"
		if strings.EqualFold(f.SortOrder, "desc") {
			dir = "DESC"
		}
		order = " ORDER BY " + col + " " + dir
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s,
		(SELECT COUNT(*) FROM quotes q WHERE q.user_id=u.user_id),
		(SELECT COUNT(*) FROM tickets t WHERE t.user_id=u.user_id),
		(SELECT COUNT(*) FROM user_visits v WHERE v.user_id=u.user_id)
		FROM users u WHERE %s%s LIMIT ? OFFSET ?`, userColumns, cond, order)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []UserSummary
	for rows.Next() {
		var s UserSummary
		var phone, picture sql.NullString
		var lastLogin sql.NullTime
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &phone, &picture,
			&s.RegistrationDate, &s.Status, &s.AccountType, &lastLogin,
			&s.QuotesCount, &s.TicketsCount, &s.VisitsCount); err != nil {
			return nil, 0, err
		}
		s.PhoneNumber = phone.String
		s.ProfilePicture = picture.String
		if lastLogin.Valid {
			ll := lastLogin.Time
			s.LastLogin = &ll
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UpdateUserParams carries the profile fields a user may change. Nil means
// "leave unchanged".
type UpdateUserParams struct {
	FirstName      *string
	LastName       *string
	PhoneNumber    *string
	ProfilePicture *string
}

// Update applies a partial profile update. A call with no set fields is a
// no-op, not an error.
func (r *UserRepo) Update(ctx context.Context, id string, p UpdateUserParams) error {
	set := []string{}
	args := []any{}
	appendSet := func(col string, v *string) {
		if v != nil {
			set = append(set, col+"=?")
			args = append(args, *v)
		}
	}
	appendSet("first_name", p.FirstName)
	appendSet("last_name", p.LastName)
	appendSet("phone_number", p.PhoneNumber)
	appendSet("profile_picture", p.ProfilePicture)
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ",")+" WHERE user_id=?", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateStatus flips the active/inactive gate.
func (r *UserRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=? WHERE user_id=?", status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateAccountType switches a user between free and premium.
func (r *UserRepo) UpdateAccountType(ctx context.Context, id, accountType string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET account_type=? WHERE user_id=?", accountType, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateEmail replaces the address and gates the account behind a fresh
// verification: the new email must be confirmed via OTP before sign-in works
// again.
func (r *UserRepo) UpdateEmail(ctx context.Context, id, email string, verificationHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, hashed_email_verification_token=?, status=? WHERE user_id=?",
		strings.ToLower(strings.TrimSpace(email)), verificationHash, model.StatusInactive, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return requireRow(res)
}

// SetVerificationToken stores the bcrypt hash of a pending OTP code, or
// clears it when hash is nil.
func (r *UserRepo) SetVerificationToken(ctx context.Context, id string, hash *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET hashed_email_verification_token=? WHERE user_id=?", hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetVerification fetches a user by email including the pending OTP hash,
// for the activation flow.
func (r *UserRepo) GetVerification(ctx context.Context, email string) (model.User, error) {
	var u model.User
	var phone, picture sql.NullString
	var lastLogin sql.NullTime
	var verification sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+",hashed_email_verification_token FROM users WHERE email=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &phone, &picture,
			&u.RegistrationDate, &u.Status, &u.AccountType, &lastLogin, &verification)
	if err != nil {
		return model.User{}, err
	}
	u.PhoneNumber = phone.String
	u.ProfilePicture = picture.String
	if lastLogin.Valid {
		ll := lastLogin.Time
		u.LastLogin = &ll
	}
	if verification.Valid {
		v := verification.String
		u.VerificationTokenHash = &v
	}
	return u, nil
}

// Activate marks the account active and clears any pending OTP hash.
func (r *UserRepo) Activate(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=?, hashed_email_verification_token=NULL WHERE user_id=?",
		model.StatusActive, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the user row. Owned quotes, tickets and visits cascade at
// the schema level.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE user_id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *UserRepo) scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var phone, picture sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &phone, &picture,
		&u.RegistrationDate, &u.Status, &u.AccountType, &lastLogin)
	if err != nil {
		return model.User{}, err
	}
	u.PhoneNumber = phone.String
	u.ProfilePicture = picture.String
	if lastLogin.Valid {
		ll := lastLogin.Time
		u.LastLogin = &ll
	}
	return u, nil
}

// requireRow converts a zero-row update into sql.ErrNoRows so handlers can
// answer 404 uniformly.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
