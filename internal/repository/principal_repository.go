package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/crm-backend/internal/model"
)

// principalTable describes how one principal kind maps onto its table. The
// session layer runs the same flow for users and admins; this dispatch table
// is the single place the two schemas differ.
type principalTable struct {
	name       string // table name
	idColumn   string // primary key column
	roleColumn string // column feeding the token's role slot
	hasStatus  bool   // users carry an active/inactive gate, admins do not
}

var principalTables = map[model.Kind]principalTable{
	model.KindUser:  {name: "users", idColumn: "user_id", roleColumn: "account_type", hasStatus: true},
	model.KindAdmin: {name: "admins", idColumn: "admin_id", roleColumn: "role", hasStatus: false},
}

// PrincipalRepo serves the session layer's credential lookups and session
// writes across the users and admins tables. It implements
// auth.PrincipalStore.
type PrincipalRepo struct{ DB *sql.DB }

func NewPrincipalRepo(db *sql.DB) *PrincipalRepo { return &PrincipalRepo{DB: db} }

// FindByEmail fetches a principal by normalized email within the table
// matching kind. The secret columns are only selected when includeSecret is
// set; this is the narrow privilege elevation sign-in relies on.
func (r *PrincipalRepo) FindByEmail(ctx context.Context, kind model.Kind, email string, includeSecret bool) (*model.Principal, error) {
	t, ok := principalTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, kind, t, includeSecret, "email=?", email)
}

// FindByID fetches a principal by primary key. The refresh hash is always
// projected here: every caller of FindByID is validating or rotating a
// session and needs it.
func (r *PrincipalRepo) FindByID(ctx context.Context, kind model.Kind, id string) (*model.Principal, error) {
	t, ok := principalTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
	return r.scanOne(ctx, kind, t, true, t.idColumn+"=?", id)
}

// SaveRefreshHash overwrites hashed_refresh_token for the principal. A nil
// hash clears the column (sign-out); a non-nil lastLogin stamps last_login
// in the same statement so sign-in and rotation stay a single write.
func (r *PrincipalRepo) SaveRefreshHash(ctx context.Context, kind model.Kind, id string, hash *string, lastLogin *time.Time) error {
	t, ok := principalTables[kind]
	if !ok {
		return fmt.Errorf("unknown principal kind %q", kind)
	}
	if lastLogin != nil {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE "+t.name+" SET hashed_refresh_token=?, last_login=? WHERE "+t.idColumn+"=?",
			hash, lastLogin, id)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE "+t.name+" SET hashed_refresh_token=? WHERE "+t.idColumn+"=?",
		hash, id)
	return err
}

// UpdatePassword overwrites the stored password hash for the principal.
func (r *PrincipalRepo) UpdatePassword(ctx context.Context, kind model.Kind, id, passwordHash string) error {
	t, ok := principalTables[kind]
	if !ok {
		return fmt.Errorf("unknown principal kind %q", kind)
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE "+t.name+" SET password_hash=? WHERE "+t.idColumn+"=?",
		passwordHash, id)
	return err
}

func (r *PrincipalRepo) scanOne(ctx context.Context, kind model.Kind, t principalTable, includeSecret bool, where string, arg any) (*model.Principal, error) {
	cols := []string{t.idColumn, "email", t.roleColumn, "last_login"}
	if t.hasStatus {
		cols = append(cols, "status")
	}
	if includeSecret {
		cols = append(cols, "password_hash", "hashed_refresh_token")
	}
	query := "SELECT " + strings.Join(cols, ",") + " FROM " + t.name + " WHERE " + where + " LIMIT 1"

	p := model.Principal{Kind: kind}
	var lastLogin sql.NullTime
	dest := []any{&p.ID, &p.Email, &p.Role, &lastLogin}
	if t.hasStatus {
		dest = append(dest, &p.Status)
	}
	var refreshHash sql.NullString
	if includeSecret {
		dest = append(dest, &p.PasswordHash, &refreshHash)
	}
	if err := r.DB.QueryRowContext(ctx, query, arg).Scan(dest...); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		ll := lastLogin.Time
		p.LastLogin = &ll
	}
	if refreshHash.Valid {
		h := refreshHash.String
		p.RefreshTokenHash = &h
	}
	if !t.hasStatus {
		p.Status = model.StatusActive
	}
	return &p, nil
}
