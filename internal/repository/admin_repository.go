package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

// AdminRepo persists rows of the `admins` table. Admin accounts are created
// by operators, never self-service, so there is no activation flow here.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminColumns = "admin_id,username,email,role,last_login"

// Create inserts a new admin and returns its id. Unknown roles fall back to
// "support", the least privileged one.
func (r *AdminRepo) Create(ctx context.Context, username, email, password, role string, bcryptCost int) (string, error) {
	valid := false
	for _, known := range model.AdminRoles {
		if role == known {
			valid = true
			break
		}
	}
	if !valid {
		role = model.RoleSupport
	}
	hash, err := auth.HashSecret(password, bcryptCost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO admins (admin_id, username, email, password_hash, role) VALUES (?,?,?,?,?)",
		id, username, strings.ToLower(strings.TrimSpace(email)), hash, role)
	if err != nil {
		if isDuplicate(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByID fetches an admin by id without secret columns.
func (r *AdminRepo) GetByID(ctx context.Context, id string) (model.Admin, error) {
	return scanAdmin(r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE admin_id=? LIMIT 1", id))
}

// List returns all admins, optionally narrowed to one role.
func (r *AdminRepo) List(ctx context.Context, role string) ([]model.Admin, error) {
	query := "SELECT " + adminColumns + " FROM admins"
	args := []any{}
	if role != "" {
		query += " WHERE role=?"
		args = append(args, role)
	}
	rows, err := r.DB.QueryContext(ctx, query+" ORDER BY username", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Admin
	for rows.Next() {
		var a model.Admin
		var lastLogin sql.NullTime
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			ll := lastLogin.Time
			a.LastLogin = &ll
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateRole changes an admin's role.
func (r *AdminRepo) UpdateRole(ctx context.Context, id, role string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET role=? WHERE admin_id=?", role, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanAdmin(row *sql.Row) (model.Admin, error) {
	var a model.Admin
	var lastLogin sql.NullTime
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &lastLogin); err != nil {
		return model.Admin{}, err
	}
	if lastLogin.Valid {
		ll := lastLogin.Time
		a.LastLogin = &ll
	}
	return a, nil
}
