package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/crm-backend/internal/model"
)

// ActivityLogRepo persists rows of `admin_activity_logs`. Every
// state-changing admin operation appends one row; the table is append-only.
type ActivityLogRepo struct{ DB *sql.DB }

func NewActivityLogRepo(db *sql.DB) *ActivityLogRepo { return &ActivityLogRepo{DB: db} }

// Record appends one activity entry.
func (r *ActivityLogRepo) Record(ctx context.Context, adminID, actionType, details, ipAddress string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_activity_logs (admin_id, action_type, action_details, ip_address) VALUES (?,?,?,?)",
		adminID, actionType, details, ipAddress)
	return err
}

// List returns recent activity, optionally narrowed to one admin, newest
// first.
func (r *ActivityLogRepo) List(ctx context.Context, adminID string, limit int) ([]model.AdminActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT log_id, admin_id, action_type, action_details, ip_address, action_time FROM admin_activity_logs"
	args := []any{}
	if adminID != "" {
		query += " WHERE admin_id=?"
		args = append(args, adminID)
	}
	rows, err := r.DB.QueryContext(ctx, query+" ORDER BY action_time DESC LIMIT ?", append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AdminActivityLog
	for rows.Next() {
		var l model.AdminActivityLog
		var details sql.NullString
		if err := rows.Scan(&l.ID, &l.AdminID, &l.ActionType, &details, &l.IPAddress, &l.ActionTime); err != nil {
			return nil, err
		}
		l.Details = details.String
		out = append(out, l)
	}
	return out, rows.Err()
}
