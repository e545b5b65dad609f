package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

// VisitRepo persists audit rows in `user_visits`. It implements
// auth.VisitRecorder: the session layer hands it the classified device
// descriptor of every successful user sign-in.
type VisitRepo struct{ DB *sql.DB }

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{DB: db} }

// Record inserts one visit row. The stored user agent is the human-readable
// summary, not the raw header.
func (r *VisitRepo) Record(ctx context.Context, userID, ipAddress string, cls auth.Classification) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_visits (user_id, ip_address, device_type, user_agent) VALUES (?,?,?,?)",
		userID, ipAddress, cls.DeviceType, cls.Summary)
	return err
}

// ListByUser returns the most recent visits of one user, newest first.
func (r *VisitRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.UserVisit, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT visit_id, user_id, visit_time, ip_address, device_type, user_agent FROM user_visits WHERE user_id=? ORDER BY visit_time DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

// ListSince returns all visits recorded after the cutoff, newest first.
// Used by admin reporting.
func (r *VisitRepo) ListSince(ctx context.Context, since time.Time, limit int) ([]model.UserVisit, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT visit_id, user_id, visit_time, ip_address, device_type, user_agent FROM user_visits WHERE visit_time >= ? ORDER BY visit_time DESC LIMIT ?",
		since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func collectVisits(rows *sql.Rows) ([]model.UserVisit, error) {
	var out []model.UserVisit
	for rows.Next() {
		var v model.UserVisit
		var device sql.NullString
		if err := rows.Scan(&v.ID, &v.UserID, &v.VisitTime, &v.IPAddress, &device, &v.UserAgent); err != nil {
			return nil, err
		}
		v.DeviceType = device.String
		out = append(out, v)
	}
	return out, rows.Err()
}
