package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/crm-backend/internal/model"
)

// TicketRepo persists rows of the `tickets` support table.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketColumns = "ticket_id,user_id,assigned_to,issue,ticket_status,priority_level,created_date,resolved_date"

// Create opens a ticket for a user and returns its id. An empty priority
// defaults to medium.
func (r *TicketRepo) Create(ctx context.Context, userID, issue, priority string) (string, error) {
	if priority == "" {
		priority = model.PriorityMedium
	}
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tickets (ticket_id, user_id, issue, ticket_status, priority_level) VALUES (?,?,?,?,?)",
		id, userID, issue, model.TicketOpen, priority)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByID fetches one ticket.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (model.Ticket, error) {
	var t model.Ticket
	var assigned sql.NullString
	var resolved sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE ticket_id=? LIMIT 1", id).
		Scan(&t.ID, &t.UserID, &assigned, &t.Issue, &t.Status, &t.Priority, &t.CreatedDate, &resolved)
	if err != nil {
		return model.Ticket{}, err
	}
	if assigned.Valid {
		a := assigned.String
		t.AssignedAdmin = &a
	}
	if resolved.Valid {
		rd := resolved.Time
		t.ResolvedDate = &rd
	}
	return t, nil
}

// TicketFilter narrows and pages List results.
type TicketFilter struct {
	Search   string
	Status   string
	Priority string
	UserID   string
	AdminID  string
	Page     int
	Limit    int
}

// List returns a page of tickets and the total match count.
func (r *TicketRepo) List(ctx context.Context, f TicketFilter) ([]model.Ticket, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Status != "" {
		where = append(where, "ticket_status=?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority_level=?")
		args = append(args, f.Priority)
	}
	if f.UserID != "" {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.AdminID != "" {
		where = append(where, "assigned_to=?")
		args = append(args, f.AdminID)
	}
	if f.Search != "" {
		where = append(where, "issue LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE "+cond+" ORDER BY created_date DESC LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var assigned sql.NullString
		var resolved sql.NullTime
		if err := rows.Scan(&t.ID, &t.UserID, &assigned, &t.Issue, &t.Status, &t.Priority, &t.CreatedDate, &resolved); err != nil {
			return nil, 0, err
		}
		if assigned.Valid {
			a := assigned.String
			t.AssignedAdmin = &a
		}
		if resolved.Valid {
			rd := resolved.Time
			t.ResolvedDate = &rd
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a ticket through open -> in-progress -> closed.
// Closing stamps resolved_date; reopening clears it.
func (r *TicketRepo) UpdateStatus(ctx context.Context, id, status string) error {
	var res sql.Result
	var err error
	if status == model.TicketClosed {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE tickets SET ticket_status=?, resolved_date=NOW() WHERE ticket_id=?", status, id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE tickets SET ticket_status=?, resolved_date=NULL WHERE ticket_id=?", status, id)
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePriority changes the triage priority.
func (r *TicketRepo) UpdatePriority(ctx context.Context, id, priority string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tickets SET priority_level=? WHERE ticket_id=?", priority, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Assign hands the ticket to an admin, or unassigns it when adminID is nil.
func (r *TicketRepo) Assign(ctx context.Context, id string, adminID *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tickets SET assigned_to=? WHERE ticket_id=?", adminID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a ticket row. Closed tickets are kept for audit; only open
// tickets may be deleted.
func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tickets WHERE ticket_id=? AND ticket_status=?", id, model.TicketOpen)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM tickets WHERE ticket_id=? LIMIT 1", id).Scan(&exists); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
