package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/crm-backend/internal/model"
)

// QuoteRepo persists rows of the `quotes` table.
type QuoteRepo struct{ DB *sql.DB }

func NewQuoteRepo(db *sql.DB) *QuoteRepo { return &QuoteRepo{DB: db} }

const quoteColumns = "quote_id,user_id,quote_details,status,estimated_cost,valid_until,quote_type,created_date"

// CreateQuoteParams carries the fields accepted on quote creation.
type CreateQuoteParams struct {
	UserID        string
	Details       string
	Status        string
	EstimatedCost *float64
	ValidUntil    *time.Time
	QuoteType     string
}

// Create inserts a quote for a user and returns its id. An empty status
// defaults to pending.
func (r *QuoteRepo) Create(ctx context.Context, p CreateQuoteParams) (string, error) {
	status := p.Status
	if status == "" {
		status = model.QuotePending
	}
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO quotes (quote_id, user_id, quote_details, status, estimated_cost, valid_until, quote_type) VALUES (?,?,?,?,?,?,?)",
		id, p.UserID, p.Details, status, p.EstimatedCost, p.ValidUntil, p.QuoteType)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByID fetches one quote.
func (r *QuoteRepo) GetByID(ctx context.Context, id string) (model.Quote, error) {
	return scanQuote(r.DB.QueryRowContext(ctx,
		"SELECT "+quoteColumns+" FROM quotes WHERE quote_id=? LIMIT 1", id))
}

// QuoteFilter narrows and pages List results.
type QuoteFilter struct {
	Search string
	Status string
	UserID string
	Page   int
	Limit  int
}

// List returns a page of quotes and the total match count. Search applies a
// LIKE across details and type.
func (r *QuoteRepo) List(ctx context.Context, f QuoteFilter) ([]model.Quote, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.UserID != "" {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		where = append(where, "(quote_details LIKE ? OR quote_type LIKE ?)")
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM quotes WHERE "+cond, args...).Scan(&total); err != nil {
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
		"SELECT "+quoteColumns+" FROM quotes WHERE "+cond+" ORDER BY created_date DESC LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Quote
	for rows.Next() {
		q, err := scanQuoteRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

// ListByUser returns every quote belonging to one user, newest first.
func (r *QuoteRepo) ListByUser(ctx context.Context, userID string) ([]model.Quote, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+quoteColumns+" FROM quotes WHERE user_id=? ORDER BY created_date DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Quote
	for rows.Next() {
		q, err := scanQuoteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQuoteParams carries the mutable quote fields. Nil means "leave
// unchanged".
type UpdateQuoteParams struct {
	Details       *string
	EstimatedCost *float64
	ValidUntil    *time.Time
	QuoteType     *string
}

// Update applies a partial update to a quote.
func (r *QuoteRepo) Update(ctx context.Context, id string, p UpdateQuoteParams) error {
	set := []string{}
	args := []any{}
	if p.Details != nil {
		set = append(set, "quote_details=?")
		args = append(args, *p.Details)
	}
	if p.EstimatedCost != nil {
		set = append(set, "estimated_cost=?")
		args = append(args, *p.EstimatedCost)
	}
	if p.ValidUntil != nil {
		set = append(set, "valid_until=?")
		args = append(args, *p.ValidUntil)
	}
	if p.QuoteType != nil {
		set = append(set, "quote_type=?")
		args = append(args, *p.QuoteType)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE quotes SET "+strings.Join(set, ",")+" WHERE quote_id=?", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateStatus moves a quote to a new status. Setting the status it already
// has is reported as ErrConflict so callers can answer 400/409 instead of
// silently succeeding.
func (r *QuoteRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE quotes SET status=? WHERE quote_id=? AND status<>?", status, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "no such quote" from "already in that status".
		var exists int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM quotes WHERE quote_id=? LIMIT 1", id).Scan(&exists); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// Delete removes a quote row.
func (r *QuoteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM quotes WHERE quote_id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanQuote(row *sql.Row) (model.Quote, error) {
	var q model.Quote
	var cost sql.NullFloat64
	var validUntil sql.NullTime
	var quoteType sql.NullString
	if err := row.Scan(&q.ID, &q.UserID, &q.Details, &q.Status, &cost, &validUntil, &quoteType, &q.CreatedDate); err != nil {
		return model.Quote{}, err
	}
	applyQuoteNullables(&q, cost, validUntil, quoteType)
	return q, nil
}

func scanQuoteRow(rows *sql.Rows) (model.Quote, error) {
	var q model.Quote
	var cost sql.NullFloat64
	var validUntil sql.NullTime
	var quoteType sql.NullString
	if err := rows.Scan(&q.ID, &q.UserID, &q.Details, &q.Status, &cost, &validUntil, &quoteType, &q.CreatedDate); err != nil {
		return model.Quote{}, err
	}
	applyQuoteNullables(&q, cost, validUntil, quoteType)
	return q, nil
}

func applyQuoteNullables(q *model.Quote, cost sql.NullFloat64, validUntil sql.NullTime, quoteType sql.NullString) {
	if cost.Valid {
		c := cost.Float64
		q.EstimatedCost = &c
	}
	if validUntil.Valid {
		v := validUntil.Time
		q.ValidUntil = &v
	}
	q.QuoteType = quoteType.String
}
