package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

// QuoteStatusNotifier is the slice of the mailer the quote handler needs.
type QuoteStatusNotifier interface {
	SendQuoteStatusEmail(ctx context.Context, email, status string) error
}

// QuoteHandler implements the quotation endpoints. Status changes notify the
// quote's owner by mail and are written to the admin activity log.
type QuoteHandler struct {
	Quotes   *repository.QuoteRepo
	Users    *repository.UserRepo
	Logs     *repository.ActivityLogRepo
	Notifier QuoteStatusNotifier
}

func NewQuoteHandler(quotes *repository.QuoteRepo, users *repository.UserRepo, logs *repository.ActivityLogRepo, n QuoteStatusNotifier) *QuoteHandler {
	return &QuoteHandler{Quotes: quotes, Users: users, Logs: logs, Notifier: n}
}

type createQuoteReq struct {
	UserID        string     `json:"userId"`
	Details       string     `json:"details"`
	EstimatedCost *float64   `json:"estimatedCost"`
	ValidUntil    *time.Time `json:"validUntil"`
	QuoteType     string     `json:"quoteType"`
}
type updateQuoteReq struct {
	Details       *string    `json:"details"`
	EstimatedCost *float64   `json:"estimatedCost"`
	ValidUntil    *time.Time `json:"validUntil"`
	QuoteType     *string    `json:"quoteType"`
}
type quoteStatusReq struct {
	Status string `json:"status"`
}

type quoteResp struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Details       string     `json:"details"`
	Status        string     `json:"status"`
	EstimatedCost *float64   `json:"estimatedCost,omitempty"`
	ValidUntil    *time.Time `json:"validUntil,omitempty"`
	QuoteType     string     `json:"quoteType,omitempty"`
	CreatedDate   time.Time  `json:"createdDate"`
}

func toQuoteResp(q model.Quote) quoteResp {
	return quoteResp{
		ID:            q.ID,
		UserID:        q.UserID,
		Details:       q.Details,
		Status:        q.Status,
		EstimatedCost: q.EstimatedCost,
		ValidUntil:    q.ValidUntil,
		QuoteType:     q.QuoteType,
		CreatedDate:   q.CreatedDate,
	}
}

// Create opens a pending quote for a user. Admin only.
func (h *QuoteHandler) Create(c echo.Context) error {
	var req createQuoteReq
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.Details == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId/details required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Fail fast on unknown users instead of a foreign key error.
	if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		return mapError(c, err)
	}

	id, err := h.Quotes.Create(ctx, repository.CreateQuoteParams{
		UserID:        req.UserID,
		Details:       req.Details,
		EstimatedCost: req.EstimatedCost,
		ValidUntil:    req.ValidUntil,
		QuoteType:     req.QuoteType,
	})
	if err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "quote.create", "quote "+id+" for user "+req.UserID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": id}})
}

// List returns a filtered page of quotes. Admin only.
func (h *QuoteHandler) List(c echo.Context) error {
	f := repository.QuoteFilter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		UserID: c.QueryParam("user_id"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	quotes, total, err := h.Quotes.List(ctx, f)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]quoteResp, 0, len(quotes))
	for _, q := range quotes {
		data = append(data, toQuoteResp(q))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data, "count": total})
}

// Get returns one quote. The owner or any admin may read it.
func (h *QuoteHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Quotes.GetByID(ctx, c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	if err := requireSelfOrAdmin(c, q.UserID); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toQuoteResp(q)})
}

// ListByUser returns every quote of one user. Self or admin.
func (h *QuoteHandler) ListByUser(c echo.Context) error {
	userID := c.Param("id")
	if err := requireSelfOrAdmin(c, userID); err != nil {
		return mapError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	quotes, err := h.Quotes.ListByUser(ctx, userID)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]quoteResp, 0, len(quotes))
	for _, q := range quotes {
		data = append(data, toQuoteResp(q))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// Update applies a partial edit to a quote. Admin only.
func (h *QuoteHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req updateQuoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Quotes.Update(ctx, id, repository.UpdateQuoteParams{
		Details:       req.Details,
		EstimatedCost: req.EstimatedCost,
		ValidUntil:    req.ValidUntil,
		QuoteType:     req.QuoteType,
	})
	if err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "quote.update", "quote "+id)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UpdateStatus moves a quote to a new status and mails the owner. Admin only.
func (h *QuoteHandler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	var req quoteStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Status {
	case model.QuotePending, model.QuoteApproved, model.QuoteRejected, model.QuoteExpired:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Quotes.GetByID(ctx, id)
	if err != nil {
		return mapError(c, err)
	}
	if err := h.Quotes.UpdateStatus(ctx, id, req.Status); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "quote.status", "quote "+id+" -> "+req.Status)
	h.notifyOwner(ctx, q.UserID, req.Status)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes a quote. Admin only.
func (h *QuoteHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Quotes.Delete(ctx, id); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "quote.delete", "quote "+id)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// notifyOwner mails the quote's owner about the status change. Best effort.
func (h *QuoteHandler) notifyOwner(ctx context.Context, userID, status string) {
	if h.Notifier == nil {
		return
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return
	}
	_ = h.Notifier.SendQuoteStatusEmail(ctx, u.Email, status)
}

// recordActivity appends an audit row for the calling admin. A failed write
// never fails the request.
func (h *QuoteHandler) recordActivity(c echo.Context, action, details string) {
	caller := middleware.Caller(c)
	if h.Logs == nil || caller.Kind != model.KindAdmin {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Logs.Record(ctx, caller.SubjectID, action, details, c.RealIP()); err != nil {
		c.Logger().Errorf("activity log write failed: %v", err)
	}
}
