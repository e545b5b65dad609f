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

// TicketHandler implements the support ticket endpoints.
type TicketHandler struct {
	Tickets *repository.TicketRepo
	Admins  *repository.AdminRepo
	Logs    *repository.ActivityLogRepo
}

func NewTicketHandler(tickets *repository.TicketRepo, admins *repository.AdminRepo, logs *repository.ActivityLogRepo) *TicketHandler {
	return &TicketHandler{Tickets: tickets, Admins: admins, Logs: logs}
}

type createTicketReq struct {
	UserID   string `json:"userId"` // optional for users, taken from the token
	Issue    string `json:"issue"`
	Priority string `json:"priority"`
}
type ticketStatusReq struct {
	Status string `json:"status"`
}
type ticketPriorityReq struct {
	Priority string `json:"priority"`
}
type assignTicketReq struct {
	AdminID *string `json:"adminId"` // null unassigns
}

type ticketResp struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	AssignedAdmin *string    `json:"assignedAdmin,omitempty"`
	Issue         string     `json:"issue"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	CreatedDate   time.Time  `json:"createdDate"`
	ResolvedDate  *time.Time `json:"resolvedDate,omitempty"`
}

func toTicketResp(t model.Ticket) ticketResp {
	return ticketResp{
		ID:            t.ID,
		UserID:        t.UserID,
		AssignedAdmin: t.AssignedAdmin,
		Issue:         t.Issue,
		Status:        t.Status,
		Priority:      t.Priority,
		CreatedDate:   t.CreatedDate,
		ResolvedDate:  t.ResolvedDate,
	}
}

// Create opens a ticket. Users always open tickets on themselves; an admin
// may open one on behalf of any user by passing userId.
func (h *TicketHandler) Create(c echo.Context) error {
	var req createTicketReq
	if err := c.Bind(&req); err != nil || req.Issue == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "issue required"})
	}
	caller := middleware.Caller(c)
	userID := req.UserID
	if caller.Kind == model.KindUser {
		userID = caller.SubjectID
	}
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId required"})
	}
	if req.Priority != "" {
		switch req.Priority {
		case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown priority"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Tickets.Create(ctx, userID, req.Issue, req.Priority)
	if err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "ticket.create", "ticket "+id+" for user "+userID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": id}})
}

// List returns a filtered page of tickets. Admins see everything; users are
// forced onto their own tickets regardless of the filter they send.
func (h *TicketHandler) List(c echo.Context) error {
	f := repository.TicketFilter{
		Search:   c.QueryParam("search"),
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		UserID:   c.QueryParam("user_id"),
		AdminID:  c.QueryParam("admin_id"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	caller := middleware.Caller(c)
	if caller.Kind == model.KindUser {
		f.UserID = caller.SubjectID
		f.AdminID = ""
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, total, err := h.Tickets.List(ctx, f)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]ticketResp, 0, len(tickets))
	for _, t := range tickets {
		data = append(data, toTicketResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data, "count": total})
}

// Get returns one ticket. The reporter or any admin may read it.
func (h *TicketHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	if err := requireSelfOrAdmin(c, t.UserID); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toTicketResp(t)})
}

// UpdateStatus moves a ticket through its lifecycle. Closing stamps the
// resolution time. Admin only.
func (h *TicketHandler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	var req ticketStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Status {
	case model.TicketOpen, model.TicketInProgress, model.TicketClosed:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.UpdateStatus(ctx, id, req.Status); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "ticket.status", "ticket "+id+" -> "+req.Status)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UpdatePriority changes the triage priority. Admin only.
func (h *TicketHandler) UpdatePriority(c echo.Context) error {
	id := c.Param("id")
	var req ticketPriorityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown priority"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.UpdatePriority(ctx, id, req.Priority); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "ticket.priority", "ticket "+id+" -> "+req.Priority)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Assign hands a ticket to an admin, or unassigns it with a null adminId.
// Admin only.
func (h *TicketHandler) Assign(c echo.Context) error {
	id := c.Param("id")
	var req assignTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.AdminID != nil {
		if _, err := h.Admins.GetByID(ctx, *req.AdminID); err != nil {
			return mapError(c, err)
		}
	}
	if err := h.Tickets.Assign(ctx, id, req.AdminID); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "ticket.assign", "ticket "+id)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes an open ticket. Admin only.
func (h *TicketHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.Delete(ctx, id); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "ticket.delete", "ticket "+id)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *TicketHandler) recordActivity(c echo.Context, action, details string) {
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
