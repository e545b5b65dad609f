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

// ActivityLogHandler exposes the append-only admin audit log. Admin only.
type ActivityLogHandler struct {
	Logs *repository.ActivityLogRepo
}

func NewActivityLogHandler(logs *repository.ActivityLogRepo) *ActivityLogHandler {
	return &ActivityLogHandler{Logs: logs}
}

type recordLogReq struct {
	ActionType string `json:"actionType"`
	Details    string `json:"details"`
}

type activityLogResp struct {
	ID         uint64    `json:"id"`
	AdminID    string    `json:"adminId"`
	ActionType string    `json:"actionType"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ipAddress"`
	ActionTime time.Time `json:"actionTime"`
}

// Record appends an entry for the calling admin. Most entries are written
// automatically by the quote and ticket handlers; this endpoint covers
// out-of-band operations.
func (h *ActivityLogHandler) Record(c echo.Context) error {
	var req recordLogReq
	if err := c.Bind(&req); err != nil || req.ActionType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "actionType required"})
	}
	caller := middleware.Caller(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Logs.Record(ctx, caller.SubjectID, req.ActionType, req.Details, c.RealIP()); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// List returns recent activity, optionally narrowed to one admin.
func (h *ActivityLogHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	logs, err := h.Logs.List(ctx, c.QueryParam("admin_id"), limit)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]activityLogResp, 0, len(logs))
	for _, l := range logs {
		data = append(data, toActivityLogResp(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

func toActivityLogResp(l model.AdminActivityLog) activityLogResp {
	return activityLogResp{
		ID:         l.ID,
		AdminID:    l.AdminID,
		ActionType: l.ActionType,
		Details:    l.Details,
		IPAddress:  l.IPAddress,
		ActionTime: l.ActionTime,
	}
}
