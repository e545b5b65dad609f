package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

// VisitHandler exposes the sign-in audit trail. Rows are written by the
// session layer on successful user sign-ins; this handler only reads.
type VisitHandler struct {
	Visits *repository.VisitRepo
}

func NewVisitHandler(visits *repository.VisitRepo) *VisitHandler {
	return &VisitHandler{Visits: visits}
}

type visitResp struct {
	ID         uint64    `json:"id"`
	UserID     string    `json:"userId"`
	VisitTime  time.Time `json:"visitTime"`
	IPAddress  string    `json:"ipAddress"`
	DeviceType string    `json:"deviceType"`
	UserAgent  string    `json:"userAgent"`
}

func toVisitResp(v model.UserVisit) visitResp {
	return visitResp{
		ID:         v.ID,
		UserID:     v.UserID,
		VisitTime:  v.VisitTime,
		IPAddress:  v.IPAddress,
		DeviceType: v.DeviceType,
		UserAgent:  v.UserAgent,
	}
}

// ListByUser returns the recent visits of one user. Self or admin.
func (h *VisitHandler) ListByUser(c echo.Context) error {
	userID := c.Param("id")
	if err := requireSelfOrAdmin(c, userID); err != nil {
		return mapError(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	visits, err := h.Visits.ListByUser(ctx, userID, limit)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]visitResp, 0, len(visits))
	for _, v := range visits {
		data = append(data, toVisitResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// ListRecent returns all visits since the given cutoff (default 7 days).
// Admin only.
func (h *VisitHandler) ListRecent(c echo.Context) error {
	since := time.Now().AddDate(0, 0, -7)
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "since must be RFC 3339"})
		}
		since = parsed
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	visits, err := h.Visits.ListSince(ctx, since, limit)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]visitResp, 0, len(visits))
	for _, v := range visits {
		data = append(data, toVisitResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}
