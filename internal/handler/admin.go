package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

// AdminHandler manages admin accounts. Creation and role changes are
// restricted to the super role at the router.
type AdminHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
	Logs   *repository.ActivityLogRepo
}

func NewAdminHandler(cfg config.Config, admins *repository.AdminRepo, logs *repository.ActivityLogRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Admins: admins, Logs: logs}
}

type createAdminReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
type adminRoleReq struct {
	Role string `json:"role"`
}

type adminResp struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func toAdminResp(a model.Admin) adminResp {
	return adminResp{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role, LastLogin: a.LastLogin}
}

// Create registers a new admin account.
func (h *AdminHandler) Create(c echo.Context) error {
	var req createAdminReq
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Admins.Create(ctx, req.Username, req.Email, req.Password, req.Role, h.Cfg.BcryptCost)
	if err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "admin.create", "admin "+id)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": id}})
}

// List returns all admins, optionally filtered by role.
func (h *AdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admins, err := h.Admins.List(ctx, c.QueryParam("role"))
	if err != nil {
		return mapError(c, err)
	}
	data := make([]adminResp, 0, len(admins))
	for _, a := range admins {
		data = append(data, toAdminResp(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// Get returns one admin.
func (h *AdminHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toAdminResp(a)})
}

// UpdateRole changes an admin's role.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id := c.Param("id")
	var req adminRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	valid := false
	for _, known := range model.AdminRoles {
		if req.Role == known {
			valid = true
			break
		}
	}
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Admins.UpdateRole(ctx, id, req.Role); err != nil {
		return mapError(c, err)
	}
	h.recordActivity(c, "admin.role", "admin "+id+" -> "+req.Role)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) recordActivity(c echo.Context, action, details string) {
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
