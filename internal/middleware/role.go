package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/model"
)

// RequireAdmin restricts a route group to admin principals. When roles are
// given, the admin's role must additionally be one of them; with no
// arguments any admin passes. It assumes AccessGuard already ran.
func RequireAdmin(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := Caller(c)
			if caller.Kind != model.KindAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}
			if len(allowed) > 0 && !allowed[caller.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient admin role"})
			}
			return next(c)
		}
	}
}

// RequireUser restricts a route group to user principals.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Caller(c).Kind != model.KindUser {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "user access required"})
			}
			return next(c)
		}
	}
}
