// Package middleware contains reusable HTTP middleware: bearer-token guards,
// role enforcement, Redis rate limiting and response caching.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

// Context keys set by the token guards and read by handlers.
const (
	CtxPrincipalID   = "principal_id"
	CtxPrincipalKind = "principal_kind"
	CtxRole          = "role"
	CtxEmail         = "email"
	CtxRefreshToken  = "refresh_token"
)

// AccessGuard returns a middleware that validates a Bearer access token and
// injects the caller's identity into the request context. Expired tokens are
// answered distinctly from invalid ones so clients know to refresh rather
// than re-login.
func AccessGuard(tokens *auth.TokenService) echo.MiddlewareFunc {
	return guard(tokens, auth.UseAccess, "")
}

// RefreshGuard is AccessGuard's counterpart for the refresh endpoint: the
// presented Bearer token must verify against the refresh secret. The raw
// token is kept in context because the session layer needs it to compare
// against the stored hash.
func RefreshGuard(tokens *auth.TokenService) echo.MiddlewareFunc {
	return guard(tokens, auth.UseRefresh, CtxRefreshToken)
}

func guard(tokens *auth.TokenService, use auth.TokenUse, rawKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			payload, err := tokens.Verify(raw, use)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if !payload.Kind.Valid() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxPrincipalID, payload.SubjectID)
			c.Set(CtxPrincipalKind, string(payload.Kind))
			c.Set(CtxRole, payload.Role)
			c.Set(CtxEmail, payload.Email)
			if rawKey != "" {
				c.Set(rawKey, raw)
			}
			return next(c)
		}
	}
}

// Caller reconstructs the verified identity stored by a token guard.
func Caller(c echo.Context) auth.Identity {
	id, _ := c.Get(CtxPrincipalID).(string)
	kind, _ := c.Get(CtxPrincipalKind).(string)
	role, _ := c.Get(CtxRole).(string)
	return auth.Identity{SubjectID: id, Kind: model.Kind(kind), Role: role}
}
