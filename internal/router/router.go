// Package router wires handlers, guards and cross-cutting middleware onto
// the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/handler"
	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
)

// Deps collects everything route registration needs.
type Deps struct {
	DB       *sql.DB
	Redis    *redis.Client
	Tokens   *auth.TokenService
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Admins   *handler.AdminHandler
	Quotes   *handler.QuoteHandler
	Tickets  *handler.TicketHandler
	Visits   *handler.VisitHandler
	Activity *handler.ActivityLogHandler
}

// Register sets up the full route table.
//
// Public surface: health check, sign-in and the password-reset / OTP flows,
// plus self-service account creation. Everything else lives under /v1 behind
// the access-token guard; admin-only groups add a role check on top. The
// token-bucket rate limiter wraps the whole API and the response cache wraps
// the read-heavy protected group.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))

	e.GET("/healthz", handler.Health(d.DB))

	// Unauthenticated auth and account flows.
	ag := e.Group("/v1/auth")
	ag.POST("/signin", d.Auth.SignIn)
	ag.POST("/request-reset-password", d.Auth.RequestResetPassword)
	ag.POST("/reset-password", d.Auth.ResetPassword)

	// Signout needs a live access token; refresh needs the refresh token.
	// Both verify path-id ownership in the handler.
	ag.DELETE("/signout/:id", d.Auth.SignOut, middleware.AccessGuard(d.Tokens))
	ag.GET("/refresh/:id", d.Auth.Refresh, middleware.RefreshGuard(d.Tokens))

	// Self-service registration and OTP activation are public: the caller
	// has no token until the account is active.
	e.POST("/v1/users", d.Users.Create)
	e.POST("/v1/users/activate", d.Users.ActivateWithOtp)
	e.POST("/v1/users/resend-otp", d.Users.ResendOtp)

	// Protected surface.
	v1 := e.Group("/v1", middleware.AccessGuard(d.Tokens))
	v1.Use(middleware.ResponseCache(config.LoadCacheConfig(), d.Redis))

	anyAdmin := middleware.RequireAdmin()
	superOnly := middleware.RequireAdmin(model.RoleSuper)
	quoteAdmin := middleware.RequireAdmin(model.RoleSuper, model.RoleQuotations)

	// Users.
	v1.GET("/users", d.Users.List, anyAdmin)
	v1.GET("/users/:id", d.Users.Get)
	v1.PUT("/users/:id", d.Users.Update)
	v1.PATCH("/users/status", d.Users.UpdateStatus, anyAdmin)
	v1.PATCH("/users/account-type", d.Users.UpdateAccountType, anyAdmin)
	v1.PATCH("/users/:id/email", d.Users.UpdateEmail, middleware.RequireUser())
	v1.DELETE("/users/:id", d.Users.Delete, anyAdmin)

	// Quotes.
	v1.POST("/quotes", d.Quotes.Create, quoteAdmin)
	v1.GET("/quotes", d.Quotes.List, anyAdmin)
	v1.GET("/quotes/:id", d.Quotes.Get)
	v1.GET("/users/:id/quotes", d.Quotes.ListByUser)
	v1.PUT("/quotes/:id", d.Quotes.Update, quoteAdmin)
	v1.PATCH("/quotes/:id/status", d.Quotes.UpdateStatus, quoteAdmin)
	v1.DELETE("/quotes/:id", d.Quotes.Delete, quoteAdmin)

	// Tickets. Creation and listing are open to both kinds; the handler
	// pins users to their own tickets.
	v1.POST("/tickets", d.Tickets.Create)
	v1.GET("/tickets", d.Tickets.List)
	v1.GET("/tickets/:id", d.Tickets.Get)
	v1.PATCH("/tickets/:id/status", d.Tickets.UpdateStatus, anyAdmin)
	v1.PATCH("/tickets/:id/priority", d.Tickets.UpdatePriority, anyAdmin)
	v1.PATCH("/tickets/:id/assign", d.Tickets.Assign, anyAdmin)
	v1.DELETE("/tickets/:id", d.Tickets.Delete, anyAdmin)

	// Sign-in audit trail.
	v1.GET("/users/:id/visits", d.Visits.ListByUser)
	v1.GET("/visits", d.Visits.ListRecent, anyAdmin)

	// Admin accounts and the activity log.
	v1.POST("/admins", d.Admins.Create, superOnly)
	v1.GET("/admins", d.Admins.List, anyAdmin)
	v1.GET("/admins/:id", d.Admins.Get, anyAdmin)
	v1.PATCH("/admins/:id/role", d.Admins.UpdateRole, superOnly)
	v1.POST("/activity-logs", d.Activity.Record, anyAdmin)
	v1.GET("/activity-logs", d.Activity.List, anyAdmin)
}
