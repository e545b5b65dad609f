package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/middleware"
)

// AuthHandler bundles dependencies for the auth endpoints. All session
// protocol logic lives in auth.SessionService; the handler only binds,
// dispatches and maps errors onto HTTP statuses.
type AuthHandler struct {
	Sessions *auth.SessionService
}

func NewAuthHandler(s *auth.SessionService) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"` // user | admin
}
type requestResetReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type tokenResp struct {
	Success bool           `json:"success"`
	Data    auth.TokenPair `json:"data"`
}

// SignIn verifies a credential pair and returns a fresh token pair.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Sessions.SignIn(ctx, auth.SignInRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserType:  req.UserType,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Success: true, Data: pair})
}

// RequestResetPassword issues a password-reset token for a user and queues
// the reset mail.
func (h *AuthHandler) RequestResetPassword(c echo.Context) error {
	var req requestResetReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.RequestPasswordReset(ctx, req.Email); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Password reset sent successfully. Check your email for more instructions",
	})
}

// ResetPassword verifies a reset token and overwrites the user's password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/newPassword required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password reset successful."})
}

// SignOut clears the session of the principal named in the path. The caller
// must own that principal; the guard middleware has already verified the
// access token.
func (h *AuthHandler) SignOut(c echo.Context) error {
	targetID := c.Param("id")
	caller := middleware.Caller(c)
	if err := auth.CheckPermission(targetID, caller); err != nil {
		return mapError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.SignOut(ctx, caller.Kind, targetID); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out successfully"})
}

// Refresh exchanges the presented refresh token (already verified by the
// refresh guard) for a rotated pair. The path id must match the token's
// subject so one principal cannot refresh another's session.
func (h *AuthHandler) Refresh(c echo.Context) error {
	targetID := c.Param("id")
	caller := middleware.Caller(c)
	if err := auth.CheckPermission(targetID, caller); err != nil {
		return mapError(c, err)
	}
	raw, _ := c.Get(middleware.CtxRefreshToken).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Sessions.RefreshToken(ctx, raw)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Success: true, Data: pair})
}
