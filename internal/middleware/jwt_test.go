package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

func newGuardedEcho(tokens *auth.TokenService, mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		caller := Caller(c)
		return c.JSON(http.StatusOK, map[string]string{
			"id":   caller.SubjectID,
			"kind": string(caller.Kind),
			"role": caller.Role,
		})
	}, mw)
	return e
}

func get(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAccessGuard(t *testing.T) {
	tokens := auth.NewTokenService("acc", "ref", time.Minute, time.Hour, time.Minute)
	e := newGuardedEcho(tokens, AccessGuard(tokens))

	pair, err := tokens.IssuePair(auth.Payload{
		SubjectID: "u-1", Email: "u@example.com", Kind: model.KindUser, Role: model.AccountPremium,
	})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	rec := get(e, "Bearer "+pair.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, body = %s", rec.Code, rec.Body)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["id"] != "u-1" || body["kind"] != "user" || body["role"] != model.AccountPremium {
		t.Errorf("identity = %v", body)
	}

	if rec := get(e, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d, want 401", rec.Code)
	}
	if rec := get(e, "Basic abc"); rec.Code != http.StatusUnauthorized {
		t.Errorf("non-bearer: status = %d, want 401", rec.Code)
	}
	// Refresh tokens never pass the access guard.
	if rec := get(e, "Bearer "+pair.RefreshToken); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token: status = %d, want 401", rec.Code)
	}
}

func TestAccessGuardExpiredMessage(t *testing.T) {
	stale := auth.NewTokenService("acc", "ref", -time.Minute, -time.Minute, -time.Minute)
	live := auth.NewTokenService("acc", "ref", time.Minute, time.Hour, time.Minute)
	e := newGuardedEcho(live, AccessGuard(live))

	tok, err := stale.IssueAccessToken(auth.Payload{SubjectID: "u-1", Kind: model.KindUser})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	rec := get(e, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "token expired" {
		t.Errorf("error = %q, want distinct expiry message", body["error"])
	}
}

func TestRefreshGuardKeepsRawToken(t *testing.T) {
	tokens := auth.NewTokenService("acc", "ref", time.Minute, time.Hour, time.Minute)
	e := echo.New()
	e.GET("/refresh", func(c echo.Context) error {
		raw, _ := c.Get(CtxRefreshToken).(string)
		return c.String(http.StatusOK, raw)
	}, RefreshGuard(tokens))

	pair, err := tokens.IssuePair(auth.Payload{SubjectID: "a-1", Kind: model.KindAdmin, Role: model.RoleSuper})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != pair.RefreshToken {
		t.Error("raw refresh token not available in context")
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenService("acc", "ref", time.Minute, time.Hour, time.Minute)
	e := echo.New()
	g := e.Group("", AccessGuard(tokens))
	g.GET("/any", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireAdmin())
	g.GET("/super", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireAdmin(model.RoleSuper))

	sign := func(kind model.Kind, role string) string {
		pair, err := tokens.IssuePair(auth.Payload{SubjectID: "x", Kind: kind, Role: role})
		if err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
		return pair.AccessToken
	}
	call := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	support := sign(model.KindAdmin, model.RoleSupport)
	super := sign(model.KindAdmin, model.RoleSuper)
	user := sign(model.KindUser, model.AccountPremium)

	if code := call("/any", support); code != http.StatusOK {
		t.Errorf("support on /any: %d", code)
	}
	if code := call("/any", user); code != http.StatusForbidden {
		t.Errorf("user on /any: %d, want 403", code)
	}
	if code := call("/super", super); code != http.StatusOK {
		t.Errorf("super on /super: %d", code)
	}
	if code := call("/super", support); code != http.StatusForbidden {
		t.Errorf("support on /super: %d, want 403", code)
	}
}
