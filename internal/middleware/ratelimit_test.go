package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/crm-backend/internal/config"
)

func newLimitedEcho(t *testing.T, cfg config.RateLimitConfig) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb))
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e, mr
}

func doGet(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketExhaustion(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl-test",
	}
	e, _ := newLimitedEcho(t, cfg)

	for i := 0; i < cfg.Capacity; i++ {
		if rec := doGet(e, "198.51.100.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := doGet(e, "198.51.100.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over capacity: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After header")
	}

	// A different client has its own bucket.
	if rec := doGet(e, "198.51.100.2"); rec.Code != http.StatusOK {
		t.Errorf("other ip: status = %d, want 200", rec.Code)
	}
}

func TestTokenBucketRefill(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: 50 * time.Millisecond,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl-test",
	}
	e, _ := newLimitedEcho(t, cfg)

	if rec := doGet(e, "198.51.100.1"); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rec.Code)
	}
	if rec := doGet(e, "198.51.100.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("drained bucket: status = %d, want 429", rec.Code)
	}

	time.Sleep(60 * time.Millisecond)
	if rec := doGet(e, "198.51.100.1"); rec.Code != http.StatusOK {
		t.Errorf("after refill: status = %d, want 200", rec.Code)
	}
}

func TestTokenBucketDisabledOrNoRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 20; i++ {
		if rec := doGet(e, "198.51.100.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d limited with limiter disabled", i+1)
		}
	}
}

func TestTokenBucketFailsOpenWhenRedisDies(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl-test",
	}
	e, mr := newLimitedEcho(t, cfg)
	mr.Close()

	for i := 0; i < 5; i++ {
		if rec := doGet(e, "198.51.100.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want fail-open 200", i+1, rec.Code)
		}
	}
}
