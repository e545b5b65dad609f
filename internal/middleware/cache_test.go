package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/crm-backend/internal/config"
)

func newCachedEcho(t *testing.T, cfg config.CacheConfig) (*echo.Echo, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hits := 0
	e := echo.New()
	e.Use(ResponseCache(cfg, rdb))
	e.GET("/items", func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, map[string]int{"render": hits})
	})
	e.POST("/items", func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, map[string]int{"render": hits})
	})
	return e, &hits
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "cache-test",
		MaxBodyBytes: 1 << 20,
	}
}

func TestResponseCacheServesRepeatedReads(t *testing.T) {
	e, hits := newCachedEcho(t, cacheCfg())

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/items?page=1", nil))
	if first.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first read X-Cache = %q, want MISS", first.Header().Get("X-Cache"))
	}

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/items?page=1", nil))
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second read X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if *hits != 1 {
		t.Errorf("handler rendered %d times, want 1", *hits)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached body %q differs from original %q", second.Body, first.Body)
	}

	// A different query string is a different entry.
	third := httptest.NewRecorder()
	e.ServeHTTP(third, httptest.NewRequest(http.MethodGet, "/items?page=2", nil))
	if third.Header().Get("X-Cache") != "MISS" {
		t.Errorf("different query X-Cache = %q, want MISS", third.Header().Get("X-Cache"))
	}
}

func TestResponseCacheSkipsUnlistedMethods(t *testing.T) {
	e, hits := newCachedEcho(t, cacheCfg())

	for i := 1; i <= 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items", nil))
		if got := rec.Header().Get("X-Cache"); got != "" {
			t.Errorf("POST %d: X-Cache = %q, want unset", i, got)
		}
	}
	if *hits != 2 {
		t.Errorf("handler rendered %d times, want 2", *hits)
	}
}

func TestResponseCacheSkipsOversizedBodies(t *testing.T) {
	cfg := cacheCfg()
	cfg.MaxBodyBytes = 8

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hits := 0
	e := echo.New()
	e.Use(ResponseCache(cfg, rdb))
	e.GET("/big", func(c echo.Context) error {
		hits++
		return c.String(http.StatusOK, "payload larger than the cap "+strconv.Itoa(hits))
	})

	for i := 1; i <= 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/big", nil))
		if rec.Header().Get("X-Cache") == "HIT" {
			t.Errorf("request %d served from cache despite size cap", i)
		}
	}
	if hits != 2 {
		t.Errorf("handler rendered %d times, want 2", hits)
	}
}

func TestResponseCacheDisabled(t *testing.T) {
	e := echo.New()
	e.Use(ResponseCache(config.CacheConfig{Enabled: false}, nil))
	e.GET("/items", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Cache"); got != "" {
		t.Errorf("X-Cache = %q, want unset", got)
	}
}
