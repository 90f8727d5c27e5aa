package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireRole(t *testing.T) {
	e := echo.New()
	h := RequireRole(model.RoleDriver, model.RoleAdmin)(ok)

	for role, want := range map[string]int{
		"DRIVER":    http.StatusOK,
		"ADMIN":     http.StatusOK,
		"PASSENGER": http.StatusForbidden,
		"":          http.StatusForbidden,
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if role != "" {
			c.Set(CtxRole, role)
		}
		if err := h(c); err != nil {
			t.Fatal(err)
		}
		if rec.Code != want {
			t.Errorf("role %q: status %d, want %d", role, rec.Code, want)
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/passenger/rides/search", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/passenger/rides/search")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	if got := buildRateKey(cfg, c); got != "rl:ip:10.0.0.1:user:anon" {
		t.Fatalf("anonymous key = %q", got)
	}

	c.Set(CtxUserID, "42")
	cfg.KeyStrategy = "user_route"
	if got := buildRateKey(cfg, c); got != "rl:user:42:route:GET /v1/passenger/rides/search" {
		t.Fatalf("user_route key = %q", got)
	}
}

func TestCacheKeyIsPerUser(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache"}
	key := func(user string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/s?departureCity=Tunis", nil), httptest.NewRecorder())
		c.SetPath("/s")
		c.Set(CtxUserID, user)
		return cacheKeyFrom(cfg, c, 0)
	}
	if key("1") == key("2") {
		t.Fatal("two users share a cache entry")
	}
	if key("1") != key("1") || !strings.HasPrefix(key("1"), "cache:") {
		t.Fatalf("key = %q", key("1"))
	}
}

func TestCacheKeyFollowsGeneration(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache"}
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/s?departureCity=Tunis", nil), httptest.NewRecorder())
	c.SetPath("/s")
	c.Set(CtxUserID, "1")
	if cacheKeyFrom(cfg, c, 1) == cacheKeyFrom(cfg, c, 2) {
		t.Fatal("a new generation must not reuse older entries")
	}
	if generationKey(cfg) != "cache:gen" {
		t.Fatalf("generation key = %q", generationKey(cfg))
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	h := http.Header{"Content-Type": {"application/json"}}
	raw, err := encodePayload(http.StatusOK, h, []byte(`[1,2]`))
	if err != nil {
		t.Fatal(err)
	}
	status, hdr, body, ok := decodePayload(raw)
	if !ok || status != http.StatusOK || hdr.Get("Content-Type") != "application/json" || string(body) != "[1,2]" {
		t.Fatalf("decoded %d %v %q %v", status, hdr, body, ok)
	}
	if _, _, _, ok := decodePayload(raw[:5]); ok {
		t.Fatal("truncated payload accepted")
	}
}

func TestPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	cache := config.CacheConfig{Enabled: true}
	h := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)(
		NewRedisCache(cache, nil)(NewCacheInvalidator(cache, nil)(ok)))
	if err := h(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("status %d, err %v", rec.Code, err)
	}
}
