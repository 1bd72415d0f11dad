package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if key := KeyByUserOrIP()(c); !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-based key; got %q", key)
	}
	c.Set(ctxKeyUserID, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercion_AndVisitorReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("defaults not applied: burst=%d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_getVisitor_GC(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())
	rl.ttl = time.Nanosecond

	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = 4999
	rl.mu.Unlock()

	_ = rl.getVisitor("new")

	rl.mu.Lock()
	_, existsOld := rl.visitors["old"]
	_, existsNew := rl.visitors["new"]
	rl.mu.Unlock()
	if existsOld || !existsNew {
		t.Fatalf("old=%v new=%v", existsOld, existsNew)
	}
}

func TestRateLimiter_ZeroRateDisables(t *testing.T) {
	rl := NewRateLimiter(0, 1, nil)
	for i := 0; i < 100; i++ {
		if !rl.Allow("k") {
			t.Fatalf("rps=0 must not limit")
		}
	}
}

func TestRateLimiter_Handler_Allow_Deny_And_Bypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.5, 1, KeyByUserOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "rid-1"); c.Next() })
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After=2, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected JSON body: %v", body)
	}

	rBypass := gin.New()
	rBypass.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	rBypass.Use(rl.Handler())
	rBypass.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	w3 := httptest.NewRecorder()
	rBypass.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("bypass request should be allowed, got %d", w3.Code)
	}
}

type stubAllower struct {
	res  *redis_rate.Result
	err  error
	keys []string
}

func (s *stubAllower) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	s.keys = append(s.keys, key)
	return s.res, s.err
}

func TestRedisLimit(t *testing.T) {
	cases := []struct {
		rps   float64
		burst int
		want  redis_rate.Limit
	}{
		{5, 10, redis_rate.Limit{Rate: 5, Burst: 10, Period: time.Second}},
		{0.5, 0, redis_rate.Limit{Rate: 1, Burst: 1, Period: 2 * time.Second}},
		{0, 3, redis_rate.Limit{}},
	}
	for _, tc := range cases {
		if got := redisLimit(tc.rps, tc.burst); got != tc.want {
			t.Fatalf("redisLimit(%v, %d) = %+v; want %+v", tc.rps, tc.burst, got, tc.want)
		}
	}
}

func TestRedisRateLimiter_DeniedUsesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubAllower{res: &redis_rate.Result{Allowed: 0, RetryAfter: 3 * time.Second}}
	rl := &RedisRateLimiter{limiter: stub, limit: redisLimit(1, 1), keyFn: KeyByUserOrIP(), fallback: NewRateLimiter(1, 1, nil), prefix: "ratelimit:"}

	r := gin.New()
	r.Use(withUser("u7"), rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "3" {
		t.Fatalf("got %d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if len(stub.keys) != 1 || stub.keys[0] != "ratelimit:user:u7" {
		t.Fatalf("keys: %v", stub.keys)
	}

	stub.res = &redis_rate.Result{Allowed: 1}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("allowed request got %d", w.Code)
	}
}

func TestRedisRateLimiter_FallsBackWhenRedisFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_ = captureLogger(t)
	stub := &stubAllower{err: errors.New("connection refused")}
	rl := &RedisRateLimiter{limiter: stub, limit: redisLimit(1, 1), keyFn: KeyByUserOrIP(), fallback: NewRateLimiter(1, 1, nil), prefix: "ratelimit:"}

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("fallback should enforce local limits, got %v", codes)
	}
}

func TestNewRedisRateLimiter_UnreachableServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_ = captureLogger(t)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisRateLimiter(rdb, 10, 10, nil)
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("limiter must fail open to local buckets, got %d", w.Code)
	}
}
