package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// withUser stands in for Authenticate.
func withUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

type lookupCall struct{ user, scope, key string }

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) || IsRateBypass(c) {
		t.Fatalf("expected no replay by default")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemResource, "rev-1")
	if rid, ok := ReplayedResource(c); !ok || rid != "rev-1" || !IsReplay(c) {
		t.Fatalf("ReplayedResource = %q %v", rid, ok)
	}
}

func TestIdempotencyValidator_SkipsWithoutHeaderOrForGET(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	lookup := func(context.Context, string, string, string) (string, bool, error) {
		called = true
		return "", false, nil
	}
	r := gin.New()
	r.Use(withUser("u1"), IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.Any("/reviews", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/reviews", nil))
	req := httptest.NewRequest(http.MethodGet, "/reviews", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if called {
		t.Fatalf("lookup must not run without a header or on GET")
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 8, Pattern: regexp.MustCompile(`^[a-z0-9]+$`)}, nil))
	r.POST("/bookings", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for _, key := range []string{"waytoolongkey", "UPPER", "has space"} {
		t.Run(key, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
			req.Header.Set(HeaderIdempotencyKey, key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("key %q -> %d; want 400", key, w.Code)
			}
			var body map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["code"] != "bad_request" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_ReplayMarksContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls []lookupCall
	lookup := func(_ context.Context, user, scope, key string) (string, bool, error) {
		calls = append(calls, lookupCall{user, scope, key})
		if key == "seen" {
			return "rev-9", true, nil
		}
		return "", false, nil
	}

	r := gin.New()
	r.Use(withUser("u1"), IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/api/reviews", func(c *gin.Context) {
		rid, replay := ReplayedResource(c)
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"replay": replay, "rid": rid, "bypass": IsRateBypass(c), "key": key})
	})

	for _, tc := range []struct {
		key    string
		replay bool
	}{{"seen", true}, {"fresh", false}} {
		req := httptest.NewRequest(http.MethodPost, "/api/reviews", nil)
		req.Header.Set(HeaderIdempotencyKey, tc.key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		if body["replay"] != tc.replay || body["bypass"] != tc.replay || body["key"] != tc.key {
			t.Fatalf("key %s: unexpected context state %v", tc.key, body)
		}
	}

	if len(calls) != 2 || calls[0] != (lookupCall{"u1", "/api/reviews", "seen"}) {
		t.Fatalf("lookup calls: %+v", calls)
	}
}

func TestIdempotencyValidator_LookupErrorProceeds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	lookup := func(context.Context, string, string, string) (string, bool, error) {
		return "", false, errors.New("db down")
	}
	r := gin.New()
	r.Use(withUser("u1"), IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/bookings", func(c *gin.Context) {
		if IsReplay(c) {
			t.Fatalf("lookup error must not be treated as replay")
		}
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") {
		t.Fatalf("expected warning log, got %s", buf.String())
	}
}
