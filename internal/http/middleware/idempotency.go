// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for create requests. It validates
// an Idempotency-Key header, asks a lookup whether the same caller already
// completed the same route with that key, and annotates the Gin context so:
//   - handlers read the key (GetIdempotencyKey) and the stored resource id
//     (ReplayedResource) and answer a replay without inserting again
//   - the rate limiter skips replays (IsRateBypass)
//
// The scope of a key is the route template, so one key may be reused on
// different routes. Persistence stays behind IdempotencyLookup.
package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemResource = "idem.resource" // string: id created by the first request
	ctxKeyRateBypass   = "rate.bypass"   // bool: true to skip rate limiting
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// ReplayedResource returns the resource id recorded for this key, when the
// request repeats one that already completed.
func ReplayedResource(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemResource)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the request repeats a completed one.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayedResource(c)
	return ok
}

// IdempotencyScope is the scope under which a route's keys are stored.
func IdempotencyScope(c *gin.Context) string { return routePath(c) }

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the resource id stored for (userID, scope, key)
// when a still-valid record exists. Expiry is the lookup's concern.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string) (resourceID string, found bool, err error)

// IdempotencyValidator must run after Authenticate.
//
// Behavior:
//   - header absent: no-op
//   - header invalid: 400 bad_request
//   - lookup hit: replay flag and rate bypass set
//   - lookup error: logged, the request proceeds as a first attempt
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_request", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			scope := IdempotencyScope(c)
			rid, found, err := lookup(c.Request.Context(), c.GetString(ctxKeyUserID), scope, key)
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemResource, rid)
				c.Set(ctxKeyRateBypass, true)
				idempotentReplays.WithLabelValues(scope).Inc()
			}
		}

		c.Next()
	}
}
