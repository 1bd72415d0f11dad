// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file guards protected routes. Authenticate runs the Authorization
// header through the access gate, stores the verified identity in the Gin
// context, and enriches the request-scoped logger with the caller. Handlers
// read the identity back with IdentityFrom.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/planora/planora-backend/internal/auth"
)

const (
	ctxKeyIdentity = "identity"
	ctxKeyUserID   = "userID"
)

// Authorizer turns an Authorization header value into an identity.
// *auth.Gate satisfies it.
type Authorizer interface {
	Authorize(header string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid bearer credential.
//
// Outcomes:
//   - no credential:      401 {"code":"unauthorized"}
//   - invalid credential: 403 {"code":"invalid_token"}
//   - success:            identity stored under "identity", its id under "userID"
//
// Every outcome is logged once with the route and result.
func Authenticate(gate Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gate.Authorize(c.GetHeader("Authorization"))
		lg := LoggerFrom(c)
		if err != nil {
			reason, status, code, msg := "invalid", http.StatusForbidden, "invalid_token", "Invalid or expired token"
			if errors.Is(err, auth.ErrMissingCredential) {
				reason, status, code, msg = "missing", http.StatusUnauthorized, "unauthorized", "Access token required"
			}
			authFailures.WithLabelValues(reason).Inc()
			lg.Warn().Str("path", routePath(c)).Str("outcome", reason).Msg("authentication failed")
			abortJSON(c, status, code, msg)
			return
		}

		c.Set(ctxKeyIdentity, id)
		c.Set(ctxKeyUserID, id.ID)

		scoped := lg.With().Str("user_id", id.ID).Str("role", string(id.Role)).Logger()
		loggerWithContext(c, &scoped)

		scoped.Info().Str("path", routePath(c)).Str("outcome", "ok").Msg("authenticated")
		c.Next()
	}
}

// RequireRole must run after Authenticate. It answers 403 unless the caller
// holds one of roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		if err := auth.RequireRole(id, roles...); err != nil {
			abortJSON(c, http.StatusForbidden, "forbidden", "Unauthorized")
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// abortJSON writes the shared error envelope. Handlers use their own fail
// helper; middleware cannot import the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"error":      msg,
	})
}

// routePath prefers the registered route template over the raw URL.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// loggerWithContext stores lg in the request context so code below the
// handler can reach it with zerolog.Ctx.
func loggerWithContext(c *gin.Context, lg *zerolog.Logger) {
	c.Set(ctxKeyLogger, lg)
	c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))
}
