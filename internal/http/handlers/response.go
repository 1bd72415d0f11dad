// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by every endpoint: the
// error envelope, the mapping from service errors onto status codes, and
// small helpers for success bodies. All failures go through fail so 5xx
// responses are logged with the request-scoped logger.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "error": "Professional not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "message": "Review submitted", "reviewId": "abc123" }
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/estimate"
	"github.com/planora/planora-backend/internal/http/middleware"
	"github.com/planora/planora-backend/internal/imagegen"
	"github.com/planora/planora-backend/internal/services"
	"github.com/planora/planora-backend/internal/storage"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Error string `json:"error" example:"Professional not found"`
	// Upstream detail, only set for failed image generation
	Details string `json:"details,omitempty"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Profile updated"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failWithDetails(c, status, code, msg, "")
}

func failWithDetails(c *gin.Context, status int, code, msg, details string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Error:     msg,
		Details:   details,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router and middleware.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failFromError translates an error returned by a service or the auth
// package into the matching status and code. Unknown errors are 500 and
// their text is only logged.
func failFromError(c *gin.Context, err error) {
	var upstream *imagegen.UpstreamError
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Access token required")
	case errors.Is(err, auth.ErrInvalidCredential):
		fail(c, http.StatusForbidden, ErrCodeInvalidToken, "Invalid or expired token")
	case errors.Is(err, auth.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Unauthorized")

	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrMissingFile),
		errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, estimate.ErrInvalidArea),
		errors.Is(err, storage.ErrTooLarge):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())

	case errors.Is(err, services.ErrAccountExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "User already exists")
	case errors.Is(err, services.ErrBadCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrAccountNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
	case errors.Is(err, services.ErrProfessionalNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Professional not found")
	case errors.Is(err, services.ErrProjectNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Project not found")

	case errors.As(err, &upstream):
		middleware.LoggerFrom(c).Warn().Int("upstream_status", upstream.Status).Msg("image generation rejected")
		failWithDetails(c, http.StatusInternalServerError, ErrCodeUpstreamFailed, "AI generation failed", upstream.Body)
	case errors.Is(err, imagegen.ErrEmptyImage):
		failWithDetails(c, http.StatusInternalServerError, ErrCodeUpstreamFailed, "AI generation failed", err.Error())

	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
