// Review and booking HTTP handlers.
//
//   - POST /reviews                (Idempotency-Key aware)
//   - POST /bookings               (Idempotency-Key aware)
//   - GET  /bookings, /bookings/user
//   - GET  /bookings/professional  (professional role only)
//
// Both create endpoints honor middleware.IdempotencyValidator: a repeated key
// answers with the resource created by the first request and inserts nothing.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/http/middleware"
	"github.com/planora/planora-backend/internal/services"
	"github.com/planora/planora-backend/internal/utils"
)

// headerReplay marks a response served from a stored idempotency record.
const headerReplay = "Idempotent-Replay"

// SubmitReviewRequest is the review payload. Rating accepts a JSON number or
// a numeric string.
type SubmitReviewRequest struct {
	ProfessionalID string          `json:"professional_id" example:"5f0c3c1e-7d1b-4b55-9a57-1f3f0c2b9e11"`
	ProjectID      string          `json:"project_id"      example:"a3f1c2d4-0b8e-4f6a-9c11-2e5d7b8a9f00"`
	Rating         utils.FlexFloat `json:"rating"          swaggertype:"number" example:"4.5"`
	ReviewText     string          `json:"review_text"     example:"Clean work, finished on time."`
}

// ReviewSubmittedResponse acknowledges a stored review.
type ReviewSubmittedResponse struct {
	Message  string `json:"message"  example:"Review submitted"`
	ReviewID string `json:"reviewId" example:"0f1e2d3c-4b5a-6978-8a9b-0c1d2e3f4a5b"`
}

// CreateBookingRequest is the consultation request payload.
type CreateBookingRequest struct {
	ProfessionalID string `json:"professional_id" example:"5f0c3c1e-7d1b-4b55-9a57-1f3f0c2b9e11"`
	BookingDate    string `json:"booking_date"    example:"2026-11-02"`
	BookingTime    string `json:"booking_time"    example:"10:30"`
	Message        string `json:"message"         example:"Kitchen remodel, 120 sq ft"`
}

// BookingCreatedResponse acknowledges a stored booking.
type BookingCreatedResponse struct {
	Message   string `json:"message"   example:"Booking request sent"`
	BookingID string `json:"bookingId" example:"7c6b5a49-3827-4165-a0b1-c2d3e4f5a6b7"`
}

// SubmitReview godoc
// @ID          submitReview
// @Summary     Review a professional
// @Description Stores the review and recomputes the professional's average rating and review count.
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                        false  "Retry-safe key"
// @Param       body             body      handlers.SubmitReviewRequest  true   "Review"
// @Success     201  {object}  handlers.ReviewSubmittedResponse
// @Success     200  {object}  handlers.ReviewSubmittedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Rating outside 1..5"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown professional"
// @Router      /reviews [post]
func (h *Handlers) SubmitReview(c *gin.Context) {
	if rid, replay := middleware.ReplayedResource(c); replay {
		c.Header(headerReplay, "true")
		ok(c, http.StatusOK, ReviewSubmittedResponse{Message: "Review submitted", ReviewID: rid})
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, utils.ErrNotNumber) {
			msg = "rating must be a number"
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return
	}
	if !req.Rating.Set {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "rating is required")
		return
	}

	id, agg, err := h.reviews.Submit(c.Request.Context(), identity(c), services.ReviewInput{
		ProfessionalID: req.ProfessionalID,
		ProjectID:      req.ProjectID,
		Rating:         req.Rating.Value,
		ReviewText:     req.ReviewText,
	})
	if err != nil {
		// The review is stored even when the aggregate refresh failed; a retry
		// must not insert it twice.
		if id != "" {
			h.remember(c, id, http.StatusCreated)
		}
		failFromError(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().
		Str("review_id", id).
		Float64("rating_avg", agg.Rating).
		Int("total_reviews", agg.TotalReviews).
		Msg("review submitted")

	h.remember(c, id, http.StatusCreated)
	ok(c, http.StatusCreated, ReviewSubmittedResponse{Message: "Review submitted", ReviewID: id})
}

// CreateBooking godoc
// @ID          createBooking
// @Summary     Request a consultation
// @Tags        Bookings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                         false  "Retry-safe key"
// @Param       body             body      handlers.CreateBookingRequest  true   "Booking"
// @Success     201  {object}  handlers.BookingCreatedResponse
// @Success     200  {object}  handlers.BookingCreatedResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown professional"
// @Router      /bookings [post]
func (h *Handlers) CreateBooking(c *gin.Context) {
	if rid, replay := middleware.ReplayedResource(c); replay {
		c.Header(headerReplay, "true")
		ok(c, http.StatusOK, BookingCreatedResponse{Message: "Booking request sent", BookingID: rid})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	id, err := h.bookings.Create(c.Request.Context(), identity(c), services.BookingInput{
		ProfessionalID: req.ProfessionalID,
		BookingDate:    req.BookingDate,
		BookingTime:    req.BookingTime,
		Message:        req.Message,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	h.remember(c, id, http.StatusCreated)
	ok(c, http.StatusCreated, BookingCreatedResponse{Message: "Booking request sent", BookingID: id})
}

// ListUserBookings godoc
// @ID          listUserBookings
// @Summary     Own bookings
// @Description Bookings made by the caller, newest first, with the professional's name and specialization.
// @Tags        Bookings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   services.BookingView
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /bookings/user [get]
func (h *Handlers) ListUserBookings(c *gin.Context) {
	views, err := h.bookings.ListForUser(c.Request.Context(), identity(c).ID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if views == nil {
		views = []services.BookingView{}
	}
	ok(c, http.StatusOK, views)
}

// ListProfessionalBookings godoc
// @ID          listProfessionalBookings
// @Summary     Bookings addressed to the calling professional
// @Tags        Bookings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   services.BookingView
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a professional"
// @Router      /bookings/professional [get]
func (h *Handlers) ListProfessionalBookings(c *gin.Context) {
	views, err := h.bookings.ListForProfessional(c.Request.Context(), identity(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	if views == nil {
		views = []services.BookingView{}
	}
	ok(c, http.StatusOK, views)
}
