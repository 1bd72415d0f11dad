// Package handlers exposes the marketplace REST endpoints.
//
// Handlers are transport-thin: they bind and validate request input, call
// the application services through the interfaces below, and translate
// results and errors into HTTP responses. Authentication happens upstream in
// middleware.Authenticate; handlers read the caller with identity(c).
package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/estimate"
	"github.com/planora/planora-backend/internal/http/middleware"
	"github.com/planora/planora-backend/internal/rating"
	"github.com/planora/planora-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AccountService registers, authenticates and updates accounts.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, email, password, role string) (*services.Session, error)
	UpdateUser(ctx context.Context, caller auth.Identity, userID string, in services.UserPatch) (*domain.User, string, error)
	RegisterProfessional(ctx context.Context, in services.ProfessionalInput, degree *services.Upload) (string, error)
	UpdateProfessional(ctx context.Context, caller auth.Identity, professionalID string, in services.ProfessionalPatch, docs map[string]services.Upload) (*domain.Professional, string, error)
}

// ProfessionalService serves the public directory.
type ProfessionalService interface {
	List(ctx context.Context, f services.ProfessionalFilter) ([]domain.Professional, error)
	Profile(ctx context.Context, id string) (*services.ProfessionalProfile, error)
}

// ProjectService lists, reads and creates portfolio projects.
type ProjectService interface {
	List(ctx context.Context, category, location string) ([]domain.Project, error)
	Get(ctx context.Context, id string) (*services.ProjectDetail, error)
	Create(ctx context.Context, caller auth.Identity, in services.ProjectInput, images []services.Upload) (string, error)
}

// ReviewService stores reviews and refreshes the rating aggregate.
type ReviewService interface {
	Submit(ctx context.Context, caller auth.Identity, in services.ReviewInput) (string, rating.Aggregate, error)
}

// RequirementService stores free-form project briefs.
type RequirementService interface {
	Submit(ctx context.Context, userID string, details map[string]any) (string, error)
	List(ctx context.Context, userID string) ([]domain.Requirement, error)
}

// EstimateService prices renovations and keeps the audit trail.
type EstimateService interface {
	Estimate(ctx context.Context, userID string, in services.EstimateInput) (string, estimate.Breakdown, error)
	List(ctx context.Context, userID string) ([]domain.CostEstimate, error)
}

// DesignService produces an AI rendering of a room photo.
type DesignService interface {
	Generate(ctx context.Context, style string, image *services.Upload) (string, error)
}

// ChatService answers with the scripted assistant and keeps history.
type ChatService interface {
	Send(ctx context.Context, userID, message, contextType string) (*domain.ChatMessage, error)
	History(ctx context.Context, userID string) ([]domain.ChatMessage, error)
}

// BookingService manages consultation requests.
type BookingService interface {
	Create(ctx context.Context, caller auth.Identity, in services.BookingInput) (string, error)
	ListForUser(ctx context.Context, userID string) ([]services.BookingView, error)
	ListForProfessional(ctx context.Context, caller auth.Identity) ([]services.BookingView, error)
}

// CollaborationService shares files on a project.
type CollaborationService interface {
	Upload(ctx context.Context, caller auth.Identity, projectID, description string, file *services.Upload) (string, error)
	List(ctx context.Context, projectID string) ([]domain.Collaboration, error)
}

// IdempotencyRecorder stores the outcome of a create request sent with an
// Idempotency-Key. repo.IdempotencyStore satisfies it.
type IdempotencyRecorder interface {
	Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Deps lists the services the handlers call. Idempotency may be nil, in
// which case keys are validated but never recorded.
type Deps struct {
	Accounts       AccountService
	Professionals  ProfessionalService
	Projects       ProjectService
	Reviews        ReviewService
	Requirements   RequirementService
	Estimates      EstimateService
	Designs        DesignService
	Chat           ChatService
	Bookings       BookingService
	Collaborations CollaborationService
	Idempotency    IdempotencyRecorder
}

// Handlers groups every marketplace endpoint.
type Handlers struct {
	accounts       AccountService
	professionals  ProfessionalService
	projects       ProjectService
	reviews        ReviewService
	requirements   RequirementService
	estimates      EstimateService
	designs        DesignService
	chat           ChatService
	bookings       BookingService
	collaborations CollaborationService
	idem           IdempotencyRecorder
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		accounts:       d.Accounts,
		professionals:  d.Professionals,
		projects:       d.Projects,
		reviews:        d.Reviews,
		requirements:   d.Requirements,
		estimates:      d.Estimates,
		designs:        d.Designs,
		chat:           d.Chat,
		bookings:       d.Bookings,
		collaborations: d.Collaborations,
		idem:           d.Idempotency,
	}
}

// identity returns the authenticated caller. Routes registered without
// Authenticate get a zero Identity, which every owner check rejects.
func identity(c *gin.Context) auth.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// remember records a completed create under the request's Idempotency-Key.
// Failures are logged; the resource already exists so the response stands.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok || h.idem == nil {
		return
	}
	scope := middleware.IdempotencyScope(c)
	if err := h.idem.Remember(c.Request.Context(), identity(c).ID, scope, key, resourceID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record failed")
	}
}

//
// Multipart helpers
//

// formUpload opens a single file field. A missing field, or a request that
// is not multipart at all, yields a nil upload and a no-op closer.
func formUpload(c *gin.Context, field string) (*services.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return openUpload(fh)
}

// formUploads opens every file sent under field, in form order.
func formUploads(c *gin.Context, field string) ([]services.Upload, func(), error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	var (
		out     []services.Upload
		closers []func()
	)
	closeAll := func() {
		for _, cl := range closers {
			cl()
		}
	}
	for _, fh := range form.File[field] {
		up, cl, err := openUpload(fh)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		out = append(out, *up)
		closers = append(closers, cl)
	}
	return out, closeAll, nil
}

func openUpload(fh *multipart.FileHeader) (*services.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &services.Upload{Name: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

// badForm answers a multipart parse failure.
func badForm(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
		return
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart form")
}
