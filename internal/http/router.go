// Package httpapi wires the HTTP transport (Gin) to the marketplace services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/config"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/events"
	"github.com/planora/planora-backend/internal/http/handlers"
	"github.com/planora/planora-backend/internal/http/middleware"
	"github.com/planora/planora-backend/internal/rating"
	"github.com/planora/planora-backend/internal/repo"
	"github.com/planora/planora-backend/internal/services"
)

// UploadsPath is the URL prefix under which stored uploads are served.
const UploadsPath = "/uploads"

// multipartSlack covers form fields and part headers on top of the file bytes.
const multipartSlack = 1 << 20

// Deps carries the infrastructure RegisterRoutes wires into the services.
// Events and Limiter are optional: nil means no-op publishing and the
// in-process token bucket from cfg.
type Deps struct {
	DB      *gorm.DB
	Tokens  *auth.Tokens
	Files   services.FileStore
	Bot     services.Replier
	Images  services.ImageGenerator
	Events  events.Publisher
	Limiter middleware.Limiter
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the marketplace API under cfg.APIBasePath.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. ScopedLogger: request-scoped zerolog logger
//  4. RedactingLogger: access log with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter (JSON and multipart caps)
//  7. Metrics
//  8. gzip, CORS and security headers
//
// API routes then split into a public group (rate limited per IP) and a
// protected group: Authenticate, then the idempotency validator, then the
// rate limiter keyed by user, so replays skip the limiter.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 8 << 20

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.ScopedLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())

	uploadCap := cfg.Upload.MaxFileBytes*int64(max(cfg.Upload.MaxFiles, 1)) + multipartSlack
	r.Use(limitBody(cfg.MaxBodyBytes, uploadCap))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", UploadsPath})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	api := cfg.APIBasePath
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStorePaths: []string{joinPath(api, "/login"), joinPath(api, "/register"), joinPath(api, "/users/"), joinPath(api, "/professionals/")},
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(d.DB))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.Static(UploadsPath, cfg.Upload.Dir)

	h := handlers.New(buildServices(d, cfg))

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	}
	idem := repo.IdempotencyStore{DB: d.DB, TTL: cfg.IdempotencyTTL}

	base := groupWithPrefix(r, api)
	public := base.Group("", limiter.Handler())
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/professional-register", h.RegisterProfessional)

		public.GET("/professionals", h.ListProfessionals)
		public.GET("/professionals/:id", h.GetProfessional)
		public.GET("/projects", h.ListProjects)
		public.GET("/projects/:id", h.GetProject)

		public.POST("/generate-design", h.GenerateDesign)
	}

	protected := base.Group("",
		middleware.Authenticate(auth.NewGate(d.Tokens)),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Lookup),
		limiter.Handler(),
	)
	{
		protected.PUT("/users/:id/update", h.UpdateUser)
		protected.PUT("/professionals/:id/update", h.UpdateProfessional)

		protected.POST("/projects", h.CreateProject)
		protected.POST("/reviews", h.SubmitReview)

		protected.POST("/requirements", h.SubmitRequirements)
		protected.GET("/requirements", h.ListRequirements)
		protected.POST("/cost-estimate", h.CostEstimate)
		protected.GET("/cost-estimates", h.ListEstimates)

		protected.POST("/chat", h.Chat)
		protected.GET("/chat", h.ChatHistory)

		protected.POST("/bookings", h.CreateBooking)
		protected.GET("/bookings", h.ListUserBookings)
		protected.GET("/bookings/user", h.ListUserBookings)
		protected.GET("/bookings/professional", middleware.RequireRole(auth.RoleProfessional), h.ListProfessionalBookings)

		protected.POST("/collaborations", h.UploadCollaboration)
		protected.GET("/collaborations/:projectId", h.ListCollaborations)
	}
}

// buildServices assembles the services over GORM-backed document stores.
func buildServices(d Deps, cfg config.Config) handlers.Deps {
	var (
		users    = repo.NewStore[domain.User](d.DB)
		pros     = repo.NewStore[domain.Professional](d.DB)
		projects = repo.NewStore[domain.Project](d.DB)
		reviews  = repo.NewStore[domain.Review](d.DB)
		bookings = repo.NewStore[domain.Booking](d.DB)
	)
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}

	return handlers.Deps{
		Accounts: &services.AccountService{Users: users, Professionals: pros, Tokens: d.Tokens, Files: d.Files},
		Professionals: &services.ProfessionalService{
			Professionals: pros, Projects: projects, Reviews: reviews,
		},
		Projects: &services.ProjectService{
			DB: d.DB, Projects: projects, Professionals: pros, Files: d.Files, MaxImages: cfg.Upload.MaxFiles,
		},
		Reviews: &services.ReviewService{
			Reviews:       reviews,
			Users:         users,
			Professionals: pros,
			Ratings:       &rating.Engine{Reviews: reviews, Professionals: pros},
			Events:        pub,
		},
		Requirements:   &services.RequirementService{Requirements: repo.NewStore[domain.Requirement](d.DB)},
		Estimates:      &services.EstimateService{Estimates: repo.NewStore[domain.CostEstimate](d.DB)},
		Designs:        &services.DesignService{Generator: d.Images, Files: d.Files},
		Chat:           &services.ChatService{Messages: repo.NewStore[domain.ChatMessage](d.DB), Bot: d.Bot},
		Bookings:       &services.BookingService{Bookings: bookings, Users: users, Professionals: pros, Events: pub},
		Collaborations: &services.CollaborationService{Collaborations: repo.NewStore[domain.Collaboration](d.DB), Files: d.Files},
		Idempotency:    repo.IdempotencyStore{DB: d.DB, TTL: cfg.IdempotencyTTL},
	}
}

// health pings the database so a broken pool reports 503.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// corsMiddleware returns the CORS posture: allow-all without credentials
// when no origins are configured, otherwise an allowlist echoed back.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	methods := []string{"GET", "POST", "PUT", "OPTIONS"}
	expose := []string{"X-Request-ID", "Content-Length", "Retry-After"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// ACAO even for requests without an Origin header (health checks, curl).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     headers,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     headers,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body with http.MaxBytesReader: multipart
// requests get multipartMax, everything else jsonMax. A cap <= 0 disables
// the respective limit.
func limitBody(jsonMax, multipartMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := jsonMax
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = multipartMax
		}
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	return strings.TrimRight(base, "/") + p
}
