// Command api runs the Planora marketplace HTTP server.
//
//	@title						Planora API
//	@version					1.0
//	@description				Home-services marketplace: professionals, portfolios, reviews, bookings, estimates and an assistant.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/planora/planora-backend/docs"
	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/chatbot"
	"github.com/planora/planora-backend/internal/config"
	"github.com/planora/planora-backend/internal/events"
	httpapi "github.com/planora/planora-backend/internal/http"
	"github.com/planora/planora-backend/internal/http/middleware"
	"github.com/planora/planora-backend/internal/imagegen"
	"github.com/planora/planora-backend/internal/observability"
	"github.com/planora/planora-backend/internal/repo"
	"github.com/planora/planora-backend/internal/storage"
	"github.com/planora/planora-backend/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("application error")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logs, err := sysutil.SetupLogger(sysutil.LogOptions{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Dir: cfg.LogDir})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logs.Close()
	gin.SetMode(cfg.GinMode)

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	log.Info().Str("version", version).Str("port", cfg.Port).Str("db_driver", cfg.DBDriver).Msg("starting planora")

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdownOTel = func(context.Context) error { return nil }
	}

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if cfg.OTEL.Enabled {
		if err := repo.UseTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin not registered")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	files, err := storage.NewLocal(cfg.Upload.Dir, httpapi.UploadsPath, cfg.Upload.MaxFileBytes)
	if err != nil {
		return fmt.Errorf("upload storage: %w", err)
	}

	var faq chatbot.FAQ
	if cfg.Chatbot.FAQPath != "" {
		if faq, err = chatbot.LoadFAQ(cfg.Chatbot.FAQPath); err != nil {
			return fmt.Errorf("chatbot faq: %w", err)
		}
		log.Info().Str("path", cfg.Chatbot.FAQPath).Msg("chatbot faq loaded")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("publishing domain events")
	}

	var (
		limiter middleware.Limiter
		rdb     *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup; limiter falls back per request")
		}
		limiter = middleware.NewRedisRateLimiter(rdb, cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	}

	router := gin.New()
	httpapi.RegisterRoutes(router, httpapi.Deps{
		DB:      db,
		Tokens:  auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer),
		Files:   files,
		Bot:     chatbot.New(faq, cfg.Chatbot.Threshold),
		Images:  imagegen.New(cfg.ImageGen.Endpoint, cfg.ImageGen.APIKey, cfg.ImageGen.Timeout),
		Events:  publisher,
		Limiter: limiter,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown error")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}
	if err := closeDB(db); err != nil {
		log.Error().Err(err).Msg("database close error")
	}

	log.Info().Msg("planora stopped")
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
