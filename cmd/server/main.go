// Package main is the entry point for the Gaming Hub portal server.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaminghub/portal/internal/config"
	"github.com/gaminghub/portal/internal/database"
	"github.com/gaminghub/portal/internal/handler/web"
	"github.com/gaminghub/portal/internal/mailer"
	"github.com/gaminghub/portal/internal/middleware"
	"github.com/gaminghub/portal/internal/repository"
	"github.com/gaminghub/portal/internal/service"
	"github.com/gaminghub/portal/templates/pages"
)

func main() {
	// Setup structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Starting Gaming Hub portal",
		slog.String("environment", cfg.Server.Environment),
		slog.Int("port", cfg.Server.Port),
	)

	// Connect to MongoDB
	db, err := database.NewMongo(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to mongodb: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to MongoDB")

	// Ensure collection indexes
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		cancelIndex()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIndex()
	logger.Info("Collection indexes ensured")

	// Wire repositories, mail transport and the auth service
	users := repository.NewUserRepository(db.Database())
	codes := repository.NewCodeRepository(db.Database())
	events := repository.NewLoginEventRepository(db.Database())
	dispatcher := mailer.NewSMTPDispatcher(cfg.SMTP)

	authService := service.NewAuthService(users, codes, events, dispatcher, logger, service.Options{
		SiteName:      cfg.Site.Name,
		CodeTTL:       cfg.Auth.CodeTTL,
		AdminPassword: cfg.Auth.AdminPassword,
	})

	// Cookie sessions, signed with the configured secret
	sessionStore := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))

	webHandler := web.NewWebHandler(authService, sessionStore, logger, pages.Site{
		Name:       cfg.Site.Name,
		ContactURL: cfg.Site.ContactURL,
	})

	// Setup router
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Prometheus metrics endpoint (no auth required)
	r.Handle("/metrics", promhttp.Handler())

	// Portal routes
	r.Mount("/", webHandler.Routes())

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	logger.Info("Server stopped gracefully")
}
