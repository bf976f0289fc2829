// Package server wires the HTTP surface: routes, middleware and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wordbase/wordbase/internal/config"
	"github.com/wordbase/wordbase/internal/metrics"
	"github.com/wordbase/wordbase/internal/server/handlers"
	"github.com/wordbase/wordbase/internal/server/middleware"
	"github.com/wordbase/wordbase/internal/server/storage"
	syncengine "github.com/wordbase/wordbase/internal/sync"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second

	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Stores bundles the persistence interfaces the server needs.
type Stores struct {
	Entries    storage.EntryStore
	Users      storage.UserStore
	Tokens     storage.TokenStore
	Files      storage.FileStore
	Versions   storage.AppVersionStore
	Migrations storage.MigrationStore
}

// Server is the wordbase HTTP server.
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// New assembles handlers, middleware and routes.
func New(cfg *config.Config, logger *slog.Logger, stores Stores, version string) *Server {
	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(cfg.JWTSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	m := metrics.New()

	engine := syncengine.NewEngine(
		stores.Entries,
		syncengine.NewDefaultRegistry(),
		syncengine.NewCategoryPolicy(cfg.Sync.PassiveCategories, cfg.Sync.ReadOnlyCategories),
		logger,
	)

	authHandler := handlers.NewAuthHandler(logger, stores.Users, stores.Tokens, jwtConfig)
	syncHandler := handlers.NewSyncHandler(logger, engine, m)
	profileHandler := handlers.NewProfileHandler(logger, stores.Users, stores.Files, stores.Entries)
	appHandler := handlers.NewAppHandler(logger, stores.Versions, cfg.DeveloperSecret)
	healthHandler := handlers.NewHealthHandler(version)

	auth := middleware.Auth(logger, jwtConfig)
	authLimit := middleware.RateLimit(authRateLimit, authRateWindow, logger)

	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/auth/register", authLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", authLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/refresh", authLimit(http.HandlerFunc(authHandler.Refresh)))
	mux.Handle("POST /api/v1/auth/logout", auth(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("POST /api/v1/sync", auth(http.HandlerFunc(syncHandler.HandleSync)))

	mux.Handle("PUT /api/v1/profile", auth(http.HandlerFunc(profileHandler.UpdateProfile)))
	mux.HandleFunc("GET /api/v1/files/{id}", profileHandler.GetFile)

	mux.HandleFunc("GET /api/v1/app/{platform}/latest", appHandler.LatestVersion)
	mux.HandleFunc("POST /api/v1/app/publish", appHandler.PublishVersion)

	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health", "/metrics"})(handler)
	handler = middleware.Recovery(logger)(handler)

	return &Server{
		logger: logger,
		http: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server listening", "address", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
