package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/artpar/portal/internal/core/deployment"
	"github.com/artpar/portal/internal/core/filter"
	"github.com/artpar/portal/internal/shell/api"
	"github.com/artpar/portal/internal/shell/authority"
	"github.com/artpar/portal/internal/shell/registry"
	"github.com/artpar/portal/internal/shell/source"
	"github.com/artpar/portal/internal/shell/store"
	"github.com/artpar/portal/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitSourceError     = 3
	ExitHTTPServerError = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the portal application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	registry   *registry.Registry
	refresher  *workers.RegistryRefresher
	watcher    *source.Watcher
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Pick the record source. The database store doubles as the source
	// unless a module file is configured.
	var records registry.Source = s
	var fileSource *source.FileSource
	if cfg.Registry.Source == RegistrySourceFile {
		fileSource = source.NewFileSource(cfg.Registry.File)
		records = fileSource
		logger.Info("reading modules from file", "path", fileSource.Path())
	}
	reg := registry.New(records, logger)

	permissions, err := authority.NewPermissionAuthority(cfg.Authority.Permissions, cfg.Authority.GrantedPermissions)
	if err != nil {
		s.Close()
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitConfigError}
	}
	features, err := authority.NewFeatureAuthority(cfg.Authority.Features, cfg.Authority.EnabledFeatures, s)
	if err != nil {
		s.Close()
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitConfigError}
	}

	composer := deployment.NewComposer(deployment.Config{
		Manifests:      reg,
		FeatureFilters: filter.Defaults(permissions, features, cfg.Filters.RejectedTags...),
	})

	handler := api.SetupAPI(api.Config{
		Store:        s,
		Registry:     reg,
		Deployer:     composer,
		Logger:       logger,
		SharedSecret: cfg.Auth.SharedSecret,
		RequireAdmin: cfg.Auth.RequireAdmin,
		Version:      Version,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var refresher *workers.RegistryRefresher
	if cfg.Registry.RefreshInterval > 0 {
		refresher = workers.NewRegistryRefresher(reg, workers.RegistryRefresherConfig{
			Interval: cfg.Registry.RefreshInterval,
		}, logger)
	}

	var watcher *source.Watcher
	if fileSource != nil && cfg.Registry.Watch {
		watcher = source.NewWatcher(fileSource, func(ctx context.Context) {
			if _, err := reg.Load(ctx); err != nil {
				logger.Error("registry reload after file change failed", "error", err)
			}
		}, source.WithWatcherLogger(logger))
	}

	logger.Info("server configured",
		"registry_source", cfg.Registry.Source,
		"permissions", cfg.Authority.Permissions,
		"features", cfg.Authority.Features,
		"require_admin", cfg.Auth.RequireAdmin,
	)

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		registry:   reg,
		refresher:  refresher,
		watcher:    watcher,
		logger:     logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// A failed first load leaves the server up but not ready; the refresher,
	// the watcher or POST /portal/reload can recover it.
	if snap, err := s.registry.Load(ctx); err != nil {
		s.logger.Error("initial registry load failed", "error", err)
	} else {
		s.logger.Info("registry loaded", "modules", snap.Len(), "skipped", len(snap.Skipped))
	}

	if s.refresher != nil {
		s.refresher.Start()
	}

	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.stopWorkers()
			s.store.Close()
			return &ServerError{
				Op:       "Start",
				Err:      err,
				ExitCode: ExitSourceError,
			}
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.stopWorkers()
		s.store.Close()
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.stopWorkers()

	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

func (s *Server) stopWorkers() {
	if s.refresher != nil {
		s.refresher.Stop()
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Error("module file watcher stop error", "error", err)
		}
	}
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
