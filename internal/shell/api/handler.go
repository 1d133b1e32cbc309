// Package api provides HTTP handlers for the portal API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/artpar/portal/internal/core/auth"
	"github.com/artpar/portal/internal/core/constraint"
	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/core/filter"
	"github.com/artpar/portal/internal/shell/api/middleware"
	"github.com/artpar/portal/internal/shell/api/openapi"
	"github.com/artpar/portal/internal/shell/metrics"
	"github.com/artpar/portal/internal/shell/registry"
	"github.com/artpar/portal/internal/shell/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// Collaborators
// =============================================================================

// Deployer computes deployments.
type Deployer interface {
	Compute(ctx context.Context, req domain.DeploymentRequest) (domain.Deployment, error)
}

// Registry is the manifest registry reloaded by the API.
type Registry interface {
	Load(ctx context.Context) (*registry.Snapshot, error)
	Loaded() bool
}

// Config holds the handler dependencies.
type Config struct {
	Store    store.Store
	Registry Registry
	Deployer Deployer
	Logger   *slog.Logger

	// SharedSecret is checked against X-Gateway-Secret when non-empty.
	SharedSecret string

	// RequireAdmin guards the management endpoints with the admin permission.
	RequireAdmin bool

	// Version is reported in the OpenAPI document.
	Version string
}

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store        store.Store
	registry     Registry
	deployer     Deployer
	logger       *slog.Logger
	sharedSecret string
	requireAdmin bool
	openapi      *openapi.Generator
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Handler{
		store:        cfg.Store,
		registry:     cfg.Registry,
		deployer:     cfg.Deployer,
		logger:       cfg.Logger.With("component", "api"),
		sharedSecret: cfg.SharedSecret,
		requireAdmin: cfg.RequireAdmin,
		openapi:      newOpenAPI(cfg.Version),
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(h.requestIDHeader)

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/openapi.json", h.openapi.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.jsonContentType)

		r.Get("/health", h.handleHealth)
		r.Get("/ready", h.handleReady)

		authMW := middleware.NewAuthMiddleware(middleware.AuthConfig{
			SharedSecret: h.sharedSecret,
			Logger:       h.logger,
		})

		r.Route("/portal", func(r chi.Router) {
			r.Use(authMW.Handler)

			r.Post("/deployment", h.handleDeployment)

			r.Group(func(r chi.Router) {
				h.guard(r, auth.CanManageMicrofrontends)

				r.Post("/reload", h.handleReload)

				r.Route("/microfrontend", func(r chi.Router) {
					r.Post("/create", h.handleCreateMicrofrontend)
					r.Post("/update", h.handleUpdateMicrofrontend)
					r.Post("/read", h.handleReadMicrofrontend)
					r.Get("/read_all", h.handleListMicrofrontends)
					r.Delete("/{id}", h.handleDeleteMicrofrontend)
				})
			})

			r.Group(func(r chi.Router) {
				h.guard(r, auth.CanManageFeatureFlags)

				r.Get("/features", h.handleListFeatureFlags)
				r.Get("/features/{key}", h.handleGetFeatureFlag)
				r.Put("/features/{key}", h.handleSetFeatureFlag)
				r.Delete("/features/{key}", h.handleDeleteFeatureFlag)
			})
		})
	})

	return r
}

// guard installs the permission check on r when admin access is required.
func (h *Handler) guard(r chi.Router, allowed func(auth.Context) bool) {
	if h.requireAdmin {
		r.Use(middleware.Require(allowed, h.logger))
	}
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	ready := true

	if err := h.store.Ping(r.Context()); err != nil {
		checks["database"] = "failed"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if h.registry.Loaded() {
		checks["registry"] = "ok"
	} else {
		checks["registry"] = "not_loaded"
		ready = false
	}

	if !ready {
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Deployment Handlers
// =============================================================================

func (h *Handler) handleDeployment(w http.ResponseWriter, r *http.Request) {
	var req domain.DeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if req.Client != nil {
		normalized := constraint.Normalize(*req.Client)
		req.Client = &normalized
	}

	start := time.Now()
	deployment, err := h.deployer.Compute(r.Context(), req)
	metrics.ObserveDeployment(time.Since(start), err)
	if err != nil {
		if errors.Is(err, filter.ErrAuthorityUnavailable) {
			h.logger.Error("authority unavailable", "application", req.Application, "error", err)
			h.writeError(w, http.StatusServiceUnavailable, "authority unavailable", "authority_unavailable")
			return
		}
		h.logger.Error("failed to compute deployment", "application", req.Application, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute deployment", "internal_error")
		return
	}

	h.logger.Debug("deployment computed",
		"application", req.Application,
		"modules", deployment.Len(),
		"elapsed", time.Since(start),
	)

	h.writeJSON(w, http.StatusOK, deployment)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registry.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to reload registry", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to reload registry", "reload_failed")
		return
	}

	h.writeJSON(w, http.StatusOK, reloadToResponse(snap))
}

// reload refreshes the registry after a mutation. The mutation has already
// been committed, so a failure is logged and not reported to the caller.
func (h *Handler) reload(ctx context.Context) {
	if _, err := h.registry.Load(ctx); err != nil {
		h.logger.Error("registry reload after mutation failed", "error", err)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

// writeNoContent sends 204 without the JSON content type set by the group.
func (h *Handler) writeNoContent(w http.ResponseWriter) {
	w.Header().Del("Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func reloadToResponse(snap *registry.Snapshot) ReloadResponse {
	resp := ReloadResponse{
		Modules: snap.Names(),
		Skipped: make([]SkippedModule, 0, len(snap.Skipped)),
	}
	for _, s := range snap.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedModule{Name: s.Name, Error: s.Err.Error()})
	}
	return resp
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
