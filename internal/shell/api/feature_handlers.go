package api

import (
	"encoding/json"
	"net/http"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// Feature Flag Handlers
// =============================================================================

func (h *Handler) handleListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.store.ListFeatureFlags(r.Context())
	if err != nil {
		h.logger.Error("failed to list feature flags", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list feature flags", "internal_error")
		return
	}

	resp := ListFeatureFlagsResponse{
		Features: make([]FeatureFlagResponse, 0, len(flags)),
		Total:    len(flags),
	}
	for _, f := range flags {
		resp.Features = append(resp.Features, featureFlagToResponse(f))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	var req SetFeatureFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	flag := &domain.FeatureFlag{
		Key:         chi.URLParam(r, "key"),
		Enabled:     req.Enabled,
		Description: req.Description,
	}
	if err := flag.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.SetFeatureFlag(r.Context(), flag); err != nil {
		h.logger.Error("failed to set feature flag", "key", flag.Key, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to set feature flag", "internal_error")
		return
	}

	h.logger.Info("feature flag set", "key", flag.Key, "enabled", flag.Enabled)
	h.writeJSON(w, http.StatusOK, featureFlagToResponse(*flag))
}

func (h *Handler) handleGetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	flag, err := h.store.GetFeatureFlag(r.Context(), key)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "feature flag not found", "feature_flag_not_found")
			return
		}
		h.logger.Error("failed to get feature flag", "key", key, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get feature flag", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, featureFlagToResponse(*flag))
}

// handleDeleteFeatureFlag removes a flag. Features depending on it become
// inactive, as for any unknown key.
func (h *Handler) handleDeleteFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.store.DeleteFeatureFlag(r.Context(), key); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "feature flag not found", "feature_flag_not_found")
			return
		}
		h.logger.Error("failed to delete feature flag", "key", key, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete feature flag", "internal_error")
		return
	}

	h.logger.Info("feature flag deleted", "key", key)
	h.writeNoContent(w)
}

func featureFlagToResponse(f domain.FeatureFlag) FeatureFlagResponse {
	return FeatureFlagResponse{
		Key:         f.Key,
		Enabled:     f.Enabled,
		Description: f.Description,
		UpdatedAt:   f.UpdatedAt,
	}
}
