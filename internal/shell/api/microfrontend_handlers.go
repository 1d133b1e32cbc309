package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/core/manifest"
	"github.com/artpar/portal/internal/shell/store"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// Microfrontend Handlers
// =============================================================================

func (h *Handler) handleCreateMicrofrontend(w http.ResponseWriter, r *http.Request) {
	var req CreateMicrofrontendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	configuration, err := configurationText(req.Configuration)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	mfe, err := domain.NewMicrofrontend(req.Name, req.URI, configuration, enabledOrDefault(req.Enabled))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if _, err := manifest.FromMicrofrontend(*mfe); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_configuration")
		return
	}

	if err := h.store.CreateMicrofrontend(r.Context(), mfe); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "microfrontend name already exists", "duplicate_name")
			return
		}
		h.logger.Error("failed to create microfrontend", "name", mfe.Name, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create microfrontend", "internal_error")
		return
	}

	h.logger.Info("microfrontend created", "id", mfe.ID, "name", mfe.Name)
	h.reload(r.Context())

	h.writeJSON(w, http.StatusCreated, microfrontendToResponse(mfe))
}

func (h *Handler) handleUpdateMicrofrontend(w http.ResponseWriter, r *http.Request) {
	var req UpdateMicrofrontendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.ID == "" {
		h.writeError(w, http.StatusBadRequest, "id is required", "validation_error")
		return
	}

	configuration, err := configurationText(req.Configuration)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	mfe := &domain.Microfrontend{
		ID:            req.ID,
		VersionID:     req.VersionID,
		Name:          strings.TrimSpace(req.Name),
		URI:           strings.TrimSpace(req.URI),
		Enabled:       enabledOrDefault(req.Enabled),
		Configuration: configuration,
	}
	if err := mfe.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if _, err := manifest.FromMicrofrontend(*mfe); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_configuration")
		return
	}

	if err := h.store.UpdateMicrofrontend(r.Context(), mfe); err != nil {
		switch {
		case isNotFound(err):
			h.writeError(w, http.StatusNotFound, "microfrontend not found", "microfrontend_not_found")
		case errors.Is(err, store.ErrVersionConflict):
			h.writeError(w, http.StatusConflict, err.Error(), "version_conflict")
		case errors.Is(err, store.ErrDuplicateName):
			h.writeError(w, http.StatusConflict, "microfrontend name already exists", "duplicate_name")
		default:
			h.logger.Error("failed to update microfrontend", "id", req.ID, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to update microfrontend", "internal_error")
		}
		return
	}

	h.logger.Info("microfrontend updated", "id", mfe.ID, "version_id", mfe.VersionID)
	h.reload(r.Context())

	updated, err := h.store.GetMicrofrontend(r.Context(), mfe.ID)
	if err != nil {
		// deleted between update and read; report what was written
		updated = mfe
	}
	h.writeJSON(w, http.StatusOK, microfrontendToResponse(updated))
}

func (h *Handler) handleReadMicrofrontend(w http.ResponseWriter, r *http.Request) {
	var req ReadMicrofrontendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	mfe, err := h.store.GetMicrofrontend(r.Context(), req.ID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "microfrontend not found", "microfrontend_not_found")
			return
		}
		h.logger.Error("failed to get microfrontend", "id", req.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get microfrontend", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, microfrontendToResponse(mfe))
}

func (h *Handler) handleListMicrofrontends(w http.ResponseWriter, r *http.Request) {
	mfes, err := h.store.ListMicrofrontends(r.Context())
	if err != nil {
		h.logger.Error("failed to list microfrontends", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list microfrontends", "internal_error")
		return
	}

	resp := ListMicrofrontendsResponse{
		Microfrontends: make([]MicrofrontendResponse, 0, len(mfes)),
		Total:          len(mfes),
	}
	for i := range mfes {
		resp.Microfrontends = append(resp.Microfrontends, microfrontendToResponse(&mfes[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDeleteMicrofrontend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteMicrofrontend(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "microfrontend not found", "microfrontend_not_found")
			return
		}
		h.logger.Error("failed to delete microfrontend", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete microfrontend", "internal_error")
		return
	}

	h.logger.Info("microfrontend deleted", "id", id)
	h.reload(r.Context())

	h.writeNoContent(w)
}

// =============================================================================
// Helpers
// =============================================================================

// configurationText accepts the configuration as a JSON object or as a string
// holding JSON, and returns the JSON text to store.
func configurationText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return "", errors.New("configuration: invalid string")
		}
		return text, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return "", errors.New("configuration: invalid JSON")
	}
	return compact.String(), nil
}

func enabledOrDefault(enabled *bool) bool {
	if enabled == nil {
		return true
	}
	return *enabled
}

func microfrontendToResponse(m *domain.Microfrontend) MicrofrontendResponse {
	return MicrofrontendResponse{
		ID:            m.ID,
		VersionID:     m.VersionID,
		Name:          m.Name,
		URI:           m.URI,
		Enabled:       m.Enabled,
		Configuration: m.Configuration,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
