package api

import (
	"net/http"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/shell/api/openapi"
)

// SetupAPI creates the complete API router.
func SetupAPI(cfg Config) http.Handler {
	return NewHandler(cfg).Routes()
}

// newOpenAPI describes the routes served by Routes.
func newOpenAPI(version string) *openapi.Generator {
	gen := openapi.NewGenerator(
		openapi.WithTitle("Portal API"),
		openapi.WithVersion(version),
		openapi.WithDescription("Computes the microfrontend deployment for a client"),
		openapi.WithServer("/"),
	)

	for _, op := range operations {
		gen.RegisterOperation(op)
	}
	return gen
}

var operations = []openapi.Operation{
	{
		Method:   http.MethodPost,
		Path:     "/portal/deployment",
		ID:       "computeDeployment",
		Summary:  "Compute the deployment for a client",
		Tag:      "Deployment",
		Request:  domain.DeploymentRequest{},
		Response: domain.Deployment{},
		Errors:   []int{http.StatusBadRequest, http.StatusServiceUnavailable},
	},
	{
		Method:   http.MethodPost,
		Path:     "/portal/reload",
		ID:       "reloadRegistry",
		Summary:  "Reload the manifest registry",
		Tag:      "Registry",
		Response: ReloadResponse{},
		Errors:   []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError},
	},
	{
		Method:   http.MethodPost,
		Path:     "/portal/microfrontend/create",
		ID:       "createMicrofrontend",
		Summary:  "Create a microfrontend",
		Tag:      "Microfrontends",
		Request:  CreateMicrofrontendRequest{},
		Response: MicrofrontendResponse{},
		Status:   http.StatusCreated,
		Errors:   []int{http.StatusBadRequest, http.StatusConflict},
	},
	{
		Method:   http.MethodPost,
		Path:     "/portal/microfrontend/update",
		ID:       "updateMicrofrontend",
		Summary:  "Update a microfrontend",
		Tag:      "Microfrontends",
		Request:  UpdateMicrofrontendRequest{},
		Response: MicrofrontendResponse{},
		Errors:   []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	},
	{
		Method:   http.MethodPost,
		Path:     "/portal/microfrontend/read",
		ID:       "readMicrofrontend",
		Summary:  "Read a microfrontend",
		Tag:      "Microfrontends",
		Request:  ReadMicrofrontendRequest{},
		Response: MicrofrontendResponse{},
		Errors:   []int{http.StatusNotFound},
	},
	{
		Method:   http.MethodGet,
		Path:     "/portal/microfrontend/read_all",
		ID:       "listMicrofrontends",
		Summary:  "List microfrontends",
		Tag:      "Microfrontends",
		Response: ListMicrofrontendsResponse{},
	},
	{
		Method:  http.MethodDelete,
		Path:    "/portal/microfrontend/{id}",
		ID:      "deleteMicrofrontend",
		Summary: "Delete a microfrontend",
		Tag:     "Microfrontends",
		Status:  http.StatusNoContent,
		Errors:  []int{http.StatusNotFound},
	},
	{
		Method:   http.MethodGet,
		Path:     "/portal/features",
		ID:       "listFeatureFlags",
		Summary:  "List feature flags",
		Tag:      "Features",
		Response: ListFeatureFlagsResponse{},
	},
	{
		Method:   http.MethodGet,
		Path:     "/portal/features/{key}",
		ID:       "getFeatureFlag",
		Summary:  "Read a feature flag",
		Tag:      "Features",
		Response: FeatureFlagResponse{},
		Errors:   []int{http.StatusNotFound},
	},
	{
		Method:   http.MethodPut,
		Path:     "/portal/features/{key}",
		ID:       "setFeatureFlag",
		Summary:  "Set a feature flag",
		Tag:      "Features",
		Request:  SetFeatureFlagRequest{},
		Response: FeatureFlagResponse{},
		Errors:   []int{http.StatusBadRequest},
	},
	{
		Method:  http.MethodDelete,
		Path:    "/portal/features/{key}",
		ID:      "deleteFeatureFlag",
		Summary: "Delete a feature flag",
		Tag:     "Features",
		Status:  http.StatusNoContent,
		Errors:  []int{http.StatusNotFound},
	},
	{
		Method:   http.MethodGet,
		Path:     "/health",
		ID:       "health",
		Summary:  "Liveness check",
		Tag:      "Health",
		Response: HealthResponse{},
	},
	{
		Method:   http.MethodGet,
		Path:     "/ready",
		ID:       "ready",
		Summary:  "Readiness check",
		Tag:      "Health",
		Response: ReadyResponse{},
		Errors:   []int{http.StatusServiceUnavailable},
	},
}
