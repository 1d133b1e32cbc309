package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

// featureValidate checks decoded payloads. Field names in errors are the JSON keys.
var featureValidate *validator.Validate

func init() {
	featureValidate = validator.New()
	featureValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// =============================================================================
// Payload Types
// =============================================================================

// payload is the configuration document stored with each microfrontend.
// Unknown keys (version, description, ...) are ignored.
type payload struct {
	ModuleName string           `json:"moduleName"`
	Features   []featurePayload `json:"features" validate:"dive"`
}

// featurePayload mirrors domain.Feature with presence tracking. Required
// fields must be present but may be empty.
type featurePayload struct {
	ID          *string                   `json:"id" validate:"required"`
	Label       *string                   `json:"label" validate:"required"`
	Path        string                    `json:"path"`
	Icon        *string                   `json:"icon" validate:"required"`
	Enabled     *bool                     `json:"enabled"`
	Component   *string                   `json:"component" validate:"required"`
	Tags        []string                  `json:"tags" validate:"required"`
	Permissions []string                  `json:"permissions" validate:"required"`
	Features    []string                  `json:"features" validate:"required"`
	Clients     *domain.ClientConstraints `json:"clients"`
}

func (p featurePayload) toFeature() domain.Feature {
	enabled := true
	if p.Enabled != nil {
		enabled = *p.Enabled
	}
	return domain.Feature{
		ID:          *p.ID,
		Label:       *p.Label,
		Path:        p.Path,
		Icon:        *p.Icon,
		Enabled:     enabled,
		Component:   *p.Component,
		Tags:        p.Tags,
		Permissions: p.Permissions,
		Features:    p.Features,
		Clients:     p.Clients,
	}
}

// =============================================================================
// Parser Functions
// =============================================================================

// Parse builds a Manifest from a microfrontend's name, load URI and raw
// configuration payload. Features keep their declaration order.
func Parse(name, uri, configuration string) (domain.Manifest, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Manifest{}, NewParseError("name", "is required", ErrMissingField)
	}

	module, features, err := ParseFeatures(configuration)
	if err != nil {
		return domain.Manifest{}, err
	}

	return domain.Manifest{
		Name:     name,
		URI:      uri,
		Module:   module,
		Features: features,
	}, nil
}

// FromMicrofrontend parses the configuration of a stored record.
func FromMicrofrontend(mfe domain.Microfrontend) (domain.Manifest, error) {
	return Parse(mfe.Name, mfe.URI, mfe.Configuration)
}

// ParseFeatures decodes and validates a configuration payload, returning the
// module reference name and the features. A payload without a "features" key
// yields no features.
func ParseFeatures(configuration string) (string, []domain.Feature, error) {
	if strings.TrimSpace(configuration) == "" {
		return "", nil, ErrEmptyPayload
	}

	var p payload
	if err := json.Unmarshal([]byte(configuration), &p); err != nil {
		return "", nil, decodeError(err)
	}

	if err := featureValidate.Struct(p); err != nil {
		return "", nil, validationError(err)
	}

	module := strings.TrimSpace(p.ModuleName)
	if module == "" {
		module = domain.DefaultModuleName
	}

	features := make([]domain.Feature, 0, len(p.Features))
	for _, fp := range p.Features {
		features = append(features, fp.toFeature())
	}
	return module, features, nil
}

// =============================================================================
// Error Mapping
// =============================================================================

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return NewParseError(typeErr.Field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value), ErrInvalidField)
	}
	return NewParseError("", err.Error(), ErrInvalidPayload)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewParseError("", err.Error(), ErrInvalidPayload)
	}

	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if fe.Tag() == "required" {
		return NewParseError(field, "is required", ErrMissingField)
	}
	return NewParseError(field, fmt.Sprintf("failed %q validation", fe.Tag()), ErrInvalidField)
}
