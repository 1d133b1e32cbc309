// Package source reads microfrontend records from a YAML file.
//
// The file lists the modules of a portal:
//
//	microfrontends:
//	  - name: mfe1
//	    uri: http://localhost:3001/remoteEntry.js
//	    enabled: true
//	    configuration:
//	      features:
//	        - id: home
//	          ...
//
// configuration may be written as YAML (converted to JSON) or as a JSON string.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidFile is returned when the module file cannot be decoded.
	ErrInvalidFile = errors.New("invalid module file")
)

// recordNamespace derives stable record IDs from module names.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:portal:microfrontend"))

// =============================================================================
// Document Types
// =============================================================================

type document struct {
	Microfrontends []entry `yaml:"microfrontends"`
}

type entry struct {
	Name          string    `yaml:"name"`
	URI           string    `yaml:"uri"`
	Enabled       *bool     `yaml:"enabled"`
	Configuration yaml.Node `yaml:"configuration"`
}

// =============================================================================
// Parsing
// =============================================================================

// ParseFile decodes a module file into microfrontend records, in file order.
// Records default to enabled. Each record gets an ID derived from its name.
// Records are not validated; the registry skips the incomplete ones.
func ParseFile(data []byte) ([]domain.Microfrontend, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	records := make([]domain.Microfrontend, 0, len(doc.Microfrontends))
	for i, e := range doc.Microfrontends {
		configuration, err := configurationJSON(&e.Configuration)
		if err != nil {
			return nil, fmt.Errorf("%w: microfrontends[%d].configuration: %v", ErrInvalidFile, i, err)
		}

		enabled := true
		if e.Enabled != nil {
			enabled = *e.Enabled
		}

		name := strings.TrimSpace(e.Name)
		record := domain.Microfrontend{
			ID:            uuid.NewSHA1(recordNamespace, []byte(name)).String(),
			Name:          name,
			URI:           strings.TrimSpace(e.URI),
			Enabled:       enabled,
			Configuration: configuration,
		}
		records = append(records, record)
	}
	return records, nil
}

// configurationJSON returns the configuration payload as JSON text.
func configurationJSON(node *yaml.Node) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		return node.Value, nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return "", err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// =============================================================================
// FileSource
// =============================================================================

// FileSource lists the records of a module file. The file is read on every
// call so edits are picked up by the next registry load.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the module file path.
func (s *FileSource) Path() string {
	return s.path
}

// ListMicrofrontends reads and parses the module file.
func (s *FileSource) ListMicrofrontends(ctx context.Context) ([]domain.Microfrontend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read module file: %w", err)
	}
	return ParseFile(data)
}

// Hash returns the SHA-256 of the module file content.
func (s *FileSource) Hash(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read module file: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
