// Package openapi builds the OpenAPI 3.0 description of the portal API by
// reflecting on the request and response types of registered operations.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces an OpenAPI 3.0 document from registered operations.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	operations  []Operation
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// Operation describes one HTTP endpoint.
type Operation struct {
	Method  string // http.MethodGet, ...
	Path    string // chi pattern, e.g. "/portal/microfrontend/{id}"
	ID      string
	Summary string
	Tag     string

	Request  any // request body model, nil when the endpoint takes none
	Response any // success body model, nil for an empty body
	Status   int // success status, defaults to 200

	// Errors lists the documented error statuses.
	Errors []int
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Portal API",
		version:     "1.0.0",
		description: "Microfrontend deployment service",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RegisterOperation adds an endpoint to the document.
func (g *Generator) RegisterOperation(op Operation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operations = append(g.operations, op)
	g.cachedSpec = nil
}

// Generate produces the complete OpenAPI 3.0 document.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	for _, op := range g.operations {
		g.addOperation(spec, op)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the document as JSON.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Operation Generation
// =============================================================================

var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

func (g *Generator) addOperation(spec *openapi3.T, op Operation) {
	item := spec.Paths.Value(op.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		for _, match := range pathParam.FindAllStringSubmatch(op.Path, -1) {
			item.Parameters = append(item.Parameters, &openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     match[1],
					In:       "path",
					Required: true,
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
					},
				},
			})
		}
		spec.Paths.Set(op.Path, item)
	}

	operation := &openapi3.Operation{
		OperationID: op.ID,
		Summary:     op.Summary,
		Responses:   &openapi3.Responses{},
	}
	if op.Tag != "" {
		operation.Tags = []string{op.Tag}
	}

	if op.Request != nil {
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(g.schemaFor(spec, reflect.TypeOf(op.Request))),
			},
		}
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	success := openapi3.NewResponse().WithDescription(http.StatusText(status))
	if op.Response != nil {
		success.Content = openapi3.NewContentWithJSONSchemaRef(g.schemaFor(spec, reflect.TypeOf(op.Response)))
	}
	operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: success})

	for _, code := range op.Errors {
		resp := openapi3.NewResponse().WithDescription(http.StatusText(code))
		resp.Content = openapi3.NewContentWithJSONSchemaRef(errorSchema(spec))
		operation.Responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{Value: resp})
	}

	item.SetOperation(op.Method, operation)
}

// errorSchema registers and references the common error body.
func errorSchema(spec *openapi3.T) *openapi3.SchemaRef {
	if _, ok := spec.Components.Schemas["Error"]; !ok {
		spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type: &openapi3.Types{"object"},
				Properties: openapi3.Schemas{
					"error": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
					"code":  &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				},
				Required: []string{"error", "code"},
			},
		}
	}
	return &openapi3.SchemaRef{Ref: "#/components/schemas/Error"}
}

// =============================================================================
// Schema Generation
// =============================================================================

var (
	timeType = reflect.TypeOf(time.Time{})
	rawType  = reflect.TypeOf(json.RawMessage{})
)

// schemaFor converts a Go type to a schema. Named structs are registered as
// components and referenced.
func (g *Generator) schemaFor(spec *openapi3.T, t reflect.Type) *openapi3.SchemaRef {
	if t == rawType {
		// any JSON value
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	}

	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "float"}}

	case reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.schemaFor(spec, t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.schemaFor(spec, t.Elem())},
			},
		}

	case reflect.Ptr:
		ref := g.schemaFor(spec, t.Elem())
		if ref.Value != nil {
			ref.Value.Nullable = true
		}
		return ref

	case reflect.Struct:
		if t == timeType {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		if t.Name() == "" {
			return &openapi3.SchemaRef{Value: g.structSchema(spec, t)}
		}
		name := t.Name()
		if _, ok := spec.Components.Schemas[name]; !ok {
			// placeholder first so self-referencing types terminate
			spec.Components.Schemas[name] = &openapi3.SchemaRef{Value: &openapi3.Schema{}}
			spec.Components.Schemas[name].Value = g.structSchema(spec, t)
		}
		return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}

	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// structSchema builds an object schema from the exported fields of t.
func (g *Generator) structSchema(spec *openapi3.T, t reflect.Type) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		omitEmpty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}

		schema.Properties[name] = g.schemaFor(spec, field.Type)
		if !omitEmpty && field.Type.Kind() != reflect.Ptr {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}
