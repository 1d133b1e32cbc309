package domain

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// Deployment Request
// =============================================================================

// DeploymentRequest asks for the deployment of an application to one client.
type DeploymentRequest struct {
	Application string      `json:"application"`
	Client      *ClientInfo `json:"client,omitempty"`
}

// UnmarshalJSON accepts the client under either "client" or "client_info".
func (r *DeploymentRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		Application string      `json:"application"`
		Client      *ClientInfo `json:"client"`
		ClientInfo  *ClientInfo `json:"client_info"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Application = aux.Application
	r.Client = aux.Client
	if r.Client == nil {
		r.Client = aux.ClientInfo
	}
	return nil
}

// =============================================================================
// Deployment
// =============================================================================

// Deployment maps manifest names to the manifests filtered for one request.
// It remembers insertion order so that responses list modules in registry order.
type Deployment struct {
	Modules map[string]Manifest `json:"modules"`

	order []string
}

// NewDeployment creates an empty deployment.
func NewDeployment() Deployment {
	return Deployment{Modules: make(map[string]Manifest)}
}

// Add stores a manifest under its name. Re-adding a name replaces the manifest
// but keeps its original position.
func (d *Deployment) Add(m Manifest) {
	if d.Modules == nil {
		d.Modules = make(map[string]Manifest)
	}
	if _, exists := d.Modules[m.Name]; !exists {
		d.order = append(d.order, m.Name)
	}
	d.Modules[m.Name] = m
}

// Names returns the module names in insertion order.
func (d Deployment) Names() []string {
	if len(d.order) == len(d.Modules) {
		return append([]string(nil), d.order...)
	}
	// Built without Add (e.g. decoded from JSON): order is unknown.
	names := make([]string, 0, len(d.Modules))
	for name := range d.Modules {
		names = append(names, name)
	}
	return names
}

// Len returns the number of modules.
func (d Deployment) Len() int {
	return len(d.Modules)
}

// MarshalJSON writes modules in insertion order.
func (d Deployment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"modules":{`)
	for i, name := range d.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(d.Modules[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}
