// Package registry holds the installed manifests of the portal.
//
// The registry publishes immutable snapshots. Load builds a new snapshot from
// the configuration source and swaps it in atomically, so readers never see a
// partially loaded registry and never block on a load.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/core/manifest"
	"github.com/artpar/portal/internal/shell/metrics"
)

// Source lists the configured microfrontend records.
type Source interface {
	ListMicrofrontends(ctx context.Context) ([]domain.Microfrontend, error)
}

// SkippedModule is a record whose configuration did not parse.
type SkippedModule struct {
	Name string
	Err  error
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is one published registry state. It must not be modified.
type Snapshot struct {
	manifests []domain.Manifest
	index     map[string]int

	LoadedAt time.Time
	Skipped  []SkippedModule
}

func newSnapshot() *Snapshot {
	return &Snapshot{index: make(map[string]int)}
}

// put installs m under its name. A repeated name replaces the earlier
// manifest at the earlier position.
func (s *Snapshot) put(m domain.Manifest) {
	if i, ok := s.index[m.Name]; ok {
		s.manifests[i] = m
		return
	}
	s.index[m.Name] = len(s.manifests)
	s.manifests = append(s.manifests, m)
}

// Manifests returns the manifests in insertion order.
func (s *Snapshot) Manifests() []domain.Manifest {
	return s.manifests
}

// Get returns the manifest installed under name.
func (s *Snapshot) Get(name string) (domain.Manifest, bool) {
	i, ok := s.index[name]
	if !ok {
		return domain.Manifest{}, false
	}
	return s.manifests[i], true
}

// Names returns the manifest names in insertion order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.manifests))
	for _, m := range s.manifests {
		names = append(names, m.Name)
	}
	return names
}

// Len returns the number of manifests.
func (s *Snapshot) Len() int {
	return len(s.manifests)
}

// =============================================================================
// Registry
// =============================================================================

// Registry maps module names to manifests.
type Registry struct {
	source Source
	logger *slog.Logger

	current atomic.Pointer[Snapshot]
	loadMu  sync.Mutex
	loaded  atomic.Bool
}

// New creates an empty registry reading from source.
func New(source Source, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		source: source,
		logger: logger.With("component", "registry"),
	}
	r.current.Store(newSnapshot())
	return r
}

// Load reads every record from the source, parses the enabled ones and
// publishes them as the new snapshot. An incomplete record or one with an
// invalid configuration is skipped and logged. If the source itself fails, the previous snapshot
// stays in place and the error is returned. Concurrent loads are serialized.
func (r *Registry) Load(ctx context.Context) (*Snapshot, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	records, err := r.source.ListMicrofrontends(ctx)
	if err != nil {
		metrics.ObserveRegistryLoad(0, 0, err)
		r.logger.Error("registry load failed", "error", err)
		return nil, fmt.Errorf("list microfrontends: %w", err)
	}

	next := newSnapshot()
	for _, record := range records {
		if !record.Enabled {
			continue
		}

		m, err := parseRecord(record)
		if err != nil {
			next.Skipped = append(next.Skipped, SkippedModule{Name: record.Name, Err: err})
			r.logger.Warn("skipping invalid module",
				"module", record.Name,
				"error", err,
			)
			continue
		}
		next.put(m)
	}
	next.LoadedAt = time.Now().UTC()

	r.current.Store(next)
	r.loaded.Store(true)
	metrics.ObserveRegistryLoad(next.Len(), len(next.Skipped), nil)

	r.logger.Info("registry loaded",
		"modules", next.Len(),
		"skipped", len(next.Skipped),
	)
	return next, nil
}

// parseRecord checks the record fields, then parses its configuration.
func parseRecord(record domain.Microfrontend) (domain.Manifest, error) {
	if err := record.Validate(); err != nil {
		return domain.Manifest{}, err
	}
	return manifest.FromMicrofrontend(record)
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Manifests returns the manifests of the current snapshot in insertion order.
func (r *Registry) Manifests() []domain.Manifest {
	return r.Snapshot().Manifests()
}

// Get returns the manifest installed under name in the current snapshot.
func (r *Registry) Get(name string) (domain.Manifest, bool) {
	return r.Snapshot().Get(name)
}

// Loaded reports whether a load has succeeded at least once.
func (r *Registry) Loaded() bool {
	return r.loaded.Load()
}
