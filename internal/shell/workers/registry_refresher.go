// Package workers runs the background jobs of the portal service.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artpar/portal/internal/shell/registry"
)

// Loader reloads the manifest registry.
type Loader interface {
	Load(ctx context.Context) (*registry.Snapshot, error)
}

// RegistryRefresherConfig configures the registry refresh worker.
type RegistryRefresherConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultRegistryRefresherConfig returns default configuration.
func DefaultRegistryRefresherConfig() RegistryRefresherConfig {
	return RegistryRefresherConfig{
		Interval: 30 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// RegistryRefresher reloads the registry on a fixed interval so records
// changed outside the API reach the next deployment.
type RegistryRefresher struct {
	loader Loader
	config RegistryRefresherConfig
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistryRefresher creates a new registry refresh worker.
func NewRegistryRefresher(loader Loader, config RegistryRefresherConfig, logger *slog.Logger) *RegistryRefresher {
	defaults := DefaultRegistryRefresherConfig()
	if config.Interval == 0 {
		config.Interval = defaults.Interval
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistryRefresher{
		loader: loader,
		config: config,
		logger: logger.With("component", "registry_refresher"),
	}
}

// Start begins the refresher background goroutine.
func (r *RegistryRefresher) Start() {
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.wg.Add(1)
	go r.run()
	r.logger.Info("registry refresher started", "interval", r.config.Interval)
}

// Stop gracefully stops the refresher.
func (r *RegistryRefresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("registry refresher stopped")
}

func (r *RegistryRefresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runCycle()
		}
	}
}

func (r *RegistryRefresher) runCycle() {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.Timeout)
	defer cancel()

	// Load logs its own outcome; the previous snapshot stays on failure.
	if _, err := r.loader.Load(ctx); err != nil {
		r.logger.Debug("registry refresh failed", "error", err)
	}
}
