package store

import (
	"context"

	"github.com/artpar/portal/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for portal entities.
type Store interface {
	// Microfrontend operations
	CreateMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error
	GetMicrofrontend(ctx context.Context, id string) (*domain.Microfrontend, error)
	GetMicrofrontendByName(ctx context.Context, name string) (*domain.Microfrontend, error)
	UpdateMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error
	UpsertMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error
	DeleteMicrofrontend(ctx context.Context, id string) error
	ListMicrofrontends(ctx context.Context) ([]domain.Microfrontend, error)

	// Feature flag operations
	SetFeatureFlag(ctx context.Context, flag *domain.FeatureFlag) error
	GetFeatureFlag(ctx context.Context, key string) (*domain.FeatureFlag, error)
	DeleteFeatureFlag(ctx context.Context, key string) error
	ListFeatureFlags(ctx context.Context) ([]domain.FeatureFlag, error)
	HasFeature(ctx context.Context, key string) (bool, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
