package store

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

const testConfiguration = `{"features":[{"id":"home","label":"Home","path":"/mfe1","icon":"home","component":"Home","tags":[],"permissions":[],"features":[]}]}`

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func createTestMicrofrontend(t *testing.T, store Store, name string) *domain.Microfrontend {
	t.Helper()
	mfe, err := domain.NewMicrofrontend(name, "http://localhost:3001/remoteEntry.js", testConfiguration, true)
	require.NoError(t, err)

	err = store.CreateMicrofrontend(context.Background(), mfe)
	require.NoError(t, err)
	return mfe
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestNewSQLiteStore_MigrationsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	// running migrations again on the same database is a no-op
	require.NoError(t, runMigrations(store.db.DB))
}

func TestPing(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

// =============================================================================
// Microfrontend CRUD Tests
// =============================================================================

func TestCreateMicrofrontend_Success(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	mfe := createTestMicrofrontend(t, store, "mfe1")

	retrieved, err := store.GetMicrofrontend(ctx, mfe.ID)
	require.NoError(t, err)
	assert.Equal(t, mfe.ID, retrieved.ID)
	assert.Equal(t, 0, retrieved.VersionID)
	assert.Equal(t, "mfe1", retrieved.Name)
	assert.Equal(t, mfe.URI, retrieved.URI)
	assert.True(t, retrieved.Enabled)
	assert.Equal(t, testConfiguration, retrieved.Configuration)
	assert.False(t, retrieved.CreatedAt.IsZero())
}

func TestCreateMicrofrontend_DuplicateName(t *testing.T) {
	store := setupTestStore(t)
	createTestMicrofrontend(t, store, "mfe1")

	dup, err := domain.NewMicrofrontend("mfe1", "http://other", testConfiguration, true)
	require.NoError(t, err)

	err = store.CreateMicrofrontend(context.Background(), dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateMicrofrontend_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	mfe := createTestMicrofrontend(t, store, "mfe1")

	dup := *mfe
	dup.Name = "mfe2"

	err := store.CreateMicrofrontend(context.Background(), &dup)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateName)
	assert.Contains(t, err.Error(), "ID already exists")
}

func TestWithTx_CancelledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.WithTx(ctx, func(Store) error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetMicrofrontend_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetMicrofrontend(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "GetMicrofrontend", storeErr.Op)
	assert.Equal(t, "missing", storeErr.ID)
}

func TestGetMicrofrontendByName(t *testing.T) {
	store := setupTestStore(t)
	mfe := createTestMicrofrontend(t, store, "mfe1")

	retrieved, err := store.GetMicrofrontendByName(context.Background(), "mfe1")
	require.NoError(t, err)
	assert.Equal(t, mfe.ID, retrieved.ID)

	_, err = store.GetMicrofrontendByName(context.Background(), "mfe9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMicrofrontend_IncrementsVersion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	mfe := createTestMicrofrontend(t, store, "mfe1")

	mfe.URI = "http://localhost:4001/remoteEntry.js"
	mfe.Enabled = false
	require.NoError(t, store.UpdateMicrofrontend(ctx, mfe))
	assert.Equal(t, 1, mfe.VersionID)

	retrieved, err := store.GetMicrofrontend(ctx, mfe.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.VersionID)
	assert.Equal(t, "http://localhost:4001/remoteEntry.js", retrieved.URI)
	assert.False(t, retrieved.Enabled)
}

func TestUpdateMicrofrontend_StaleVersion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	mfe := createTestMicrofrontend(t, store, "mfe1")

	first := *mfe
	second := *mfe

	require.NoError(t, store.UpdateMicrofrontend(ctx, &first))

	second.URI = "http://lost-update"
	err := store.UpdateMicrofrontend(ctx, &second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 0, second.VersionID)

	retrieved, err := store.GetMicrofrontend(ctx, mfe.ID)
	require.NoError(t, err)
	assert.Equal(t, mfe.URI, retrieved.URI)
}

func TestUpdateMicrofrontend_NotFound(t *testing.T) {
	store := setupTestStore(t)

	mfe, err := domain.NewMicrofrontend("ghost", "http://x", testConfiguration, true)
	require.NoError(t, err)

	err = store.UpdateMicrofrontend(context.Background(), mfe)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMicrofrontend_RenameToExistingName(t *testing.T) {
	store := setupTestStore(t)
	createTestMicrofrontend(t, store, "mfe1")
	mfe2 := createTestMicrofrontend(t, store, "mfe2")

	mfe2.Name = "mfe1"
	err := store.UpdateMicrofrontend(context.Background(), mfe2)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestUpsertMicrofrontend(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	mfe, err := domain.NewMicrofrontend("mfe1", "http://one", testConfiguration, true)
	require.NoError(t, err)
	require.NoError(t, store.UpsertMicrofrontend(ctx, mfe))
	originalID := mfe.ID
	assert.Equal(t, 0, mfe.VersionID)

	replacement, err := domain.NewMicrofrontend("mfe1", "http://two", testConfiguration, false)
	require.NoError(t, err)
	require.NoError(t, store.UpsertMicrofrontend(ctx, replacement))

	// the existing record keeps its identity
	assert.Equal(t, originalID, replacement.ID)
	assert.Equal(t, 1, replacement.VersionID)
	assert.Equal(t, "http://two", replacement.URI)
	assert.False(t, replacement.Enabled)

	all, err := store.ListMicrofrontends(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteMicrofrontend(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	mfe := createTestMicrofrontend(t, store, "mfe1")

	require.NoError(t, store.DeleteMicrofrontend(ctx, mfe.ID))

	_, err := store.GetMicrofrontend(ctx, mfe.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteMicrofrontend(ctx, mfe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMicrofrontends_CreationOrder(t *testing.T) {
	store := setupTestStore(t)

	createTestMicrofrontend(t, store, "zeta")
	createTestMicrofrontend(t, store, "alpha")
	createTestMicrofrontend(t, store, "mid")

	all, err := store.ListMicrofrontends(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "zeta", all[0].Name)
	assert.Equal(t, "alpha", all[1].Name)
	assert.Equal(t, "mid", all[2].Name)
}

func TestListMicrofrontends_Empty(t *testing.T) {
	store := setupTestStore(t)

	all, err := store.ListMicrofrontends(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

// =============================================================================
// Feature Flag Tests
// =============================================================================

func TestSetFeatureFlag_CreateAndUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	flag := &domain.FeatureFlag{Key: "new-ui", Enabled: true, Description: "new navigation"}
	require.NoError(t, store.SetFeatureFlag(ctx, flag))
	assert.False(t, flag.UpdatedAt.IsZero())

	retrieved, err := store.GetFeatureFlag(ctx, "new-ui")
	require.NoError(t, err)
	assert.True(t, retrieved.Enabled)
	assert.Equal(t, "new navigation", retrieved.Description)

	require.NoError(t, store.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "new-ui", Enabled: false}))
	retrieved, err = store.GetFeatureFlag(ctx, "new-ui")
	require.NoError(t, err)
	assert.False(t, retrieved.Enabled)
}

func TestSetFeatureFlag_EmptyKey(t *testing.T) {
	store := setupTestStore(t)

	err := store.SetFeatureFlag(context.Background(), &domain.FeatureFlag{Key: ""})
	assert.ErrorIs(t, err, ErrInvalidFlag)
}

func TestHasFeature(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "on", Enabled: true}))
	require.NoError(t, store.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "off", Enabled: false}))

	tests := []struct {
		key  string
		want bool
	}{
		{"on", true},
		{"off", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		got, err := store.HasFeature(ctx, tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestListFeatureFlags_SortedByKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "b"}))
	require.NoError(t, store.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "a"}))

	flags, err := store.ListFeatureFlags(ctx)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "a", flags[0].Key)
	assert.Equal(t, "b", flags[1].Key)
}

func TestDeleteFeatureFlag(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "x", Enabled: true}))
	require.NoError(t, store.DeleteFeatureFlag(ctx, "x"))

	_, err := store.GetFeatureFlag(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteFeatureFlag(ctx, "x"), ErrNotFound)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		createTestMicrofrontend(t, tx, "mfe1")
		return tx.SetFeatureFlag(ctx, &domain.FeatureFlag{Key: "flag", Enabled: true})
	})
	require.NoError(t, err)

	_, err = store.GetMicrofrontendByName(ctx, "mfe1")
	assert.NoError(t, err)
	ok, err := store.HasFeature(ctx, "flag")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithTx_Rollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Store) error {
		createTestMicrofrontend(t, tx, "mfe1")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := store.ListMicrofrontends(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWithTx_Nested(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			createTestMicrofrontend(t, inner, "mfe1")
			return nil
		})
	})
	require.NoError(t, err)

	_, err = store.GetMicrofrontendByName(ctx, "mfe1")
	assert.NoError(t, err)
}

// =============================================================================
// StoreError Tests
// =============================================================================

func TestStoreError_Error(t *testing.T) {
	assert.Equal(t, "Get microfrontend abc: not found", NewStoreError("Get", "microfrontend", "abc", "not found", ErrNotFound).Error())
	assert.Equal(t, "List microfrontend: boom", NewStoreError("List", "microfrontend", "", "boom", nil).Error())
	assert.Equal(t, "Open: boom", NewStoreError("Open", "", "", "boom", nil).Error())
}
