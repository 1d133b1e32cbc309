package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database: "+err.Error(), ErrUnavailable)
	}

	// Every connection to :memory: opens a separate database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database: "+err.Error(), ErrUnavailable)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrUnavailable)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrUnavailable)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Microfrontend Operations
// =============================================================================

// microfrontendRow represents a microfrontend row in the database.
type microfrontendRow struct {
	ID            string `db:"id"`
	VersionID     int    `db:"version_id"`
	Name          string `db:"name"`
	URI           string `db:"uri"`
	Enabled       bool   `db:"enabled"`
	Configuration string `db:"configuration"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

func (s *SQLiteStore) CreateMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error {
	return createMicrofrontend(ctx, s.db, mfe)
}

func (s *SQLiteStore) GetMicrofrontend(ctx context.Context, id string) (*domain.Microfrontend, error) {
	return getMicrofrontend(ctx, s.db, id)
}

func (s *SQLiteStore) GetMicrofrontendByName(ctx context.Context, name string) (*domain.Microfrontend, error) {
	return getMicrofrontendByName(ctx, s.db, name)
}

func (s *SQLiteStore) UpdateMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error {
	return updateMicrofrontend(ctx, s.db, mfe)
}

func (s *SQLiteStore) UpsertMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error {
	return upsertMicrofrontend(ctx, s.db, mfe)
}

func (s *SQLiteStore) DeleteMicrofrontend(ctx context.Context, id string) error {
	return deleteMicrofrontend(ctx, s.db, id)
}

func (s *SQLiteStore) ListMicrofrontends(ctx context.Context) ([]domain.Microfrontend, error) {
	return listMicrofrontends(ctx, s.db)
}

// =============================================================================
// Feature Flag Operations
// =============================================================================

// featureFlagRow represents a feature flag row in the database.
type featureFlagRow struct {
	Key         string `db:"key"`
	Enabled     bool   `db:"enabled"`
	Description string `db:"description"`
	UpdatedAt   string `db:"updated_at"`
}

func (s *SQLiteStore) SetFeatureFlag(ctx context.Context, flag *domain.FeatureFlag) error {
	return setFeatureFlag(ctx, s.db, flag)
}

func (s *SQLiteStore) GetFeatureFlag(ctx context.Context, key string) (*domain.FeatureFlag, error) {
	return getFeatureFlag(ctx, s.db, key)
}

func (s *SQLiteStore) DeleteFeatureFlag(ctx context.Context, key string) error {
	return deleteFeatureFlag(ctx, s.db, key)
}

func (s *SQLiteStore) ListFeatureFlags(ctx context.Context) ([]domain.FeatureFlag, error) {
	return listFeatureFlags(ctx, s.db)
}

// HasFeature reports whether the flag exists and is enabled. Unknown flags
// are inactive.
func (s *SQLiteStore) HasFeature(ctx context.Context, key string) (bool, error) {
	return hasFeature(ctx, s.db, key)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction: "+err.Error(), ErrUnavailable)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrUnavailable)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction: "+err.Error(), ErrUnavailable)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error {
	return createMicrofrontend(ctx, s.tx, mfe)
}

func (s *txSQLiteStore) GetMicrofrontend(ctx context.Context, id string) (*domain.Microfrontend, error) {
	return getMicrofrontend(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetMicrofrontendByName(ctx context.Context, name string) (*domain.Microfrontend, error) {
	return getMicrofrontendByName(ctx, s.tx, name)
}

func (s *txSQLiteStore) UpdateMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error {
	return updateMicrofrontend(ctx, s.tx, mfe)
}

func (s *txSQLiteStore) UpsertMicrofrontend(ctx context.Context, mfe *domain.Microfrontend) error {
	return upsertMicrofrontend(ctx, s.tx, mfe)
}

func (s *txSQLiteStore) DeleteMicrofrontend(ctx context.Context, id string) error {
	return deleteMicrofrontend(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListMicrofrontends(ctx context.Context) ([]domain.Microfrontend, error) {
	return listMicrofrontends(ctx, s.tx)
}

func (s *txSQLiteStore) SetFeatureFlag(ctx context.Context, flag *domain.FeatureFlag) error {
	return setFeatureFlag(ctx, s.tx, flag)
}

func (s *txSQLiteStore) GetFeatureFlag(ctx context.Context, key string) (*domain.FeatureFlag, error) {
	return getFeatureFlag(ctx, s.tx, key)
}

func (s *txSQLiteStore) DeleteFeatureFlag(ctx context.Context, key string) error {
	return deleteFeatureFlag(ctx, s.tx, key)
}

func (s *txSQLiteStore) ListFeatureFlags(ctx context.Context) ([]domain.FeatureFlag, error) {
	return listFeatureFlags(ctx, s.tx)
}

func (s *txSQLiteStore) HasFeature(ctx context.Context, key string) (bool, error) {
	return hasFeature(ctx, s.tx, key)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Ping(ctx context.Context) error {
	return nil
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions - Microfrontends
// =============================================================================

func createMicrofrontend(ctx context.Context, exec executor, mfe *domain.Microfrontend) error {
	query := `
		INSERT INTO microfrontends (
			id, version_id, name, uri, enabled, configuration, created_at, updated_at
		) VALUES (
			:id, :version_id, :name, :uri, :enabled, :configuration, :created_at, :updated_at
		)`

	_, err := exec.NamedExecContext(ctx, query, microfrontendToRow(mfe))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: microfrontends.id") {
			return NewStoreError("CreateMicrofrontend", "microfrontend", mfe.ID, "microfrontend with this ID already exists", err)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: microfrontends.name") {
			return NewStoreError("CreateMicrofrontend", "microfrontend", mfe.ID, "microfrontend with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("CreateMicrofrontend", "microfrontend", mfe.ID, err.Error(), err)
	}

	return nil
}

func getMicrofrontend(ctx context.Context, exec executor, id string) (*domain.Microfrontend, error) {
	query := `SELECT * FROM microfrontends WHERE id = ?`

	var row microfrontendRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetMicrofrontend", "microfrontend", id, "microfrontend not found", ErrNotFound)
		}
		return nil, NewStoreError("GetMicrofrontend", "microfrontend", id, err.Error(), err)
	}

	return rowToMicrofrontend(&row), nil
}

func getMicrofrontendByName(ctx context.Context, exec executor, name string) (*domain.Microfrontend, error) {
	query := `SELECT * FROM microfrontends WHERE name = ?`

	var row microfrontendRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetMicrofrontendByName", "microfrontend", name, "microfrontend not found", ErrNotFound)
		}
		return nil, NewStoreError("GetMicrofrontendByName", "microfrontend", name, err.Error(), err)
	}

	return rowToMicrofrontend(&row), nil
}

// updateMicrofrontend applies optimistic locking: the stored version must
// equal mfe.VersionID. On success mfe carries the new version.
func updateMicrofrontend(ctx context.Context, exec executor, mfe *domain.Microfrontend) error {
	updatedAt := time.Now().UTC()

	query := `
		UPDATE microfrontends SET
			version_id = version_id + 1,
			name = :name,
			uri = :uri,
			enabled = :enabled,
			configuration = :configuration,
			updated_at = :updated_at
		WHERE id = :id AND version_id = :version_id`

	row := microfrontendToRow(mfe)
	row.UpdatedAt = updatedAt.Format(time.RFC3339)

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: microfrontends.name") {
			return NewStoreError("UpdateMicrofrontend", "microfrontend", mfe.ID, "microfrontend with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("UpdateMicrofrontend", "microfrontend", mfe.ID, err.Error(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("UpdateMicrofrontend", "microfrontend", mfe.ID, err.Error(), err)
	}
	if rows == 0 {
		current, err := getMicrofrontend(ctx, exec, mfe.ID)
		if err != nil {
			return NewStoreError("UpdateMicrofrontend", "microfrontend", mfe.ID, "microfrontend not found", ErrNotFound)
		}
		return NewStoreError("UpdateMicrofrontend", "microfrontend", mfe.ID,
			fmt.Sprintf("version %d is stale, current version is %d", mfe.VersionID, current.VersionID), ErrVersionConflict)
	}

	mfe.VersionID++
	mfe.UpdatedAt = updatedAt
	return nil
}

// upsertMicrofrontend inserts mfe or, when the name exists, replaces its
// uri, enabled flag and configuration. mfe is refreshed from the stored row.
func upsertMicrofrontend(ctx context.Context, exec executor, mfe *domain.Microfrontend) error {
	query := `
		INSERT INTO microfrontends (
			id, version_id, name, uri, enabled, configuration, created_at, updated_at
		) VALUES (
			:id, :version_id, :name, :uri, :enabled, :configuration, :created_at, :updated_at
		)
		ON CONFLICT(name) DO UPDATE SET
			version_id = microfrontends.version_id + 1,
			uri = excluded.uri,
			enabled = excluded.enabled,
			configuration = excluded.configuration,
			updated_at = excluded.updated_at`

	if _, err := exec.NamedExecContext(ctx, query, microfrontendToRow(mfe)); err != nil {
		return NewStoreError("UpsertMicrofrontend", "microfrontend", mfe.Name, err.Error(), err)
	}

	stored, err := getMicrofrontendByName(ctx, exec, mfe.Name)
	if err != nil {
		return err
	}
	*mfe = *stored
	return nil
}

func deleteMicrofrontend(ctx context.Context, exec executor, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM microfrontends WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteMicrofrontend", "microfrontend", id, err.Error(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("DeleteMicrofrontend", "microfrontend", id, err.Error(), err)
	}
	if rows == 0 {
		return NewStoreError("DeleteMicrofrontend", "microfrontend", id, "microfrontend not found", ErrNotFound)
	}

	return nil
}

// listMicrofrontends returns all records in creation order.
func listMicrofrontends(ctx context.Context, exec executor) ([]domain.Microfrontend, error) {
	query := `SELECT * FROM microfrontends ORDER BY rowid`

	var rows []microfrontendRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("ListMicrofrontends", "microfrontend", "", err.Error(), err)
	}

	mfes := make([]domain.Microfrontend, 0, len(rows))
	for i := range rows {
		mfes = append(mfes, *rowToMicrofrontend(&rows[i]))
	}
	return mfes, nil
}

// =============================================================================
// Shared Implementation Functions - Feature Flags
// =============================================================================

func setFeatureFlag(ctx context.Context, exec executor, flag *domain.FeatureFlag) error {
	if err := flag.Validate(); err != nil {
		return NewStoreError("SetFeatureFlag", "feature_flag", flag.Key, err.Error(), ErrInvalidFlag)
	}

	flag.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO feature_flags (key, enabled, description, updated_at)
		VALUES (:key, :enabled, :description, :updated_at)
		ON CONFLICT(key) DO UPDATE SET
			enabled = excluded.enabled,
			description = excluded.description,
			updated_at = excluded.updated_at`

	row := featureFlagRow{
		Key:         flag.Key,
		Enabled:     flag.Enabled,
		Description: flag.Description,
		UpdatedAt:   flag.UpdatedAt.Format(time.RFC3339),
	}

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return NewStoreError("SetFeatureFlag", "feature_flag", flag.Key, err.Error(), err)
	}
	return nil
}

func getFeatureFlag(ctx context.Context, exec executor, key string) (*domain.FeatureFlag, error) {
	var row featureFlagRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM feature_flags WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetFeatureFlag", "feature_flag", key, "feature flag not found", ErrNotFound)
		}
		return nil, NewStoreError("GetFeatureFlag", "feature_flag", key, err.Error(), err)
	}

	return rowToFeatureFlag(&row), nil
}

func deleteFeatureFlag(ctx context.Context, exec executor, key string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM feature_flags WHERE key = ?`, key)
	if err != nil {
		return NewStoreError("DeleteFeatureFlag", "feature_flag", key, err.Error(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("DeleteFeatureFlag", "feature_flag", key, err.Error(), err)
	}
	if rows == 0 {
		return NewStoreError("DeleteFeatureFlag", "feature_flag", key, "feature flag not found", ErrNotFound)
	}

	return nil
}

func listFeatureFlags(ctx context.Context, exec executor) ([]domain.FeatureFlag, error) {
	var rows []featureFlagRow
	if err := exec.SelectContext(ctx, &rows, `SELECT * FROM feature_flags ORDER BY key`); err != nil {
		return nil, NewStoreError("ListFeatureFlags", "feature_flag", "", err.Error(), err)
	}

	flags := make([]domain.FeatureFlag, 0, len(rows))
	for i := range rows {
		flags = append(flags, *rowToFeatureFlag(&rows[i]))
	}
	return flags, nil
}

func hasFeature(ctx context.Context, exec executor, key string) (bool, error) {
	var enabled bool
	err := exec.GetContext(ctx, &enabled, `SELECT enabled FROM feature_flags WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, NewStoreError("HasFeature", "feature_flag", key, err.Error(), err)
	}
	return enabled, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func microfrontendToRow(mfe *domain.Microfrontend) microfrontendRow {
	return microfrontendRow{
		ID:            mfe.ID,
		VersionID:     mfe.VersionID,
		Name:          mfe.Name,
		URI:           mfe.URI,
		Enabled:       mfe.Enabled,
		Configuration: mfe.Configuration,
		CreatedAt:     mfe.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     mfe.UpdatedAt.Format(time.RFC3339),
	}
}

// rowToMicrofrontend converts a database row to a domain.Microfrontend.
func rowToMicrofrontend(row *microfrontendRow) *domain.Microfrontend {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.Microfrontend{
		ID:            row.ID,
		VersionID:     row.VersionID,
		Name:          row.Name,
		URI:           row.URI,
		Enabled:       row.Enabled,
		Configuration: row.Configuration,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// rowToFeatureFlag converts a database row to a domain.FeatureFlag.
func rowToFeatureFlag(row *featureFlagRow) *domain.FeatureFlag {
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.FeatureFlag{
		Key:         row.Key,
		Enabled:     row.Enabled,
		Description: row.Description,
		UpdatedAt:   updatedAt,
	}
}
