package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/core/manifest"
	"github.com/artpar/portal/internal/shell/source"
	"github.com/artpar/portal/internal/shell/store"
	"github.com/spf13/cobra"
)

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return &ServerError{Op: "Import", Err: err, ExitCode: ExitSourceError}
	}

	records, err := parseImport(data)
	if err != nil {
		return &ServerError{Op: "Import", Err: err, ExitCode: ExitSourceError}
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d microfrontends valid in %s\n", len(records), args[0])
		return nil
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return &ServerError{Op: "LoadConfig", Err: err, ExitCode: ExitConfigError}
	}

	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return &ServerError{Op: "Import", Err: err, ExitCode: ExitDatabaseError}
	}
	defer s.Close()

	if err := importRecords(cmd.Context(), s, records, time.Now().UTC()); err != nil {
		return &ServerError{Op: "Import", Err: err, ExitCode: ExitDatabaseError}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d microfrontends from %s\n", len(records), args[0])
	return nil
}

// parseImport reads a module file and rejects it if any record would not
// load into the registry.
func parseImport(data []byte) ([]domain.Microfrontend, error) {
	records, err := source.ParseFile(data)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("microfrontends[%d]: %w", i, err)
		}
		if _, err := manifest.FromMicrofrontend(r); err != nil {
			return nil, fmt.Errorf("microfrontend %q: %w", r.Name, err)
		}
	}
	return records, nil
}

// importRecords upserts records by name in one transaction. Either all
// records are written or none are.
func importRecords(ctx context.Context, s store.Store, records []domain.Microfrontend, now time.Time) error {
	return s.WithTx(ctx, func(tx store.Store) error {
		for i := range records {
			r := records[i]
			r.CreatedAt = now
			r.UpdatedAt = now
			if err := tx.UpsertMicrofrontend(ctx, &r); err != nil {
				return err
			}
		}
		return nil
	})
}
