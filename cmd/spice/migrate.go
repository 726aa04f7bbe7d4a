package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup; use this to prepare a database
ahead of time or to inspect its schema version.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := currentConfig().DatabasePath

	slog.Debug("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		version, dirty, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		content := fmt.Sprintf("Database: %s\nCurrent version: %d\nLatest version: %d",
			dbPath, version, storage.ExpectedSchemaVersion)
		if dirty {
			content += "\n" + cli.FormatWarning("Schema is dirty: a previous migration failed part-way")
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("📊 Database Migration Status", content))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("✓ Database at %s is at schema version %d", dbPath, storage.ExpectedSchemaVersion)))
	return nil
}
