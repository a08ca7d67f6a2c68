package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Jake-Brewer/auto-commit/internal/cli"
	"github.com/Jake-Brewer/auto-commit/internal/review"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run review database migrations",
		Long: `Initialize or update the review database schema to the latest
version. The watch command migrates automatically; this exists for
checking state and for upgrading without starting the agent.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dbPath := databasePath()

	store, err := review.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		fmt.Println(cli.FormatTitle("review database"))
		fmt.Println("  path:   " + dbPath)
		fmt.Printf("  schema: %d (latest %d)\n", current, review.ExpectedSchemaVersion)
		if current < review.ExpectedSchemaVersion {
			fmt.Println(cli.FormatWarning("run 'autocommit migrate' to upgrade"))
		}
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess("database schema is current"))
	return nil
}
