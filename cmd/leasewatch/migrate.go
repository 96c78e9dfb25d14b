package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leasewatch/leasewatch/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.
Safe to run repeatedly; already-applied migrations are skipped.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	slog.Info("Running database migrations...")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = store.Close() }()

	fmt.Println(cli.FormatSuccess("Database schema is up to date."))

	return nil
}
