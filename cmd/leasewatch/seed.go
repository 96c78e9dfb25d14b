package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leasewatch/leasewatch/internal/cli"
	"github.com/leasewatch/leasewatch/internal/config"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed jurisdictions and templates from a yaml file",
		Long: `Load the watched jurisdictions and the template catalog from a yaml
seed file. Seeding is idempotent: existing entries are updated in
place and published template versions are never touched.`,
		RunE: runSeed,
	}

	cmd.Flags().String("file", "", "path to the seed yaml file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("file")
	seed, err := config.LoadSeedFile(path)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SeedJurisdictions(ctx, seed.ModelJurisdictions()); err != nil {
		return fmt.Errorf("failed to seed jurisdictions: %w", err)
	}
	if err := store.SeedTemplates(ctx, seed.ModelTemplates()); err != nil {
		return fmt.Errorf("failed to seed templates: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Seeded %d jurisdictions and %d templates.",
		len(seed.Jurisdictions), len(seed.Templates))))

	return nil
}
