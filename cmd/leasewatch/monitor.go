package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leasewatch/leasewatch/internal/cli"
	"github.com/leasewatch/leasewatch/internal/engine"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/schedule"
)

func monitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the compliance monitoring pipeline",
		Long: `Fetch new bills and court opinions for every active jurisdiction,
classify their relevance, and publish template updates through the
review pipeline. Runs once by default; use --every for scheduled mode.`,
		RunE: runMonitor,
	}

	cmd.Flags().Duration("every", 0, "run on an interval instead of once (e.g. 6h)")
	cmd.Flags().Int("max-per-source", 0, "cap candidates per source per jurisdiction")
	cmd.Flags().Int("since-year", 0, "earliest year sources search")
	_ = viper.BindPFlag("monitor.max_per_source", cmd.Flags().Lookup("max-per-source"))
	_ = viper.BindPFlag("monitor.since_year", cmd.Flags().Lookup("since-year"))

	return cmd
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	classifier, llmClient, err := buildClassifier(logger)
	if err != nil {
		return err
	}
	if llmClient != nil {
		defer llmClient.Close()
	}

	publisher := engine.NewReviewPublisher(store, store, buildNotifier(logger), logger)
	run := engine.NewMonitoringRun(store, store, classifier, publisher, buildSources(logger), engine.RunConfig{
		MaxPerSource: viper.GetInt("monitor.max_per_source"),
		SinceYear:    viper.GetInt("monitor.since_year"),
	}, logger)

	every, _ := cmd.Flags().GetDuration("every")
	if every > 0 {
		runner := schedule.NewRunner(every, logger)
		return runner.Run(ctx, func(jobCtx context.Context) error {
			return executeRun(jobCtx, run)
		})
	}

	return executeRun(ctx, run)
}

func executeRun(ctx context.Context, run *engine.MonitoringRun) error {
	var bar *progressbar.ProgressBar
	run.OnJurisdiction = func(jurisdiction model.Jurisdiction, index, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Checking jurisdictions..."),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		if index > 0 {
			_ = bar.Add(1)
		}
	}

	started := time.Now()
	summary, err := run.Execute(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if summary != nil {
			fmt.Println(cli.FormatError(summary.Report))
		}
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s (took %s)",
		summary.Report, time.Since(started).Round(time.Second))))

	return nil
}
