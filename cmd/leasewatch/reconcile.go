package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leasewatch/leasewatch/internal/cli"
	"github.com/leasewatch/leasewatch/internal/engine"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Report inconsistencies needing manual attention",
		Long: `List review entries stuck pending after a successful publish and
monitoring runs that never wrote a terminal summary. Both indicate a
crash or partial failure an operator should look at.`,
		RunE: runReconcile,
	}
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	report, err := engine.BuildReconciliationReport(ctx, store)
	if err != nil {
		return err
	}

	if report.Clean() {
		fmt.Println(cli.FormatSuccess("Nothing to reconcile."))
		return nil
	}

	if len(report.StuckReviews) > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d review entries published but never approved:", len(report.StuckReviews))))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTEMPLATE\tSTARTED\tREASON")
		for _, e := range report.StuckReviews {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				e.ID, e.TemplateID, e.StartedAt.Format("2006-01-02 15:04"), truncate(e.Reason, 60))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(report.DanglingRuns) > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d runs never finished:", len(report.DanglingRuns))))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED")
		for _, r := range report.DanglingRuns {
			fmt.Fprintf(w, "%s\t%s\n", r.RunID, r.StartedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}
