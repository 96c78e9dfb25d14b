package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leasewatch/leasewatch/internal/cli"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show monitoring run history",
		RunE:  runRuns,
	}

	cmd.Flags().Int("limit", 20, "maximum runs to show")

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No runs recorded yet."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Monitoring Runs"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cli.TableHeaderStyle.Render("STARTED\tSTATUS\tJURISDICTIONS\tACCEPTED\tRELEVANT\tPUBLISHED\tNOTES"))
	for _, r := range runs {
		notes := r.Report
		if r.ErrorMessage != "" {
			notes = r.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04"),
			cli.StatusStyle(string(r.Status)).Render(string(r.Status)),
			r.JurisdictionsChecked,
			r.CandidatesAccepted,
			r.RelevantCandidates,
			r.TemplatesPublished,
			truncate(notes, 50),
		)
	}

	return w.Flush()
}
