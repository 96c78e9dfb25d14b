package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leasewatch/leasewatch/internal/cli"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

func reviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "List the template review queue",
		Long: `Show review entries ordered by priority. Each entry records why a
legal change flagged a template and whether the update published.`,
		RunE: runReviews,
	}

	cmd.Flags().String("status", "", "filter by status (pending, approved, rejected)")
	cmd.Flags().String("jurisdiction", "", "filter by jurisdiction id")
	cmd.Flags().Int("min-priority", 0, "minimum priority (5 medium, 10 high)")
	cmd.Flags().Int("limit", 50, "maximum entries to show")

	return cmd
}

func runReviews(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	status, _ := cmd.Flags().GetString("status")
	jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
	minPriority, _ := cmd.Flags().GetInt("min-priority")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.ReviewFilter{
		Status:         model.ReviewStatus(status),
		JurisdictionID: jurisdiction,
		MinPriority:    minPriority,
		Limit:          limit,
	}
	if status != "" && !filter.Status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	entries, err := store.ListReviewEntries(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list review entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No review entries match the filter."))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Review Queue (%d entries)", len(entries))))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tTEMPLATE\tPRIORITY\tSTATUS\tSOURCE\tREASON"))
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s %s\t%s\n",
			e.ID,
			e.TemplateID,
			e.Priority,
			cli.StatusStyle(string(e.Status)).Render(string(e.Status)),
			e.SourceKind,
			e.ExternalID,
			truncate(e.Reason, 60),
		)
	}

	return w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
