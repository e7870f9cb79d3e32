package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwhitford/backlogctl/internal/limits"
)

// countKeys orders item-count output by hierarchy level.
var countKeys = []string{
	limits.LevelEpics,
	limits.LevelFeatures,
	limits.LevelUserStories,
	limits.LevelTasks,
	limits.LevelTestCases,
	limits.LevelTotal,
}

// newReportsCmd creates the reports command group
func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect stored generation reports",
	}
	cmd.AddCommand(newReportsShowCmd())
	cmd.AddCommand(newReportsMissingCmd())
	return cmd
}

// newReportsShowCmd creates the reports show command
func newReportsShowCmd() *cobra.Command {
	var contentOnly bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the report stored for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd, cfg.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := resolveJob(cmd, store, args[0])
			if err != nil {
				return err
			}
			report, err := store.GetReportByJob(cmd.Context(), job.ID)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			if !contentOnly {
				fmt.Fprintf(out, "Report %d for job %d (%s, %s)\n",
					report.ID, job.ID, report.Format, report.CreatedAt.Format(time.RFC3339))
				fmt.Fprintf(out, "Items: %s\n\n", formatCounts(report.ItemCounts, countKeys))
			}
			fmt.Fprintln(out, report.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&contentOnly, "content-only", false, "print only the report body")
	return cmd
}

// newReportsMissingCmd creates the reports missing command
func newReportsMissingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "List completed jobs with no stored report",
		Long: `List completed jobs that never persisted a report. These runs finished
on the pipeline side but their output was lost before it reached the store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd, cfg.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.JobsMissingReports(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Every completed job has a report.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREMOTE\tPROJECT\tCOMPLETED")
			for _, j := range jobs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					j.ID, dash(j.RemoteID), j.Project, j.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
