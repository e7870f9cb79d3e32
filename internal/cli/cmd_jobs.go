// Package cli implements the backlogctl command-line interface.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwhitford/backlogctl/internal/backlogapi"
	"github.com/mwhitford/backlogctl/internal/config"
	"github.com/mwhitford/backlogctl/internal/db"
)

// newJobsCmd creates the jobs command group
func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Track and drive backlog generation jobs",
	}
	cmd.AddCommand(newJobsListCmd())
	cmd.AddCommand(newJobsShowCmd())
	cmd.AddCommand(newJobsAddCmd())
	cmd.AddCommand(newJobsWatchCmd())
	cmd.AddCommand(newJobsOrphansCmd())
	return cmd
}

// newJobsListCmd creates the jobs list command
func newJobsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked jobs",
		Long: `List tracked backlog generation jobs, newest first.

Example:
  backlogctl jobs list
  backlogctl jobs list --status running
  backlogctl jobs list --limit 5`,
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

			jobs, err := store.ListJobs(cmd.Context(), status, limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), jobs)
			}

			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs tracked. Submit one with: backlogctl jobs add")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREMOTE\tSTATUS\tPROJECT\tSUBMITTER\tUPDATED")
			for _, j := range jobs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					j.ID, dash(j.RemoteID), statusLabel(j.Status), j.Project,
					dash(j.Submitter), j.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (queued|running|completed|failed|cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show (0 for all)")
	return cmd
}

// newJobsShowCmd creates the jobs show command
func newJobsShowCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one tracked job",
		Long: `Show one tracked job by local ID or by the remote job identifier.

With --refresh the backlog API is queried for the live status first and
the stored row is updated before display.`,
		Args: cobra.ExactArgs(1),
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

			if refresh && job.RemoteID != "" && !job.Terminal() {
				client, err := newAPIClient(cfg.Config)
				if err != nil {
					return err
				}
				st, err := client.JobStatus(cmd.Context(), job.RemoteID)
				if err != nil {
					return err
				}
				if st.State != job.Status {
					if err := store.UpdateJobStatus(cmd.Context(), job.ID, st.State, st.Error); err != nil {
						return err
					}
					job, err = store.GetJob(cmd.Context(), job.ID)
					if err != nil {
						return err
					}
				}
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), job)
			}
			printJob(cmd, job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "query the backlog API and update the stored status first")
	return cmd
}

// newJobsAddCmd creates the jobs add command
func newJobsAddCmd() *cobra.Command {
	var (
		project    string
		vision     string
		visionFile string
		optimize   bool
		login      bool
		username   string
		llmConfig  string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a backlog generation job",
		Long: `Submit a backlog generation job to the pipeline and track it locally.

The configured work item limits are attached to the request. With
--optimize the vision text is run through the optimizer first.

Example:
  backlogctl jobs add --project Phoenix --vision-file vision.txt
  backlogctl jobs add --project Phoenix --vision "..." --optimize --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if visionFile != "" {
				data, err := os.ReadFile(visionFile)
				if err != nil {
					return fmt.Errorf("read vision file: %w", err)
				}
				vision = string(data)
			}

			resolved, err := cfg.Config.ResolveLimits()
			if err != nil {
				return err
			}
			if res := resolved.Validate(); !res.Valid {
				for _, warn := range res.Warnings {
					fmt.Fprintln(cmd.ErrOrStderr(), "limits:", warn)
				}
				return fmt.Errorf("configured limits are invalid")
			}

			client, err := newAPIClient(cfg.Config)
			if err != nil {
				return err
			}

			submitter := currentUser()
			if login {
				user := username
				if user == "" {
					user = cfg.Config.API.Username
				}
				if user == "" {
					return fmt.Errorf("--login requires --username or api.username in config")
				}
				password, err := promptPassword(fmt.Sprintf("Password for %s: ", user))
				if err != nil {
					return err
				}
				if err := client.Login(cmd.Context(), user, password); err != nil {
					return err
				}
				submitter = user
			}

			if optimize {
				optimized, err := client.OptimizeVision(cmd.Context(), vision)
				if err != nil {
					return err
				}
				vision = optimized
				if verbose {
					fmt.Fprintln(cmd.ErrOrStderr(), "vision optimized:", truncate(vision, 120))
				}
			}

			remoteID, err := client.SubmitJob(cmd.Context(), backlogapi.SubmitRequest{
				Project:   project,
				Vision:    vision,
				Limits:    resolved,
				LLMConfig: llmConfig,
			})
			if err != nil {
				return err
			}

			store, err := openStore(cmd, cfg.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := store.CreateJob(cmd.Context(), &db.Job{
				RemoteID:  remoteID,
				Project:   project,
				Status:    db.JobStatusQueued,
				Submitter: submitter,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d submitted (remote %s)\n", job.ID, remoteID)

			if watch {
				return watchJob(cmd, cfg.Config, store, client, job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Follow it with: backlogctl jobs watch %d\n", job.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "target project (required)")
	cmd.Flags().StringVar(&vision, "vision", "", "product vision text")
	cmd.Flags().StringVar(&visionFile, "vision-file", "", "read the vision from a file")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "run the vision through the optimizer before submitting")
	cmd.Flags().BoolVar(&login, "login", false, "authenticate before submitting")
	cmd.Flags().StringVar(&username, "username", "", "username for --login (default api.username)")
	cmd.Flags().StringVar(&llmConfig, "llm-config", "", "named LLM configuration for the pipeline to use")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch the job until it reaches a terminal status")
	_ = cmd.MarkFlagRequired("project")
	cmd.MarkFlagsMutuallyExclusive("vision", "vision-file")
	return cmd
}

// newJobsWatchCmd creates the jobs watch command
func newJobsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow a job until it reaches a terminal status",
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
			if job.RemoteID == "" {
				return fmt.Errorf("job %d has no remote identifier to poll", job.ID)
			}
			if job.Terminal() {
				printJob(cmd, job)
				return nil
			}

			client, err := newAPIClient(cfg.Config)
			if err != nil {
				return err
			}
			return watchJob(cmd, cfg.Config, store, client, job)
		},
	}
}

// newJobsOrphansCmd creates the jobs orphans command
func newJobsOrphansCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List live jobs that stopped receiving updates",
		Long: `List queued or running jobs whose last update is older than the
threshold. These usually mean the pipeline died without reporting back.`,
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

			jobs, err := store.OrphanedJobs(cmd.Context(), olderThan)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orphaned jobs.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREMOTE\tSTATUS\tPROJECT\tLAST UPDATE")
			for _, j := range jobs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					j.ID, dash(j.RemoteID), statusLabel(j.Status), j.Project,
					j.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "staleness threshold")
	return cmd
}

// resolveJob finds a job by local numeric ID, falling back to the remote
// identifier for non-numeric arguments.
func resolveJob(cmd *cobra.Command, store *db.DB, arg string) (*db.Job, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return store.GetJob(cmd.Context(), id)
	}
	return store.GetJobByRemoteID(cmd.Context(), arg)
}

// watchJob polls the backlog API until the job finishes, mirroring every
// transition into the job store.
func watchJob(cmd *cobra.Command, cfg *config.Config, store *db.DB, client *backlogapi.Client, job *db.Job) error {
	ctx, cancel := SetupSignalHandler()
	defer cancel()

	out := cmd.OutOrStdout()
	final, err := client.WatchJob(ctx, job.RemoteID, cfg.API.PollInterval(), cfg.API.PollTimeout(),
		func(st *backlogapi.JobStatus) {
			line := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), statusLabel(st.State))
			if st.CurrentAgent != "" {
				line += "  agent=" + st.CurrentAgent
			}
			if st.Progress > 0 {
				line += fmt.Sprintf("  %.0f%%", st.Progress*100)
			}
			fmt.Fprintln(out, line)
			if uerr := store.UpdateJobStatus(ctx, job.ID, st.State, st.Error); uerr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: record status:", uerr)
			}
		})
	if err != nil {
		return err
	}

	if uerr := store.UpdateJobStatus(cmd.Context(), job.ID, final.State, final.Error); uerr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: record status:", uerr)
	}
	fmt.Fprintf(out, "Job %d finished: %s\n", job.ID, statusLabel(final.State))
	if final.Error != "" {
		fmt.Fprintln(out, "Error:", final.Error)
	}
	if final.State == db.JobStatusFailed {
		return fmt.Errorf("job %d failed", job.ID)
	}
	return nil
}

// printJob renders one job in detail form.
func printJob(cmd *cobra.Command, job *db.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:       %d\n", job.ID)
	fmt.Fprintf(out, "Remote:    %s\n", dash(job.RemoteID))
	fmt.Fprintf(out, "Project:   %s\n", job.Project)
	fmt.Fprintf(out, "Status:    %s\n", statusLabel(job.Status))
	fmt.Fprintf(out, "Submitter: %s\n", dash(job.Submitter))
	fmt.Fprintf(out, "Created:   %s\n", job.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Updated:   %s\n", job.UpdatedAt.Format(time.RFC3339))
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", job.ErrorMessage)
	}
}
