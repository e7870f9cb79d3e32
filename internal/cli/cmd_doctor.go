package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mwhitford/backlogctl/internal/config"
)

// checkResult is the outcome of one doctor check.
type checkResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Skipped bool          `json:"skipped,omitempty"`
	Detail  string        `json:"detail,omitempty"`
	Took    time.Duration `json:"took"`
}

// newDoctorCmd creates the doctor command
func newDoctorCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check every configured endpoint",
		Long: `Check the job database, the backlog API, the Azure DevOps board, and
the LLM endpoint concurrently, and report which are healthy.

Endpoints with no configuration are reported as skipped rather than failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			results := runChecks(ctx, cmd, cfg.Config)

			if jsonOut {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, r := range results {
					label := checkLabel(r.OK)
					if r.Skipped {
						label = "skip"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						r.Name, label, r.Took.Round(time.Millisecond), r.Detail)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			for _, r := range results {
				if !r.OK && !r.Skipped {
					return fmt.Errorf("%d check(s) failed", countFailed(results))
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for all checks")
	return cmd
}

func countFailed(results []checkResult) int {
	n := 0
	for _, r := range results {
		if !r.OK && !r.Skipped {
			n++
		}
	}
	return n
}

// runChecks probes every surface concurrently. Check failures land in the
// results, never in the group error, so one bad endpoint does not hide
// the state of the others.
func runChecks(ctx context.Context, cmd *cobra.Command, cfg *config.Config) []checkResult {
	type probe struct {
		name string
		skip string
		run  func(context.Context) (string, error)
	}

	probes := []probe{
		{
			name: "job store",
			run: func(ctx context.Context) (string, error) {
				store, err := openStore(cmd, cfg)
				if err != nil {
					return "", err
				}
				defer store.Close()
				versions, err := store.AppliedMigrations(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s, %d migration(s)", store.Dialect(), len(versions)), nil
			},
		},
		{
			name: "backlog API",
			run: func(ctx context.Context) (string, error) {
				client, err := newAPIClient(cfg)
				if err != nil {
					return "", err
				}
				if err := client.CheckAuth(ctx); err != nil {
					return "", err
				}
				return cfg.API.BaseURL, nil
			},
		},
		{
			name: "board",
			skip: boardSkipReason(cfg),
			run: func(ctx context.Context) (string, error) {
				client, err := newBoardClient(cfg)
				if err != nil {
					return "", err
				}
				if err := client.CheckAuth(ctx); err != nil {
					return "", err
				}
				return cfg.Board.OrgURL + " / " + cfg.Board.Project, nil
			},
		},
		{
			name: "LLM endpoint",
			run: func(ctx context.Context) (string, error) {
				prober, err := newProber(cfg)
				if err != nil {
					return "", err
				}
				models, err := prober.ListModels(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s, %d model(s)", cfg.LLM.BaseURL, len(models)), nil
			},
		},
		{
			name: "webhook",
			skip: webhookSkipReason(cfg),
			run: func(ctx context.Context) (string, error) {
				// Configured is as far as doctor goes: a real POST would
				// post a message into the channel.
				return "configured", nil
			},
		},
	}

	results := make([]checkResult, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probes {
		g.Go(func() error {
			if p.skip != "" {
				results[i] = checkResult{Name: p.name, OK: true, Skipped: true, Detail: p.skip}
				return nil
			}
			start := time.Now()
			detail, err := p.run(gctx)
			r := checkResult{Name: p.name, Took: time.Since(start)}
			if err != nil {
				r.Detail = err.Error()
			} else {
				r.OK = true
				r.Detail = detail
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func boardSkipReason(cfg *config.Config) string {
	if cfg.Board.OrgURL == "" {
		return "board.org_url not configured"
	}
	return ""
}

func webhookSkipReason(cfg *config.Config) string {
	if cfg.Webhook.URL == "" {
		return "webhook.url not configured"
	}
	return ""
}
