package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mwhitford/backlogctl/internal/config"
)

// newConfigCmd creates the config command group
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigAgentsCmd())
	return cmd
}

// newConfigAgentsCmd creates the config agents command
func newConfigAgentsCmd() *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Show per-agent generation multipliers",
		Long: `Show the effective generation multiplier for each known agent and how
many items each would be asked to generate for a given target count.

Agents absent from both the built-in table and the config get the
default multiplier of 2.0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := loadConfig()
			if err != nil {
				return err
			}
			gen := tc.Config.Generation

			agents := config.KnownAgents()
			for agent := range gen.Multipliers {
				if _, known := builtinAgent(agents, agent); !known {
					agents = append(agents, agent)
				}
			}
			sort.Strings(agents)

			if jsonOut {
				type row struct {
					Agent      string  `json:"agent"`
					Multiplier float64 `json:"multiplier"`
					Count      int     `json:"generation_count"`
				}
				rows := make([]row, 0, len(agents))
				for _, agent := range agents {
					rows = append(rows, row{agent, gen.Multiplier(agent), gen.GenerationCount(agent, target)})
				}
				return printJSON(cmd.OutOrStdout(), rows)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "AGENT\tMULTIPLIER\tFOR TARGET %d\n", target)
			for _, agent := range agents {
				fmt.Fprintf(w, "%s\t%.2f\t%d\n", agent, gen.Multiplier(agent), gen.GenerationCount(agent, target))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&target, "target", 10, "target item count to project generation requests for")
	return cmd
}

func builtinAgent(agents []string, name string) (string, bool) {
	for _, a := range agents {
		if a == name {
			return a, true
		}
	}
	return "", false
}

// newConfigShowCmd creates the config show command
func newConfigShowCmd() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after merging defaults, the user
config, the project config, and BACKLOGCTL_* environment variables.

With --sources each overridden field is listed with the layer that set it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := loadConfig()
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"config":  tc.Config,
					"sources": tc.Sources(),
				})
			}

			out := cmd.OutOrStdout()
			data, err := yaml.Marshal(tc.Config)
			if err != nil {
				return fmt.Errorf("render config: %w", err)
			}
			fmt.Fprint(out, string(data))

			if showSources {
				sources := tc.Sources()
				if len(sources) == 0 {
					fmt.Fprintln(out, "\nAll values are built-in defaults.")
					return nil
				}
				fields := make([]string, 0, len(sources))
				for f := range sources {
					fields = append(fields, f)
				}
				sort.Strings(fields)

				fmt.Fprintln(out, "\nOverridden fields:")
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, f := range fields {
					fmt.Fprintf(w, "  %s\t%s\n", f, sources[f])
				}
				return w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "show which layer set each overridden field")
	return cmd
}
