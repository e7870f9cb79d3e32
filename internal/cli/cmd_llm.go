package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwhitford/backlogctl/internal/db"
	"github.com/mwhitford/backlogctl/internal/llmprobe"
)

// newLLMCmd creates the llm command group
func newLLMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Manage and probe LLM endpoint configurations",
	}
	cmd.AddCommand(newLLMListCmd())
	cmd.AddCommand(newLLMSetCmd())
	cmd.AddCommand(newLLMProbeCmd())
	return cmd
}

// newLLMListCmd creates the llm list command
func newLLMListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored LLM configurations",
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

			configs, err := store.ListLLMConfigurations(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), configs)
			}
			if len(configs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No LLM configurations stored. Add one with: backlogctl llm set")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROVIDER\tURL\tMODEL\tDEFAULT")
			for _, c := range configs {
				def := ""
				if c.IsDefault {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Provider, c.BaseURL, c.Model, def)
			}
			return w.Flush()
		},
	}
}

// newLLMSetCmd creates the llm set command
func newLLMSetCmd() *cobra.Command {
	var (
		provider   string
		baseURL    string
		model      string
		setDefault bool
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Create or update a named LLM configuration",
		Long: `Create or update a named LLM configuration. Saving an existing name
updates it in place.

Example:
  backlogctl llm set local --provider ollama --url http://localhost:11434 --model llama3:8b --default`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch provider {
			case "ollama", "openai":
			default:
				return fmt.Errorf("provider must be ollama or openai, got %q", provider)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd, cfg.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			name := args[0]
			err = store.SaveLLMConfiguration(cmd.Context(), &db.LLMConfiguration{
				Name:     name,
				Provider: provider,
				BaseURL:  baseURL,
				Model:    model,
			})
			if err != nil {
				return err
			}
			if setDefault {
				if err := store.SetDefaultLLMConfiguration(cmd.Context(), name); err != nil {
					return err
				}
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved LLM configuration %q\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "ollama", "provider (ollama|openai)")
	cmd.Flags().StringVar(&baseURL, "url", "", "endpoint base URL (required)")
	cmd.Flags().StringVar(&model, "model", "", "model name (required)")
	cmd.Flags().BoolVar(&setDefault, "default", false, "make this the default configuration")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// newLLMProbeCmd creates the llm probe command
func newLLMProbeCmd() *cobra.Command {
	var skipCompletion bool

	cmd := &cobra.Command{
		Use:   "probe [name]",
		Short: "Check an LLM endpoint end to end",
		Long: `Check an LLM endpoint: list its models and run a one-shot completion.

Without a name the stored default configuration is probed, falling back
to the llm section of the config file.`,
		Args: cobra.MaximumNArgs(1),
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

			baseURL := cfg.Config.LLM.BaseURL
			model := cfg.Config.LLM.Model
			if len(args) == 1 {
				c, err := store.GetLLMConfiguration(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				baseURL, model = c.BaseURL, c.Model
			} else if c, err := store.DefaultLLMConfiguration(cmd.Context()); err != nil {
				return err
			} else if c != nil {
				baseURL, model = c.BaseURL, c.Model
			}

			prober, err := llmprobe.New(baseURL, cfg.Config.LLM.Timeout())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			models, err := prober.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if !jsonOut {
				fmt.Fprintf(out, "Endpoint %s serves %d model(s)\n", baseURL, len(models))
				for _, m := range models {
					if m.ParameterSize != "" {
						fmt.Fprintf(out, "  %s (%s)\n", m.Name, m.ParameterSize)
					} else {
						fmt.Fprintf(out, "  %s\n", m.Name)
					}
				}
			}

			if skipCompletion {
				if jsonOut {
					return printJSON(out, models)
				}
				return nil
			}

			result, err := prober.Completion(cmd.Context(), model)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "Completion via %s route in %s: %s\n",
				result.Route, result.Latency.Round(time.Millisecond), truncate(result.Reply, 80))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCompletion, "skip-completion", false, "only list models, skip the completion round-trip")
	return cmd
}
