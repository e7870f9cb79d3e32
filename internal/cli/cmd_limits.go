package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwhitford/backlogctl/internal/limits"
)

// newLimitsCmd creates the limits command group
func newLimitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Inspect and validate work item limits",
	}
	cmd.AddCommand(newLimitsShowCmd())
	cmd.AddCommand(newLimitsValidateCmd())
	cmd.AddCommand(newLimitsPresetsCmd())
	return cmd
}

// newLimitsShowCmd creates the limits show command
func newLimitsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective work item limits",
		Long: `Show the effective limits after merging the configured preset with
per-field overrides, plus the projected maximum item counts they allow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			resolved, err := cfg.Config.ResolveLimits()
			if err != nil {
				return err
			}

			projection := resolved.MaxPossibleItems()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"preset":    cfg.Config.Limits.Preset,
					"limits":    resolved,
					"projected": projection,
				})
			}

			out := cmd.OutOrStdout()
			if cfg.Config.Limits.Preset != "" {
				fmt.Fprintf(out, "Preset: %s\n", cfg.Config.Limits.Preset)
			}
			for _, line := range resolved.Describe() {
				fmt.Fprintln(out, " ", line)
			}

			if len(projection) == 0 {
				fmt.Fprintln(out, "\nNo epic cap set, so total item counts are unbounded.")
				return nil
			}
			fmt.Fprintln(out, "\nProjected maximum items:")
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, level := range countKeys {
				if v, ok := projection[level]; ok {
					fmt.Fprintf(w, "  %s\t%d\n", level, v)
				}
			}
			return w.Flush()
		},
	}
}

// newLimitsValidateCmd creates the limits validate command
func newLimitsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configured limits against their ceilings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			resolved, err := cfg.Config.ResolveLimits()
			if err != nil {
				return err
			}

			result := resolved.Validate()
			if jsonOut {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else if result.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "Limits are valid.")
			} else {
				for _, warn := range result.Warnings {
					fmt.Fprintln(cmd.OutOrStdout(), "warning:", warn)
				}
			}

			if !result.Valid {
				return fmt.Errorf("limits validation produced %d warning(s)", len(result.Warnings))
			}
			return nil
		},
	}
}

// newLimitsPresetsCmd creates the limits presets command
func newLimitsPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in limit presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := limits.PresetNames()

			if jsonOut {
				all := make(map[string]*limits.Limits, len(names))
				for _, name := range names {
					all[name] = limits.Preset(name)
				}
				return printJSON(cmd.OutOrStdout(), all)
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s\n", name)
				for _, line := range limits.Preset(name).Describe() {
					fmt.Fprintln(out, " ", line)
				}
			}
			return nil
		},
	}
}
