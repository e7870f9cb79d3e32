package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwhitford/backlogctl/internal/azdo"
)

// newBoardCmd creates the board command group
func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect work items on the Azure DevOps board",
		Long: `Inspect work items the pipeline uploaded to Azure DevOps.

All board commands are read-only; backlogctl never creates or modifies
work items.`,
	}
	cmd.AddCommand(newBoardQueryCmd())
	cmd.AddCommand(newBoardChildrenCmd())
	return cmd
}

// newBoardQueryCmd creates the board query command
func newBoardQueryCmd() *cobra.Command {
	var (
		area     string
		itemType string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List work items under an area path",
		Long: `List work items under an area path, optionally filtered by type.

Example:
  backlogctl board query --area "Phoenix\\Backlog"
  backlogctl board query --area "Phoenix\\Backlog" --type Epic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newBoardClient(cfg.Config)
			if err != nil {
				return err
			}

			items, err := client.ItemsUnderArea(cmd.Context(), area, itemType)
			if err != nil {
				return err
			}
			return renderWorkItems(cmd, items)
		},
	}

	cmd.Flags().StringVar(&area, "area", "", "area path to query under (required)")
	cmd.Flags().StringVar(&itemType, "type", "", "work item type filter (Epic|Feature|User Story|Task|Test Case)")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

// newBoardChildrenCmd creates the board children command
func newBoardChildrenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "children <work-item-id>",
		Short: "List the direct children of a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("work item id must be numeric: %q", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newBoardClient(cfg.Config)
			if err != nil {
				return err
			}

			items, err := client.Children(cmd.Context(), parentID)
			if err != nil {
				return err
			}
			return renderWorkItems(cmd, items)
		},
	}
}

// renderWorkItems prints work items as JSON or a table.
func renderWorkItems(cmd *cobra.Command, items []azdo.WorkItem) error {
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), items)
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching work items.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATE\tPARENT\tTITLE")
	for _, it := range items {
		parent := "-"
		if it.ParentID != 0 {
			parent = strconv.Itoa(it.ParentID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			it.ID, it.Type, it.State, parent, truncate(it.Title, 60))
	}
	return w.Flush()
}
