package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwhitford/backlogctl/internal/notify"
)

// newWebhookCmd creates the webhook command group
func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Check the Teams notification webhook",
	}
	cmd.AddCommand(newWebhookTestCmd())
	return cmd
}

// newWebhookTestCmd creates the webhook test command
func newWebhookTestCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test message to the configured webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			wh, err := notify.NewWebhook(cfg.Config.Webhook.URL, cfg.Config.API.Timeout())
			if err != nil {
				return err
			}
			if err := wh.Send(cmd.Context(), message); err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Webhook accepted the test message.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "backlogctl webhook test", "message text to send")
	return cmd
}
