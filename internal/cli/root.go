// Package cli implements the backlogctl command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwhitford/backlogctl/internal/config"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	jsonOut bool
	logFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backlogctl",
	Short: "Operator tooling for the AI backlog generation pipeline",
	Long: `backlogctl inspects and drives the backlog generation pipeline that turns
a product vision into Epics, Features, User Stories, Tasks and Test Cases.

It talks to four surfaces:
  • the backlog generation REST API (submit and watch jobs)
  • the local job tracking database (jobs, reports, LLM configurations)
  • Azure DevOps (read-only work item queries)
  • the LLM inference endpoint and Teams webhook (health checks)

Quick start:
  backlogctl migrate                  Create or upgrade the job database
  backlogctl jobs add --project P     Submit a generation job
  backlogctl jobs watch 1             Follow a job until it finishes
  backlogctl doctor                   Check every configured endpoint`,
	SilenceUsage:      true,
	PersistentPreRunE: setupOutput,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardownOutput()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .backlogctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "duplicate output to this log file")

	// Add subcommands
	rootCmd.AddCommand(newJobsCmd())
	rootCmd.AddCommand(newReportsCmd())
	rootCmd.AddCommand(newLLMCmd())
	rootCmd.AddCommand(newBoardCmd())
	rootCmd.AddCommand(newLimitsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newWebhookCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ToolDir)
		viper.AddConfigPath("$HOME/" + config.ToolDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("BACKLOGCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
