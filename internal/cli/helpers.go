// Package cli implements the backlogctl command-line interface.
// This file contains shared helper functions used across multiple commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mwhitford/backlogctl/internal/azdo"
	"github.com/mwhitford/backlogctl/internal/backlogapi"
	"github.com/mwhitford/backlogctl/internal/config"
	"github.com/mwhitford/backlogctl/internal/db"
	"github.com/mwhitford/backlogctl/internal/db/driver"
	"github.com/mwhitford/backlogctl/internal/llmprobe"
	"github.com/mwhitford/backlogctl/internal/logtee"
)

// activeTee duplicates command output to a log file for the lifetime of
// one command invocation.
var activeTee *logtee.Tee

// setupOutput routes command output through a log tee when a log file is
// configured via --log-file, BACKLOGCTL_LOG_FILE, or config.
func setupOutput(cmd *cobra.Command, args []string) error {
	path := logFile
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			// Config problems surface when the command itself loads it.
			return nil
		}
		path = cfg.Config.LogFile
	}
	if path == "" {
		return nil
	}

	tee, err := logtee.New(os.Stdout, path)
	if err != nil {
		return err
	}
	activeTee = tee
	cmd.Root().SetOut(tee)
	return nil
}

// teardownOutput flushes and closes the log tee, if any.
func teardownOutput() error {
	if activeTee == nil {
		return nil
	}
	err := activeTee.Close()
	activeTee = nil
	return err
}

// loadConfig loads the layered configuration, honoring the --config flag.
func loadConfig() (*config.TrackedConfig, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.LoadWithSources()
}

// openStore opens the job tracking database selected by config and
// applies pending migrations.
func openStore(cmd *cobra.Command, cfg *config.Config) (*db.DB, error) {
	var (
		store *db.DB
		err   error
	)
	switch cfg.Database.Driver {
	case "", "sqlite":
		store, err = db.Open(cfg.Database.Path)
	case "postgres":
		store, err = db.OpenWithDialect(cfg.Database.Postgres.DSN(), driver.DialectPostgres)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate job store: %w", err)
	}
	return store, nil
}

// newAPIClient builds a backlog API client from config.
func newAPIClient(cfg *config.Config) (*backlogapi.Client, error) {
	return backlogapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout())
}

// newBoardClient builds an Azure DevOps client from config.
func newBoardClient(cfg *config.Config) (*azdo.Client, error) {
	return azdo.NewClient(azdo.ClientConfig{
		OrgURL:  cfg.Board.OrgURL,
		Project: cfg.Board.Project,
		PAT:     cfg.Board.PAT,
	})
}

// newProber builds an LLM endpoint prober from config.
func newProber(cfg *config.Config) (*llmprobe.Prober, error) {
	return llmprobe.New(cfg.LLM.BaseURL, cfg.LLM.Timeout())
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// currentUser returns the login name of the invoking user, or "unknown".
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
