// Package config manages backlogctl configuration.
//
// Configuration is layered: built-in defaults, then ~/.backlogctl/config.yaml,
// then ./.backlogctl/config.yaml, then BACKLOGCTL_* environment variables.
// Each field remembers which layer set it so `backlogctl config show` can
// explain where a value came from.
package config

import (
	"fmt"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
	"github.com/mwhitford/backlogctl/internal/limits"
)

const (
	// ToolDir is the per-project configuration directory.
	ToolDir = ".backlogctl"
	// ConfigFileName is the config file name inside ToolDir.
	ConfigFileName = "config.yaml"
	// DefaultDBFileName is the job tracking database inside ToolDir.
	DefaultDBFileName = "backlog_jobs.db"
)

// Config is the effective backlogctl configuration.
type Config struct {
	Version    int              `yaml:"version"`
	LogFile    string           `yaml:"log_file,omitempty"`
	Database   DatabaseConfig   `yaml:"database"`
	API        APIConfig        `yaml:"api"`
	Board      BoardConfig      `yaml:"board"`
	LLM        LLMConfig        `yaml:"llm"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Limits     LimitsConfig     `yaml:"limits"`
	Generation GenerationConfig `yaml:"generation"`
}

// DatabaseConfig selects the job store backend.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" (default) or "postgres"
	Path     string         `yaml:"path"`   // sqlite file path
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN renders the PostgreSQL connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// APIConfig points at the backlog-generation REST service.
type APIConfig struct {
	BaseURL             string `yaml:"base_url"`
	Username            string `yaml:"username"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	PollTimeoutSeconds  int    `yaml:"poll_timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// PollInterval returns the status polling interval.
func (a APIConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the overall watch deadline.
func (a APIConfig) PollTimeout() time.Duration {
	return time.Duration(a.PollTimeoutSeconds) * time.Second
}

// BoardConfig points at the Azure DevOps organization used for
// work item inspection.
type BoardConfig struct {
	OrgURL  string `yaml:"org_url"` // e.g. https://dev.azure.com/acme
	Project string `yaml:"project"`
	PAT     string `yaml:"pat"`
}

// LLMConfig points at the default LLM inference endpoint to probe.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the probe request timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// WebhookConfig holds the Teams incoming-webhook URL.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

// LimitsConfig selects work item limits: a named preset, optionally
// overridden per field.
type LimitsConfig struct {
	Preset    string        `yaml:"preset,omitempty"`
	Overrides limits.Limits `yaml:"overrides,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   ToolDir + "/" + DefaultDBFileName,
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		API: APIConfig{
			BaseURL:             "http://localhost:8000",
			TimeoutSeconds:      30,
			PollIntervalSeconds: 5,
			PollTimeoutSeconds:  1800,
		},
		LLM: LLMConfig{
			BaseURL:        "http://localhost:11434",
			TimeoutSeconds: 120,
		},
		Limits: LimitsConfig{
			Preset: "medium",
		},
		Generation: GenerationConfig{},
	}
}

// ResolveLimits merges the preset (if any) with the per-field overrides.
// An unknown preset name is a configuration error.
func (c *Config) ResolveLimits() (*limits.Limits, error) {
	resolved := &limits.Limits{}
	if c.Limits.Preset != "" {
		p := limits.Preset(c.Limits.Preset)
		if p == nil {
			return nil, errors.ErrConfigInvalid("limits.preset",
				fmt.Sprintf("unknown preset %q (valid: %v)", c.Limits.Preset, limits.PresetNames()))
		}
		resolved = p
	}

	o := c.Limits.Overrides
	if o.MaxEpics != nil {
		resolved.MaxEpics = o.MaxEpics
	}
	if o.MaxFeaturesPerEpic != nil {
		resolved.MaxFeaturesPerEpic = o.MaxFeaturesPerEpic
	}
	if o.MaxUserStoriesPerFeature != nil {
		resolved.MaxUserStoriesPerFeature = o.MaxUserStoriesPerFeature
	}
	if o.MaxTasksPerUserStory != nil {
		resolved.MaxTasksPerUserStory = o.MaxTasksPerUserStory
	}
	if o.MaxTestCasesPerUserStory != nil {
		resolved.MaxTestCasesPerUserStory = o.MaxTestCasesPerUserStory
	}
	return resolved, nil
}
