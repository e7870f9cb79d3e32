package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source identifies which layer set a configuration field.
type Source string

const (
	SourceDefault Source = "default"
	SourceUser    Source = "user"
	SourceProject Source = "project"
	SourceEnv     Source = "env"
)

// TrackedConfig pairs a Config with per-field source attribution.
type TrackedConfig struct {
	Config  *Config
	sources map[string]Source
}

// NewTrackedConfig returns defaults with every field attributed to SourceDefault.
func NewTrackedConfig() *TrackedConfig {
	return &TrackedConfig{
		Config:  Default(),
		sources: map[string]Source{},
	}
}

// SetSource records which layer set a field.
func (tc *TrackedConfig) SetSource(field string, source Source) {
	tc.sources[field] = source
}

// SourceOf returns the layer that set a field.
func (tc *TrackedConfig) SourceOf(field string) Source {
	if s, ok := tc.sources[field]; ok {
		return s
	}
	return SourceDefault
}

// Sources returns a copy of the field→source map.
func (tc *TrackedConfig) Sources() map[string]Source {
	out := make(map[string]Source, len(tc.sources))
	for k, v := range tc.sources {
		out[k] = v
	}
	return out
}

// Load returns the effective configuration without source tracking.
func Load() (*Config, error) {
	tc, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return tc.Config, nil
}

// LoadWithSources loads configuration with source tracking.
// Load order (later sources override earlier):
//  1. Built-in defaults
//  2. User config (~/.backlogctl/config.yaml) - optional
//  3. Project config (.backlogctl/config.yaml) - optional
//  4. Environment variables (BACKLOGCTL_*)
func LoadWithSources() (*TrackedConfig, error) {
	tc := NewTrackedConfig()

	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ToolDir, ConfigFileName)
		if _, err := os.Stat(userPath); err == nil {
			if err := mergeFromFile(tc, userPath, SourceUser); err != nil {
				slog.Warn("failed to load user config", "path", userPath, "error", err)
			}
		}
	}

	projectPath := filepath.Join(ToolDir, ConfigFileName)
	if _, err := os.Stat(projectPath); err == nil {
		if err := mergeFromFile(tc, projectPath, SourceProject); err != nil {
			return nil, err // Project config errors are fatal
		}
	}

	ApplyEnvVars(tc)

	return tc, nil
}

// LoadFromFile loads defaults, then exactly one config file, then
// environment variables. Used when the config path is given explicitly.
func LoadFromFile(path string) (*TrackedConfig, error) {
	tc := NewTrackedConfig()
	if err := mergeFromFile(tc, path, SourceProject); err != nil {
		return nil, err
	}
	ApplyEnvVars(tc)
	return tc, nil
}

// fieldBinding connects a config path to its merge behavior.
type fieldBinding struct {
	path  []string // raw YAML key path, e.g. ["api", "base_url"]
	apply func(dst, src *Config)
}

// bindings lists every tracked scalar field. Field names shown by
// `config show` are the dotted raw paths.
var bindings = []fieldBinding{
	{[]string{"version"}, func(d, s *Config) { d.Version = s.Version }},
	{[]string{"log_file"}, func(d, s *Config) { d.LogFile = s.LogFile }},
	{[]string{"database", "driver"}, func(d, s *Config) { d.Database.Driver = s.Database.Driver }},
	{[]string{"database", "path"}, func(d, s *Config) { d.Database.Path = s.Database.Path }},
	{[]string{"database", "postgres", "host"}, func(d, s *Config) { d.Database.Postgres.Host = s.Database.Postgres.Host }},
	{[]string{"database", "postgres", "port"}, func(d, s *Config) { d.Database.Postgres.Port = s.Database.Postgres.Port }},
	{[]string{"database", "postgres", "user"}, func(d, s *Config) { d.Database.Postgres.User = s.Database.Postgres.User }},
	{[]string{"database", "postgres", "password"}, func(d, s *Config) { d.Database.Postgres.Password = s.Database.Postgres.Password }},
	{[]string{"database", "postgres", "database"}, func(d, s *Config) { d.Database.Postgres.Database = s.Database.Postgres.Database }},
	{[]string{"database", "postgres", "ssl_mode"}, func(d, s *Config) { d.Database.Postgres.SSLMode = s.Database.Postgres.SSLMode }},
	{[]string{"api", "base_url"}, func(d, s *Config) { d.API.BaseURL = s.API.BaseURL }},
	{[]string{"api", "username"}, func(d, s *Config) { d.API.Username = s.API.Username }},
	{[]string{"api", "timeout_seconds"}, func(d, s *Config) { d.API.TimeoutSeconds = s.API.TimeoutSeconds }},
	{[]string{"api", "poll_interval_seconds"}, func(d, s *Config) { d.API.PollIntervalSeconds = s.API.PollIntervalSeconds }},
	{[]string{"api", "poll_timeout_seconds"}, func(d, s *Config) { d.API.PollTimeoutSeconds = s.API.PollTimeoutSeconds }},
	{[]string{"board", "org_url"}, func(d, s *Config) { d.Board.OrgURL = s.Board.OrgURL }},
	{[]string{"board", "project"}, func(d, s *Config) { d.Board.Project = s.Board.Project }},
	{[]string{"board", "pat"}, func(d, s *Config) { d.Board.PAT = s.Board.PAT }},
	{[]string{"llm", "base_url"}, func(d, s *Config) { d.LLM.BaseURL = s.LLM.BaseURL }},
	{[]string{"llm", "model"}, func(d, s *Config) { d.LLM.Model = s.LLM.Model }},
	{[]string{"llm", "timeout_seconds"}, func(d, s *Config) { d.LLM.TimeoutSeconds = s.LLM.TimeoutSeconds }},
	{[]string{"webhook", "url"}, func(d, s *Config) { d.Webhook.URL = s.Webhook.URL }},
	{[]string{"limits", "preset"}, func(d, s *Config) { d.Limits.Preset = s.Limits.Preset }},
	{[]string{"limits", "overrides"}, func(d, s *Config) { d.Limits.Overrides = s.Limits.Overrides }},
}

// mergeFromFile merges configuration from a YAML file into tc.
func mergeFromFile(tc *TrackedConfig, path string, source Source) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	// Parse into a raw map to learn which fields the file actually sets.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for _, b := range bindings {
		if rawHas(raw, b.path...) {
			b.apply(tc.Config, &fileCfg)
			tc.SetSource(dotted(b.path), source)
		}
	}

	// Multiplier overrides merge per agent rather than replacing the map.
	if rawHas(raw, "generation", "multipliers") {
		if tc.Config.Generation.Multipliers == nil {
			tc.Config.Generation.Multipliers = map[string]float64{}
		}
		for agent, m := range fileCfg.Generation.Multipliers {
			tc.Config.Generation.Multipliers[agent] = m
		}
		tc.SetSource("generation.multipliers", source)
	}

	return nil
}

// rawHas reports whether the raw YAML map sets the given key path.
func rawHas(raw map[string]any, path ...string) bool {
	cur := raw
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

func dotted(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}
