package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chtmp runs the test from an empty directory with an empty HOME so no
// real config files leak in.
func chtmp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return tmp
}

func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ToolDir)
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, ConfigFileName), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	chtmp(t)

	tc, err := LoadWithSources()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", tc.Config.Database.Driver)
	assert.Equal(t, "http://localhost:8000", tc.Config.API.BaseURL)
	assert.Equal(t, "medium", tc.Config.Limits.Preset)
	assert.Equal(t, SourceDefault, tc.SourceOf("api.base_url"))
}

func TestLoadProjectConfigOverridesDefaults(t *testing.T) {
	dir := chtmp(t)
	writeProjectConfig(t, dir, `
api:
  base_url: http://backlog.internal:9000
  username: ops
limits:
  preset: large
`)

	tc, err := LoadWithSources()
	require.NoError(t, err)

	assert.Equal(t, "http://backlog.internal:9000", tc.Config.API.BaseURL)
	assert.Equal(t, "ops", tc.Config.API.Username)
	assert.Equal(t, "large", tc.Config.Limits.Preset)
	assert.Equal(t, SourceProject, tc.SourceOf("api.base_url"))
	// Untouched fields stay at defaults.
	assert.Equal(t, 30, tc.Config.API.TimeoutSeconds)
	assert.Equal(t, SourceDefault, tc.SourceOf("api.timeout_seconds"))
}

func TestLoadUserThenProjectPrecedence(t *testing.T) {
	dir := chtmp(t)

	home := os.Getenv("HOME")
	userDir := filepath.Join(home, ToolDir)
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, ConfigFileName), []byte(`
api:
  base_url: http://user-level:8000
llm:
  model: llama3
`), 0o644))

	writeProjectConfig(t, dir, `
api:
  base_url: http://project-level:8000
`)

	tc, err := LoadWithSources()
	require.NoError(t, err)

	assert.Equal(t, "http://project-level:8000", tc.Config.API.BaseURL)
	assert.Equal(t, SourceProject, tc.SourceOf("api.base_url"))
	// User-level value survives where the project file is silent.
	assert.Equal(t, "llama3", tc.Config.LLM.Model)
	assert.Equal(t, SourceUser, tc.SourceOf("llm.model"))
}

func TestEnvOverridesEverything(t *testing.T) {
	dir := chtmp(t)
	writeProjectConfig(t, dir, `
api:
  base_url: http://project-level:8000
`)
	t.Setenv("BACKLOGCTL_API_URL", "http://env-level:8000")
	t.Setenv("BACKLOGCTL_POLL_INTERVAL", "2")
	t.Setenv("BACKLOGCTL_DB_PORT", "not-a-number") // ignored

	tc, err := LoadWithSources()
	require.NoError(t, err)

	assert.Equal(t, "http://env-level:8000", tc.Config.API.BaseURL)
	assert.Equal(t, SourceEnv, tc.SourceOf("api.base_url"))
	assert.Equal(t, 2, tc.Config.API.PollIntervalSeconds)
	assert.Equal(t, 5432, tc.Config.Database.Postgres.Port)
}

func TestLoadInvalidProjectConfigFails(t *testing.T) {
	dir := chtmp(t)
	writeProjectConfig(t, dir, "api: [not, a, map")

	_, err := LoadWithSources()
	assert.Error(t, err)
}

func TestMultipliersMergePerAgent(t *testing.T) {
	dir := chtmp(t)

	home := os.Getenv("HOME")
	userDir := filepath.Join(home, ToolDir)
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, ConfigFileName), []byte(`
generation:
  multipliers:
    epic_strategist: 1.8
    developer: 2.2
`), 0o644))

	writeProjectConfig(t, dir, `
generation:
  multipliers:
    developer: 3.5
`)

	tc, err := LoadWithSources()
	require.NoError(t, err)

	g := tc.Config.Generation
	assert.Equal(t, 1.8, g.Multiplier("epic_strategist"), "user value survives")
	assert.Equal(t, 3.5, g.Multiplier("developer"), "project value wins")
	assert.Equal(t, 2.0, g.Multiplier("someone_else"))
}

func TestResolveLimits(t *testing.T) {
	cfg := Default()
	cfg.Limits.Preset = "small"
	override := 7
	cfg.Limits.Overrides.MaxEpics = &override

	l, err := cfg.ResolveLimits()
	require.NoError(t, err)
	assert.Equal(t, 7, *l.MaxEpics)
	assert.Equal(t, 3, *l.MaxFeaturesPerEpic, "preset value kept where not overridden")

	cfg.Limits.Preset = "gigantic"
	_, err = cfg.ResolveLimits()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "backlog", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=backlog sslmode=disable", p.DSN())
}
