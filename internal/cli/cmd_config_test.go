package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwhitford/backlogctl/internal/config"
)

// testProject creates a temp working directory with a .backlogctl config
// and chdirs into it. HOME is pointed elsewhere so user config cannot leak.
func testProject(t *testing.T, configYAML string) {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	if configYAML != "" {
		dir := filepath.Join(tmpDir, config.ToolDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(configYAML), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}

	oldWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func TestConfigShowCmd_OutputsValidYAML(t *testing.T) {
	testProject(t, "version: 1\napi:\n  base_url: http://backlog.test:9000\n")

	var buf bytes.Buffer
	cmd := newConfigShowCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "version:") {
		t.Error("Output missing 'version:' key")
	}
	if !strings.Contains(output, "http://backlog.test:9000") {
		t.Error("Output missing project-configured API URL")
	}
}

func TestConfigShowCmd_WithSources(t *testing.T) {
	testProject(t, "api:\n  base_url: http://backlog.test:9000\n")

	var buf bytes.Buffer
	cmd := newConfigShowCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--sources"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "api.base_url") {
		t.Error("Output missing overridden field name")
	}
	if !strings.Contains(output, "project") {
		t.Error("Output missing source layer")
	}
}

func TestConfigAgentsCmd_DefaultsAndOverrides(t *testing.T) {
	testProject(t, "generation:\n  multipliers:\n    qa_tester: 4.0\n    custom_agent: 1.5\n")

	var buf bytes.Buffer
	cmd := newConfigAgentsCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--target", "10"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config agents failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "epic_strategist") {
		t.Error("Output missing built-in agent")
	}
	if !strings.Contains(output, "custom_agent") {
		t.Error("Output missing config-only agent")
	}
	if !strings.Contains(output, "4.00") {
		t.Error("Output missing overridden multiplier")
	}
	// qa_tester at 4.0 should request 40 items for a target of 10.
	if !strings.Contains(output, "40") {
		t.Error("Output missing projected generation count")
	}
}

func TestConfigShowCmd_DefaultsWhenNoConfig(t *testing.T) {
	testProject(t, "")

	var buf bytes.Buffer
	cmd := newConfigShowCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}

	if !strings.Contains(buf.String(), "http://localhost:8000") {
		t.Error("Output missing default API URL")
	}
}
