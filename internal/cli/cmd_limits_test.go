package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestLimitsPresetsCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := newLimitsPresetsCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("limits presets failed: %v", err)
	}

	output := buf.String()
	for _, name := range []string{"small", "medium", "large", "unlimited"} {
		if !strings.Contains(output, name) {
			t.Errorf("Output missing preset %q", name)
		}
	}
}

func TestLimitsShowCmd_WithPreset(t *testing.T) {
	testProject(t, "limits:\n  preset: small\n")

	var buf bytes.Buffer
	cmd := newLimitsShowCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("limits show failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Preset: small") {
		t.Error("Output missing preset name")
	}
	if !strings.Contains(output, "max_epics=2") {
		t.Error("Output missing resolved epic cap")
	}
	if !strings.Contains(output, "Projected maximum items:") {
		t.Error("Output missing projection header")
	}
}

func TestLimitsShowCmd_UnlimitedSkipsProjection(t *testing.T) {
	testProject(t, "limits:\n  preset: unlimited\n")

	var buf bytes.Buffer
	cmd := newLimitsShowCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("limits show failed: %v", err)
	}

	if !strings.Contains(buf.String(), "unbounded") {
		t.Error("Output should explain that unlimited limits have no projection")
	}
}

func TestLimitsValidateCmd_Valid(t *testing.T) {
	testProject(t, "limits:\n  preset: medium\n")

	var buf bytes.Buffer
	cmd := newLimitsValidateCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("limits validate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "valid") {
		t.Error("Output missing validity confirmation")
	}
}

func TestLimitsValidateCmd_OverCeiling(t *testing.T) {
	testProject(t, "limits:\n  preset: medium\n  overrides:\n    max_epics: 999\n")

	var buf bytes.Buffer
	cmd := newLimitsValidateCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation failure for max_epics over ceiling")
	}
	if !strings.Contains(buf.String(), "max_epics") {
		t.Error("Output missing the offending field name")
	}
}

func TestLimitsValidateCmd_UnknownPreset(t *testing.T) {
	testProject(t, "limits:\n  preset: gigantic\n")

	cmd := newLimitsValidateCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}
