package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/mwhitford/backlogctl/internal/db"
)

// statusStyles colors terminal output per job status.
var statusStyles = map[string]lipgloss.Style{
	db.JobStatusQueued:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	db.JobStatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	db.JobStatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	db.JobStatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	db.JobStatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// useColor reports whether stdout is an interactive terminal. Output routed
// through a log tee stays plain so the file is grep-friendly.
func useColor() bool {
	return activeTee == nil && isatty.IsTerminal(os.Stdout.Fd())
}

// statusLabel renders a job status, colored when stdout is a terminal.
func statusLabel(status string) string {
	if !useColor() {
		return status
	}
	if style, ok := statusStyles[status]; ok {
		return style.Render(status)
	}
	return status
}

// checkLabel renders a pass/fail marker for doctor output.
func checkLabel(ok bool) string {
	label := "ok"
	style := okStyle
	if !ok {
		label = "FAIL"
		style = failStyle
	}
	if !useColor() {
		return label
	}
	return style.Render(label)
}

// truncate shortens s to at most n runes, appending an ellipsis.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// dash substitutes "-" for empty table cells.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatCounts renders an item-count map as "epics=3 features=9".
func formatCounts(counts map[string]int, keys []string) string {
	if len(counts) == 0 {
		return "-"
	}
	var parts []string
	for _, k := range keys {
		if v, ok := counts[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v))
		}
	}
	return strings.Join(parts, " ")
}
