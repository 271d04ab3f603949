package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mvp-joe/pyscope/internal/indexer"
)

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	colorError   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	labelStyle   = lipgloss.NewStyle().Width(24).PaddingLeft(2)
)

// renderReport formats an indexing report for the terminal.
func renderReport(r *indexer.Report) string {
	var b strings.Builder

	headline := fmt.Sprintf("✓ Indexed %s of %s files in %.1fs",
		formatNumber(r.Indexed), formatNumber(r.Considered), r.Duration.Seconds())
	if len(r.Failed) > 0 {
		b.WriteString(warningStyle.Render(headline))
	} else {
		b.WriteString(successStyle.Render(headline))
	}
	b.WriteByte('\n')

	row := func(label string, n int) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(formatNumber(n))
		b.WriteByte('\n')
	}
	row("Skipped (binary):", r.SkippedBinary)
	row("Skipped (unsupported):", r.SkippedUnsupported)
	row("Pruned artifacts:", r.Pruned)
	row("Failed:", len(r.Failed))

	for _, f := range r.Failed {
		b.WriteString("    ")
		b.WriteString(errorStyle.Render(failureLocation(f)))
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render(f.Reason))
		b.WriteByte('\n')
	}

	return b.String()
}

// failureLocation renders path:line, or the bare path when no line is known.
func failureLocation(f indexer.FileFailure) string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return f.Path
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
