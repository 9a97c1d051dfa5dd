// Package ui renders rebuild progress and summaries on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/stelae/stelae/internal/index"
)

// Styles holds the terminal styles for rebuild output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns the colored styles for interactive terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// NoColorStyles returns unstyled output for pipes and CI.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Reporter writes rebuild summaries to a terminal or pipe.
type Reporter struct {
	out    io.Writer
	styles Styles
}

// NewReporter builds a reporter, picking colored or plain styles based
// on whether out is a terminal.
func NewReporter(out io.Writer, noColor bool) *Reporter {
	styles := DefaultStyles()
	if noColor || !IsTerminal(out) {
		styles = NoColorStyles()
	}
	return &Reporter{out: out, styles: styles}
}

// Starting announces the beginning of a rebuild.
func (r *Reporter) Starting() {
	fmt.Fprintln(r.out, r.styles.Header.Render("Rebuilding search indices..."))
}

// Complete renders the per-type result table and totals.
func (r *Reporter) Complete(stats *index.RebuildStats, elapsed time.Duration) {
	types := make([]string, 0, len(stats.Processed))
	seen := make(map[string]bool)
	for t := range stats.Processed {
		types = append(types, t)
		seen[t] = true
	}
	for t := range stats.Failed {
		if !seen[t] {
			types = append(types, t)
		}
	}
	sort.Strings(types)

	var total, failed int
	for _, t := range types {
		ok := stats.Processed[t]
		bad := stats.Failed[t]
		total += ok
		failed += bad
		line := fmt.Sprintf("  %-24s %6d indexed", t, ok)
		if bad > 0 {
			line += r.styles.Error.Render(fmt.Sprintf("  %d failed", bad))
		}
		fmt.Fprintln(r.out, line)
	}

	fmt.Fprintln(r.out, r.styles.Label.Render(fmt.Sprintf(
		"  %d object batches, %d metadata documents over %d pages",
		stats.Batches, stats.MetadataDocuments, stats.MetadataPages)))

	summary := fmt.Sprintf("Done: %d documents in %s", total, elapsed.Round(10*time.Millisecond))
	if failed > 0 {
		summary += fmt.Sprintf(" (%d failed)", failed)
	}
	fmt.Fprintln(r.out, r.styles.Success.Render(summary))
}

// Failed renders a rebuild failure.
func (r *Reporter) Failed(err error) {
	fmt.Fprintln(r.out, r.styles.Error.Render(fmt.Sprintf("Rebuild failed: %v", err)))
}
