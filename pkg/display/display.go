// Package display renders action lists, override notices, and run
// summaries for the CLI. Styled output (pterm sections, lipgloss kind
// tags) is used when stdout is a terminal with color support; piped
// output degrades to plain "ADD path" lines so diff output stays
// script-friendly.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/claude-kit/pkg/bundles"
	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
)

var (
	addStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	updateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	removeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	unchangedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// styledOutput reports whether w is a color-capable terminal.
func styledOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.DefaultOutput().Profile != termenv.Ascii
}

// kindTag returns the fixed-width uppercase tag for an action kind.
func kindTag(kind types.ActionKind, styled bool) string {
	tag := map[types.ActionKind]string{
		types.ActionAdd:       "ADD      ",
		types.ActionUpdate:    "UPDATE   ",
		types.ActionUnchanged: "UNCHANGED",
		types.ActionRemove:    "REMOVE   ",
	}[kind]
	if !styled {
		return tag
	}
	switch kind {
	case types.ActionAdd:
		return addStyle.Render(tag)
	case types.ActionUpdate:
		return updateStyle.Render(tag)
	case types.ActionRemove:
		return removeStyle.Render(tag)
	default:
		return unchangedStyle.Render(tag)
	}
}

// RenderActions prints the action list. applied selects the "did"
// framing; a preview uses "would". Each line is otherwise worded
// identically between diff and apply, since a diff is the exact plan
// an apply would execute.
func RenderActions(w io.Writer, actions []types.Action, applied bool) {
	styled := styledOutput(w)

	header := "Planned actions (would apply):"
	if applied {
		header = "Applied actions:"
	}
	if styled {
		pterm.DefaultSection.WithWriter(w).Println(header)
	} else {
		fmt.Fprintln(w, header)
	}

	for _, a := range actions {
		line := fmt.Sprintf("  %s %s", kindTag(a.Kind, styled), a.Target)
		if a.Reason != "" {
			line += fmt.Sprintf("  (%s)", a.Reason)
		}
		fmt.Fprintln(w, line)
	}
}

// RenderOverrides prints the target-path collisions the resolver
// settled with the last-wins policy. Silent when there are none.
func RenderOverrides(w io.Writer, overrides []bundles.Override) {
	if len(overrides) == 0 {
		return
	}
	styled := styledOutput(w)
	if styled {
		pterm.DefaultSection.WithWriter(w).Println("Overrides:")
	} else {
		fmt.Fprintln(w, "Overrides:")
	}
	for _, o := range overrides {
		fmt.Fprintf(w, "  %s: %s overrides %s\n", o.Target, o.Winner, o.Loser)
	}
}

// RenderDuplicates warns about catalog-level target duplicates:
// distinct refs with distinct sources mapping onto one target path.
// That is a kit defect, reported but never auto-corrected. Silent when
// there are none.
func RenderDuplicates(w io.Writer, dups []catalog.Duplicate) {
	for _, d := range dups {
		fmt.Fprintf(w, "warning: %s and %s both map to %s\n",
			d.First, d.Second, d.Target)
	}
}

// RenderEnvKeys reports placeholder keys appended to .env.example.
func RenderEnvKeys(w io.Writer, added []string) {
	if len(added) == 0 {
		return
	}
	fmt.Fprintf(w, "Added %d key(s) to %s:\n", len(added), ".env.example")
	for _, key := range added {
		fmt.Fprintf(w, "  %s=\n", key)
	}
}

// Summarize prints the closing one-liner with per-kind counts.
func Summarize(w io.Writer, actions []types.Action, dryRun bool) {
	counts := make(map[types.ActionKind]int)
	for _, a := range actions {
		counts[a.Kind]++
	}
	verb := "applied"
	if dryRun {
		verb = "planned"
	}
	fmt.Fprintf(w, "%s: %d add, %d update, %d unchanged, %d remove\n",
		verb,
		counts[types.ActionAdd],
		counts[types.ActionUpdate],
		counts[types.ActionUnchanged],
		counts[types.ActionRemove])
}
