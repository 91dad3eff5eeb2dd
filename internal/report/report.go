// Package report renders the diagnostic listings printed by the CLI.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/depends/internal/gotest"
	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/engine"
	"github.com/kingrea/depends/internal/suite/policy"
)

// MissingMarker tags a dependency reference that matched no item.
const MissingMarker = "(MISSING)"

type styles struct {
	title   lipgloss.Style
	name    lipgloss.Style
	dim     lipgloss.Style
	missing lipgloss.Style
	run     lipgloss.Style
	skip    lipgloss.Style
	fail    lipgloss.Style
}

// Printer writes listings to w.
type Printer struct {
	w      io.Writer
	err    error
	styles styles
}

// New returns a printer for w. Styling is applied only when color is true;
// the renderer still drops colours w cannot display.
func New(w io.Writer, color bool) *Printer {
	p := &Printer{w: w}
	if !color {
		plain := lipgloss.NewStyle()
		p.styles = styles{plain, plain, plain, plain, plain, plain, plain}
		return p
	}
	r := lipgloss.NewRenderer(w)
	p.styles = styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		name:    r.NewStyle().Foreground(lipgloss.Color("#E0E0E0")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#888888")),
		missing: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		run:     r.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		skip:    r.NewStyle().Foreground(lipgloss.Color("#F1FA8C")),
		fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	}
	return p
}

// Order prints the execution order, one item per line.
func (p *Printer) Order(items []*suite.Item) error {
	p.line(p.styles.title.Render("Execution order:"))
	width := len(fmt.Sprint(len(items)))
	for i, item := range items {
		p.line(fmt.Sprintf("  %s %s", p.styles.dim.Render(fmt.Sprintf("%*d.", width, i+1)), item.NodeID()))
	}
	return p.err
}

// Names prints the name -> item mapping. A name that only refers to the item
// carrying that exact identifier is shown in verbose mode only.
func (p *Printer) Names(entries []engine.NameEntry, verbose bool) error {
	p.line(p.styles.title.Render("Dependency names:"))
	for _, entry := range entries {
		switch {
		case len(entry.Items) == 1 && entry.Items[0] == entry.Name:
			if verbose {
				p.line("  " + p.styles.name.Render(entry.Name))
			}
		case len(entry.Items) == 1:
			p.line(fmt.Sprintf("  %s %s %s", p.styles.name.Render(entry.Name), p.styles.dim.Render("->"), entry.Items[0]))
		default:
			p.line(fmt.Sprintf("  %s %s", p.styles.name.Render(entry.Name), p.styles.dim.Render("->")))
			ids := append([]string(nil), entry.Items...)
			sort.Strings(ids)
			for _, id := range ids {
				p.line("    " + id)
			}
		}
	}
	return p.err
}

// Dependencies prints each item followed by its resolved dependencies and
// any references that matched nothing.
func (p *Printer) Dependencies(entries []engine.DependencyEntry) error {
	p.line(p.styles.title.Render("Dependencies:"))
	for _, entry := range entries {
		p.line("  " + p.styles.name.Render(entry.ID))
		if len(entry.Dependencies) == 0 && len(entry.Missing) == 0 {
			p.line("    " + p.styles.dim.Render("(none)"))
			continue
		}
		for _, dep := range entry.Dependencies {
			p.line("    " + dep)
		}
		for _, ref := range entry.Missing {
			p.line(fmt.Sprintf("    %s %s", ref, p.styles.missing.Render(MissingMarker)))
		}
	}
	return p.err
}

// Verdicts prints the decision taken for every replayed item followed by a
// one-line summary.
func (p *Printer) Verdicts(verdicts []gotest.ItemVerdict) error {
	p.line(p.styles.title.Render("Verdicts:"))
	counts := map[policy.Action]int{}
	for _, v := range verdicts {
		counts[v.Verdict.Action]++
		label := p.action(v.Verdict.Action)
		line := fmt.Sprintf("  %s %s", label, v.ID)
		if !v.Observed && !v.Verdict.Blocked() {
			line += " " + p.styles.dim.Render("(not run)")
		}
		p.line(line)
		if v.Verdict.Message != "" {
			p.line("         " + p.styles.dim.Render(v.Verdict.Message))
		}
	}
	p.line(fmt.Sprintf("%d run, %d skip, %d fail",
		counts[policy.ActionRun], counts[policy.ActionSkip], counts[policy.ActionFail]))
	return p.err
}

func (p *Printer) action(a policy.Action) string {
	label := fmt.Sprintf("%-6s", strings.ToUpper(string(a)))
	switch a {
	case policy.ActionRun:
		return p.styles.run.Render(label)
	case policy.ActionFail:
		return p.styles.fail.Render(label)
	default:
		return p.styles.skip.Render(label)
	}
}

func (p *Printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}
