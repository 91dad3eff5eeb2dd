// Package tui implements the interactive plan browser behind `depends browse`.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/depends/internal/report"
	"github.com/kingrea/depends/internal/suite/policy"
)

var (
	labelStyleReady   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelStyleBlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyleWaiting = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	selectedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A3F4B"))
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// App is the bubbletea model of the plan browser.
type App struct {
	title     string
	entries   []Entry
	selection int
	offset    int
	viewport  viewport.Model
	width     int
	height    int
	ready     bool
}

// New returns a browser over entries, which must already be in execution
// order.
func New(title string, entries []Entry) *App {
	vp := viewport.New(0, 0)
	a := &App{title: title, entries: entries, viewport: vp}
	a.refreshDetail()
	return a
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, title string, entries []Entry) error {
	program := tea.NewProgram(New(title, entries), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Selected returns the entry under the cursor.
func (a *App) Selected() (Entry, bool) {
	if len(a.entries) == 0 {
		return Entry{}, false
	}
	return a.entries[a.selection], true
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.ready = true
		a.viewport.Width = max(20, a.detailWidth()-4)
		a.viewport.Height = max(3, a.listHeight())
		a.refreshDetail()
		return a, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return a, tea.Quit
		case "up", "k":
			a.move(-1)
			return a, nil
		case "down", "j":
			a.move(1)
			return a, nil
		case "home", "g":
			a.move(-len(a.entries))
			return a, nil
		case "end", "G":
			a.move(len(a.entries))
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	header := headerStyle.Render(fmt.Sprintf("⬡ %s · %d item(s)", a.title, len(a.entries)))
	if len(a.entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, hintStyle.Render("Nothing to run."), a.renderHint())
	}
	list := boxStyle.Width(max(20, a.listWidth())).Render(a.renderList())
	detail := boxStyle.Width(max(20, a.detailWidth())).Render(a.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.renderHint())
}

func (a *App) move(delta int) {
	if len(a.entries) == 0 {
		return
	}
	next := a.selection + delta
	if next < 0 {
		next = 0
	}
	if next >= len(a.entries) {
		next = len(a.entries) - 1
	}
	if next == a.selection {
		return
	}
	a.selection = next
	rows := a.listHeight()
	if a.selection < a.offset {
		a.offset = a.selection
	} else if rows > 0 && a.selection >= a.offset+rows {
		a.offset = a.selection - rows + 1
	}
	a.refreshDetail()
}

func (a *App) refreshDetail() {
	entry, ok := a.Selected()
	if !ok {
		a.viewport.SetContent("")
		return
	}
	a.viewport.SetContent(renderDetail(a.selection, entry))
	a.viewport.GotoTop()
}

func (a *App) renderList() string {
	end := len(a.entries)
	if rows := a.listHeight(); a.ready && rows > 0 && a.offset+rows < end {
		end = a.offset + rows
	}
	lines := make([]string, 0, end-a.offset)
	for i := a.offset; i < end; i++ {
		entry := a.entries[i]
		label := entryLabelFor(entry)
		line := fmt.Sprintf("%3d %s %s", i+1, label.style.Render(fmt.Sprintf("%-7s", label.text)), entry.ID)
		if i == a.selection {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderHint() string {
	return hintStyle.Render("↑/k ↓/j move · pgup/pgdn scroll detail · q quit")
}

func (a *App) listWidth() int {
	if a.width == 0 {
		return 60
	}
	return a.width * 3 / 5
}

func (a *App) detailWidth() int {
	if a.width == 0 {
		return 40
	}
	return a.width - a.listWidth() - 4
}

func (a *App) listHeight() int {
	if a.height == 0 {
		return len(a.entries)
	}
	return a.height - 6
}

type entryLabel struct {
	text  string
	style lipgloss.Style
}

func entryLabelFor(entry Entry) entryLabel {
	if entry.Verdict != nil {
		switch entry.Verdict.Action {
		case policy.ActionFail:
			return entryLabel{"fail", labelStyleBlocked}
		case policy.ActionSkip:
			return entryLabel{"skip", labelStyleSkipped}
		default:
			return entryLabel{"run", labelStyleReady}
		}
	}
	switch {
	case len(entry.Missing) > 0:
		return entryLabel{"missing", labelStyleBlocked}
	case len(entry.Dependencies) > 0:
		return entryLabel{"waits", labelStyleWaiting}
	default:
		return entryLabel{"ready", labelStyleReady}
	}
}

func renderDetail(pos int, entry Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", pos+1, entry.ID)
	section := func(title string, values []string, suffix string) {
		fmt.Fprintf(&b, "\n%s\n", detailTextStyle.Render(title))
		if len(values) == 0 {
			b.WriteString("  (none)\n")
			return
		}
		for _, v := range values {
			if suffix != "" {
				fmt.Fprintf(&b, "  %s %s\n", v, suffix)
			} else {
				fmt.Fprintf(&b, "  %s\n", v)
			}
		}
	}
	section("Depends on", entry.Dependencies, "")
	if len(entry.Missing) > 0 {
		section("Unresolved", entry.Missing, report.MissingMarker)
	}
	section("Needed by", entry.Dependents, "")
	if entry.Verdict != nil {
		fmt.Fprintf(&b, "\n%s\n  %s\n", detailTextStyle.Render("Verdict"), entry.Verdict.Action)
		if entry.Verdict.Message != "" {
			fmt.Fprintf(&b, "  %s\n", entry.Verdict.Message)
		}
	}
	return b.String()
}
