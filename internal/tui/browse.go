// Package tui is the interactive repository browser behind `ghcrm repo browse`
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bravo68web/ghcrm/pkg/tracker"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dialogStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type mode int

const (
	modeList mode = iota
	modeFilter
	modeAdd
	modeConfirmDelete
)

type snapshotMsg struct {
	snap tracker.Snapshot
}

type addDoneMsg struct {
	ok   bool
	snap tracker.Snapshot
}

// Model is the bubbletea model for the browser
type Model struct {
	ctx     context.Context
	store   *tracker.Store
	snap    tracker.Snapshot
	mode    mode
	cursor  int
	choice  int
	input   textinput.Model
	spinner spinner.Model
}

// New creates a browser over store. Nothing is fetched until Init.
func New(ctx context.Context, store *tracker.Store) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctx:     ctx,
		store:   store,
		snap:    store.Snapshot(),
		input:   ti,
		spinner: s,
	}
}

// Run opens the browser full screen and blocks until the user quits
func Run(ctx context.Context, store *tracker.Store) error {
	p := tea.NewProgram(New(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := store.Subscribe(func(s tracker.Snapshot) {
		p.Send(snapshotMsg{snap: s})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.do(func(ctx context.Context) {
		m.store.FetchRepositories(ctx, tracker.FetchOverrides{})
	}))
}

// do runs a store operation off the update loop and reports the resulting state
func (m Model) do(op func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		op(m.ctx)
		return snapshotMsg{snap: m.store.Snapshot()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.setSnapshot(msg.snap)
		return m, nil

	case addDoneMsg:
		m.setSnapshot(msg.snap)
		if msg.ok {
			m.closeDialog()
			return m, m.do(func(context.Context) { m.store.ClearSuggestions() })
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m *Model) setSnapshot(s tracker.Snapshot) {
	m.snap = s
	m.cursor = min(m.cursor, max(len(s.Repositories)-1, 0))
	m.choice = min(m.choice, max(len(s.Suggestions)-1, 0))
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nav := m.snap.Navigation()
	p := m.snap.Pagination

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Repositories)-1 {
			m.cursor++
		}
	case "right", "n":
		if nav.Next {
			return m, m.gotoPage(p.Page + 1)
		}
	case "left", "p":
		if nav.Prev {
			return m, m.gotoPage(p.Page - 1)
		}
	case "home", "g":
		if nav.First {
			return m, m.gotoPage(1)
		}
	case "end", "G":
		if nav.Last {
			return m, m.gotoPage(p.TotalPages())
		}
	case "l":
		limit := nextLimit(p.Limit)
		m.cursor = 0
		return m, m.do(func(ctx context.Context) { m.store.SetLimit(ctx, limit) })
	case "/":
		m.mode = modeFilter
		m.input.Placeholder = "filter tracked repositories"
		m.input.SetValue(m.snap.SearchQuery)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case "a":
		m.mode = modeAdd
		m.choice = 0
		m.input.Placeholder = "owner/repo"
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case "r":
		if r, ok := m.selected(); ok {
			return m, m.do(func(ctx context.Context) { m.store.UpdateRepository(ctx, r) })
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
		}
	case "esc":
		return m, m.do(func(context.Context) { m.store.ClearErrors(tracker.ErrorAll) })
	}

	return m, nil
}

func (m Model) gotoPage(page int) tea.Cmd {
	return m.do(func(ctx context.Context) { m.store.SetPage(ctx, page) })
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		m.closeDialog()
		m.cursor = 0
		return m, m.do(func(ctx context.Context) { m.store.SetSearchQuery(ctx, query) })
	case "esc":
		m.closeDialog()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		if len(m.snap.Suggestions) > 0 {
			path = m.snap.Suggestions[m.choice].Value
		}
		if path == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			ok := m.store.AddRepository(m.ctx, path)
			return addDoneMsg{ok: ok, snap: m.store.Snapshot()}
		}
	case "esc":
		m.closeDialog()
		return m, m.do(func(context.Context) {
			m.store.ClearSuggestions()
			m.store.ClearErrors(tracker.ErrorAdd)
		})
	case "up":
		if m.choice > 0 {
			m.choice--
		}
		return m, nil
	case "down":
		if m.choice < len(m.snap.Suggestions)-1 {
			m.choice++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	query := m.input.Value()
	m.choice = 0
	return m, tea.Batch(cmd, m.do(func(context.Context) { m.store.SearchRepositories(query) }))
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeList
	if msg.String() != "y" {
		return m, nil
	}
	id, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m, m.do(func(ctx context.Context) { m.store.DeleteRepository(ctx, id) })
}

func (m *Model) closeDialog() {
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
	m.choice = 0
}

func (m Model) selected() (uint, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Repositories) {
		return 0, false
	}
	return m.snap.Repositories[m.cursor].ID, true
}

func nextLimit(current int) int {
	i := slices.Index(tracker.PageSizeOptions, current)
	return tracker.PageSizeOptions[(i+1)%len(tracker.PageSizeOptions)]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("GitHub CRM"))
	if m.snap.Loading.Any() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.mode == modeFilter {
		b.WriteString("Filter: " + m.input.View() + "\n\n")
	} else if m.snap.SearchQuery != "" {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("filter: %q", m.snap.SearchQuery)) + "\n\n")
	}

	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(m.footerView())

	for _, e := range errorLines(m.snap.Errors) {
		b.WriteString("\n" + errorStyle.Render("✗ "+e))
	}

	switch m.mode {
	case modeAdd:
		b.WriteString("\n\n" + m.addView())
	case modeConfirmDelete:
		if r, ok := m.selectedRepo(); ok {
			b.WriteString("\n\n" + dialogStyle.Render(fmt.Sprintf("Delete %s? (y/n)", r)))
		}
	}

	b.WriteString("\n\n" + mutedStyle.Render(helpText(m.mode)) + "\n")
	return b.String()
}

func (m Model) listView() string {
	switch m.snap.View() {
	case tracker.ViewNoResults:
		return mutedStyle.Render("No repositories match your filter") + "\n"
	case tracker.ViewEmpty:
		return mutedStyle.Render("No repositories tracked yet. Press a to add one.") + "\n"
	}

	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-40s %8s %8s %7s  %s", "REPOSITORY", "STARS", "FORKS", "ISSUES", "CREATED")) + "\n")
	for i, r := range m.snap.Repositories {
		line := fmt.Sprintf("%-40s %8d %8d %7d  %s", r.FullName, r.Stars, r.Forks, r.OpenIssues, r.Created().Format("2006-01-02"))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (m Model) footerView() string {
	p := m.snap.Pagination
	from, to := p.Range()
	return mutedStyle.Render(fmt.Sprintf("Showing %d-%d of %d · page %d/%d · %d per page",
		from, to, p.Total, p.Page, p.TotalPages(), p.Limit))
}

func (m Model) addView() string {
	var b strings.Builder
	b.WriteString("Add repository: " + m.input.View())
	if m.snap.Loading.Add {
		b.WriteString("\n" + mutedStyle.Render("adding..."))
	}
	for i, o := range m.snap.Suggestions {
		line := fmt.Sprintf("%s ★%d", o.Label, o.Stars)
		if i == m.choice {
			b.WriteString("\n" + selectedStyle.Render("> "+line))
		} else {
			b.WriteString("\n  " + line)
		}
	}
	return dialogStyle.Render(b.String())
}

func (m Model) selectedRepo() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Repositories) {
		return "", false
	}
	return m.snap.Repositories[m.cursor].FullName, true
}

func errorLines(e tracker.Errors) []string {
	var lines []string
	for _, msg := range []string{e.Fetch, e.Add, e.Update, e.Delete, e.Search} {
		if msg != "" {
			lines = append(lines, msg)
		}
	}
	return lines
}

func helpText(md mode) string {
	switch md {
	case modeFilter:
		return "enter apply · esc cancel"
	case modeAdd:
		return "type 3+ characters to search · ↑/↓ choose · enter add · esc close"
	case modeConfirmDelete:
		return "y confirm · any other key cancel"
	default:
		return "↑/↓ move · ←/→ page · g/G first/last · l page size · / filter · a add · r refresh · d delete · esc clear errors · q quit"
	}
}
