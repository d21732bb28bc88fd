package progress

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	barFillStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const barWidth = 30

// FileDoneMsg reports that one file group finished, in the shape
// dispatch.Progress hands the CLI. Phase distinguishes the static and
// dynamic dispatch.Run passes, which are tracked as separate bars.
type FileDoneMsg struct {
	Phase     string
	FileIndex int
	FileCount int
}

// ErrorMsg reports a fatal error; the model renders it and waits for quit.
type ErrorMsg struct {
	Err error
}

// DoneMsg signals that every dispatch phase finished without error.
type DoneMsg struct{}

type phaseState struct {
	name  string
	done  int
	total int
}

// Model tracks completion counts for one or more named phases
// (typically "static" and "dynamic") and renders a bar per phase.
type Model struct {
	module string
	order  []string
	phases map[string]*phaseState
	err    error
	done   bool
}

// New returns a Model for compiling the named module. Phases appear in
// the order their first FileDoneMsg is observed.
func New(module string) *Model {
	return &Model{
		module: module,
		phases: make(map[string]*phaseState),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case FileDoneMsg:
		ps, ok := m.phases[msg.Phase]
		if !ok {
			ps = &phaseState{name: msg.Phase}
			m.phases[msg.Phase] = ps
			m.order = append(m.order, msg.Phase)
		}
		ps.total = msg.FileCount
		ps.done++

	case ErrorMsg:
		m.err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("wasm2c"))
	b.WriteString(" ")
	b.WriteString(m.module)
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	for _, name := range m.order {
		ps := m.phases[name]
		b.WriteString(phaseStyle.Render(fmt.Sprintf("%-8s", name)))
		b.WriteString(" ")
		b.WriteString(renderBar(ps.done, ps.total))
		b.WriteString(fmt.Sprintf(" %d/%d\n", ps.done, ps.total))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(doneStyle.Render("done"))
	} else {
		b.WriteString(helpStyle.Render("q quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func renderBar(done, total int) string {
	if total <= 0 {
		return barEmptyStyle.Render(strings.Repeat("-", barWidth))
	}
	filled := done * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}
	return barFillStyle.Render(strings.Repeat("#", filled)) +
		barEmptyStyle.Render(strings.Repeat("-", barWidth-filled))
}
