package progress

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelTracksMultiplePhasesIndependently(t *testing.T) {
	m := New("demo.wasm")

	m.Update(FileDoneMsg{Phase: "static", FileIndex: 0, FileCount: 2})
	m.Update(FileDoneMsg{Phase: "dynamic", FileIndex: 0, FileCount: 3})
	m.Update(FileDoneMsg{Phase: "static", FileIndex: 1, FileCount: 2})

	if got := m.phases["static"].done; got != 2 {
		t.Errorf("static done = %d, want 2", got)
	}
	if got := m.phases["dynamic"].done; got != 1 {
		t.Errorf("dynamic done = %d, want 1", got)
	}
	if want := []string{"static", "dynamic"}; !equal(m.order, want) {
		t.Errorf("order = %v, want %v", m.order, want)
	}
}

func TestModelQuitsOnErrorMsg(t *testing.T) {
	m := New("demo.wasm")
	_, cmd := m.Update(ErrorMsg{Err: errors.New("boom")})
	if m.err == nil {
		t.Fatal("expected err to be set")
	}
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
}

func TestModelQuitsOnCtrlC(t *testing.T) {
	m := New("demo.wasm")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
}

func TestModelMarksDoneOnDoneMsg(t *testing.T) {
	m := New("demo.wasm")
	m.Update(FileDoneMsg{Phase: "dynamic", FileIndex: 0, FileCount: 1})
	m.Update(DoneMsg{})
	if !m.done {
		t.Fatal("expected done to be true")
	}
}

func TestRenderBarClampsToWidth(t *testing.T) {
	bar := renderBar(10, 5)
	if len(bar) == 0 {
		t.Fatal("expected non-empty bar")
	}
	if got := strings.Count(bar, "#"); got != barWidth {
		t.Errorf("filled cells = %d, want %d", got, barWidth)
	}
	if strings.Contains(bar, "-") {
		t.Errorf("expected no empty cells in an over-full bar, got %q", bar)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
