package progress

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wasm2c/wasm2c/dispatch"
)

// Runner drives a tea.Program showing one Model, from a goroutine
// separate from the dispatch.Run calls that feed it FileDoneMsgs.
type Runner struct {
	program *tea.Program
	done    chan struct{}
	err     error
}

// Start launches the Bubble Tea program in the background and returns
// immediately; call Wait to block until the user quits or Finish/Fail
// is called.
func Start(module string) *Runner {
	p := tea.NewProgram(New(module), tea.WithAltScreen())
	r := &Runner{program: p, done: make(chan struct{})}
	go func() {
		_, err := p.Run()
		r.err = err
		close(r.done)
	}()
	return r
}

// Callback returns a dispatch.Progress that reports into this Runner's
// Model under the given phase name ("static" or "dynamic").
func (r *Runner) Callback(phase string) dispatch.Progress {
	return func(fileIndex, fileCount int) {
		r.program.Send(FileDoneMsg{Phase: phase, FileIndex: fileIndex, FileCount: fileCount})
	}
}

// Fail reports a fatal error and stops the program.
func (r *Runner) Fail(err error) {
	r.program.Send(ErrorMsg{Err: err})
}

// Finish marks every phase complete and stops the program.
func (r *Runner) Finish() {
	r.program.Send(DoneMsg{})
}

// Wait blocks until the program exits, returning any error bubbletea
// itself reported (not a compile error, which arrives via Fail).
func (r *Runner) Wait() error {
	<-r.done
	return r.err
}
