// Package live draws a full-screen view of a running experiment: one row per
// trial of the current model, a line per finished model, and status counts.
package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"toolcount/internal/runner"
)

// Controller runs the live UI and implements runner.RunObserver.
// Once Run returns, observer calls no longer wait for the UI.
type Controller struct {
	msgs      chan tea.Msg
	start     func() error
	done      chan struct{}
	closeOnce sync.Once
}

var _ runner.RunObserver = (*Controller)(nil)

// New prepares a live UI writing to stdout. Call Run to show it.
func New(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	msgs := make(chan tea.Msg, 256)
	p := tea.NewProgram(newProgram(msgs, opts), tea.WithOutput(stdout), tea.WithAltScreen())
	return newController(msgs, func() error {
		_, err := p.Run()
		return err
	})
}

func newController(msgs chan tea.Msg, start func() error) *Controller {
	return &Controller{msgs: msgs, start: start, done: make(chan struct{})}
}

// Run shows the UI until the run ends or Close is called.
func (c *Controller) Run() error {
	defer close(c.done)
	return c.start()
}

// Close stops the UI once queued messages are drawn.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() { close(c.msgs) })
}

func (c *Controller) OnRunStart(runID string, models []string, experiments int) {
	c.send(runStartMsg{runID: runID, models: models, experiments: experiments})
}

func (c *Controller) OnModelStart(model string, experiments int) {
	c.send(modelStartMsg{model: model, experiments: experiments})
}

// OnTrialEvent drops the event when the UI has fallen behind.
func (c *Controller) OnTrialEvent(event runner.TrialEvent) {
	select {
	case c.msgs <- trialMsg(event):
	default:
	}
}

func (c *Controller) OnModelEnd(result runner.ModelResult) {
	c.send(modelEndMsg(result))
}

// OnRunEnd closes the UI.
func (c *Controller) OnRunEnd(runner.Results) {
	c.send(runEndMsg{})
	c.Close()
}

func (c *Controller) send(msg tea.Msg) {
	select {
	case c.msgs <- msg:
	case <-c.done:
	}
}
