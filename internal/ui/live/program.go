package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the live UI.
type Options struct {
	NoColor      bool
	TickInterval time.Duration
	// OnInterrupt runs when the user presses ctrl+c. The UI keeps draining
	// messages until the run ends.
	OnInterrupt func()
}

// program is the Bubble Tea model behind the live UI.
type program struct {
	state       State
	table       table.Model
	msgs        <-chan tea.Msg
	every       time.Duration
	now         time.Time
	theme       theme
	onInterrupt func()
}

type tickMsg time.Time

func newProgram(msgs <-chan tea.Msg, opts Options) program {
	every := opts.TickInterval
	if every <= 0 {
		every = 200 * time.Millisecond
	}
	styles := table.DefaultStyles()
	styles.Selected = lipgloss.NewStyle()
	if !opts.NoColor {
		styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	}
	t := table.New(table.WithColumns(columns(100)), table.WithFocused(false))
	t.SetStyles(styles)
	return program{
		table:       t,
		msgs:        msgs,
		every:       every,
		now:         time.Now(),
		theme:       theme{plain: opts.NoColor},
		onInterrupt: opts.OnInterrupt,
	}
}

// columns gives the status column whatever the fixed columns leave.
func columns(width int) []table.Column {
	const fixed = 6 + 7 + 10 + 10 + 8 + 12
	return []table.Column{
		{Title: "Trial", Width: 6},
		{Title: "Status", Width: max(width-fixed, 20)},
		{Title: "Calls", Width: 7},
		{Title: "Reported", Width: 10},
		{Title: "Elapsed", Width: 10},
		{Title: "Retries", Width: 8},
	}
}

func (p program) Init() tea.Cmd {
	return tea.Batch(p.next(), p.tick())
}

func (p program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		p.table.SetWidth(m.Width)
		p.table.SetHeight(max(m.Height-6, 1))
		p.table.SetColumns(columns(m.Width))
		return p, nil
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			if p.onInterrupt != nil {
				p.onInterrupt()
			}
			p.state.LastEvent = "interrupted, stopping run"
		}
		return p, nil
	case tickMsg:
		p.now = time.Time(m)
		p.refresh()
		return p, p.tick()
	case runStartMsg, modelStartMsg, trialMsg, modelEndMsg, runEndMsg:
		p.state = p.state.apply(m, p.now)
		p.refresh()
		return p, p.next()
	}
	return p, nil
}

func (p program) View() string {
	return p.theme.view(p.state, p.table.View(), p.now)
}

func (p *program) refresh() {
	rows := make([]table.Row, len(p.state.Rows))
	for i, row := range p.state.Rows {
		rows[i] = p.theme.cells(row, p.now)
	}
	p.table.SetRows(rows)
}

// next waits for the controller's next message and quits once the channel
// is closed.
func (p program) next() tea.Cmd {
	msgs := p.msgs
	return func() tea.Msg {
		if msgs == nil {
			return nil
		}
		msg, ok := <-msgs
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (p program) tick() tea.Cmd {
	return tea.Tick(p.every, func(t time.Time) tea.Msg { return tickMsg(t) })
}
