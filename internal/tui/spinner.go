package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinDoneMsg struct {
	err error
}

type spinModel struct {
	label   string
	spinner spinner.Model
	work    func() error
	err     error
	done    bool
}

func newSpinModel(label string, work func() error) *spinModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return &spinModel{label: label, spinner: sp, work: work}
}

func (m *spinModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return spinDoneMsg{err: m.work()}
	})
}

func (m *spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case spinDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *spinModel) View() string {
	if m.done {
		return ""
	}
	return "  " + m.spinner.View() + " " + normalStyle.Render(m.label) + "\n"
}

// Spin shows a spinner next to label while work runs and returns its error.
// Keyboard input is not read; cancel work through ctx.
func Spin(ctx context.Context, out io.Writer, label string, work func(context.Context) error) error {
	m := newSpinModel(label, func() error { return work(ctx) })
	final, err := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(out),
	).Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return final.(*spinModel).err
}
