package tui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrAborted is returned when the operator leaves a prompt with esc or ctrl+c.
var ErrAborted = errors.New("prompt aborted")

// Prompter asks single questions on a terminal, one small bubbletea
// program per question.
type Prompter struct {
	opts []tea.ProgramOption
}

// NewPrompter returns a Prompter reading keys from in and drawing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{opts: []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}}
}

// Ask reads a line of text. An empty answer yields def.
func (p *Prompter) Ask(label, def string) (string, error) {
	m, err := p.run(newInputModel(label, def, false))
	if err != nil {
		return "", err
	}
	in := m.(*inputModel)
	if in.aborted {
		return "", ErrAborted
	}
	return in.value, nil
}

// Secret reads a line without echoing it.
func (p *Prompter) Secret(label string) (string, error) {
	m, err := p.run(newInputModel(label, "", true))
	if err != nil {
		return "", err
	}
	in := m.(*inputModel)
	if in.aborted {
		return "", ErrAborted
	}
	return in.value, nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	m, err := p.run(newConfirmModel(label, def))
	if err != nil {
		return false, err
	}
	c := m.(*confirmModel)
	if c.aborted {
		return false, ErrAborted
	}
	return c.answer, nil
}

func (p *Prompter) run(m tea.Model) (tea.Model, error) {
	final, err := tea.NewProgram(m, p.opts...).Run()
	if err != nil {
		return nil, err
	}
	return final, nil
}
