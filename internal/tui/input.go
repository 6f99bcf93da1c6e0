package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type inputModel struct {
	label   string
	def     string
	secret  bool
	input   textinput.Model
	value   string
	done    bool
	aborted bool
}

func newInputModel(label, def string, secret bool) *inputModel {
	ti := textinput.New()
	ti.Width = 48
	if secret {
		// 0 lifts the limit; passphrases may be long.
		ti.CharLimit = 0
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	} else {
		ti.CharLimit = 253
		ti.Placeholder = def
	}

	return &inputModel{
		label:  label,
		def:    def,
		secret: secret,
		input:  ti,
	}
}

func (m *inputModel) Init() tea.Cmd {
	m.input.Focus()
	return textinput.Blink
}

func (m *inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case isQuit(msg), isEsc(msg):
			m.aborted = true
			return m, tea.Quit
		case isEnter(msg):
			val := m.input.Value()
			if !m.secret {
				val = strings.TrimSpace(val)
			}
			if val == "" {
				val = m.def
			}
			m.value = val
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inputModel) View() string {
	if m.done {
		shown := m.value
		if m.secret {
			shown = strings.Repeat("*", len(m.value))
		}
		return titleStyle.Render(m.label) + " " + normalStyle.Render(shown) + "\n"
	}
	if m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.label))
	b.WriteString("\n  ")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	hint := "  enter: confirm  esc: abort"
	if !m.secret && m.def != "" {
		hint = "  enter: confirm (empty keeps " + m.def + ")  esc: abort"
	}
	b.WriteString(helpStyle.Render(hint))
	b.WriteString("\n")
	return b.String()
}
