package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	label   string
	cursor  int // 0=Yes, 1=No
	answer  bool
	done    bool
	aborted bool
}

func newConfirmModel(label string, def bool) *confirmModel {
	m := &confirmModel{label: label}
	if !def {
		m.cursor = 1
	}
	return m
}

func (m *confirmModel) Init() tea.Cmd {
	return nil
}

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case isQuit(key), isEsc(key):
		m.aborted = true
		return m, tea.Quit
	case isLeft(key) && m.cursor > 0:
		m.cursor--
	case isRight(key) && m.cursor < 1:
		m.cursor++
	case isYes(key):
		m.answer, m.done = true, true
		return m, tea.Quit
	case isNo(key):
		m.answer, m.done = false, true
		return m, tea.Quit
	case isEnter(key):
		m.answer, m.done = m.cursor == 0, true
		return m, tea.Quit
	}
	return m, nil
}

func (m *confirmModel) View() string {
	if m.done {
		ans := "no"
		if m.answer {
			ans = "yes"
		}
		return titleStyle.Render(m.label) + " " + normalStyle.Render(ans) + "\n"
	}
	if m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.label))
	b.WriteString("  ")
	for i, btn := range []string{"Yes", "No"} {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("[" + btn + "]"))
		} else {
			b.WriteString(normalStyle.Render(" " + btn + " "))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  y/n or left/right + enter"))
	b.WriteString("\n")
	return b.String()
}
