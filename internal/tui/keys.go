package tui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	return msg.String() == "ctrl+c"
}

func isEnter(msg tea.KeyMsg) bool {
	return msg.String() == "enter"
}

func isEsc(msg tea.KeyMsg) bool {
	return msg.String() == "esc"
}

func isLeft(msg tea.KeyMsg) bool {
	k := msg.String()
	return k == "left" || k == "h" || k == "shift+tab"
}

func isRight(msg tea.KeyMsg) bool {
	k := msg.String()
	return k == "right" || k == "l" || k == "tab"
}

func isYes(msg tea.KeyMsg) bool {
	k := msg.String()
	return k == "y" || k == "Y"
}

func isNo(msg tea.KeyMsg) bool {
	k := msg.String()
	return k == "n" || k == "N"
}
