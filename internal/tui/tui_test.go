package tui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuitCmd(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestInputModel_TypedValue(t *testing.T) {
	t.Parallel()

	m := newInputModel("Domain", "example.com", false)
	m.Init()
	m.Update(keyRunes("cloud.example.org"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, isQuitCmd(t, cmd))
	assert.True(t, m.done)
	assert.Equal(t, "cloud.example.org", m.value)
	assert.Contains(t, m.View(), "cloud.example.org")
}

func TestInputModel_EmptyUsesDefault(t *testing.T) {
	t.Parallel()

	m := newInputModel("Admin user", "admin", false)
	m.Init()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "admin", m.value)
}

func TestInputModel_SecretIsMasked(t *testing.T) {
	t.Parallel()

	m := newInputModel("Password", "", true)
	m.Init()
	m.Update(keyRunes("hunter2 "))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "hunter2 ", m.value)
	assert.NotContains(t, m.View(), "hunter2")
}

func TestInputModel_LongSecretIsKept(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("correct horse battery staple ", 12) + "end"
	m := newInputModel("Password", "", true)
	m.Init()
	m.Update(keyRunes(long))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, long, m.value)

	plain := newInputModel("Domain", "", false)
	assert.Equal(t, 253, plain.input.CharLimit)
}

func TestInputModel_Abort(t *testing.T) {
	t.Parallel()

	m := newInputModel("Domain", "", false)
	m.Init()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, isQuitCmd(t, cmd))
	assert.True(t, m.aborted)
	assert.False(t, m.done)
}

func TestConfirmModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  bool
		keys []tea.KeyMsg
		want bool
	}{
		{name: "enter takes default yes", def: true, keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: true},
		{name: "enter takes default no", def: false, keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: false},
		{name: "right then enter", def: true, keys: []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, want: false},
		{name: "y shortcut", def: false, keys: []tea.KeyMsg{keyRunes("y")}, want: true},
		{name: "n shortcut", def: true, keys: []tea.KeyMsg{keyRunes("n")}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := newConfirmModel("Reuse?", tc.def)
			var cmd tea.Cmd
			for _, k := range tc.keys {
				_, cmd = m.Update(k)
			}
			assert.True(t, isQuitCmd(t, cmd))
			assert.True(t, m.done)
			assert.Equal(t, tc.want, m.answer)
		})
	}
}

func TestConfirmModel_EscAbortsAndIgnoresOtherMessages(t *testing.T) {
	t.Parallel()

	m := newConfirmModel("Reuse?", true)
	_, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.False(t, m.done)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuitCmd(t, cmd))
	assert.True(t, m.aborted)
	assert.Empty(t, m.View())
}

func TestLinePrompter(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("\ncloud.example.com\nsecret\nmaybe\nyes\n")
	var out bytes.Buffer
	p := NewLinePrompter(in, &out)

	v, err := p.Ask("User", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", v)

	v, err = p.Ask("Domain", "")
	require.NoError(t, err)
	assert.Equal(t, "cloud.example.com", v)

	v, err = p.Secret("Password")
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	ok, err := p.Confirm("Reuse?", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, strings.Count(out.String(), "Reuse? [y/N]"))

	_, err = p.Ask("More", "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestSpinModel_QuitsWithWorkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := newSpinModel("waiting", func() error { return boom })
	_, cmd := m.Update(spinDoneMsg{err: boom})

	assert.True(t, isQuitCmd(t, cmd))
	assert.ErrorIs(t, m.err, boom)
	assert.Empty(t, m.View())
}

func TestSummaryRender(t *testing.T) {
	out := Summary{
		URL:       "https://cloud.example.com",
		Dir:       "/srv/nextcloud",
		AdminUser: "admin",
		Failed:    []string{"occ app:enable notify_push"},
	}.Render()

	assert.Contains(t, out, "https://cloud.example.com")
	assert.Contains(t, out, "/srv/nextcloud")
	assert.Contains(t, out, "Steps to retry")
	assert.Contains(t, out, "occ app:enable notify_push")

	clean := Summary{URL: "https://cloud.example.com"}.Render()
	assert.NotContains(t, clean, "Steps to retry")
}
