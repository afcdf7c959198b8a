package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hongminglow/approval-desk/internal/api"
	"github.com/hongminglow/approval-desk/internal/session"
)

const loginFailed = "Invalid credentials. Please try again."

type loginView struct {
	username   textinput.Model
	password   textinput.Model
	focus      int
	from       string
	err        string
	submitting bool
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 128
	in.Width = 32
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func (m *Model) mountLogin(from string) {
	if from == session.PathLogin {
		from = ""
	}
	m.screen = screenLogin
	m.path = session.PathLogin
	username := newInput("username")
	password := newInput("password")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	username.Focus()
	m.login = loginView{username: username, password: password, from: from}
}

func (l *loginView) setFocus(index int) {
	l.focus = index
	if index == 0 {
		l.username.Focus()
		l.password.Blur()
		return
	}
	l.password.Focus()
	l.username.Blur()
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NextItem), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		m.login.setFocus(1 - m.login.focus)
		return m, nil
	case msg.Type == tea.KeyEnter:
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		cmd := m.submitLogin()
		return m, cmd
	case msg.Type == tea.KeyEsc:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.login.focus == 0 {
		m.login.username, cmd = m.login.username.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) submitLogin() tea.Cmd {
	username := strings.TrimSpace(m.login.username.Value())
	password := m.login.password.Value()
	if username == "" || password == "" {
		m.login.err = "Username and password are required."
		return nil
	}
	m.login.err = ""
	m.login.submitting = true
	guard, gen := m.guard, m.gen
	return func() tea.Msg {
		identity, err := guard.Login(context.Background(), username, password)
		return loginDoneMsg{gen: gen, identity: identity, err: err}
	}
}

// loginError keeps the credentials message for refused logins and surfaces
// network and server failures as retryable.
func loginError(err error) string {
	if errors.Is(err, api.ErrTransport) || errors.Is(err, api.ErrServer) {
		return describe(err)
	}
	return loginFailed
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || errors.Is(msg.err, session.ErrSuperseded) {
		return m, nil
	}
	m.login.submitting = false
	if msg.err != nil {
		m.logger.Info("login failed", "error", msg.err)
		m.login.err = loginError(msg.err)
		m.login.password.Reset()
		return m, nil
	}
	dest := m.login.from
	if dest == "" {
		dest = session.PathDashboard
	}
	cmd := m.navigate(dest)
	return m, cmd
}
