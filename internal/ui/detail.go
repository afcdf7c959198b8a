package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hongminglow/approval-desk/internal/models"
)

type detailView struct {
	id       string
	txn      models.Transaction
	loading  bool
	loaded   bool
	notFound bool
}

func (m *Model) mountDetail(id string) tea.Cmd {
	m.screen = screenDetail
	m.detail = detailView{id: id, loading: true}
	backend, gen := m.backend, m.gen
	return func() tea.Msg {
		txn, err := backend.GetTransaction(context.Background(), id)
		return detailLoadedMsg{gen: gen, txn: txn, err: err}
	}
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detail.notFound {
		if key.Matches(msg, m.keys.Back, m.keys.Open) {
			cmd := m.navigate(m.returnTo)
			return m, cmd
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		cmd := m.navigate(m.returnTo)
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		cmd := m.navigate(m.path)
		return m, cmd
	default:
		if action, ok := m.actionFor(msg); ok && m.detail.loaded {
			m.requestAction(m.detail.txn, action)
		}
	}
	return m, nil
}
