package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/session"
)

// filterOptions is the status filter cycle. The empty status means all.
var filterOptions = append([]models.Status{""}, models.Statuses...)

type listView struct {
	approvals bool
	filter    int
	search    textinput.Model
	searching bool
	items     []models.Transaction
	cursor    int
	seq       uint64
	loading   bool
	loaded    bool
}

func (l listView) status() models.Status {
	if l.approvals {
		return models.PendingApproval
	}
	return filterOptions[l.filter]
}

// visible applies the reference search on top of the server-side filter.
func (l listView) visible() []models.Transaction {
	query := strings.ToLower(strings.TrimSpace(l.search.Value()))
	if query == "" {
		return l.items
	}
	var out []models.Transaction
	for _, txn := range l.items {
		if strings.Contains(strings.ToLower(txn.Reference), query) {
			out = append(out, txn)
		}
	}
	return out
}

func (l listView) selected() (models.Transaction, bool) {
	rows := l.visible()
	if l.cursor < 0 || l.cursor >= len(rows) {
		return models.Transaction{}, false
	}
	return rows[l.cursor], true
}

func (l *listView) clampCursor() {
	rows := len(l.visible())
	if l.cursor >= rows {
		l.cursor = rows - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (m *Model) mountList(approvals bool) tea.Cmd {
	m.screen = screenList
	search := newInput("reference")
	search.Prompt = "/ "
	keep := m.list.approvals == approvals
	filter := 0
	if keep {
		filter = m.list.filter
	}
	m.list = listView{approvals: approvals, filter: filter, search: search, seq: m.list.seq}
	return m.loadList()
}

func (m *Model) loadList() tea.Cmd {
	m.list.seq++
	m.list.loading = true
	backend, gen, seq, status := m.backend, m.gen, m.list.seq, m.list.status()
	return func() tea.Msg {
		items, err := backend.ListTransactions(context.Background(), status)
		return listLoadedMsg{gen: gen, seq: seq, items: items, err: err}
	}
}

func (m Model) listTitle() string {
	switch {
	case m.list.approvals:
		return "Pending Approvals"
	case m.identity != nil && m.identity.Role == models.Approver:
		return "All Transactions"
	}
	return "My Transactions"
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.list.cursor > 0 {
			m.list.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.list.cursor < len(m.list.visible())-1 {
			m.list.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if txn, ok := m.list.selected(); ok {
			m.returnTo = m.path
			cmd := m.navigate(session.TransactionPath(txn.ID))
			return m, cmd
		}
	case key.Matches(msg, m.keys.Back):
		cmd := m.navigate(session.PathDashboard)
		return m, cmd
	case key.Matches(msg, m.keys.Filter) && !m.list.approvals:
		m.list.filter = (m.list.filter + 1) % len(filterOptions)
		m.list.cursor = 0
		cmd := m.loadList()
		return m, cmd
	case key.Matches(msg, m.keys.Search):
		m.list.searching = true
		m.list.search.Focus()
	case key.Matches(msg, m.keys.Reload):
		cmd := m.loadList()
		return m, cmd
	default:
		if action, ok := m.actionFor(msg); ok {
			if txn, ok := m.list.selected(); ok {
				m.requestAction(txn, action)
			}
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.list.searching = false
		m.list.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.list.searching = false
		m.list.search.Reset()
		m.list.search.Blur()
		m.list.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.list.search, cmd = m.list.search.Update(msg)
	m.list.cursor = 0
	return m, cmd
}

// replace swaps in the re-fetched copy of a row.
func (l *listView) replace(txn models.Transaction) {
	for i := range l.items {
		if l.items[i].ID == txn.ID {
			l.items[i] = txn
			return
		}
	}
}

func (m Model) actionFor(msg tea.KeyMsg) (lifecycle.Action, bool) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return lifecycle.Submit, true
	case key.Matches(msg, m.keys.Approve):
		return lifecycle.Approve, true
	case key.Matches(msg, m.keys.Reject):
		return lifecycle.Reject, true
	case key.Matches(msg, m.keys.Execute):
		return lifecycle.Execute, true
	}
	return "", false
}
