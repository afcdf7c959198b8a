package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hongminglow/approval-desk/internal/api"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
)

func (m Model) isBusy(id string) bool {
	return m.busy[id] || m.control.Busy(id)
}

// requestAction opens the confirmation dialog when the lifecycle table
// offers action to the current role and the row is idle.
func (m *Model) requestAction(txn models.Transaction, action lifecycle.Action) {
	if m.identity == nil || m.isBusy(txn.ID) {
		return
	}
	if !lifecycle.Allowed(txn.Status, action, m.identity.Role) {
		return
	}
	pending := lifecycle.NewPendingAction(txn, action)
	m.confirm = &pending
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		pending := *m.confirm
		m.confirm = nil
		cmd := m.transition(pending)
		return m, cmd
	case key.Matches(msg, m.keys.Cancel):
		m.confirm = nil
	}
	return m, nil
}

func (m *Model) transition(pending lifecycle.PendingAction) tea.Cmd {
	if m.identity == nil {
		return nil
	}
	identity, gen, control := *m.identity, m.gen, m.control
	m.busy[pending.TransactionID()] = true
	return func() tea.Msg {
		txn, err := control.Confirm(context.Background(), pending, identity)
		return transitionDoneMsg{gen: gen, pending: pending, txn: txn, err: err}
	}
}

func (m Model) handleTransitionDone(msg transitionDoneMsg) (tea.Model, tea.Cmd) {
	delete(m.busy, msg.pending.TransactionID())
	if msg.gen != m.gen {
		return m, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			cmd := m.handleError(msg.err)
			return m, cmd
		}
		m.logger.Warn("transition failed", "action", msg.pending.Action, "id", msg.pending.TransactionID(), "error", msg.err)
		text := lifecycle.FailureMessage(msg.pending.Action)
		var terr *lifecycle.TransitionError
		if errors.As(msg.err, &terr) {
			text += " " + describe(terr.Err)
		}
		m.toast = &toast{kind: toastError, text: text}
		return m, nil
	}

	m.toast = &toast{kind: toastSuccess, text: lifecycle.SuccessMessage(msg.pending.Action)}
	switch m.screen {
	case screenDetail:
		m.detail.txn = msg.txn
	case screenList:
		m.list.replace(msg.txn)
		cmd := m.loadList()
		return m, cmd
	}
	return m, nil
}
