package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/session"
	"github.com/hongminglow/approval-desk/internal/validation"
)

type createView struct {
	amount     textinput.Model
	currency   int
	focus      int
	errors     map[string]string
	submitting bool
	created    *models.Transaction
}

func (m *Model) mountCreate() {
	m.screen = screenCreate
	amount := newInput("0.00")
	amount.Focus()
	m.create = createView{amount: amount}
}

func (m Model) updateCreateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.create.submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		cmd := m.navigate(session.PathDashboard)
		return m, cmd
	case key.Matches(msg, m.keys.NextItem):
		m.create.focus = 1 - m.create.focus
		if m.create.focus == 0 {
			m.create.amount.Focus()
		} else {
			m.create.amount.Blur()
		}
		return m, nil
	case msg.Type == tea.KeyEnter:
		cmd := m.submitCreate()
		return m, cmd
	}

	if m.create.focus == 1 {
		switch msg.String() {
		case "left", "h", "up", "k":
			m.create.currency = (m.create.currency + len(models.Currencies) - 1) % len(models.Currencies)
		case "right", "l", "down", "j", " ":
			m.create.currency = (m.create.currency + 1) % len(models.Currencies)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.create.amount, cmd = m.create.amount.Update(msg)
	return m, cmd
}

// submitCreate validates locally and only then issues the request.
func (m *Model) submitCreate() tea.Cmd {
	req := dto.CreateTransactionRequest{Currency: models.Currencies[m.create.currency]}
	errs := map[string]string{}

	raw := strings.TrimSpace(m.create.amount.Value())
	if raw == "" {
		errs["amount"] = "is required"
	} else if amount, err := decimal.NewFromString(raw); err != nil {
		errs["amount"] = "must be a number"
	} else {
		req.Amount = amount
	}
	if len(errs) == 0 {
		collectFieldErrors(validation.Struct(req), errs)
	}
	if len(errs) > 0 {
		m.create.errors = errs
		return nil
	}

	m.create.errors = nil
	m.create.submitting = true
	backend, gen := m.backend, m.gen
	return func() tea.Msg {
		txn, err := backend.CreateTransaction(context.Background(), req)
		return createdMsg{gen: gen, txn: txn, err: err}
	}
}

func collectFieldErrors(err error, into map[string]string) bool {
	var verr *validation.Errors
	if !errors.As(err, &verr) {
		return false
	}
	for _, f := range verr.Fields {
		into[f.Field] = f.Message
	}
	return true
}

func (m Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	m.create.submitting = false
	if msg.err != nil {
		errs := map[string]string{}
		if collectFieldErrors(msg.err, errs) {
			m.create.errors = errs
			return m, nil
		}
		cmd := m.handleError(msg.err)
		return m, cmd
	}
	txn := msg.txn
	m.create.created = &txn
	m.toast = &toast{kind: toastSuccess, text: fmt.Sprintf("Transaction %s created.", txn.Reference)}
	return m, nil
}

// updateCreateResult handles keys on the success screen.
func (m Model) updateCreateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		m.returnTo = session.PathTransactions
		cmd := m.navigate(session.TransactionPath(m.create.created.ID))
		return m, cmd
	case key.Matches(msg, m.keys.Back):
		cmd := m.navigate(session.PathDashboard)
		return m, cmd
	}
	return m, nil
}
