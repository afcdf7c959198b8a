package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/session"
)

const timeLayout = "2006-01-02 15:04"

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenDashboard:
		body = m.viewDashboard()
	case screenList:
		body = m.viewList()
	case screenDetail:
		body = m.viewDetail()
	case screenCreate:
		body = m.viewCreate()
	case screenNotFound:
		body = m.theme.title().Render("Page not found") + "\n" +
			m.theme.faint().Render(m.path+" does not exist. Press enter to return to the dashboard.")
	}
	if m.confirm != nil {
		body = m.viewConfirm(*m.confirm)
	}

	parts := []string{m.viewHeader(), "", body}
	if t := m.viewToast(); t != "" {
		parts = append(parts, "", t)
	}
	parts = append(parts, "", m.theme.faint().Render(m.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewHeader() string {
	header := m.theme.title().Render("Approval Desk")
	if m.identity != nil {
		header += m.theme.faint().Render(fmt.Sprintf("  %s (%s)", m.identity.DisplayName, m.identity.Role))
	}
	return header
}

func (m Model) viewToast() string {
	if m.toast == nil {
		return ""
	}
	color := m.theme.Info
	switch m.toast.kind {
	case toastSuccess:
		color = m.theme.Success
	case toastError:
		color = m.theme.Danger
	}
	return lipgloss.NewStyle().Foreground(color).Render(m.toast.text)
}

func (m Model) helpLine() string {
	if m.confirm != nil {
		return "y confirm · n cancel"
	}
	switch m.screen {
	case screenLogin:
		return "tab switch field · enter sign in · esc quit"
	case screenCreate:
		if m.create.created != nil {
			return "enter view transaction · c create another · esc dashboard"
		}
		return "tab switch field · ←/→ currency · enter create · esc cancel"
	case screenList:
		if m.list.searching {
			return "type to search · enter done · esc clear"
		}
		help := "j/k move · enter open · / search · R reload"
		if !m.list.approvals {
			help += " · f filter"
		}
		return help + " · esc back · x log out · q quit"
	case screenDetail:
		return "esc back · R reload · x log out · q quit"
	}
	return "d dashboard · x log out · q quit"
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.theme.title().Render("Sign in") + "\n\n")
	b.WriteString("Username  " + m.login.username.View() + "\n")
	b.WriteString("Password  " + m.login.password.View() + "\n")
	if m.login.submitting {
		b.WriteString("\n" + m.theme.faint().Render("Signing in..."))
	}
	if m.login.err != "" {
		b.WriteString("\n" + m.theme.fieldError().Render(m.login.err))
	}
	return b.String()
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	name := "there"
	if m.identity != nil {
		name = m.identity.DisplayName
	}
	b.WriteString(m.theme.title().Render(fmt.Sprintf("%s, %s", greeting(m.now().Hour()), name)) + "\n\n")

	if m.dashboard.loading {
		b.WriteString(m.theme.faint().Render("Loading statistics...") + "\n")
	} else if m.dashboard.loaded {
		s := m.dashboard.stats
		fmt.Fprintf(&b, "Total %d\n", s.Total)
		for _, status := range models.Statuses {
			fmt.Fprintf(&b, "  %s %d\n", m.theme.badge(status).Render(fmt.Sprintf("%-17s", status.Label())), s.Count(status))
		}
		fmt.Fprintf(&b, "\nApproval rate %d%% · Execution rate %d%% · Rejection rate %d%%\n",
			s.ApprovedRate(), s.ExecutionRate(), s.RejectionRate())
	}

	if m.identity != nil {
		b.WriteString("\n")
		for i, item := range session.Navigation(m.identity.Role) {
			label := item.Label
			if item.Path == session.PathApprovals && m.dashboard.loaded {
				label = fmt.Sprintf("%s (%d)", label, m.dashboard.pending)
			}
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, label)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewList() string {
	var b strings.Builder
	title := m.listTitle()
	if !m.list.approvals {
		filter := "All"
		if status := m.list.status(); status != "" {
			filter = status.Label()
		}
		title += m.theme.faint().Render("  filter: " + filter)
	}
	b.WriteString(m.theme.title().Render(title) + "\n")
	if m.list.searching || m.list.search.Value() != "" {
		b.WriteString(m.list.search.View() + "\n")
	}
	b.WriteString("\n")

	if m.list.loading && !m.list.loaded {
		return b.String() + m.theme.faint().Render("Loading transactions...")
	}
	rows := m.list.visible()
	if len(rows) == 0 {
		return b.String() + m.theme.faint().Render("No transactions found.")
	}

	showCreator := m.identity != nil && m.identity.Role == models.Approver
	header := fmt.Sprintf("%-10s %16s  %-17s", "Reference", "Amount", "Status")
	if showCreator {
		header += fmt.Sprintf(" %-24s", "Created By")
	}
	header += fmt.Sprintf(" %-16s  %s", "Created", "Actions")
	b.WriteString(m.theme.faint().Render(header) + "\n")

	for i, txn := range rows {
		line := fmt.Sprintf("%-10s %16s  ", txn.Reference, models.FormatAmount(txn.Amount, txn.Currency)) +
			m.theme.badge(txn.Status).Render(fmt.Sprintf("%-17s", txn.Status.Label()))
		if showCreator {
			line += fmt.Sprintf(" %-24s", creator(txn))
		}
		line += fmt.Sprintf(" %-16s  %s", txn.CreatedAt.Local().Format(timeLayout), m.actionHints(txn))
		if i == m.list.cursor {
			line = m.theme.selected().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// actionHints lists exactly the actions the lifecycle table offers the
// current role for txn.
func (m Model) actionHints(txn models.Transaction) string {
	if m.identity == nil {
		return ""
	}
	if m.isBusy(txn.ID) {
		return m.theme.faint().Render("working...")
	}
	actions := lifecycle.Available(txn.Status, m.identity.Role)
	hints := make([]string, 0, len(actions))
	for _, action := range actions {
		hints = append(hints, fmt.Sprintf("[%s] %s", actionKey(action), action.Label()))
	}
	return strings.Join(hints, " ")
}

func actionKey(action lifecycle.Action) string {
	switch action {
	case lifecycle.Submit:
		return "s"
	case lifecycle.Approve:
		return "a"
	case lifecycle.Reject:
		return "r"
	case lifecycle.Execute:
		return "e"
	}
	return "?"
}

func creator(txn models.Transaction) string {
	if txn.CreatedByEmail != "" {
		return txn.CreatedByEmail
	}
	return txn.CreatedBy
}

func (m Model) viewDetail() string {
	switch {
	case m.detail.notFound:
		return m.theme.title().Render("Transaction not found") + "\n" +
			m.theme.faint().Render(fmt.Sprintf("No transaction with id %s. Press enter to go back to the list.", m.detail.id))
	case m.detail.loading && !m.detail.loaded:
		return m.theme.faint().Render("Loading transaction...")
	case !m.detail.loaded:
		return ""
	}

	txn := m.detail.txn
	var b strings.Builder
	b.WriteString(m.theme.title().Render(txn.Reference) + "  " + m.theme.badge(txn.Status).Render(txn.Status.Label()) + "\n\n")
	b.WriteString(m.viewStepper(txn.Status) + "\n\n")

	reviewer := "Approved By"
	if txn.Status == models.Rejected {
		reviewer = "Rejected By"
	}
	approvedBy := txn.ApprovedByEmail
	if approvedBy == "" {
		approvedBy = txn.ApprovedBy
	}
	if approvedBy == "" {
		approvedBy = "-"
	}
	fields := [][2]string{
		{"Amount", models.FormatAmount(txn.Amount, txn.Currency)},
		{"Currency", fmt.Sprintf("%s (%s)", txn.Currency, models.CurrencyName(txn.Currency))},
		{"Created By", creator(txn)},
		{reviewer, approvedBy},
		{"Created", txn.CreatedAt.Local().Format(timeLayout)},
		{"Updated", txn.UpdatedAt.Local().Format(timeLayout)},
		{"ID", txn.ID},
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "%-12s %s\n", f[0], f[1])
	}

	if hints := m.actionHints(txn); hints != "" {
		b.WriteString("\n" + hints)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewStepper(status models.Status) string {
	steps := lifecycle.Steps(status)
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		marker := "○ "
		switch {
		case s.State == lifecycle.StepActive && s.Terminal:
			marker = "✗ "
		case s.State == lifecycle.StepActive:
			marker = "● "
		case s.State == lifecycle.StepPast:
			marker = "✓ "
		}
		parts = append(parts, m.theme.stepStyle(s).Render(marker+s.Label))
	}
	return strings.Join(parts, m.theme.faint().Render(" → "))
}

func (m Model) viewCreate() string {
	var b strings.Builder
	if txn := m.create.created; txn != nil {
		b.WriteString(m.theme.title().Render("Transaction created") + "\n\n")
		fmt.Fprintf(&b, "Reference  %s\n", txn.Reference)
		fmt.Fprintf(&b, "Amount     %s\n", models.FormatAmount(txn.Amount, txn.Currency))
		fmt.Fprintf(&b, "Status     %s", m.theme.badge(txn.Status).Render(txn.Status.Label()))
		return b.String()
	}

	b.WriteString(m.theme.title().Render("New Transaction") + "\n\n")
	b.WriteString("Amount    " + m.create.amount.View() + "\n")
	if msg := m.create.errors["amount"]; msg != "" {
		b.WriteString("          " + m.theme.fieldError().Render("Amount "+msg) + "\n")
	}

	currencies := make([]string, len(models.Currencies))
	for i, code := range models.Currencies {
		if i == m.create.currency {
			style := lipgloss.NewStyle().Bold(true)
			if m.create.focus == 1 {
				style = m.theme.selected().Bold(true)
			}
			currencies[i] = style.Render("[" + code + "]")
		} else {
			currencies[i] = m.theme.faint().Render(" " + code + " ")
		}
	}
	b.WriteString("Currency  " + strings.Join(currencies, " ") + "  " +
		m.theme.faint().Render(models.CurrencyName(models.Currencies[m.create.currency])) + "\n")
	if msg := m.create.errors["currency"]; msg != "" {
		b.WriteString("          " + m.theme.fieldError().Render("Currency "+msg) + "\n")
	}
	if m.create.submitting {
		b.WriteString("\n" + m.theme.faint().Render("Creating..."))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewConfirm(pending lifecycle.PendingAction) string {
	c := pending.Confirmation()
	color := m.theme.Info
	if c.Destructive {
		color = m.theme.Danger
	}
	width := 60
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.title().Render(c.Title),
		"",
		lipgloss.NewStyle().Width(width).Render(c.Message),
		"",
		lipgloss.NewStyle().Bold(true).Foreground(color).Render("[y] "+c.ConfirmLabel)+"   "+m.theme.faint().Render("[n] Cancel"),
	)
	return m.theme.box(color).Render(content)
}
