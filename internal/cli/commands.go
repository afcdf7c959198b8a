package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/approval-desk/internal/api"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/session"
	"github.com/hongminglow/approval-desk/internal/validation"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	passwordFile := fs.String("password-file", "", "read the password from this file")
	if err := parse(fs, args); err != nil {
		return err
	}

	username := ""
	if fs.NArg() > 0 {
		username = fs.Arg(0)
	} else {
		line, err := a.readLine("Username: ")
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = line
	}

	var password string
	if *passwordFile != "" {
		data, err := os.ReadFile(*passwordFile)
		if err != nil {
			return fmt.Errorf("read password file: %w", err)
		}
		password = strings.TrimRight(string(data), "\r\n")
	} else {
		secret, err := a.readSecret("Password: ")
		if err != nil {
			return err
		}
		password = secret
	}

	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrUsage)
	}

	_, hadSession := a.Guard.Current()
	identity, err := a.Guard.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		if hadSession {
			fmt.Fprintln(a.Stderr, "Previous session ended.")
		}
		if errors.Is(err, api.ErrTransport) || errors.Is(err, api.ErrServer) {
			return fmt.Errorf("login: %w", err)
		}
		return fmt.Errorf("%w (%w)", ErrInvalidCredentials, err)
	}
	fmt.Fprintf(a.Stdout, "Logged in as %s (%s)\n", identity.Email, identity.Role)
	return nil
}

func (a *App) logout(_ context.Context, _ []string) error {
	a.Guard.Logout()
	fmt.Fprintln(a.Stdout, "Logged out.")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	identity, ok := a.Guard.Current()
	if !ok {
		return ErrNotLoggedIn
	}
	fmt.Fprintf(a.Stdout, "%s <%s>\nRole: %s\n", identity.DisplayName, identity.Email, identity.Role)
	if expires, ok := a.Guard.ExpiresAt(); ok {
		fmt.Fprintf(a.Stdout, "Session expires: %s\n", expires.Local().Format(timeLayout))
	}
	return nil
}

func (a *App) stats(ctx context.Context, _ []string) error {
	_, identity, err := a.gate(session.PathDashboard)
	if err != nil {
		return err
	}
	s, err := a.Service.Stats(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	for _, status := range models.Statuses {
		fmt.Fprintf(tw, "%s\t%d\n", status.Label(), s.Count(status))
	}
	fmt.Fprintf(tw, "Approved rate\t%d%%\n", s.ApprovedRate())
	fmt.Fprintf(tw, "Execution rate\t%d%%\n", s.ExecutionRate())
	fmt.Fprintf(tw, "Rejection rate\t%d%%\n", s.RejectionRate())
	if identity.Role == models.Approver {
		if pending, err := a.Service.PendingCount(ctx); err == nil {
			fmt.Fprintf(tw, "Awaiting your approval\t%d\n", pending)
		}
	}
	return tw.Flush()
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := newFlags("list")
	statusFlag := fs.String("status", "", "only show this status")
	search := fs.String("search", "", "filter by reference substring")
	if err := parse(fs, args); err != nil {
		return err
	}
	var status models.Status
	if *statusFlag != "" {
		parsed, err := models.ParseStatus(*statusFlag)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		status = parsed
	}
	return a.printList(ctx, session.PathTransactions, status, *search)
}

func (a *App) approvals(ctx context.Context, args []string) error {
	fs := newFlags("approvals")
	search := fs.String("search", "", "filter by reference substring")
	if err := parse(fs, args); err != nil {
		return err
	}
	return a.printList(ctx, session.PathApprovals, models.PendingApproval, *search)
}

func (a *App) printList(ctx context.Context, path string, status models.Status, search string) error {
	_, identity, err := a.gate(path)
	if err != nil {
		return err
	}

	txns, err := a.Service.ListTransactions(ctx, status)
	if err != nil {
		return err
	}
	needle := strings.ToLower(strings.TrimSpace(search))

	tw := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
	header := "ID\tREFERENCE\tAMOUNT\tSTATUS"
	if identity.Role == models.Approver {
		header += "\tCREATED BY"
	}
	fmt.Fprintln(tw, header+"\tCREATED\tACTIONS")

	shown := 0
	for _, txn := range txns {
		if needle != "" && !strings.Contains(strings.ToLower(txn.Reference), needle) {
			continue
		}
		shown++
		row := []string{txn.ID, txn.Reference, models.FormatAmount(txn.Amount, txn.Currency), txn.Status.Label()}
		if identity.Role == models.Approver {
			row = append(row, createdBy(txn))
		}
		row = append(row, txn.CreatedAt.Local().Format(timeLayout), actionList(txn.Status, identity.Role))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown == 0 {
		fmt.Fprintln(a.Stdout, "No transactions found.")
	}
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show <id>", ErrUsage)
	}
	decision, identity, err := a.gate(session.TransactionPath(args[0]))
	if err != nil {
		return err
	}
	txn, err := a.Service.GetTransaction(ctx, decision.ID)
	if err != nil {
		return err
	}
	writeDetail(a.Stdout, txn, identity.Role)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := newFlags("create")
	amount := fs.String("amount", "", "positive amount")
	currency := fs.String("currency", "MXN", "ISO 4217 code")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, _, err := a.gate(session.PathCreate); err != nil {
		return err
	}

	value, err := decimal.NewFromString(strings.TrimSpace(*amount))
	if err != nil {
		msg := "must be a number"
		if strings.TrimSpace(*amount) == "" {
			msg = "is required"
		}
		return &validation.Errors{Fields: []validation.FieldError{{Field: "amount", Message: msg, Type: "number"}}}
	}

	txn, err := a.Service.CreateTransaction(ctx, dto.CreateTransactionRequest{Amount: value, Currency: *currency})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Transaction %s created.\n", txn.Reference)
	writeDetail(a.Stdout, txn, models.Operator)
	return nil
}

func transitionCommand(action lifecycle.Action) func(*App, context.Context, []string) error {
	return func(a *App, ctx context.Context, args []string) error {
		fs := newFlags(string(action))
		yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")
		if err := parse(fs, args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: %s <id>", ErrUsage, action)
		}
		decision, identity, err := a.gate(session.TransactionPath(fs.Arg(0)))
		if err != nil {
			return err
		}

		txn, err := a.Service.GetTransaction(ctx, decision.ID)
		if err != nil {
			return err
		}
		if !lifecycle.Allowed(txn.Status, action, identity.Role) {
			return fmt.Errorf("%w: cannot %s %s while %s", lifecycle.ErrNotPermitted, action, txn.Reference, txn.Status.Label())
		}

		pending := lifecycle.NewPendingAction(txn, action)
		if err := a.confirm(pending.Confirmation().Message, *yes); err != nil {
			return err
		}

		updated, err := a.Control.Confirm(ctx, pending, identity)
		if err != nil {
			return fmt.Errorf("%s %w", lifecycle.FailureMessage(action), err)
		}
		fmt.Fprintln(a.Stdout, lifecycle.SuccessMessage(action))
		fmt.Fprintf(a.Stdout, "%s is now %s\n", updated.Reference, updated.Status.Label())
		return nil
	}
}

func writeDetail(w io.Writer, txn models.Transaction, role models.Role) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Reference\t%s\n", txn.Reference)
	fmt.Fprintf(tw, "ID\t%s\n", txn.ID)
	fmt.Fprintf(tw, "Amount\t%s\n", models.FormatAmount(txn.Amount, txn.Currency))
	fmt.Fprintf(tw, "Currency\t%s (%s)\n", txn.Currency, models.CurrencyName(txn.Currency))
	fmt.Fprintf(tw, "Status\t%s\n", txn.Status.Label())
	fmt.Fprintf(tw, "Progress\t%s\n", progress(txn.Status))
	fmt.Fprintf(tw, "Created By\t%s\n", createdBy(txn))
	if txn.ApprovedBy != "" || txn.ApprovedByEmail != "" {
		label := "Approved By"
		if txn.Status == models.Rejected {
			label = "Rejected By"
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, fallback(txn.ApprovedByEmail, txn.ApprovedBy))
	}
	fmt.Fprintf(tw, "Created\t%s\n", stamp(txn.CreatedAt))
	fmt.Fprintf(tw, "Updated\t%s\n", stamp(txn.UpdatedAt))
	fmt.Fprintf(tw, "Actions\t%s\n", actionList(txn.Status, role))
	tw.Flush()
}

func progress(status models.Status) string {
	steps := lifecycle.Steps(status)
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		mark := "○"
		switch {
		case step.State == lifecycle.StepActive && step.Terminal:
			mark = "✗"
		case step.State == lifecycle.StepActive:
			mark = "●"
		case step.State == lifecycle.StepPast:
			mark = "✓"
		}
		parts = append(parts, mark+" "+step.Label)
	}
	return strings.Join(parts, " → ")
}

func actionList(status models.Status, role models.Role) string {
	actions := lifecycle.Available(status, role)
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, len(actions))
	for i, action := range actions {
		names[i] = string(action)
	}
	return strings.Join(names, ", ")
}

func createdBy(txn models.Transaction) string {
	return fallback(txn.CreatedByEmail, fallback(txn.CreatedBy, "-"))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
