package lifecycle

import (
	"fmt"

	"github.com/hongminglow/approval-desk/internal/models"
)

// PendingAction is an action the user has chosen but not yet confirmed. It
// carries a snapshot of the transaction so the dialog can restate it.
type PendingAction struct {
	Action      Action
	Transaction models.Transaction
}

// NewPendingAction prepares an action on txn for confirmation.
func NewPendingAction(txn models.Transaction, action Action) PendingAction {
	return PendingAction{Action: action, Transaction: txn}
}

// TransactionID is the target of the action.
func (p PendingAction) TransactionID() string {
	return p.Transaction.ID
}

// Confirmation is the copy shown before a transition is requested.
type Confirmation struct {
	Title        string
	Message      string
	ConfirmLabel string
	// Destructive marks irreversible actions that need warning styling.
	Destructive bool
}

// Confirmation builds the dialog copy for p.
func (p PendingAction) Confirmation() Confirmation {
	ref := p.Transaction.Reference
	if ref == "" {
		ref = p.Transaction.ID
	}
	switch p.Action {
	case Submit:
		return Confirmation{
			Title:        "Submit for Approval",
			Message:      fmt.Sprintf("Submit %s for approval?", ref),
			ConfirmLabel: "Submit",
		}
	case Approve:
		return Confirmation{
			Title:        "Approve Transaction",
			Message:      fmt.Sprintf("Are you sure you want to approve %s?", ref),
			ConfirmLabel: "Approve",
		}
	case Reject:
		return Confirmation{
			Title:        "Reject Transaction",
			Message:      fmt.Sprintf("Are you sure you want to reject %s? This action cannot be undone.", ref),
			ConfirmLabel: "Reject",
			Destructive:  true,
		}
	case Execute:
		amount := models.FormatAmount(p.Transaction.Amount, p.Transaction.Currency)
		return Confirmation{
			Title:        "Execute Transaction",
			Message:      fmt.Sprintf("Execute %s? This will process the payment of %s. This action cannot be undone.", ref, amount),
			ConfirmLabel: "Execute",
			Destructive:  true,
		}
	}
	return Confirmation{Title: string(p.Action), Message: ref, ConfirmLabel: "Confirm"}
}

// SuccessMessage is the notification shown after the server accepts action.
func SuccessMessage(action Action) string {
	switch action {
	case Submit:
		return "Transaction submitted for approval."
	case Approve:
		return "Transaction approved."
	case Reject:
		return "Transaction rejected."
	case Execute:
		return "Transaction executed successfully."
	}
	return "Done."
}

// FailureMessage is the notification shown when the server refuses action.
func FailureMessage(action Action) string {
	return fmt.Sprintf("Failed to %s transaction.", action)
}
