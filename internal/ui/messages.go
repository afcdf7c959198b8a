package ui

import (
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
)

// navigateMsg asks the model to route to path.
type navigateMsg struct {
	path string
}

// Results below carry the mount generation that requested them.

type loginDoneMsg struct {
	gen      uint64
	identity models.Identity
	err      error
}

type dashboardLoadedMsg struct {
	gen     uint64
	stats   models.Stats
	pending int
	err     error
}

type listLoadedMsg struct {
	gen   uint64
	seq   uint64
	items []models.Transaction
	err   error
}

type detailLoadedMsg struct {
	gen uint64
	txn models.Transaction
	err error
}

type createdMsg struct {
	gen uint64
	txn models.Transaction
	err error
}

type transitionDoneMsg struct {
	gen     uint64
	pending lifecycle.PendingAction
	txn     models.Transaction
	err     error
}
