package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hongminglow/approval-desk/internal/api"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/session"
)

// Backend is the read/create side of the transaction service. Transitions
// go through the lifecycle controller instead.
type Backend interface {
	ListTransactions(ctx context.Context, status models.Status) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (models.Transaction, error)
	Stats(ctx context.Context) (models.Stats, error)
	PendingCount(ctx context.Context) (int, error)
}

type screen int

const (
	screenLogin screen = iota
	screenDashboard
	screenList
	screenDetail
	screenCreate
	screenNotFound
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	kind toastKind
	text string
}

// Model is the root bubbletea model.
type Model struct {
	guard   *session.Guard
	backend Backend
	control *lifecycle.Controller
	keys    KeyMap
	theme   Theme
	logger  *slog.Logger
	now     func() time.Time
	start   string

	width  int
	height int

	screen   screen
	path     string
	returnTo string
	gen      uint64
	identity *models.Identity
	toast    *toast
	confirm  *lifecycle.PendingAction
	// busy holds ids whose transition was confirmed but has not reported
	// back yet. It outlives screen mounts.
	busy map[string]bool

	login     loginView
	dashboard dashboardView
	list      listView
	detail    detailView
	create    createView
}

// Option customises a Model.
type Option func(*Model)

// WithTheme replaces the palette.
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithKeyMap replaces the key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithClock overrides the clock used for the greeting.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithStartPath sets the first route. It defaults to the dashboard.
func WithStartPath(path string) Option {
	return func(m *Model) { m.start = path }
}

// New builds the console model.
func New(guard *session.Guard, backend Backend, control *lifecycle.Controller, opts ...Option) Model {
	m := Model{
		guard:    guard,
		backend:  backend,
		control:  control,
		keys:     DefaultKeyMap,
		theme:    DefaultTheme,
		logger:   slog.Default(),
		now:      time.Now,
		start:    session.PathDashboard,
		returnTo: session.PathTransactions,
		busy:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Path is the current route.
func (m Model) Path() string {
	return m.path
}

// Init implements tea.Model by routing to the start path.
func (m Model) Init() tea.Cmd {
	start := m.start
	return func() tea.Msg { return navigateMsg{path: start} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case navigateMsg:
		cmd := m.navigate(msg.path)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case dashboardLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.dashboard.loading = false
		if msg.err != nil {
			cmd := m.handleError(msg.err)
			return m, cmd
		}
		m.dashboard.loaded = true
		m.dashboard.stats = msg.stats
		m.dashboard.pending = msg.pending
		return m, nil

	case listLoadedMsg:
		if msg.gen != m.gen || msg.seq != m.list.seq {
			return m, nil
		}
		m.list.loading = false
		if msg.err != nil {
			cmd := m.handleError(msg.err)
			return m, cmd
		}
		m.list.loaded = true
		m.list.items = msg.items
		m.list.clampCursor()
		return m, nil

	case detailLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.detail.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrNotFound) {
				m.detail.notFound = true
				return m, nil
			}
			cmd := m.handleError(msg.err)
			return m, cmd
		}
		m.detail.loaded = true
		m.detail.txn = msg.txn
		return m, nil

	case createdMsg:
		return m.handleCreated(msg)

	case transitionDoneMsg:
		return m.handleTransitionDone(msg)
	}
	return m, nil
}

// navigate mounts the screen for path, subject to the session guard.
func (m *Model) navigate(path string) tea.Cmd {
	m.gen++
	m.confirm = nil
	m.toast = nil

	decision := m.guard.Authorize(path)
	switch decision.Outcome {
	case session.RedirectLogin:
		m.identity = nil
		m.mountLogin(decision.From)
		return nil
	case session.RedirectHome:
		return m.navigate(session.PathDashboard)
	case session.NotFound:
		m.screen = screenNotFound
		m.path = decision.Location
		return nil
	}

	identity, ok := m.guard.Current()
	route, _, _ := session.Match(decision.Location)
	if route.Pattern == session.PathLogin {
		if ok {
			return m.navigate(session.PathDashboard)
		}
		m.identity = nil
		m.mountLogin("")
		return nil
	}
	if !ok {
		m.identity = nil
		m.mountLogin(decision.Location)
		return nil
	}
	m.identity = &identity
	m.path = decision.Location

	switch route.Pattern {
	case session.PathDashboard:
		return m.mountDashboard()
	case session.PathTransactions:
		return m.mountList(false)
	case session.PathApprovals:
		return m.mountList(true)
	case session.PathCreate:
		m.mountCreate()
		return nil
	}
	return m.mountDetail(decision.ID)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	switch {
	case m.screen == screenLogin:
		return m.updateLogin(msg)
	case m.screen == screenCreate && m.create.created == nil:
		return m.updateCreateForm(msg)
	case m.screen == screenList && m.list.searching:
		return m.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		m.guard.Logout()
		cmd := m.navigate(session.PathLogin)
		m.toast = &toast{kind: toastInfo, text: "You have been logged out."}
		return m, cmd
	case key.Matches(msg, m.keys.Dashboard):
		cmd := m.navigate(session.PathDashboard)
		return m, cmd
	case key.Matches(msg, m.keys.Create) && m.identity != nil && m.identity.Role == models.Operator:
		cmd := m.navigate(session.PathCreate)
		return m, cmd
	}

	switch m.screen {
	case screenDashboard:
		return m.updateDashboard(msg)
	case screenList:
		return m.updateList(msg)
	case screenDetail:
		return m.updateDetail(msg)
	case screenCreate:
		return m.updateCreateResult(msg)
	case screenNotFound:
		if key.Matches(msg, m.keys.Back, m.keys.Open) {
			cmd := m.navigate(session.PathDashboard)
			return m, cmd
		}
	}
	return m, nil
}

// handleError turns an async failure into view feedback. A 401 has
// already purged the session through the client hook, so re-routing the
// current path lands on the login screen.
func (m *Model) handleError(err error) tea.Cmd {
	if errors.Is(err, api.ErrUnauthorized) {
		cmd := m.navigate(m.path)
		if m.screen == screenLogin {
			m.toast = &toast{kind: toastError, text: "Your session has expired. Please log in again."}
		}
		return cmd
	}
	m.logger.Warn("request failed", "path", m.path, "error", err)
	m.toast = &toast{kind: toastError, text: describe(err)}
	return nil
}

func describe(err error) string {
	var status *api.StatusError
	switch {
	case errors.Is(err, api.ErrTransport):
		return "Network error. Check your connection and try again."
	case errors.Is(err, api.ErrServer):
		return "The server had a problem. Please try again."
	case errors.As(err, &status) && status.Detail != "":
		return status.Detail
	}
	return err.Error()
}
