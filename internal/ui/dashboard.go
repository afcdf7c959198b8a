package ui

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/session"
)

type dashboardView struct {
	stats   models.Stats
	pending int
	loading bool
	loaded  bool
}

func (m *Model) mountDashboard() tea.Cmd {
	m.screen = screenDashboard
	m.dashboard = dashboardView{loading: true}
	backend, gen := m.backend, m.gen
	approver := m.identity.Role == models.Approver
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := backend.Stats(ctx)
		if err != nil {
			return dashboardLoadedMsg{gen: gen, err: err}
		}
		pending := stats.PendingApproval
		if approver {
			if pending, err = backend.PendingCount(ctx); err != nil {
				return dashboardLoadedMsg{gen: gen, err: err}
			}
		}
		return dashboardLoadedMsg{gen: gen, stats: stats, pending: pending}
	}
}

// updateDashboard opens navigation entries by their 1-based number.
func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := session.Navigation(m.identity.Role)
	n, err := strconv.Atoi(msg.String())
	if err != nil || n < 1 || n > len(items) {
		return m, nil
	}
	cmd := m.navigate(items[n-1].Path)
	return m, cmd
}

func greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	}
	return "Good evening"
}
