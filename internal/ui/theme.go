package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
)

// Theme is the console palette, in ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Title      lipgloss.Color
	Border     lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Danger  lipgloss.Color
	Info    lipgloss.Color

	StatusDraft    lipgloss.Color
	StatusPending  lipgloss.Color
	StatusApproved lipgloss.Color
	StatusRejected lipgloss.Color
	StatusExecuted lipgloss.Color
}

// DefaultTheme targets dark terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	Title:      lipgloss.Color("255"),
	Border:     lipgloss.Color("240"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Success: lipgloss.Color("114"),
	Warning: lipgloss.Color("220"),
	Danger:  lipgloss.Color("196"),
	Info:    lipgloss.Color("75"),

	StatusDraft:    lipgloss.Color("245"),
	StatusPending:  lipgloss.Color("220"),
	StatusApproved: lipgloss.Color("75"),
	StatusRejected: lipgloss.Color("196"),
	StatusExecuted: lipgloss.Color("114"),
}

// StatusColor returns the badge color for a status. Unknown statuses use
// FaintText.
func (t Theme) StatusColor(status models.Status) lipgloss.Color {
	switch status {
	case models.Draft:
		return t.StatusDraft
	case models.PendingApproval:
		return t.StatusPending
	case models.Approved:
		return t.StatusApproved
	case models.Rejected:
		return t.StatusRejected
	case models.Executed:
		return t.StatusExecuted
	}
	return t.FaintText
}

func (t Theme) title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Title)
}

func (t Theme) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.FaintText)
}

func (t Theme) badge(status models.Status) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.StatusColor(status))
}

func (t Theme) selected() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.SelectedBackground).Foreground(t.SelectedForeground)
}

func (t Theme) fieldError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Danger)
}

func (t Theme) box(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
}

func (t Theme) stepStyle(s lifecycle.Step) lipgloss.Style {
	step := lipgloss.NewStyle()
	switch {
	case s.State == lifecycle.StepActive && s.Terminal:
		return step.Bold(true).Foreground(t.Danger)
	case s.State == lifecycle.StepActive:
		return step.Bold(true).Foreground(t.Info)
	case s.State == lifecycle.StepPast:
		return step.Foreground(t.Success)
	}
	return step.Foreground(t.FaintText)
}
