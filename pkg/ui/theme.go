// Package ui provides the terminal user interface for moonview: a card
// list whose rows are interactive media cards, plus the contextual action
// sheet the cards open.
package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the pre-computed styles used by the card list and sheet.
type Theme struct {
	Renderer *lipgloss.Renderer

	PrimaryBold   lipgloss.Style
	SecondaryText lipgloss.Style
	MutedText     lipgloss.Style
	DangerText    lipgloss.Style
	Highlight     lipgloss.AdaptiveColor

	SourceBadge lipgloss.Style
	YearBadge   lipgloss.Style
	RatingBadge lipgloss.Style

	SheetFrame    lipgloss.Style
	SheetTitle    lipgloss.Style
	SheetSelected lipgloss.Style
	SheetDisabled lipgloss.Style

	Toast lipgloss.Style
}

// DefaultTheme builds the theme against the given renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	primary := lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	danger := lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	muted := lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}

	return Theme{
		Renderer: r,

		PrimaryBold:   r.NewStyle().Foreground(primary).Bold(true),
		SecondaryText: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}),
		MutedText:     r.NewStyle().Foreground(muted),
		DangerText:    r.NewStyle().Foreground(danger),
		Highlight:     lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#2E1065"},

		SourceBadge: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#6EE7B7"}).
			Background(lipgloss.AdaptiveColor{Light: "#D1FAE5", Dark: "#064E3B"}).
			Padding(0, 1),
		YearBadge: r.NewStyle().Foreground(muted),
		RatingBadge: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FCD34D"}),

		SheetFrame: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		SheetTitle:    r.NewStyle().Bold(true),
		SheetSelected: r.NewStyle().Foreground(primary).Bold(true),
		SheetDisabled: r.NewStyle().Foreground(muted),

		Toast: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FCA5A5"}).
			Bold(true),
	}
}
