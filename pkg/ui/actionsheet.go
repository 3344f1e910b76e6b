package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/moonview/pkg/card"
)

// actionSheet is the contextual menu overlay for one card. It consumes the
// controller's ordered action list as an opaque sequence plus display
// metadata; the interaction semantics live in the controller.
type actionSheet struct {
	ctrl    *card.Controller
	actions []card.Action
	cursor  int
}

func newActionSheet(ctrl *card.Controller) *actionSheet {
	s := &actionSheet{ctrl: ctrl}
	s.refresh()
	return s
}

// refresh rebuilds the action list from current card state, keeping the
// cursor on the same action id where possible. Called when the lazy
// favorite check resolves or a toggle flips the label.
func (s *actionSheet) refresh() {
	var currentID string
	if s.cursor < len(s.actions) {
		currentID = s.actions[s.cursor].ID
	}

	s.actions = s.ctrl.BuildMenu()

	// Supplemental: a Douban link can also be copied instead of opened.
	for _, a := range s.actions {
		if a.ID == "douban" {
			url := copyLinkURL(s.ctrl)
			s.actions = append(s.actions, card.Action{
				ID:      "copy-link",
				Label:   "Copy Douban link",
				Icon:    "⎘",
				Enabled: true,
				Invoke:  func() { _ = clipboard.WriteAll(url) },
			})
			break
		}
	}

	if currentID != "" {
		for i, a := range s.actions {
			if a.ID == currentID {
				s.cursor = i
				return
			}
		}
	}
	if s.cursor >= len(s.actions) {
		s.cursor = 0
	}
}

// copyLinkURL builds the same URL the open action navigates to, honoring
// the card's alternate-catalog template.
func copyLinkURL(ctrl *card.Controller) string {
	return card.DoubanURL(ctrl.DoubanID(), ctrl.AltCatalog())
}

func (s *actionSheet) moveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *actionSheet) moveDown() {
	if s.cursor < len(s.actions)-1 {
		s.cursor++
	}
}

// invoke runs the selected action. Returns true if the sheet should close.
func (s *actionSheet) invoke() bool {
	if s.cursor >= len(s.actions) {
		return true
	}
	a := s.actions[s.cursor]
	if !a.Enabled || a.Invoke == nil {
		return false
	}
	a.Invoke()
	// The favorite toggle keeps the sheet open so the flipped label is
	// visible; everything else dismisses.
	return a.ID != "favorite"
}

func (s *actionSheet) view(t Theme, width int) string {
	var b strings.Builder

	title := truncate(s.ctrl.Title(), width-6)
	b.WriteString(t.SheetTitle.Render(title))
	if progress := s.ctrl.ProgressText(); progress != "" {
		b.WriteString(t.MutedText.Render("  " + progress))
	}
	if src := s.ctrl.SourceLabel(); src != "" {
		b.WriteString(t.MutedText.Render("  " + src))
	}
	b.WriteString("\n")

	if len(s.actions) == 0 {
		b.WriteString(t.SheetDisabled.Render("no actions available"))
	}
	for i, a := range s.actions {
		b.WriteString("\n")
		line := a.Icon + " " + a.Label
		style := t.Renderer.NewStyle()
		switch {
		case !a.Enabled:
			style = t.SheetDisabled
		case a.Color == "danger":
			style = t.DangerText
		}
		if i == s.cursor {
			b.WriteString(t.SheetSelected.Render("▸ "))
			b.WriteString(style.Bold(true).Render(line))
		} else {
			b.WriteString("  ")
			b.WriteString(style.Render(line))
		}
	}

	frame := t.SheetFrame.MaxWidth(width)
	return lipgloss.Place(width, lipgloss.Height(frame.Render(b.String())),
		lipgloss.Center, lipgloss.Center, frame.Render(b.String()))
}
