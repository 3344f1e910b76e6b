package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/moonview/pkg/card"
)

// CardDelegate renders card items in the list.
// Layout: [sel] [heart] [title...] [progress] [source] [year] [rating]
type CardDelegate struct {
	Theme Theme
}

func (d CardDelegate) Height() int {
	return 1
}

func (d CardDelegate) Spacing() int {
	return 0
}

func (d CardDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

func (d CardDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(CardItem)
	if !ok {
		return
	}

	t := d.Theme
	ctrl := i.Ctrl
	display := ctrl.Display()

	width := m.Width()
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge.
	width = width - 1

	isSelected := index == m.Index()

	var rightParts []string
	rightWidth := 0
	push := func(s string) {
		if s == "" {
			return
		}
		rightParts = append(rightParts, s)
		rightWidth += lipgloss.Width(s) + 1
	}

	if progress := ctrl.ProgressText(); progress != "" {
		push(t.SecondaryText.Render(progress))
	}
	if display.ShowSourceName && ctrl.SourceLabel() != "" {
		push(t.SourceBadge.Render(truncate(ctrl.SourceLabel(), 12)))
	}
	if display.ShowYear && ctrl.Year() != "" {
		push(t.YearBadge.Render(ctrl.Year()))
	}
	if display.ShowRating && ctrl.Rating() != "" {
		push(t.RatingBadge.Render("★" + ctrl.Rating()))
	}
	if extra := len(ctrl.SourceNames()); extra > 1 {
		push(t.MutedText.Render(fmt.Sprintf("%d sources", extra)))
	}

	var left strings.Builder
	if isSelected {
		left.WriteString(t.PrimaryBold.Render("▸ "))
	} else {
		left.WriteString("  ")
	}

	heart := "  "
	if display.ShowHeart {
		switch st := ctrl.Status(); {
		case st == card.StatusChecking:
			heart = t.MutedText.Render("◌ ")
		case st.Favorited():
			heart = t.DangerText.Render("♥ ")
		default:
			heart = t.MutedText.Render("♡ ")
		}
	}
	left.WriteString(heart)

	leftWidth := lipgloss.Width(left.String())
	titleWidth := width - leftWidth - rightWidth - 2
	if titleWidth < 5 {
		titleWidth = 5
	}

	title := truncate(ctrl.Title(), titleWidth)
	if pad := titleWidth - lipgloss.Width(title); pad > 0 {
		title += strings.Repeat(" ", pad)
	}

	titleStyle := t.Renderer.NewStyle()
	if isSelected {
		titleStyle = titleStyle.Bold(true)
	}
	left.WriteString(titleStyle.Render(title))

	right := strings.Join(rightParts, " ")
	padding := width - lipgloss.Width(left.String()) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	row := left.String() + strings.Repeat(" ", padding) + right
	rowStyle := t.Renderer.NewStyle().Width(width).MaxWidth(width)
	if isSelected {
		row = rowStyle.Background(t.Highlight).Render(row)
	} else {
		row = rowStyle.Render(row)
	}

	fmt.Fprint(w, row)
}

// truncate shortens s to at most width display cells, appending an ellipsis
// when anything was cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
