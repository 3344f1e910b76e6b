package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/vanderheijden86/moonview/pkg/card"
)

// CardItem adapts a card controller to the bubbles list.
type CardItem struct {
	Ctrl *card.Controller
}

var _ list.Item = CardItem{}

// FilterValue makes cards filterable by title and source.
func (i CardItem) FilterValue() string {
	return i.Ctrl.Title() + " " + i.Ctrl.SourceLabel()
}
