package card

import (
	"fmt"

	"github.com/vanderheijden86/moonview/pkg/model"
)

// Props are the creation-time inputs of a card. They seed the mutable
// fields but do not own them afterwards: bridge setters overwrite the
// mutable values without re-deriving from props.
type Props struct {
	Title       string
	Poster      string
	Year        string
	Rating      string // empty means no rating available
	SourceName  string
	SearchTitle string

	EpisodeIndex  int // 1-based current episode (play records)
	TotalEpisodes int
	DoubanID      int

	IsLive bool
	// AltCatalog selects the alternate Douban URL template.
	AltCatalog bool
	// SourceNames seeds the aggregated source list.
	SourceNames []string
}

// Key returns the card's composite identity.
func (c *Controller) Key() model.CardKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Variant returns the card's fixed variant.
func (c *Controller) Variant() Variant {
	return c.variant
}

// Display returns the capability/display configuration resolved from the
// variant at construction time.
func (c *Controller) Display() DisplayConfig {
	return c.display
}

// Title returns the card's display title.
func (c *Controller) Title() string { return c.props.Title }

// Poster returns the card's cover image URL.
func (c *Controller) Poster() string { return c.props.Poster }

// Year returns the card's release year, if known.
func (c *Controller) Year() string { return c.props.Year }

// Rating returns the external catalog rating, if any.
func (c *Controller) Rating() string { return c.props.Rating }

// SourceLabel returns the human-readable source the card came from.
func (c *Controller) SourceLabel() string { return c.props.SourceName }

// Episodes returns the current total episode count (bridge-overridable).
func (c *Controller) Episodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episodes
}

// SourceNames returns the aggregated source list (bridge-overridable).
func (c *Controller) SourceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sourceNames))
	copy(out, c.sourceNames)
	return out
}

// DoubanID returns the external catalog id; zero means absent.
func (c *Controller) DoubanID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doubanID
}

// AltCatalog reports whether the card's external links use the alternate
// Douban URL template.
func (c *Controller) AltCatalog() bool { return c.props.AltCatalog }

// ProgressText derives the "episode x/y" display string for play-record
// cards. Empty when the variant does not show progress or the counts are
// unusable.
func (c *Controller) ProgressText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.display.ShowProgress {
		return ""
	}
	if c.props.EpisodeIndex <= 0 || c.episodes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", c.props.EpisodeIndex, c.episodes)
}
