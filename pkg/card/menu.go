package card

import "fmt"

// Douban detail page templates. The alternate-catalog flag picks the mobile
// site, which resolves for subjects the desktop catalog does not carry.
const (
	doubanSubjectURL    = "https://movie.douban.com/subject/%d"
	doubanAltSubjectURL = "https://m.douban.com/movie/subject/%d"
)

// DoubanURL returns the external detail page for a catalog id.
func DoubanURL(id int, alternate bool) string {
	if alternate {
		return fmt.Sprintf(doubanAltSubjectURL, id)
	}
	return fmt.Sprintf(doubanSubjectURL, id)
}

// Action is one entry of the contextual menu. Value object: rebuilt on
// every BuildMenu call, never mutated in place.
type Action struct {
	ID      string
	Label   string
	Icon    string
	Enabled bool
	// Color is a presentation hint ("danger" for destructive actions,
	// empty for neutral ones). The presenter maps it to a style.
	Color  string
	Invoke func()
}

// BuildMenu composes the ordered action list from the card's resolved
// configuration, current favorite status and identity. The result is never
// nil; a card with no capabilities and no identity yields an empty slice.
func (c *Controller) BuildMenu() []Action {
	c.mu.Lock()
	display := c.display
	variant := c.variant
	key := c.key
	status := c.status
	doubanID := c.doubanID
	title := c.props.Title
	isLive := c.props.IsLive
	alt := c.props.AltCatalog
	c.mu.Unlock()

	actions := make([]Action, 0, 5)

	if display.ShowPlayButton && title != "" {
		playLabel := "Play"
		if isLive {
			playLabel = "Watch live"
		}
		actions = append(actions,
			Action{
				ID:      "play",
				Label:   playLabel,
				Icon:    "▶",
				Enabled: true,
				Invoke:  func() { c.navigate(false) },
			},
			Action{
				ID:      "play-new",
				Label:   "Play in new session",
				Icon:    "⧉",
				Enabled: true,
				Invoke:  func() { c.navigate(true) },
			},
		)
	}

	if display.ShowHeart && variant != VariantDoubanCatalog && !key.IsZero() {
		switch {
		case !status.Known():
			actions = append(actions, Action{
				ID:    "favorite",
				Label: "Checking favorite…",
				Icon:  "♡",
			})
		case status.Favorited():
			actions = append(actions, Action{
				ID:      "favorite",
				Label:   "Remove from favorites",
				Icon:    "♥",
				Enabled: true,
				Color:   "danger",
				Invoke:  func() { _ = c.Toggle() },
			})
		default:
			actions = append(actions, Action{
				ID:      "favorite",
				Label:   "Add to favorites",
				Icon:    "♡",
				Enabled: true,
				Invoke:  func() { _ = c.Toggle() },
			})
		}
	}

	if display.ShowDelete && variant == VariantPlayRecord && !key.IsZero() {
		actions = append(actions, Action{
			ID:      "delete",
			Label:   "Delete play record",
			Icon:    "✕",
			Enabled: true,
			Color:   "danger",
			Invoke:  c.deleteRecord,
		})
	}

	if display.ShowDoubanLink && doubanID != 0 {
		url := DoubanURL(doubanID, alt)
		nav := c.nav
		actions = append(actions, Action{
			ID:      "douban",
			Label:   "View on Douban",
			Icon:    "↗",
			Enabled: true,
			Invoke: func() {
				if nav != nil {
					_ = nav.OpenURL(url)
				}
			},
		})
	}

	return actions
}
