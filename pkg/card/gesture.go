package card

import (
	"sync"
	"time"
)

// Press handling defaults. A press shorter than the threshold with movement
// inside the tolerance is a tap; a press held past the threshold is a long
// press and opens the contextual menu.
const (
	DefaultPressThreshold = 500 * time.Millisecond
	DefaultMoveTolerance  = 3 // cells
)

// GestureOutcome is what a resolved pointer event amounts to.
type GestureOutcome int

const (
	// GestureNone means the event resolved to no action (cancelled,
	// already long-pressed, or guarded by an open menu).
	GestureNone GestureOutcome = iota
	// GestureNavigate means the press resolved to a tap.
	GestureNavigate
	// GestureOpenMenu means the contextual menu should open.
	GestureOpenMenu
)

// GestureOption configures a Gesture.
type GestureOption func(*Gesture)

// WithPressThreshold overrides the long-press threshold.
func WithPressThreshold(d time.Duration) GestureOption {
	return func(g *Gesture) { g.threshold = d }
}

// WithMoveTolerance overrides the movement tolerance in cells.
func WithMoveTolerance(cells int) GestureOption {
	return func(g *Gesture) { g.tolerance = cells }
}

// Gesture disambiguates tap, long-press and secondary-click on one card.
// The long-press fires through the onLongPress callback the moment the
// threshold elapses while the press is still held; the subsequent release
// then resolves to nothing, so a long press never double-fires as a tap.
type Gesture struct {
	mu        sync.Mutex
	threshold time.Duration
	tolerance int

	pressing    bool
	longPressed bool
	cancelled   bool
	startX      int
	startY      int
	timer       *time.Timer
	seq         uint64 // invalidates timers from superseded presses

	onLongPress func()
	menuOpen    func() bool
}

// NewGesture creates a resolver. onLongPress runs when a press crosses the
// threshold; menuOpen is the re-entrancy guard consulted before any
// menu-opening resolution.
func NewGesture(onLongPress func(), menuOpen func() bool, opts ...GestureOption) *Gesture {
	g := &Gesture{
		threshold:   DefaultPressThreshold,
		tolerance:   DefaultMoveTolerance,
		onLongPress: onLongPress,
		menuOpen:    menuOpen,
	}
	if g.onLongPress == nil {
		g.onLongPress = func() {}
	}
	if g.menuOpen == nil {
		g.menuOpen = func() bool { return false }
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PressStart begins tracking a primary-button press at (x, y). A press
// started while another is active supersedes it.
func (g *Gesture) PressStart(x, y int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopTimerLocked()
	g.seq++
	seq := g.seq
	g.pressing = true
	g.longPressed = false
	g.cancelled = false
	g.startX, g.startY = x, y
	g.timer = time.AfterFunc(g.threshold, func() { g.fireLongPress(seq) })
}

// Move updates the pointer position. Movement beyond the tolerance cancels
// the press.
func (g *Gesture) Move(x, y int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.pressing || g.cancelled || g.longPressed {
		return
	}
	if abs(x-g.startX) > g.tolerance || abs(y-g.startY) > g.tolerance {
		g.cancelled = true
		g.stopTimerLocked()
	}
}

// Leave cancels the press; the pointer left the card.
func (g *Gesture) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.pressing {
		return
	}
	g.cancelled = true
	g.stopTimerLocked()
}

// Release resolves the press. Returns GestureNavigate only for a short,
// still press that did not already fire as a long press.
func (g *Gesture) Release() GestureOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.pressing {
		return GestureNone
	}
	g.pressing = false
	g.seq++
	g.stopTimerLocked()

	if g.cancelled || g.longPressed {
		g.cancelled = false
		g.longPressed = false
		return GestureNone
	}
	return GestureNavigate
}

// SecondaryClick resolves a right-click (or platform equivalent) directly
// to menu-open, independent of the press machine, unless a menu is already
// open.
func (g *Gesture) SecondaryClick() GestureOutcome {
	if g.menuOpen() {
		return GestureNone
	}
	return GestureOpenMenu
}

func (g *Gesture) fireLongPress(seq uint64) {
	g.mu.Lock()
	if seq != g.seq || !g.pressing || g.cancelled || g.longPressed {
		g.mu.Unlock()
		return
	}
	g.longPressed = true
	guarded := g.menuOpen()
	fire := g.onLongPress
	g.mu.Unlock()

	if !guarded {
		fire()
	}
}

// stopTimerLocked stops a pending long-press timer. Caller holds g.mu.
func (g *Gesture) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
