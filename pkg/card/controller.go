package card

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vanderheijden86/moonview/pkg/broadcast"
	"github.com/vanderheijden86/moonview/pkg/debug"
	"github.com/vanderheijden86/moonview/pkg/model"
)

// DefaultCheckTimeout bounds a single favorite lookup or mutation.
const DefaultCheckTimeout = 10 * time.Second

// Precondition errors returned synchronously by Toggle.
var (
	ErrFavoriteUnavailable = errors.New("favoriting is not available for this card")
	ErrNoIdentity          = errors.New("card has no identity")
	ErrStatusUnknown       = errors.New("favorite status not yet known")
	ErrMutationInFlight    = errors.New("a favorite operation is already in flight")
)

// MutationError wraps a failed background mutation with the operation and
// subject it was for. It is delivered through the controller's OnError
// callback, never raised.
type MutationError struct {
	Op    string // "add", "remove", "delete-record"
	Key   model.CardKey
	Cause error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Key, e.Cause)
}

func (e *MutationError) Unwrap() error { return e.Cause }

// FavoritesService is the external persistence collaborator, keyed by the
// composite (source, id) identity. All calls may fail with a recoverable
// error; none block the UI loop.
type FavoritesService interface {
	Exists(ctx context.Context, source, id string) (bool, error)
	Add(ctx context.Context, source, id string, rec model.FavoriteRecord) error
	Remove(ctx context.Context, source, id string) error
	RemovePlayRecord(ctx context.Context, source, id string) error
}

// PlayTarget is what the controller hands to the Navigator. How targets
// become URLs or player invocations is the navigator's business.
type PlayTarget struct {
	Key          model.CardKey
	Title        string
	Year         string
	SearchTitle  string
	EpisodeIndex int
	IsLive       bool
}

// Navigator performs navigation on behalf of a card. Menu-triggered and
// tap-triggered navigation go through the same implementation.
type Navigator interface {
	Play(t PlayTarget) error
	PlayInNewSession(t PlayTarget) error
	OpenURL(url string) error
}

// Config assembles a card controller. Key, Variant and Props are fixed for
// the instance's lifetime; Service, Hub and Navigator are required
// collaborators. The callbacks are optional.
type Config struct {
	Key     model.CardKey
	Variant Variant
	Props   Props

	Service   FavoritesService
	Hub       *broadcast.Hub
	Navigator Navigator

	// OnMenuRequest is invoked when a gesture resolves to opening the
	// contextual menu. The presenter should call BuildMenu and show the
	// result, then CloseMenu when dismissed.
	OnMenuRequest func(*Controller)
	// OnDelete is invoked after the card's play record was deleted.
	OnDelete func(model.CardKey)
	// OnError receives non-fatal background failures (*MutationError).
	OnError func(error)
	// OnChange is invoked whenever observable card state changed.
	OnChange func()

	// CheckTimeout bounds each persistence call. Zero means
	// DefaultCheckTimeout.
	CheckTimeout time.Duration
	// PressThreshold and MoveTolerance tune the gesture resolver; zero
	// values use the package defaults.
	PressThreshold time.Duration
	MoveTolerance  int
}

// Controller owns one card's interaction state. All exported methods are
// safe to call from the UI loop while background completions resolve.
type Controller struct {
	mu sync.Mutex

	key     model.CardKey
	variant Variant
	display DisplayConfig
	props   Props

	// Mutable fields, seeded from props, overwritable via the bridge.
	episodes    int
	sourceNames []string
	doubanID    int

	status   FavoriteStatus
	inFlight bool

	// Liveness: alive flips on Mount/Unmount, gen invalidates completions
	// issued before the latest unmount.
	alive bool
	gen   uint64

	svc   FavoritesService
	hub   *broadcast.Hub
	nav   Navigator
	unsub func()

	menuOpen bool
	gesture  *Gesture

	onMenuRequest func(*Controller)
	onDelete      func(model.CardKey)
	onError       func(error)
	onChange      func()

	checkTimeout time.Duration
}

// New creates a controller. The card is inert until Mount is called.
func New(cfg Config) *Controller {
	c := &Controller{
		key:           cfg.Key,
		variant:       cfg.Variant,
		display:       ResolveDisplay(cfg.Variant, cfg.Props.Rating != ""),
		props:         cfg.Props,
		episodes:      cfg.Props.TotalEpisodes,
		sourceNames:   dedupeNames(cfg.Props.SourceNames),
		doubanID:      cfg.Props.DoubanID,
		svc:           cfg.Service,
		hub:           cfg.Hub,
		nav:           cfg.Navigator,
		onMenuRequest: cfg.OnMenuRequest,
		onDelete:      cfg.OnDelete,
		onError:       cfg.OnError,
		onChange:      cfg.OnChange,
		checkTimeout:  cfg.CheckTimeout,
	}
	if c.checkTimeout == 0 {
		c.checkTimeout = DefaultCheckTimeout
	}
	var gopts []GestureOption
	if cfg.PressThreshold > 0 {
		gopts = append(gopts, WithPressThreshold(cfg.PressThreshold))
	}
	if cfg.MoveTolerance > 0 {
		gopts = append(gopts, WithMoveTolerance(cfg.MoveTolerance))
	}
	c.gesture = NewGesture(c.openMenuFromGesture, c.MenuOpen, gopts...)
	return c
}

// Mount acquires the broadcast subscription and, for eager variants with a
// usable identity, starts the favorite check. Mounting an already-mounted
// controller is a no-op.
func (c *Controller) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.alive {
		return
	}
	c.alive = true

	if c.hub != nil && c.display.ShowHeart && !c.key.IsZero() {
		c.unsub = c.hub.Subscribe(broadcast.TopicFavoritesUpdated, c.onBroadcast)
	}

	// SearchResult defers its check until the menu opens; the other
	// heart-bearing variants check immediately.
	eager := c.display.ShowHeart && c.variant != VariantSearchResult
	if eager && !c.key.IsZero() {
		c.beginCheckLocked()
	}
}

// Unmount releases the broadcast subscription, invalidates any pending
// background completion, and discards the favorite status so a remount
// starts from Unknown. Unmounting twice is a no-op.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return
	}
	c.alive = false
	c.gen++
	c.inFlight = false
	c.status = StatusUnknown
	c.menuOpen = false
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// EnsureChecked starts the deferred favorite check for lazy variants.
// Idempotent: a no-op while checking or once the status is known.
func (c *Controller) EnsureChecked() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive || c.key.IsZero() || !c.display.ShowHeart {
		return
	}
	c.beginCheckLocked()
}

// Status returns the current favorite status.
func (c *Controller) Status() FavoriteStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Toggle applies an optimistic favorite flip and fires the backing mutation
// in the background. The new value is published on the broadcast channel
// immediately; if the mutation later fails, the flip is reverted, the
// corrected value is published, and OnError receives a *MutationError.
//
// Toggle returns an error only for preconditions: favoriting disabled for
// the variant, missing identity, status not yet known, or an operation
// already in flight.
func (c *Controller) Toggle() error {
	c.mu.Lock()

	switch {
	case !c.display.ShowHeart || c.variant == VariantDoubanCatalog:
		c.mu.Unlock()
		return ErrFavoriteUnavailable
	case c.key.IsZero():
		c.mu.Unlock()
		return ErrNoIdentity
	case c.inFlight:
		c.mu.Unlock()
		return ErrMutationInFlight
	case !c.status.Known():
		c.mu.Unlock()
		return ErrStatusUnknown
	}

	adding := c.status == StatusNotFavorited
	c.status = knownStatus(adding)
	c.inFlight = true
	gen := c.gen
	key := c.key
	var rec *model.FavoriteRecord
	if adding {
		r := c.favoriteRecordLocked()
		rec = &r
	}
	c.notifyLocked()
	c.mu.Unlock()

	if c.hub != nil {
		c.hub.PublishFavorite(key, rec)
	}
	go c.runToggle(gen, adding, rec)
	return nil
}

func (c *Controller) runToggle(gen uint64, adding bool, rec *model.FavoriteRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), c.checkTimeout)
	defer cancel()

	var err error
	if adding {
		err = c.svc.Add(ctx, c.key.Source, c.key.ID, *rec)
	} else {
		err = c.svc.Remove(ctx, c.key.Source, c.key.ID)
	}

	c.mu.Lock()
	if !c.alive || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	if err == nil {
		c.mu.Unlock()
		return
	}

	// Revert the optimistic flip and bring siblings back with us.
	c.status = knownStatus(!adding)
	key := c.key
	var revert *model.FavoriteRecord
	if !adding {
		r := c.favoriteRecordLocked()
		revert = &r
	}
	onErr := c.onError
	c.notifyLocked()
	c.mu.Unlock()

	if c.hub != nil {
		c.hub.PublishFavorite(key, revert)
	}
	op := "remove"
	if adding {
		op = "add"
	}
	debug.Log("favorite %s failed for %s: %v", op, key, err)
	if onErr != nil {
		onErr(&MutationError{Op: op, Key: key, Cause: err})
	}
}

// beginCheckLocked transitions Unknown -> Checking and issues the lookup.
// Caller holds c.mu.
func (c *Controller) beginCheckLocked() {
	if c.inFlight || c.status != StatusUnknown {
		return
	}
	c.status = StatusChecking
	c.inFlight = true
	gen := c.gen
	c.notifyLocked()
	go c.runCheck(gen)
}

func (c *Controller) runCheck(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.checkTimeout)
	defer cancel()
	found, err := c.svc.Exists(ctx, c.key.Source, c.key.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || gen != c.gen {
		// The card unmounted while we were away; the result belongs to
		// no one.
		return
	}
	c.inFlight = false
	if c.status != StatusChecking {
		// A broadcast already settled the status; the lookup lost.
		return
	}
	if err != nil {
		debug.Log("favorite check failed for %s: %v", c.key, err)
		c.status = StatusNotFavorited
	} else {
		c.status = knownStatus(found)
	}
	c.notifyLocked()
}

// onBroadcast adopts favorite state published by any card sharing this
// card's identity. Last writer wins.
func (c *Controller) onBroadcast(_ string, update broadcast.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive || c.key.IsZero() {
		return
	}
	rec, ok := update[c.key.String()]
	if !ok {
		return
	}
	c.status = knownStatus(rec != nil)
	c.notifyLocked()
}

// OpenMenu marks the contextual menu open and, for lazy variants, starts
// the deferred favorite check. Returns false if a menu is already open
// (re-entrancy guard).
func (c *Controller) OpenMenu() bool {
	c.mu.Lock()
	if !c.alive || c.menuOpen {
		c.mu.Unlock()
		return false
	}
	c.menuOpen = true
	if !c.key.IsZero() && c.display.ShowHeart {
		c.beginCheckLocked()
	}
	onReq := c.onMenuRequest
	c.mu.Unlock()

	if onReq != nil {
		onReq(c)
	}
	return true
}

// CloseMenu marks the contextual menu dismissed.
func (c *Controller) CloseMenu() {
	c.mu.Lock()
	c.menuOpen = false
	c.mu.Unlock()
}

// MenuOpen reports whether the contextual menu is currently open.
func (c *Controller) MenuOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuOpen
}

func (c *Controller) openMenuFromGesture() {
	c.OpenMenu()
}

// HandlePressStart feeds a primary-button press into the gesture resolver.
func (c *Controller) HandlePressStart(x, y int) {
	c.gesture.PressStart(x, y)
}

// HandlePressMove feeds pointer movement into the gesture resolver.
func (c *Controller) HandlePressMove(x, y int) {
	c.gesture.Move(x, y)
}

// HandleRelease resolves the press. A short, still press navigates.
func (c *Controller) HandleRelease() {
	if c.gesture.Release() == GestureNavigate {
		c.navigate(false)
	}
}

// HandleLeave cancels an in-progress press (pointer left the card).
func (c *Controller) HandleLeave() {
	c.gesture.Leave()
}

// HandleSecondaryClick opens the menu directly, independent of press
// timing.
func (c *Controller) HandleSecondaryClick() {
	if c.gesture.SecondaryClick() == GestureOpenMenu {
		c.OpenMenu()
	}
}

// Tap is the keyboard activation path; it behaves like a resolved tap.
func (c *Controller) Tap() {
	c.navigate(false)
}

// navigate plays the card's subject. A missing title is a navigation
// precondition failure and is silently dropped.
func (c *Controller) navigate(newSession bool) {
	c.mu.Lock()
	if c.props.Title == "" {
		c.mu.Unlock()
		return
	}
	t := PlayTarget{
		Key:          c.key,
		Title:        c.props.Title,
		Year:         c.props.Year,
		SearchTitle:  c.props.SearchTitle,
		EpisodeIndex: c.props.EpisodeIndex,
		IsLive:       c.props.IsLive,
	}
	nav := c.nav
	c.mu.Unlock()

	if nav == nil {
		return
	}
	var err error
	if newSession {
		err = nav.PlayInNewSession(t)
	} else {
		err = nav.Play(t)
	}
	if err != nil {
		debug.Log("navigation failed for %s: %v", t.Key, err)
	}
}

// deleteRecord removes the card's play record, then notifies the owner.
func (c *Controller) deleteRecord() {
	c.mu.Lock()
	if !c.alive || c.key.IsZero() {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	key := c.key
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.checkTimeout)
		defer cancel()
		err := c.svc.RemovePlayRecord(ctx, key.Source, key.ID)

		c.mu.Lock()
		if !c.alive || gen != c.gen {
			c.mu.Unlock()
			return
		}
		onDelete := c.onDelete
		onErr := c.onError
		c.mu.Unlock()

		if err != nil {
			debug.Log("delete play record failed for %s: %v", key, err)
			if onErr != nil {
				onErr(&MutationError{Op: "delete-record", Key: key, Cause: err})
			}
			return
		}
		if onDelete != nil {
			onDelete(key)
		}
	}()
}

// favoriteRecordLocked snapshots the record persisted on add. Caller holds
// c.mu.
func (c *Controller) favoriteRecordLocked() model.FavoriteRecord {
	return model.FavoriteRecord{
		Title:         c.props.Title,
		SourceName:    c.props.SourceName,
		Year:          c.props.Year,
		Cover:         c.props.Poster,
		TotalEpisodes: c.episodes,
		SaveTime:      model.NowMillis(),
	}
}

// notifyLocked fires OnChange without holding the lock across the callback.
// Caller holds c.mu.
func (c *Controller) notifyLocked() {
	if c.onChange == nil {
		return
	}
	onChange := c.onChange
	go onChange()
}
