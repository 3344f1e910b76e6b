package card_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/moonview/pkg/broadcast"
	"github.com/vanderheijden86/moonview/pkg/card"
	"github.com/vanderheijden86/moonview/pkg/model"
	"github.com/vanderheijden86/moonview/pkg/testutil"
)

var testKey = model.CardKey{Source: "A", ID: "1"}

func newController(t *testing.T, cfg card.Config) *card.Controller {
	t.Helper()
	if cfg.Service == nil {
		cfg.Service = testutil.NewFakeService()
	}
	if cfg.Props.Title == "" {
		cfg.Props.Title = "Some Show"
	}
	c := card.New(cfg)
	t.Cleanup(c.Unmount)
	return c
}

func TestEagerCheckConvergesToServiceState(t *testing.T) {
	for _, favorited := range []bool{true, false} {
		svc := testutil.NewFakeService()
		svc.SetFavorite(testKey, favorited)

		c := newController(t, card.Config{
			Key: testKey, Variant: card.VariantPlayRecord, Service: svc,
		})
		c.Mount()

		testutil.WaitForStatus(t, c, knownFor(favorited))
	}
}

func TestFavoriteVariantChecksEagerly(t *testing.T) {
	svc := testutil.NewFakeService()
	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantFavorite, Service: svc,
	})
	c.Mount()
	testutil.WaitForStatus(t, c, card.StatusNotFavorited)
	if svc.ExistsCalls != 1 {
		t.Errorf("expected 1 existence check, got %d", svc.ExistsCalls)
	}
}

func TestSearchResultDefersCheckUntilMenuOpen(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetFavorite(testKey, true)

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantSearchResult, Service: svc,
	})
	c.Mount()

	time.Sleep(50 * time.Millisecond)
	if got := c.Status(); got != card.StatusUnknown {
		t.Fatalf("search-result card auto-checked: status %v", got)
	}
	if svc.ExistsCalls != 0 {
		t.Fatalf("search-result card issued %d checks before menu open", svc.ExistsCalls)
	}

	c.OpenMenu()
	testutil.WaitForStatus(t, c, card.StatusFavorited)
}

func TestDoubanVariantNeverChecks(t *testing.T) {
	svc := testutil.NewFakeService()
	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantDoubanCatalog, Service: svc,
		Props: card.Props{Title: "Ping", DoubanID: 7},
	})
	c.Mount()
	c.OpenMenu()

	time.Sleep(50 * time.Millisecond)
	if svc.ExistsCalls != 0 {
		t.Errorf("douban card issued %d existence checks", svc.ExistsCalls)
	}
	if got := c.Status(); got != card.StatusUnknown {
		t.Errorf("douban card status = %v, want unknown", got)
	}
}

func TestEnsureCheckedIdempotentWhileChecking(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Gate = make(chan struct{})

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantSearchResult, Service: svc,
	})
	c.Mount()

	c.EnsureChecked()
	c.EnsureChecked()
	c.EnsureChecked()
	close(svc.Gate)

	testutil.WaitForStatus(t, c, card.StatusNotFavorited)
	if svc.ExistsCalls != 1 {
		t.Errorf("expected exactly 1 check, got %d", svc.ExistsCalls)
	}
}

func TestFailedCheckDegradesToNotFavorited(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetFavorite(testKey, true)
	svc.ExistsErr = errors.New("disk unplugged")

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc,
	})
	c.Mount()

	testutil.WaitForStatus(t, c, card.StatusNotFavorited)
}

func TestToggleIsOptimisticAndBroadcasts(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()
	svc := testutil.NewFakeService()
	svc.SetFavorite(testKey, true)

	first := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc, Hub: hub,
	})
	second := newController(t, card.Config{
		Key: testKey, Variant: card.VariantFavorite, Service: svc, Hub: hub,
	})
	first.Mount()
	second.Mount()
	testutil.WaitForStatus(t, first, card.StatusFavorited)
	testutil.WaitForStatus(t, second, card.StatusFavorited)

	if err := first.Toggle(); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	// The flip is synchronous on the toggling card.
	if got := first.Status(); got != card.StatusNotFavorited {
		t.Errorf("status right after toggle = %v, want not-favorited", got)
	}
	// The sibling converges through the broadcast, with no extra lookup.
	testutil.WaitForStatus(t, second, card.StatusNotFavorited)
	if svc.ExistsCalls != 2 {
		t.Errorf("expected 2 existence checks (one per mount), got %d", svc.ExistsCalls)
	}
}

func TestTogglePreconditions(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()

	t.Run("status unknown", func(t *testing.T) {
		c := newController(t, card.Config{
			Key: testKey, Variant: card.VariantSearchResult,
		})
		c.Mount()
		if err := c.Toggle(); !errors.Is(err, card.ErrStatusUnknown) {
			t.Errorf("toggle before check = %v, want ErrStatusUnknown", err)
		}
	})

	t.Run("no identity", func(t *testing.T) {
		c := newController(t, card.Config{Variant: card.VariantPlayRecord})
		c.Mount()
		if err := c.Toggle(); !errors.Is(err, card.ErrNoIdentity) {
			t.Errorf("toggle without identity = %v, want ErrNoIdentity", err)
		}
	})

	t.Run("douban disabled", func(t *testing.T) {
		c := newController(t, card.Config{
			Key: testKey, Variant: card.VariantDoubanCatalog,
		})
		c.Mount()
		if err := c.Toggle(); !errors.Is(err, card.ErrFavoriteUnavailable) {
			t.Errorf("toggle on douban = %v, want ErrFavoriteUnavailable", err)
		}
	})

	t.Run("serialized per instance", func(t *testing.T) {
		svc := testutil.NewFakeService()
		c := newController(t, card.Config{
			Key: testKey, Variant: card.VariantPlayRecord, Service: svc, Hub: hub,
		})
		c.Mount()
		testutil.WaitForStatus(t, c, card.StatusNotFavorited)

		svc.Gate = make(chan struct{})
		if err := c.Toggle(); err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		if err := c.Toggle(); !errors.Is(err, card.ErrMutationInFlight) {
			t.Errorf("second toggle = %v, want ErrMutationInFlight", err)
		}
		close(svc.Gate)
	})
}

func TestToggleFailureRevertsAndSurfacesError(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()
	svc := testutil.NewFakeService()
	svc.AddErr = errors.New("quota exceeded")

	var mu sync.Mutex
	var reported []error
	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc, Hub: hub,
		OnError: func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
	})
	c.Mount()
	testutil.WaitForStatus(t, c, card.StatusNotFavorited)

	if err := c.Toggle(); err != nil {
		t.Fatalf("toggle precondition failed: %v", err)
	}
	if got := c.Status(); got != card.StatusFavorited {
		t.Fatalf("optimistic flip missing: status %v", got)
	}

	// The failed mutation reverts the flip.
	testutil.WaitForStatus(t, c, card.StatusNotFavorited)

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reported))
	}
	var mutErr *card.MutationError
	if !errors.As(reported[0], &mutErr) {
		t.Fatalf("reported error %T is not a MutationError", reported[0])
	}
	if mutErr.Op != "add" {
		t.Errorf("mutation error op = %q, want add", mutErr.Op)
	}
}

func TestUnmountDuringInFlightCheckIsNoOp(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetFavorite(testKey, true)
	svc.Gate = make(chan struct{})

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc,
	})
	c.Mount()
	if got := c.Status(); got != card.StatusChecking {
		t.Fatalf("expected in-flight check, status %v", got)
	}

	c.Unmount()

	// Unmounting discards the status; the remount starts from scratch.
	if got := c.Status(); got != card.StatusUnknown {
		t.Fatalf("status after unmount = %v, want unknown", got)
	}

	close(svc.Gate)
	time.Sleep(50 * time.Millisecond)

	// The resolved check must not mutate the dead instance.
	if got := c.Status(); got != card.StatusUnknown {
		t.Errorf("unmounted instance mutated to %v", got)
	}

	// A fresh instance with the same identity starts clean and converges.
	svc2 := testutil.NewFakeService()
	svc2.SetFavorite(testKey, true)
	fresh := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc2,
	})
	fresh.Mount()
	testutil.WaitForStatus(t, fresh, card.StatusFavorited)
}

func TestRemountRestartsCheck(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetFavorite(testKey, true)
	svc.Gate = make(chan struct{})

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc,
	})
	c.Mount()
	if got := c.Status(); got != card.StatusChecking {
		t.Fatalf("expected in-flight check, status %v", got)
	}

	// Unmount mid-check, let the orphaned lookup resolve, then remount the
	// same instance: it must issue a fresh check and converge rather than
	// staying wedged at checking.
	c.Unmount()
	close(svc.Gate)
	time.Sleep(30 * time.Millisecond)

	c.Mount()
	testutil.WaitForStatus(t, c, card.StatusFavorited)

	if err := c.Toggle(); err != nil {
		t.Errorf("toggle after remount failed: %v", err)
	}
}

func TestBroadcastAdoptionOverridesLocalState(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()
	svc := testutil.NewFakeService()

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Service: svc, Hub: hub,
	})
	c.Mount()
	testutil.WaitForStatus(t, c, card.StatusNotFavorited)

	// Some other writer publishes that the subject is now favorited.
	hub.PublishFavorite(testKey, &model.FavoriteRecord{Title: "Some Show"})
	testutil.WaitForStatus(t, c, card.StatusFavorited)

	// And gone again.
	hub.PublishFavorite(testKey, nil)
	testutil.WaitForStatus(t, c, card.StatusNotFavorited)
}

func TestBroadcastForOtherKeyIgnored(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()

	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord, Hub: hub,
	})
	c.Mount()
	testutil.WaitForStatus(t, c, card.StatusNotFavorited)

	hub.PublishFavorite(model.CardKey{Source: "B", ID: "2"}, &model.FavoriteRecord{})
	time.Sleep(30 * time.Millisecond)
	if got := c.Status(); got != card.StatusNotFavorited {
		t.Errorf("unrelated broadcast changed status to %v", got)
	}
}

func TestMenuOpenReentrancyGuard(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord,
		OnMenuRequest: func(*card.Controller) {
			mu.Lock()
			requests++
			mu.Unlock()
		},
	})
	c.Mount()

	if !c.OpenMenu() {
		t.Fatal("first OpenMenu returned false")
	}
	if c.OpenMenu() {
		t.Error("second OpenMenu opened a second menu instance")
	}
	mu.Lock()
	if requests != 1 {
		t.Errorf("expected 1 menu request, got %d", requests)
	}
	mu.Unlock()

	c.CloseMenu()
	if !c.OpenMenu() {
		t.Error("OpenMenu after CloseMenu returned false")
	}
}

func TestTapNavigatesAndMissingTitleIsDropped(t *testing.T) {
	nav := &testutil.SpyNavigator{}
	c := card.New(card.Config{
		Key: testKey, Variant: card.VariantPlayRecord,
		Props:     card.Props{Title: "Some Show", EpisodeIndex: 3},
		Service:   testutil.NewFakeService(),
		Navigator: nav,
	})
	c.Mount()
	defer c.Unmount()

	c.Tap()
	if nav.PlayCount() != 1 {
		t.Fatalf("expected 1 navigation, got %d", nav.PlayCount())
	}
	if nav.Plays[0].Key != testKey || nav.Plays[0].EpisodeIndex != 3 {
		t.Errorf("unexpected play target %+v", nav.Plays[0])
	}

	untitled := card.New(card.Config{
		Key: testKey, Variant: card.VariantPlayRecord,
		Service:   testutil.NewFakeService(),
		Navigator: nav,
	})
	untitled.Mount()
	defer untitled.Unmount()

	untitled.Tap()
	if nav.PlayCount() != 1 {
		t.Errorf("navigation without a title should be dropped, got %d plays", nav.PlayCount())
	}
}

func TestBridgeFieldsPersist(t *testing.T) {
	c := newController(t, card.Config{
		Key: testKey, Variant: card.VariantPlayRecord,
		Props: card.Props{Title: "Some Show", EpisodeIndex: 2, TotalEpisodes: 10},
	})
	c.Mount()

	if got := c.ProgressText(); got != "2/10" {
		t.Errorf("seeded progress = %q, want 2/10", got)
	}

	c.SetEpisodes(24)
	c.SetSourceNames([]string{"okzy", "feifan", "okzy", "", "feifan"})
	c.SetDoubanID(123456)

	if got := c.Episodes(); got != 24 {
		t.Errorf("episodes = %d, want 24", got)
	}
	names := c.SourceNames()
	if len(names) != 2 || names[0] != "okzy" || names[1] != "feifan" {
		t.Errorf("source names = %v, want [okzy feifan]", names)
	}
	if got := c.DoubanID(); got != 123456 {
		t.Errorf("douban id = %d, want 123456", got)
	}
	if got := c.ProgressText(); got != "2/24" {
		t.Errorf("progress after bridge = %q, want 2/24", got)
	}
}

func knownFor(favorited bool) card.FavoriteStatus {
	if favorited {
		return card.StatusFavorited
	}
	return card.StatusNotFavorited
}
