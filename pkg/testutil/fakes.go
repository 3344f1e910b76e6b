// Package testutil provides in-memory collaborators and assertion helpers
// for exercising card controllers without a real database or terminal.
package testutil

import (
	"context"
	"sync"

	"github.com/vanderheijden86/moonview/pkg/card"
	"github.com/vanderheijden86/moonview/pkg/model"
)

// FakeService is an in-memory FavoritesService with scriptable failures
// and an optional gate for holding calls open mid-flight.
type FakeService struct {
	mu        sync.Mutex
	favorites map[string]model.FavoriteRecord
	records   map[string]struct{}

	// Errors to inject, per operation. Nil means success.
	ExistsErr error
	AddErr    error
	RemoveErr error
	DeleteErr error

	// Gate, when non-nil, blocks every call until the channel is closed
	// or receives. Lets tests resolve a check after an unmount.
	Gate chan struct{}

	// Counters.
	ExistsCalls int
	AddCalls    int
	RemoveCalls int
	DeleteCalls int
}

var _ card.FavoritesService = (*FakeService)(nil)

// NewFakeService creates an empty fake.
func NewFakeService() *FakeService {
	return &FakeService{
		favorites: make(map[string]model.FavoriteRecord),
		records:   make(map[string]struct{}),
	}
}

// SetFavorite seeds (or clears) a favorite.
func (f *FakeService) SetFavorite(key model.CardKey, favorited bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if favorited {
		f.favorites[key.String()] = model.FavoriteRecord{Title: "seeded"}
	} else {
		delete(f.favorites, key.String())
	}
}

// HasFavorite reports the fake's current state for a key.
func (f *FakeService) HasFavorite(key model.CardKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.favorites[key.String()]
	return ok
}

func (f *FakeService) wait(ctx context.Context) error {
	f.mu.Lock()
	gate := f.Gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeService) Exists(ctx context.Context, source, id string) (bool, error) {
	if err := f.wait(ctx); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExistsCalls++
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	_, ok := f.favorites[model.CardKey{Source: source, ID: id}.String()]
	return ok, nil
}

func (f *FakeService) Add(ctx context.Context, source, id string, rec model.FavoriteRecord) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddCalls++
	if f.AddErr != nil {
		return f.AddErr
	}
	f.favorites[model.CardKey{Source: source, ID: id}.String()] = rec
	return nil
}

func (f *FakeService) Remove(ctx context.Context, source, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RemoveCalls++
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	delete(f.favorites, model.CardKey{Source: source, ID: id}.String())
	return nil
}

func (f *FakeService) RemovePlayRecord(ctx context.Context, source, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.records, model.CardKey{Source: source, ID: id}.String())
	return nil
}

// SpyNavigator records navigation requests.
type SpyNavigator struct {
	mu       sync.Mutex
	Plays    []card.PlayTarget
	NewPlays []card.PlayTarget
	URLs     []string
}

var _ card.Navigator = (*SpyNavigator)(nil)

func (n *SpyNavigator) Play(t card.PlayTarget) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Plays = append(n.Plays, t)
	return nil
}

func (n *SpyNavigator) PlayInNewSession(t card.PlayTarget) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.NewPlays = append(n.NewPlays, t)
	return nil
}

func (n *SpyNavigator) OpenURL(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.URLs = append(n.URLs, url)
	return nil
}

// PlayCount returns how many Play calls were recorded.
func (n *SpyNavigator) PlayCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Plays)
}
