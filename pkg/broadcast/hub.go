// Package broadcast implements the process-wide publish/subscribe channel
// that keeps same-subject cards' favorite state consistent. Publishers never
// block on subscriber processing: events are queued and delivered from a
// single dispatch goroutine, so every subscriber observes events in the
// order they were published.
package broadcast

import (
	"sync"

	"github.com/vanderheijden86/moonview/pkg/model"
)

// TopicFavoritesUpdated carries snapshots of favorite changes. The payload
// maps broadcast keys (model.CardKey.String()) to the current record, with a
// nil record meaning the subject is no longer favorited.
const TopicFavoritesUpdated = "favoritesUpdated"

// Update is the payload published on TopicFavoritesUpdated.
type Update map[string]*model.FavoriteRecord

// Handler receives published updates. Handlers run on the hub's dispatch
// goroutine and must not block for long; heavy work belongs elsewhere.
type Handler func(topic string, update Update)

type subscriber struct {
	id    uint64
	topic string
	fn    Handler
}

type delivery struct {
	topic  string
	update Update
}

// Hub is a process-wide broadcast channel with many independent readers and
// writers. The zero value is not usable; call NewHub.
type Hub struct {
	mu     sync.Mutex
	cond   *sync.Cond
	nextID uint64
	subs   []subscriber
	queue  []delivery
	closed bool
	done   chan struct{}
}

// NewHub creates a hub and starts its dispatch goroutine.
func NewHub() *Hub {
	h := &Hub{done: make(chan struct{})}
	h.cond = sync.NewCond(&h.mu)
	go h.dispatch()
	return h
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function. Unsubscribing is idempotent and releases the registration
// deterministically: after the call returns, the hub holds no reference to
// the handler (an in-progress delivery may still complete).
func (h *Hub) Subscribe(topic string, fn Handler) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}
	}

	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber{id: id, topic: topic, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i], h.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish enqueues an update for delivery to all current subscribers of the
// topic. It never blocks on subscriber processing.
func (h *Hub) Publish(topic string, update Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.queue = append(h.queue, delivery{topic: topic, update: update})
	h.cond.Signal()
}

// PublishFavorite is a convenience for the single-key case: a toggle on one
// subject.
func (h *Hub) PublishFavorite(key model.CardKey, rec *model.FavoriteRecord) {
	h.Publish(TopicFavoritesUpdated, Update{key.String(): rec})
}

// Close stops the dispatch goroutine. Pending deliveries are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.cond.Signal()
	h.mu.Unlock()
	<-h.done
}

func (h *Hub) dispatch() {
	defer close(h.done)
	for {
		h.mu.Lock()
		for len(h.queue) == 0 && !h.closed {
			h.cond.Wait()
		}
		if h.closed {
			h.mu.Unlock()
			return
		}
		d := h.queue[0]
		h.queue = h.queue[1:]
		// Snapshot the subscriber list so handlers can subscribe or
		// unsubscribe without deadlocking.
		subs := make([]subscriber, len(h.subs))
		copy(subs, h.subs)
		h.mu.Unlock()

		for _, s := range subs {
			if s.topic == d.topic {
				s.fn(d.topic, d.update)
			}
		}
	}
}
