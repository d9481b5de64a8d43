package store

import "sync"

// Hub fans change notifications out to per-collection watchers. Channels
// are buffered with capacity one and publishes never block: an event
// carries no payload, so a pending notification already covers any
// newer change (watchers re-read the collection when they drain it).
type Hub struct {
	mu     sync.Mutex
	next   int
	subs   map[subKey]map[int]chan Event
	closed bool
}

type subKey struct {
	userID     string
	collection Collection
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subKey]map[int]chan Event)}
}

// Subscribe registers a watcher for one user's collection. The returned
// cancel func is idempotent and closes the channel.
func (h *Hub) Subscribe(userID string, c Collection) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	key := subKey{userID: userID, collection: c}
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	h.subs[key][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if watchers, ok := h.subs[key]; ok {
				if _, ok := watchers[id]; ok {
					delete(watchers, id)
					close(ch)
				}
				if len(watchers) == 0 {
					delete(h.subs, key)
				}
			}
		})
	}
	return ch, cancel
}

// Publish notifies every watcher of the user's collection. Non-blocking;
// a full channel means a notification is already pending.
func (h *Hub) Publish(userID string, c Collection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	ev := Event{UserID: userID, Collection: c}
	for _, ch := range h.subs[subKey{userID: userID, collection: c}] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close drops all watchers and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for key, watchers := range h.subs {
		for id, ch := range watchers {
			close(ch)
			delete(watchers, id)
		}
		delete(h.subs, key)
	}
}
