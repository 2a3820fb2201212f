package signals

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/ritual/pkg/domain"
)

// Event is a mirrored signal as seen by bus subscribers.
type Event struct {
	Name      string        `json:"name"`
	SessionID string        `json:"session_id"`
	Signal    domain.Signal `json:"signal"`
}

// Handler receives bus events.
type Handler func(ctx context.Context, ev Event)

// Bus mirrors signals as named events, "ritual:<kind>:<marker>". Subscribers register
// for an exact name, a prefix ending in "*" or "*" for everything. Handlers run
// synchronously in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	pattern string
	handler Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers handler for pattern and returns a function removing it.
func (b *Bus) Subscribe(pattern string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{pattern: pattern, handler: handler}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
}

// Emit implements ports.SignalSink.
func (b *Bus) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	ev := Event{Name: sig.EventName(), SessionID: sessionID, Signal: sig}
	for _, h := range b.matching(ev.Name) {
		h(ctx, ev)
	}
	return nil
}

func (b *Bus) matching(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]int, 0, len(b.subs))
	for id, s := range b.subs {
		if match(s.pattern, name) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	out := make([]Handler, len(ids))
	for i, id := range ids {
		out[i] = b.subs[id].handler
	}
	return out
}

func match(pattern, name string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}
