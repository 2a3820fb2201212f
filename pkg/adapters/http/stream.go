package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/pkg/domain"
)

// SSE event names.
const (
	EventSignal = "signal"
	EventDiff   = "diff"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string

	diff *domain.StateDiff
}

// StreamManager handles active SSE connections. It is a ports.SignalSink: every signal
// a session emits is mirrored to that session's subscribers, including those emitted by
// the hold loop between requests.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // SessionID -> Set of Channels
	buffer      int
	dropped     atomic.Uint64
	logger      *slog.Logger
}

// NewStreamManager creates a stream manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		buffer:      32,
		logger:      logger,
	}
}

// Subscribe registers a subscriber for the session. The returned function removes it
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, sm.buffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers counts the subscribers of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to every subscriber of the session. Slow clients drop messages
// instead of blocking the session; every drop is counted in Dropped.
func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.dropped.Add(1)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID, "event", msg.Event)
		}
	}
}

// Dropped returns how many messages were discarded because a subscriber was full.
func (sm *StreamManager) Dropped() uint64 {
	return sm.dropped.Load()
}

// Emit implements ports.SignalSink.
func (sm *StreamManager) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	data, err := json.Marshal(struct {
		Name string `json:"name"`
		domain.Signal
	}{sig.EventName(), sig})
	if err != nil {
		return err
	}
	sm.Broadcast(sessionID, Message{Event: EventSignal, Data: string(data)})
	return nil
}

// BroadcastDiff sends the state diff between two states. Nothing is sent when the
// states are equal.
func (sm *StreamManager) BroadcastDiff(sessionID string, before, after *domain.RitualState) {
	diff := domain.Diff(sessionID, before, after)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode diff", "session_id", sessionID, "err", err)
		return
	}
	sm.Broadcast(sessionID, Message{Event: EventDiff, Data: string(data), diff: diff})
}

// watchFilter decides which messages a subscriber asked for.
type watchFilter map[string]bool

func (f watchFilter) keep(msg Message) bool {
	if len(f) == 0 {
		return true
	}
	if msg.Event == EventSignal {
		return f["signals"]
	}
	d := msg.diff
	if d == nil {
		return true
	}
	return (f["stage"] && d.Stage != nil) ||
		(f["pointer"] && d.PointerActive != nil) ||
		(f["drag"] && d.Drag != nil) ||
		(f["hold"] && d.Hold != nil) ||
		(f["release"] && d.Release != nil) ||
		(f["markers"] && (len(d.MarkersAdded) > 0 || d.Reset))
}
