package session

import (
	"sort"
	"sync"
	"time"

	"github.com/aretw0/ritual/pkg/ports"
)

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// SystemClock is a monotonic millisecond clock anchored at its creation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock reading 0 now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns the milliseconds elapsed since the clock was created.
func (c *SystemClock) Now() float64 {
	return float64(time.Since(c.start)) / float64(time.Millisecond)
}

// TickerScheduler delivers frames from a timer goroutine at a fixed interval.
type TickerScheduler struct {
	interval time.Duration
	clock    ports.Clock
}

// NewTickerScheduler creates a scheduler. A non-positive interval uses
// DefaultFrameInterval; a nil clock uses a new SystemClock.
func NewTickerScheduler(interval time.Duration, clock ports.Clock) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	return &TickerScheduler{interval: interval, clock: clock}
}

// Clock returns the clock frame times are read from.
func (s *TickerScheduler) Clock() ports.Clock {
	return s.clock
}

// RequestFrame implements ports.FrameScheduler.
func (s *TickerScheduler) RequestFrame(fn func(nowMs float64)) func() {
	done := make(chan struct{})
	var once sync.Once
	timer := time.NewTimer(s.interval)

	go func() {
		select {
		case <-timer.C:
			select {
			case <-done:
				return
			default:
			}
			fn(s.clock.Now())
		case <-done:
			timer.Stop()
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler is a FrameScheduler and Clock advanced by hand. Replays and tests use
// it to drive the hold loop without wall-clock time.
type ManualScheduler struct {
	mu      sync.Mutex
	now     float64
	nextID  int
	pending map[int]func(float64)
}

// NewManualScheduler creates a scheduler whose clock reads 0.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[int]func(float64))}
}

// Now implements ports.Clock.
func (m *ManualScheduler) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// RequestFrame implements ports.FrameScheduler.
func (m *ManualScheduler) RequestFrame(fn func(nowMs float64)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.pending[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.pending, id)
	}
}

// Pending returns the number of frames waiting to run.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by ms and runs the frames that were pending before
// the call, in request order. Frames requested by those callbacks wait for the next
// Advance. It returns the number of callbacks run.
func (m *ManualScheduler) Advance(ms float64) int {
	m.mu.Lock()
	m.now += ms
	now := m.now
	ids := make([]int, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Ints(ids)

	ran := 0
	for _, id := range ids {
		m.mu.Lock()
		fn, ok := m.pending[id]
		delete(m.pending, id)
		m.mu.Unlock()
		if !ok {
			// cancelled by an earlier callback
			continue
		}
		fn(now)
		ran++
	}
	return ran
}

// Frames calls Advance n times with the same gap and returns the callbacks run.
func (m *ManualScheduler) Frames(n int, gapMs float64) int {
	ran := 0
	for i := 0; i < n; i++ {
		ran += m.Advance(gapMs)
	}
	return ran
}
