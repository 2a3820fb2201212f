package session_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ritual/pkg/session"
	"github.com/stretchr/testify/assert"
)

func TestManualScheduler(t *testing.T) {
	m := session.NewManualScheduler()
	var seen []float64

	cancel := m.RequestFrame(func(now float64) { seen = append(seen, now) })
	m.RequestFrame(func(now float64) {
		seen = append(seen, -now)
		// requested during a frame: runs on the next Advance
		m.RequestFrame(func(now float64) { seen = append(seen, now*10) })
	})
	assert.Equal(t, 2, m.Pending())

	cancel()
	cancel()
	assert.Equal(t, 1, m.Advance(16))
	assert.Equal(t, []float64{-16}, seen)

	assert.Equal(t, 1, m.Advance(4))
	assert.Equal(t, []float64{-16, 200}, seen)
	assert.Equal(t, 20.0, m.Now())
	assert.Equal(t, 0, m.Pending())
}

func TestTickerScheduler(t *testing.T) {
	s := session.NewTickerScheduler(time.Millisecond, nil)

	fired := make(chan float64, 1)
	s.RequestFrame(func(now float64) { fired <- now })
	select {
	case now := <-fired:
		assert.GreaterOrEqual(t, now, 0.0)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never fired")
	}

	var calls atomic.Int32
	cancel := session.NewTickerScheduler(50*time.Millisecond, nil).RequestFrame(func(float64) { calls.Add(1) })
	cancel()
	cancel()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSystemClockIsMonotonic(t *testing.T) {
	c := session.NewSystemClock()
	a := c.Now()
	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, c.Now(), a)
}
