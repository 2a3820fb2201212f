package ports

// FrameScheduler requests animation-frame style callbacks.
// The callback receives the frame time in milliseconds on the scheduler's clock.
type FrameScheduler interface {
	// RequestFrame schedules fn for the next frame. The returned cancel function is
	// idempotent; once it returns the scheduler will not start fn. A callback already
	// running may still complete, so callers guard their own state.
	RequestFrame(fn func(nowMs float64)) (cancel func())
}

// Clock is a monotonic millisecond clock.
type Clock interface {
	Now() float64
}
