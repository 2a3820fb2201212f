package domain

import "fmt"

// EventType identifies an input event.
type EventType string

const (
	EventPointerDown   EventType = "pointer_down"
	EventPointerMove   EventType = "pointer_move"
	EventPointerUp     EventType = "pointer_up"
	EventPointerCancel EventType = "pointer_cancel"
	EventHoldTick      EventType = "hold_tick"
	EventReset         EventType = "reset"
)

// InputEvent is a normalized host event. Pointer events carry (PointerID, X, Y);
// hold ticks carry PointerID and DeltaMs. TimestampMs comes from the host clock and is
// informational: the transition function never reads it.
type InputEvent struct {
	Type        EventType `json:"type" yaml:"type"`
	PointerID   int       `json:"pointer_id,omitempty" yaml:"pointer_id,omitempty"`
	X           float64   `json:"x,omitempty" yaml:"x,omitempty"`
	Y           float64   `json:"y,omitempty" yaml:"y,omitempty"`
	DeltaMs     float64   `json:"delta_ms,omitempty" yaml:"delta_ms,omitempty"`
	TimestampMs float64   `json:"timestamp_ms,omitempty" yaml:"timestamp_ms,omitempty"`
}

// Known reports whether the event type is one the engine understands.
func (e EventType) Known() bool {
	switch e {
	case EventPointerDown, EventPointerMove, EventPointerUp, EventPointerCancel, EventHoldTick, EventReset:
		return true
	}
	return false
}

// PointerDown builds a pointer_down event.
func PointerDown(id int, x, y float64) InputEvent {
	return InputEvent{Type: EventPointerDown, PointerID: id, X: x, Y: y}
}

// PointerMove builds a pointer_move event.
func PointerMove(id int, x, y float64) InputEvent {
	return InputEvent{Type: EventPointerMove, PointerID: id, X: x, Y: y}
}

// PointerUp builds a pointer_up event.
func PointerUp(id int, x, y float64) InputEvent {
	return InputEvent{Type: EventPointerUp, PointerID: id, X: x, Y: y}
}

// PointerCancel builds a pointer_cancel event.
func PointerCancel(id int, x, y float64) InputEvent {
	return InputEvent{Type: EventPointerCancel, PointerID: id, X: x, Y: y}
}

// HoldTick builds a hold_tick event.
func HoldTick(id int, deltaMs float64) InputEvent {
	return InputEvent{Type: EventHoldTick, PointerID: id, DeltaMs: deltaMs}
}

// Reset builds a reset event.
func Reset() InputEvent {
	return InputEvent{Type: EventReset}
}

func (e InputEvent) String() string {
	switch e.Type {
	case EventHoldTick:
		return fmt.Sprintf("%s(#%d, %gms)", e.Type, e.PointerID, e.DeltaMs)
	case EventReset:
		return string(e.Type)
	default:
		return fmt.Sprintf("%s(#%d, %g, %g)", e.Type, e.PointerID, e.X, e.Y)
	}
}
