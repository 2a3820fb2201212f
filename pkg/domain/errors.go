package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownRitual is returned when a ritual ID does not match any preset.
var ErrUnknownRitual = errors.New("unknown ritual")

// ErrDriverStopped is returned when an event is dispatched to a stopped session driver.
var ErrDriverStopped = errors.New("session driver stopped")

// ErrDriverNotStarted is returned when an event is dispatched before Start.
var ErrDriverNotStarted = errors.New("session driver not started")

// ErrSessionExists is returned when opening a session under an ID that is already live.
var ErrSessionExists = errors.New("session already open")
