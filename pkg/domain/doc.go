/*
Package domain contains the core data model of the gesture ritual engine.

It defines the fundamental values of the state machine: resolved Thresholds, the
RitualState memory, input events, emitted Signals and the derived Snapshot. This package is
kept pure and free of I/O, clocks or persistence, following Hexagonal Architecture
principles. Everything here is a plain value that round-trips through JSON and YAML.

# Key Entities

  - Thresholds: the clamped numeric boundaries a gesture must cross (distance, ratio, time).
  - Ritual: a named configuration (Thresholds + WeightProfile). Presets ship for the
    "first-proof", "07" and "13" instances.
  - RitualState: the machine memory (stage, pointer bookkeeping, sticky drag/hold metrics,
    release bookkeeping and the per-session marker set).
  - InputEvent: a normalized pointer, hold tick or reset event.
  - Signal: an anchor or evidence record emitted at most once per marker.
  - Snapshot: the UI-facing projection of a state (progress ratios, step statuses).
*/
package domain
