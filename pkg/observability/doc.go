/*
Package observability exports ritual activity as Prometheus metrics.

Metrics plugs into a session in two places: Hooks returns lifecycle hooks that count
transitions and seals, and Metrics itself is a ports.SignalSink counting emitted signals.
Hooks can be combined with Chain so logging and metrics observe the same engine.
*/
package observability
