/*
Package ritual is a deterministic gesture engine for commit-style interactions: a drag
across a threshold, a sustained hold, then a release that seals the ritual.

It separates a pure reducer (state + event -> state + signals) from the side effects a
host needs: a session driver with its own hold loop, persistence, signal sinks, and
HTTP or MCP transports. The same trace always produces the same final state, snapshot
and signal sequence, which is what the replay harness checks.

# Concept

A ritual moves through six stages (idle, dragging, drag-satisfied, holding,
hold-satisfied, sealed) that never move backwards except on reset. Thresholds come from
a preset (first-proof, 07, 13) optionally layered with overrides. Every milestone emits
signals at most once per session: anchors for positional feedback and evidence for the
operator.

# Usage

	eng, err := ritual.New(domain.PresetFirstProof)
	if err != nil {
		log.Fatal(err)
	}

	state := eng.Start()
	res := eng.Step(ctx, state, domain.PointerDown(1, 0, 0))
	snap := eng.Project(res.State)

For a long-lived session with a real-time hold loop, use NewSession (a session.Driver)
or a session.Manager with one of the StateStore adapters.
*/
package ritual
