/*
Package ports defines the driven ports (interfaces) of the ritual engine.

The reducer in internal/runtime is pure; everything with a side effect sits behind one
of these interfaces so hosts can swap storage, timing and signal consumers.

# Key Interfaces

  - StateStore: persists SessionRecords (memory, file, redis, sqlite adapters).
  - DistributedLocker: serializes access to a session across replicas.
  - SignalSink / SignalJournal: consume and optionally retain emitted signals.
  - FrameScheduler / Clock: drive the hold loop; tests and replays inject fakes.
  - RitualCatalog: resolves ritual IDs to configured rituals.
*/
package ports
