/*
Package session runs ritual sessions.

A Driver owns one ritual state: it feeds pointer input through the pure reducer,
runs the hold loop on a FrameScheduler while a pointer is down and forwards every
signal, in order, to its sinks. Nothing else in the engine has side effects.

A Manager binds many drivers, one per session, and persists each SessionRecord to a
StateStore after every dispatch so a session can resume in another process. Access to
a session is serialized locally and, with a DistributedLocker, across replicas.
*/
package session
