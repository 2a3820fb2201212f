// Package signals provides the collaborators that consume ritual signals: fan-out,
// operator logging, an in-process event mirror and the evidence recorder.
package signals
