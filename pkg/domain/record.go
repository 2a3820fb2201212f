package domain

import "time"

// SessionRecord is the persisted shape of a session. The engine itself never reads it;
// stores serialize it so a host can resume a session.
type SessionRecord struct {
	SessionID string      `json:"session_id"`
	RitualID  string      `json:"ritual_id"`
	Overrides Overrides   `json:"overrides"`
	State     RitualState `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Envelope holds the encrypted record when a store encrypts at rest. State and
	// Overrides are then left zero.
	Envelope string `json:"envelope,omitempty"`
}

// Clone returns a deep copy of the record.
func (r SessionRecord) Clone() SessionRecord {
	out := r
	out.State = r.State.Clone()
	return out
}
