package domain

// SignalKind discriminates the Signal union.
type SignalKind string

const (
	SignalAnchor   SignalKind = "anchor"
	SignalEvidence SignalKind = "evidence"
)

// EvidenceLevel grades an evidence signal.
type EvidenceLevel string

const (
	LevelInfo    EvidenceLevel = "info"
	LevelSuccess EvidenceLevel = "success"
	LevelWarning EvidenceLevel = "warning"
)

// Milestone markers. Signals of one bundle share a marker.
const (
	MarkerDragSatisfied   = "drag-satisfied"
	MarkerHoldSatisfied   = "hold-satisfied"
	MarkerSealed          = "sealed"
	MarkerPrimaryEvidence = "primary-evidence"
	MarkerReleaseBlocked  = "release-blocked"
	MarkerReset           = "reset"
)

// Signal is an output side-channel record. It is not part of the state.
//
// Anchor signals use AnchorID and Note; evidence signals use Level, Title, Detail and
// Action. Marker names the ritual milestone the signal belongs to; signals of one bundle
// share it. Name (kind + marker) identifies the signal within a session: the engine emits
// a given name at most once until reset.
type Signal struct {
	Kind     SignalKind `json:"kind" yaml:"kind"`
	Marker   string     `json:"marker" yaml:"marker"`
	RitualID string     `json:"ritual_id" yaml:"ritual_id"`

	AnchorID string `json:"anchor_id,omitempty" yaml:"anchor_id,omitempty"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`

	Level  EvidenceLevel `json:"level,omitempty" yaml:"level,omitempty"`
	Title  string        `json:"title,omitempty" yaml:"title,omitempty"`
	Detail string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Action string        `json:"action,omitempty" yaml:"action,omitempty"`
}

// Name is the stable identifier used in signal-name sequences, e.g. "anchor:drag-satisfied".
func (s Signal) Name() string {
	return string(s.Kind) + ":" + s.Marker
}

// EventName is the name under which the signal is mirrored to out-of-process observers.
func (s Signal) EventName() string {
	return "ritual:" + s.Name()
}

// SignalNames projects a signal list onto its name sequence.
func SignalNames(signals []Signal) []string {
	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = s.Name()
	}
	return names
}
