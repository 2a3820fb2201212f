package replay

import (
	"fmt"
	"os"

	"github.com/aretw0/ritual/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Step is one entry of a recorded trace. Repeat expands it into several identical
// events, which keeps long hold sequences readable.
type Step struct {
	domain.InputEvent `yaml:",inline"`
	Repeat            int `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// Trace is an input sequence to replay against one ritual.
type Trace struct {
	Name      string            `json:"name" yaml:"name"`
	Ritual    string            `json:"ritual" yaml:"ritual"`
	Overrides *domain.Overrides `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Steps     []Step            `json:"steps" yaml:"steps"`
}

// NewTrace builds a trace from plain events.
func NewTrace(name, ritual string, events ...domain.InputEvent) Trace {
	steps := make([]Step, len(events))
	for i, ev := range events {
		steps[i] = Step{InputEvent: ev}
	}
	return Trace{Name: name, Ritual: ritual, Steps: steps}
}

// Events expands the steps into the event sequence.
func (t Trace) Events() []domain.InputEvent {
	var out []domain.InputEvent
	for _, s := range t.Steps {
		n := s.Repeat
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, s.InputEvent)
		}
	}
	return out
}

// ParseTrace decodes a YAML (or JSON) trace.
func ParseTrace(data []byte) (Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Trace{}, fmt.Errorf("parse trace: %w", err)
	}
	if err := t.validate(); err != nil {
		return Trace{}, err
	}
	return t, nil
}

// LoadTrace reads and parses a trace file.
func LoadTrace(path string) (Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Trace{}, fmt.Errorf("read trace %s: %w", path, err)
	}
	t, err := ParseTrace(data)
	if err != nil {
		return Trace{}, fmt.Errorf("%s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = path
	}
	return t, nil
}

func (t Trace) validate() error {
	if t.Ritual == "" {
		return fmt.Errorf("trace %q: ritual is required", t.Name)
	}
	for i, s := range t.Steps {
		if !s.Type.Known() {
			return fmt.Errorf("trace %q: step %d: unknown event type %q", t.Name, i, s.Type)
		}
	}
	return nil
}
