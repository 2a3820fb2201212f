package domain

import (
	"encoding/json"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DecodeOverrides converts a loosely-typed map (YAML, JSON or query parameters) into
// Overrides. Numeric strings are accepted. Keys that cannot be decoded are dropped
// rather than reported: threshold resolution is total, so a bad override simply falls
// back to the default.
func DecodeOverrides(raw map[string]any) Overrides {
	var out Overrides
	if len(raw) == 0 {
		return out
	}
	if err := decodeInto(raw, &out); err == nil {
		return out
	}

	// Salvage pass: decode key by key so one malformed value does not discard the rest.
	// Keys are visited in sorted order to keep the result independent of map iteration.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out = Overrides{}
	for _, k := range keys {
		var single Overrides
		if err := decodeInto(map[string]any{k: raw[k]}, &single); err != nil {
			continue
		}
		out = out.Merge(&single)
	}
	return out
}

func decodeInto(raw map[string]any, target *Overrides) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// UnmarshalJSON decodes overrides through DecodeOverrides: string numbers are accepted,
// unknown keys and malformed values are dropped. A value that is not an object yields no
// overrides.
func (o *Overrides) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		*o = Overrides{}
		return nil
	}
	*o = DecodeOverrides(raw)
	return nil
}

// UnmarshalYAML applies the same leniency to traces and fixtures.
func (o *Overrides) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		*o = Overrides{}
		return nil
	}
	*o = DecodeOverrides(raw)
	return nil
}
