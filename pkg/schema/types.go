// Package schema defines the flat projection of graph state handed to
// storage collaborators. The engine guarantees that re-applying a captured
// snapshot restores observable state (flags and channel values) exactly;
// durable encoding and decoding is the collaborator's concern.
package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Value is one channel's storable payload. Present distinguishes "holds
// nil" from "never held data".
type Value struct {
	Present bool `json:"present" yaml:"present" mapstructure:"present"`
	Data    any  `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
}

// Snapshot is the recursive projection of a node: identity, run flags and
// the storable value of every data channel, plus children for composites.
type Snapshot struct {
	PackageIdentifier string `json:"package_identifier,omitempty" yaml:"package_identifier,omitempty" mapstructure:"package_identifier"`
	ClassName         string `json:"class_name" yaml:"class_name" mapstructure:"class_name"`
	Label             string `json:"label" yaml:"label" mapstructure:"label"`
	Running           bool   `json:"running" yaml:"running" mapstructure:"running"`
	Failed            bool   `json:"failed" yaml:"failed" mapstructure:"failed"`

	Inputs  map[string]Value `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`
	Outputs map[string]Value `json:"outputs,omitempty" yaml:"outputs,omitempty" mapstructure:"outputs"`

	ChildOrder []string             `json:"child_order,omitempty" yaml:"child_order,omitempty" mapstructure:"child_order"`
	Children   map[string]*Snapshot `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// Clone returns a structurally independent copy of the snapshot. Channel
// payloads are shared; the engine treats stored values as immutable.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Inputs != nil {
		out.Inputs = make(map[string]Value, len(s.Inputs))
		for k, v := range s.Inputs {
			out.Inputs[k] = v
		}
	}
	if s.Outputs != nil {
		out.Outputs = make(map[string]Value, len(s.Outputs))
		for k, v := range s.Outputs {
			out.Outputs[k] = v
		}
	}
	out.ChildOrder = append([]string(nil), s.ChildOrder...)
	if s.Children != nil {
		out.Children = make(map[string]*Snapshot, len(s.Children))
		for k, child := range s.Children {
			out.Children[k] = child.Clone()
		}
	}
	return &out
}

// Decode rebuilds a Snapshot from a generic map, as produced by YAML/JSON
// round trips through a storage collaborator.
func Decode(raw map[string]any) (*Snapshot, error) {
	var snap Snapshot
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &snap,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
