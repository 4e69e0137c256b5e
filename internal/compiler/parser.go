// Package compiler turns declarative graph definitions into live
// workflows.
package compiler

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the on-disk shape of a workflow.
type Definition struct {
	Label string           `yaml:"label"`
	Nodes []NodeDefinition `yaml:"nodes"`
	// Connections are "source.channel -> target.channel" data wires.
	Connections []ConnectionDefinition `yaml:"connections"`
	// Inputs preset exposed workflow inputs ("node__channel" labels).
	Inputs map[string]any `yaml:"inputs"`
}

// NodeDefinition names one node instance and its class.
type NodeDefinition struct {
	Label   string         `yaml:"label"`
	Package string         `yaml:"package"`
	Class   string         `yaml:"class"`
	Inputs  map[string]any `yaml:"inputs"`
}

// ConnectionDefinition wires one output channel into one input channel.
type ConnectionDefinition struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Parser converts raw bytes into a Definition.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes and validates a YAML workflow definition.
func (p *Parser) Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if def.Label == "" {
		return nil, fmt.Errorf("definition missing label")
	}
	seen := make(map[string]bool, len(def.Nodes))
	for i, n := range def.Nodes {
		if n.Label == "" {
			return nil, fmt.Errorf("node %d missing label", i)
		}
		if n.Class == "" {
			return nil, fmt.Errorf("node %q missing class", n.Label)
		}
		if seen[n.Label] {
			return nil, fmt.Errorf("duplicate node label %q", n.Label)
		}
		seen[n.Label] = true
	}
	for _, c := range def.Connections {
		for _, ref := range []string{c.From, c.To} {
			node, _, err := splitRef(ref)
			if err != nil {
				return nil, err
			}
			if !seen[node] {
				return nil, fmt.Errorf("connection references unknown node %q", node)
			}
		}
	}
	return &def, nil
}

// splitRef splits a "node.channel" reference.
func splitRef(ref string) (node, channel string, err error) {
	node, channel, ok := strings.Cut(ref, ".")
	if !ok || node == "" || channel == "" {
		return "", "", fmt.Errorf("malformed channel reference %q, want \"node.channel\"", ref)
	}
	return node, channel, nil
}
