package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDefinition = `
label: pipeline
nodes:
  - label: a
    package: flume.nodes.std
    class: AddOne
    inputs:
      x: 1
  - label: b
    package: flume.nodes.std
    class: Negate
connections:
  - from: a.y
    to: b.x
inputs:
  a__x: 4
`

func TestParser_ParsesValidDefinition(t *testing.T) {
	def, err := NewParser().Parse([]byte(validDefinition))
	require.NoError(t, err)

	assert.Equal(t, "pipeline", def.Label)
	require.Len(t, def.Nodes, 2)
	assert.Equal(t, "AddOne", def.Nodes[0].Class)
	assert.Equal(t, map[string]any{"x": 1}, def.Nodes[0].Inputs)
	require.Len(t, def.Connections, 1)
	assert.Equal(t, "a.y", def.Connections[0].From)
	assert.Equal(t, map[string]any{"a__x": 4}, def.Inputs)
}

func TestParser_Rejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"not yaml", "{{", "failed to parse"},
		{"missing label", "nodes: []", "missing label"},
		{"node missing label", "label: x\nnodes:\n  - class: C", "missing label"},
		{"node missing class", "label: x\nnodes:\n  - label: a", "missing class"},
		{"duplicate labels", "label: x\nnodes:\n  - {label: a, class: C}\n  - {label: a, class: C}", "duplicate node label"},
		{"malformed ref", "label: x\nnodes:\n  - {label: a, class: C}\nconnections:\n  - {from: ay, to: a.x}", "malformed channel reference"},
		{"unknown node ref", "label: x\nnodes:\n  - {label: a, class: C}\nconnections:\n  - {from: z.y, to: a.x}", "unknown node"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser().Parse([]byte(tc.yaml))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestSplitRef(t *testing.T) {
	node, channel, err := splitRef("adder.sum")
	require.NoError(t, err)
	assert.Equal(t, "adder", node)
	assert.Equal(t, "sum", channel)

	// Only the first dot splits, channel labels keep the rest.
	node, channel, err = splitRef("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a", node)
	assert.Equal(t, "b.c", channel)

	for _, bad := range []string{"", "a", "a.", ".x"} {
		_, _, err := splitRef(bad)
		assert.Error(t, err, bad)
	}
}
