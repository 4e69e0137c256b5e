package compiler

import (
	"testing"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/nodes/std"
	"github.com/calyptra/flume/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stdRegistry() *registry.Registry {
	r := registry.NewRegistry()
	std.Register(r)
	return r
}

func TestBuilder_BuildsRunnableWorkflow(t *testing.T) {
	def, err := NewParser().Parse([]byte(validDefinition))
	require.NoError(t, err)

	wf, err := NewBuilder(stdRegistry()).Build(def)
	require.NoError(t, err)

	assert.Equal(t, "pipeline", wf.Label())
	assert.Equal(t, 2, wf.NumChildren())

	out, err := wf.Run()
	require.NoError(t, err)
	// a__x preset 4 overrides the node-level 1: a = 5, b = -5.
	assert.Equal(t, graph.Values{"b__y": -5.0}, out)
}

func TestBuilder_NodeLevelInputsApply(t *testing.T) {
	def, err := NewParser().Parse([]byte(`
label: solo
nodes:
  - label: inc
    package: flume.nodes.std
    class: AddOne
    inputs:
      x: 41
`))
	require.NoError(t, err)

	wf, err := NewBuilder(stdRegistry()).Build(def)
	require.NoError(t, err)

	out, err := wf.Run()
	require.NoError(t, err)
	assert.Equal(t, graph.Values{"inc__y": 42.0}, out)
}

func TestBuilder_UnknownClassFails(t *testing.T) {
	def, err := NewParser().Parse([]byte("label: x\nnodes:\n  - {label: a, package: p, class: Nope}"))
	require.NoError(t, err)

	_, err = NewBuilder(stdRegistry()).Build(def)
	assert.ErrorContains(t, err, "not registered")
}

func TestBuilder_UnknownChannelFails(t *testing.T) {
	def, err := NewParser().Parse([]byte(`
label: x
nodes:
  - {label: a, package: flume.nodes.std, class: AddOne}
  - {label: b, package: flume.nodes.std, class: AddOne}
connections:
  - {from: a.nope, to: b.x}
`))
	require.NoError(t, err)

	_, err = NewBuilder(stdRegistry()).Build(def)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestBuilder_UnknownWorkflowInputFails(t *testing.T) {
	def, err := NewParser().Parse([]byte(`
label: x
nodes:
  - {label: a, package: flume.nodes.std, class: AddOne}
inputs:
  ghost__x: 1
`))
	require.NoError(t, err)

	_, err = NewBuilder(stdRegistry()).Build(def)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}
