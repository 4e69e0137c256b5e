package graph_test

import (
	"testing"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaValue(v any) schema.Value {
	return schema.Value{Present: true, Data: v}
}

func TestSnapshotOf_CapturesTreeState(t *testing.T) {
	wf, a, _, _ := chainThree(t, nil, nil, nil)
	_, err := a.Run(graph.RunDefaults())
	require.NoError(t, err)

	snap := graph.SnapshotOf(wf)

	assert.Equal(t, "Workflow", snap.ClassName)
	assert.Equal(t, "wf", snap.Label)
	assert.Equal(t, []string{"a", "b", "c"}, snap.ChildOrder)
	require.Len(t, snap.Children, 3)

	childA := snap.Children["a"]
	assert.Equal(t, "Function", childA.ClassName)
	assert.Equal(t, schemaValue(0), childA.Inputs["x"])
	assert.Equal(t, schemaValue(1), childA.Outputs["y"])

	// No ran wiring in the chain, so b never ran.
	childB := snap.Children["b"]
	assert.False(t, childB.Outputs["y"].Present)
}

func TestSnapshotOf_RecordsRunFlags(t *testing.T) {
	bad, err := graph.NewFunction("bad",
		func(in graph.Values) (graph.Values, error) { return nil, assert.AnError },
	)
	require.NoError(t, err)
	_, err = bad.Run(graph.RunDefaults())
	require.Error(t, err)

	snap := graph.SnapshotOf(bad)
	assert.True(t, snap.Failed)
	assert.False(t, snap.Running)
}

func TestRestore_RoundTrip(t *testing.T) {
	wf, a, b, c := chainThree(t, nil, nil, nil)
	_, err := wf.Run()
	require.NoError(t, err)

	snap := graph.SnapshotOf(wf)

	a.Inputs().Get("x").Set(graph.NoValue)
	for _, n := range []*graph.Function{a, b, c} {
		n.Outputs().Get("y").Set(graph.NoValue)
	}

	require.NoError(t, graph.Restore(wf, snap))
	assert.Equal(t, 0, a.Inputs().Get("x").Value())
	assert.Equal(t, 2, b.Outputs().Get("y").Value())
	assert.Equal(t, 3, c.Outputs().Get("y").Value())
}

func TestRestore_AppliesNoValue(t *testing.T) {
	n := adder(t)
	snap := graph.SnapshotOf(n)
	require.False(t, snap.Inputs["x"].Present)

	n.Inputs().Get("x").Set(9)
	require.NoError(t, graph.Restore(n, snap))
	assert.False(t, graph.HasData(n.Inputs().Get("x").Value()))
	assert.Equal(t, 1, n.Inputs().Get("y").Value(), "the default survives the round trip")
}

func TestRestore_RejectsShapeMismatch(t *testing.T) {
	wf, a, _, _ := chainThree(t, nil, nil, nil)
	_, err := wf.Run()
	require.NoError(t, err)
	snap := graph.SnapshotOf(wf)

	t.Run("wrong label", func(t *testing.T) {
		bent := snap.Clone()
		bent.Children["a"].Label = "zz"
		assert.Error(t, graph.Restore(wf, bent))
	})

	t.Run("wrong class", func(t *testing.T) {
		bent := snap.Clone()
		bent.Children["b"].ClassName = "Composite"
		assert.Error(t, graph.Restore(wf, bent))
	})

	t.Run("unknown channel", func(t *testing.T) {
		bent := snap.Clone()
		bent.Children["a"].Inputs["ghost"] = schemaValue(1)
		assert.ErrorIs(t, graph.Restore(wf, bent), graph.ErrNotFound)
	})

	t.Run("unknown child", func(t *testing.T) {
		bent := snap.Clone()
		bent.Children["d"] = &schema.Snapshot{ClassName: "Function", Label: "d"}
		assert.ErrorIs(t, graph.Restore(wf, bent), graph.ErrNotFound)
	})

	// None of the rejected restores touched anything: the shape check runs
	// over the whole tree before the first value lands.
	a.Inputs().Get("x").Set(99)
	bent := snap.Clone()
	bent.Children["c"].Label = "zz"
	require.Error(t, graph.Restore(wf, bent))
	assert.Equal(t, 99, a.Inputs().Get("x").Value())
}
