package graph_test

import (
	"context"
	"testing"

	"github.com/calyptra/flume/pkg/adapters/memory"
	"github.com/calyptra/flume/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_RunReturnsOutputRecord(t *testing.T) {
	wf, _, _, c := chainThree(t, nil, nil, nil)

	out, err := wf.Run()
	require.NoError(t, err)

	assert.Equal(t, graph.Values{"c__y": 3}, out, "only exposed outputs land in the record")
	assert.Equal(t, 3, c.Outputs().Get("y").Value())
}

func TestWorkflow_ReadinessSeesChildValues(t *testing.T) {
	wf, a, _, _ := chainThree(t, nil, nil, nil)

	// a.x was set on the child directly, never on the workflow's own
	// channel; readiness must look through to the backing channel.
	assert.True(t, wf.Ready())
	assert.Contains(t, wf.ReadinessReport(), "a__x ready: true")

	a.Inputs().Get("x").Set(graph.NoValue)
	assert.False(t, wf.Ready())
}

func TestWorkflow_WorkflowLevelInputFeedsChild(t *testing.T) {
	wf, a, _, _ := chainThree(t, nil, nil, nil)
	a.Inputs().Get("x").Set(graph.NoValue)

	require.NoError(t, wf.SetInputValues(graph.Values{"a__x": 10}))
	out, err := wf.Run()
	require.NoError(t, err)
	assert.Equal(t, graph.Values{"c__y": 13}, out)
}

func TestWorkflow_RunFailurePropagates(t *testing.T) {
	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)
	bad, err := graph.NewFunction("bad",
		func(in graph.Values) (graph.Values, error) { return nil, assert.AnError },
		graph.Out("y", graph.HintOf[int]()),
	)
	require.NoError(t, err)
	_, err = wf.Add(bad)
	require.NoError(t, err)

	_, err = wf.Run()
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, bad.Failed())
	assert.True(t, wf.Failed(), "a failed child fails the root's own run")
}

func TestWorkflow_CannotBeAdopted(t *testing.T) {
	outer, err := graph.NewComposite("outer")
	require.NoError(t, err)
	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)

	assert.ErrorIs(t, outer.AddChild(wf), graph.ErrParentmost)
}

func TestWorkflow_SaveLoadRoundTrip(t *testing.T) {
	store := memory.NewStore()
	wf, a, b, c := chainThree(t, nil, nil, nil)
	wf.SetStore(store)

	_, err := wf.Run()
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, wf.Save(ctx, "run-1"))

	// Wipe the run's results, then restore them.
	a.Inputs().Get("x").Set(graph.NoValue)
	for _, n := range []*graph.Function{a, b, c} {
		n.Outputs().Get("y").Set(graph.NoValue)
	}
	assert.False(t, wf.Ready())

	require.NoError(t, wf.Load(ctx, "run-1"))
	assert.Equal(t, 0, a.Inputs().Get("x").Value())
	assert.Equal(t, 1, a.Outputs().Get("y").Value())
	assert.Equal(t, 3, c.Outputs().Get("y").Value())
	assert.True(t, wf.Ready())
}

func TestWorkflow_SaveWithoutStoreFails(t *testing.T) {
	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)
	assert.Error(t, wf.Save(context.Background(), "k"))
	assert.Error(t, wf.Load(context.Background(), "k"))
}
