package graph_test

import (
	"testing"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_ObserveRunLifecycle(t *testing.T) {
	var starts, dones []string
	var signals []graph.SignalEvent
	h := &graph.Hooks{
		OnRunStart: func(e graph.NodeEvent) { starts = append(starts, e.Path) },
		OnRunDone:  func(e graph.NodeEvent) { dones = append(dones, e.Path) },
		OnSignal:   func(e graph.SignalEvent) { signals = append(signals, e) },
	}
	wf, err := graph.NewWorkflow("wf", graph.WithHooks(h))
	require.NoError(t, err)

	n := plusOne(t, "n", nil)
	_, err = wf.Add(n)
	require.NoError(t, err)
	n.Inputs().Get("x").Set(1)

	_, err = n.Run(graph.RunDefaults())
	require.NoError(t, err)

	assert.Equal(t, []string{"/wf/n"}, starts)
	assert.Equal(t, []string{"/wf/n"}, dones)
	require.Len(t, signals, 1, "a successful push run emits ran exactly once")
	assert.Equal(t, "/wf/n.ran", signals[0].From)
	assert.Equal(t, 0, signals[0].Fanout)
}

func TestHooks_OnSignalSeesFanout(t *testing.T) {
	var signals []graph.SignalEvent
	wf, err := graph.NewWorkflow("wf",
		graph.WithHooks(&graph.Hooks{OnSignal: func(e graph.SignalEvent) { signals = append(signals, e) }}))
	require.NoError(t, err)

	a := plusOne(t, "a", nil)
	b := plusOne(t, "b", nil)
	c := plusOne(t, "c", nil)
	for _, n := range []*graph.Function{a, b, c} {
		_, err = wf.Add(n)
		require.NoError(t, err)
		n.Inputs().Get("x").Set(0)
	}
	require.NoError(t, a.Signals().Ran.Connect(b.Signals().Run, c.Signals().Run))

	_, err = a.Run(graph.RunDefaults())
	require.NoError(t, err)

	require.NotEmpty(t, signals)
	assert.Equal(t, "/wf/a.ran", signals[0].From)
	assert.Equal(t, 2, signals[0].Fanout)
}

func TestHooks_RunFailureReachesOnRunFail(t *testing.T) {
	var fails []graph.NodeEvent
	var signals int
	h := &graph.Hooks{
		OnRunFail: func(e graph.NodeEvent) { fails = append(fails, e) },
		OnSignal:  func(graph.SignalEvent) { signals++ },
	}
	wf, err := graph.NewWorkflow("wf", graph.WithHooks(h))
	require.NoError(t, err)

	bad, err := graph.NewFunction("bad",
		func(in graph.Values) (graph.Values, error) { return nil, assert.AnError },
		graph.Out("y", graph.HintOf[int]()),
	)
	require.NoError(t, err)
	_, err = wf.Add(bad)
	require.NoError(t, err)

	_, err = bad.Run(graph.RunDefaults())
	require.ErrorIs(t, err, assert.AnError)

	require.Len(t, fails, 1)
	assert.Equal(t, "/wf/bad", fails[0].Path)
	assert.ErrorIs(t, fails[0].Err, assert.AnError)
	assert.Zero(t, signals, "a failed run never emits ran")
}
