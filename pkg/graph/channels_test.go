package graph_test

import (
	"testing"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberSource(t *testing.T, label string) *graph.Function {
	t.Helper()
	f, err := graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			return graph.Values{"y": in["x"]}, nil
		},
		graph.In("x", graph.HintOf[int]()),
		graph.Out("y", graph.HintOf[int]()),
	)
	require.NoError(t, err)
	return f
}

func TestChannels_ConnectIsReflexive(t *testing.T) {
	a := numberSource(t, "a")
	b := numberSource(t, "b")

	out := a.Outputs().Get("y")
	in := b.Inputs().Get("x")

	require.NoError(t, in.Connect(out))
	assert.Equal(t, []*graph.Output{out}, in.Connections())
	assert.Equal(t, []*graph.Input{in}, out.Connections())

	// Connecting an already connected pair changes nothing.
	require.NoError(t, out.Connect(in))
	assert.Len(t, in.Connections(), 1)
	assert.Len(t, out.Connections(), 1)

	assert.True(t, in.Disconnect(out))
	assert.False(t, in.Connected())
	assert.False(t, out.Connected())
	assert.False(t, in.Disconnect(out), "second disconnect is a no-op")
}

func TestChannels_StrictHintRejectsMismatch(t *testing.T) {
	ints := numberSource(t, "ints")

	strs, err := graph.NewFunction("strs",
		func(in graph.Values) (graph.Values, error) { return nil, nil },
		graph.In("s", graph.HintOf[string]()),
	)
	require.NoError(t, err)

	in := strs.Inputs().Get("s")
	err = in.Connect(ints.Outputs().Get("y"))

	var connErr *graph.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.False(t, in.Connected(), "failed connection must leave no trace")

	// Relaxing strictness admits the connection; readiness still consults
	// the hint.
	in.SetStrict(false)
	require.NoError(t, in.Connect(ints.Outputs().Get("y")))
	assert.True(t, in.Connected())
}

func TestChannels_UnhintedInputAcceptsAnything(t *testing.T) {
	src := numberSource(t, "src")

	sink, err := graph.NewFunction("sink",
		func(in graph.Values) (graph.Values, error) { return nil, nil },
		graph.In("anything", nil),
	)
	require.NoError(t, err)

	require.NoError(t, sink.Inputs().Get("anything").Connect(src.Outputs().Get("y")))
}

func TestChannels_FetchFirstReadyWins(t *testing.T) {
	a := numberSource(t, "a")
	b := numberSource(t, "b")
	c := numberSource(t, "c")

	in := c.Inputs().Get("x")
	require.NoError(t, in.Connect(a.Outputs().Get("y")))
	require.NoError(t, in.Connect(b.Outputs().Get("y")))

	// Neither source has data: fetch keeps the current value.
	in.Set(99)
	in.Fetch()
	assert.Equal(t, 99, in.Value())

	// Only the second source has data.
	b.Outputs().Get("y").Set(7)
	in.Fetch()
	assert.Equal(t, 7, in.Value())

	// Both have data: the first connection wins.
	a.Outputs().Get("y").Set(3)
	in.Fetch()
	assert.Equal(t, 3, in.Value())
}

func TestChannels_SetIsUnconditionalButReadinessObjects(t *testing.T) {
	n := numberSource(t, "n")
	in := n.Inputs().Get("x")

	in.Set("not an int")
	assert.Equal(t, "not an int", in.Value(), "assignment itself never fails")
	assert.False(t, in.Ready(), "hint violation surfaces through readiness")

	in.Set(5)
	assert.True(t, in.Ready())

	in.Clear()
	assert.False(t, in.Ready())
	assert.False(t, graph.HasData(in.Value()))
}

func TestChannels_NoValueNeverFetched(t *testing.T) {
	a := numberSource(t, "a")
	b := numberSource(t, "b")

	in := b.Inputs().Get("x")
	require.NoError(t, in.Connect(a.Outputs().Get("y")))

	in.Set(42)
	in.Fetch()
	assert.Equal(t, 42, in.Value(), "a source without data must not clobber a user-set value")
}
