package graph_test

import (
	"errors"
	"testing"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter builds a node that increments a counter on every run.
func counter(t *testing.T, label string, runs *int) *graph.Function {
	t.Helper()
	f, err := graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			*runs++
			return graph.Values{"n": *runs}, nil
		},
		graph.Out("n", graph.HintOf[int]()),
	)
	require.NoError(t, err)
	return f
}

func TestSignals_RunFiresOnAnySource(t *testing.T) {
	var runs int
	up1 := counter(t, "up1", new(int))
	up2 := counter(t, "up2", new(int))
	down := counter(t, "down", &runs)

	require.NoError(t, up1.Signals().Ran.Connect(down.Signals().Run))
	require.NoError(t, up2.Signals().Ran.Connect(down.Signals().Run))

	_, err := up1.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 1, runs, "one signal is enough for the run input")

	_, err = up2.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

func TestSignals_AccumulateAndRunWaitsForAll(t *testing.T) {
	var runs int
	up1 := counter(t, "up1", new(int))
	up2 := counter(t, "up2", new(int))
	down := counter(t, "down", &runs)

	acc := down.Signals().AccumulateAndRun
	require.NoError(t, up1.Signals().Ran.Connect(acc))
	require.NoError(t, up2.Signals().Ran.Connect(acc))

	_, err := up1.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 0, runs, "one of two sources is not enough")

	// A repeat from the same source still does not fire.
	_, err = up1.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 0, runs)

	_, err = up2.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 1, runs, "all sources arrived")

	// The accumulation resets: the next round needs both again.
	_, err = up1.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
	_, err = up2.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

func TestSignals_DisconnectForgetsAccumulation(t *testing.T) {
	var runs int
	up1 := counter(t, "up1", new(int))
	up2 := counter(t, "up2", new(int))
	down := counter(t, "down", &runs)

	acc := down.Signals().AccumulateAndRun
	require.NoError(t, up1.Signals().Ran.Connect(acc))
	require.NoError(t, up2.Signals().Ran.Connect(acc))

	_, err := up1.Run(graph.RunDefaults())
	require.NoError(t, err)

	// Dropping the already-arrived source leaves only up2; a fresh signal
	// from it fires alone.
	assert.True(t, acc.Disconnect(up1.Signals().Ran))
	_, err = up2.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}

func TestSignals_EmitStopsAtFirstError(t *testing.T) {
	var runs int
	src := counter(t, "src", new(int))

	boom, err := graph.NewFunction("boom",
		func(in graph.Values) (graph.Values, error) {
			return nil, errors.New("kaput")
		},
	)
	require.NoError(t, err)
	after := counter(t, "after", &runs)

	require.NoError(t, src.Signals().Ran.Connect(boom.Signals().Run))
	require.NoError(t, src.Signals().Ran.Connect(after.Signals().Run))

	_, err = src.Run(graph.RunDefaults())
	require.Error(t, err)
	assert.Equal(t, 0, runs, "propagation stops at the failed branch")
	assert.True(t, boom.Failed())
}

func TestSignals_DisconnectAllReturnsSeveredPairs(t *testing.T) {
	a := counter(t, "a", new(int))
	b := counter(t, "b", new(int))
	c := counter(t, "c", new(int))

	require.NoError(t, a.Signals().Ran.Connect(b.Signals().Run))
	require.NoError(t, c.Signals().Ran.Connect(b.Signals().AccumulateAndRun))
	require.NoError(t, b.Signals().Ran.Connect(c.Signals().Run))

	pairs := b.Signals().DisconnectAll()
	assert.Len(t, pairs, 3)
	assert.False(t, b.Signals().Connected())

	// The severed record is enough to rebuild the wiring.
	for _, p := range pairs {
		require.NoError(t, p.Input.Connect(p.Output))
	}
	assert.True(t, b.Signals().Connected())
	assert.True(t, a.Signals().Ran.Connected())
}
