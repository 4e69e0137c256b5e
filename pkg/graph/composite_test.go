package graph_test

import (
	"testing"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// box builds a composite holding a -> b (both y = x + 1).
func box(t *testing.T) (*graph.Composite, *graph.Function, *graph.Function) {
	t.Helper()
	c, err := graph.NewComposite("box")
	require.NoError(t, err)
	a := plusOne(t, "a", nil)
	b := plusOne(t, "b", nil)
	require.NoError(t, c.AddChild(a))
	require.NoError(t, c.AddChild(b))
	require.NoError(t, b.Inputs().Get("x").Connect(a.Outputs().Get("y")))
	return c, a, b
}

func TestComposite_AddChildRejections(t *testing.T) {
	c, _, _ := box(t)

	err := c.AddChild(c)
	assert.Error(t, err, "a composite cannot own itself")

	other, err := graph.NewComposite("other")
	require.NoError(t, err)
	taken := c.Child("a")
	assert.ErrorIs(t, other.AddChild(taken), graph.ErrHasParent)

	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)
	assert.ErrorIs(t, c.AddChild(wf), graph.ErrParentmost)

	dup := plusOne(t, "a", nil)
	assert.ErrorIs(t, c.AddChild(dup), graph.ErrLabelTaken)
	assert.Nil(t, dup.Parent(), "a rejected child stays an orphan")

	// Re-adding an existing child is a no-op.
	assert.NoError(t, c.AddChild(taken))
	assert.Equal(t, 2, c.NumChildren())
}

func TestComposite_DefaultExposure(t *testing.T) {
	c, _, _ := box(t)

	// The internal a.y -> b.x edge keeps both endpoints private.
	assert.Equal(t, []string{"a__x"}, c.Inputs().Labels())
	assert.Equal(t, []string{"b__y"}, c.Outputs().Labels())
}

func TestComposite_IOMapsRenameHideAndExpose(t *testing.T) {
	c, _, _ := box(t)

	require.NoError(t, c.SetInputsMap(graph.PortMap{
		"a__x": "seed",
		"b__x": "tap", // exposed despite being internally wired
	}))
	require.NoError(t, c.SetOutputsMap(graph.PortMap{
		"b__y": graph.Hidden,
		"a__y": "mid",
	}))

	assert.ElementsMatch(t, []string{"seed", "tap"}, c.Inputs().Labels())
	assert.Equal(t, []string{"mid"}, c.Outputs().Labels())
}

func TestComposite_IOMapRejectsAmbiguousLabels(t *testing.T) {
	c, err := graph.NewComposite("c")
	require.NoError(t, err)
	require.NoError(t, c.AddChild(plusOne(t, "a", nil)))
	require.NoError(t, c.AddChild(plusOne(t, "b", nil)))

	err = c.SetInputsMap(graph.PortMap{"a__x": "x", "b__x": "x"})
	require.Error(t, err)

	// The failed map never took effect.
	assert.ElementsMatch(t, []string{"a__x", "b__x"}, c.Inputs().Labels())
	assert.Empty(t, c.InputsMap())
}

func TestComposite_IOMapRejectsDanglingEntries(t *testing.T) {
	c, _, _ := box(t)
	err := c.SetOutputsMap(graph.PortMap{"ghost__y": "g"})
	assert.ErrorIs(t, err, graph.ErrNotFound)
	assert.Equal(t, []string{"b__y"}, c.Outputs().Labels())
}

func TestComposite_RebuildKeepsChannelIdentity(t *testing.T) {
	c, _, _ := box(t)
	before := c.Inputs().Get("a__x")

	// Structural mutation that keeps a__x exposed.
	require.NoError(t, c.AddChild(plusOne(t, "extra", nil)))

	assert.Same(t, before, c.Inputs().Get("a__x"),
		"external connections survive because the channel object is reused")
}

func TestComposite_ChildRelabelRekeysExposure(t *testing.T) {
	c, a, _ := box(t)
	require.NoError(t, a.SetLabel("first"))

	assert.Same(t, a, c.Child("first"))
	assert.Nil(t, c.Child("a"))
	assert.Equal(t, []string{"first__x"}, c.Inputs().Labels())
	assert.Equal(t, "/box/first", a.Path())

	b := c.Child("b")
	assert.ErrorIs(t, b.SetLabel("first"), graph.ErrLabelTaken)
}

func TestComposite_RemoveChildPrunesEverything(t *testing.T) {
	c, a, b := box(t)
	require.NoError(t, c.SetInputsMap(graph.PortMap{"a__x": "seed"}))
	require.NoError(t, c.SetStarting(a))

	require.NoError(t, c.RemoveChild("a"))

	assert.Nil(t, a.Parent())
	assert.False(t, a.Outputs().Connected())
	assert.False(t, b.Inputs().Connected(), "the severed edge re-exposes b__x")
	assert.Empty(t, c.Starting())
	assert.Empty(t, c.InputsMap())
	assert.Equal(t, []string{"b__x"}, c.Inputs().Labels())
}

func TestComposite_RunInTopologicalMode(t *testing.T) {
	c, _, _ := box(t)
	c.Inputs().Get("a__x").Set(5)

	res, err := c.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 7, res, "a=6, then b=7")
	assert.Equal(t, 7, c.Outputs().Get("b__y").Value())
}

func TestComposite_RunWithStartingNodes(t *testing.T) {
	c, a, b := box(t)
	require.NoError(t, a.Signals().Ran.Connect(b.Signals().Run))
	require.NoError(t, c.SetStarting(a))
	c.Inputs().Get("a__x").Set(5)

	res, err := c.Run(graph.RunDefaults())
	require.NoError(t, err)
	assert.Equal(t, 7, res)
}

func TestComposite_SetStartingRejectsStrangers(t *testing.T) {
	c, _, _ := box(t)
	stranger := plusOne(t, "stranger", nil)
	assert.ErrorIs(t, c.SetStarting(stranger), graph.ErrNotFound)
}

func TestReplaceChild_TransfersConnectionsAndValues(t *testing.T) {
	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)
	up := plusOne(t, "up", nil)
	mid := plusOne(t, "mid", nil)
	down := plusOne(t, "down", nil)
	for _, n := range []graph.Node{up, mid, down} {
		_, err := wf.Add(n)
		require.NoError(t, err)
	}
	require.NoError(t, mid.Inputs().Get("x").Connect(up.Outputs().Get("y")))
	require.NoError(t, down.Inputs().Get("x").Connect(mid.Outputs().Get("y")))
	require.NoError(t, up.Signals().Ran.Connect(mid.Signals().Run))
	mid.Inputs().Get("x").Set(3)

	var timesTwoRuns int
	repl, err := graph.NewFunction("fancy",
		func(in graph.Values) (graph.Values, error) {
			timesTwoRuns++
			return graph.Values{"y": in["x"].(int) * 2}, nil
		},
		graph.In("x", graph.HintOf[int]()),
		graph.Out("y", graph.HintOf[int]()),
	)
	require.NoError(t, err)

	require.NoError(t, wf.ReplaceChild("mid", repl))

	assert.Equal(t, "mid", repl.Label(), "the replacement takes over the slot label")
	assert.Same(t, graph.Node(repl), wf.Child("mid"))
	assert.Equal(t, []*graph.Output{up.Outputs().Get("y")}, repl.Inputs().Get("x").Connections())
	assert.Equal(t, []*graph.Output{repl.Outputs().Get("y")}, down.Inputs().Get("x").Connections())
	assert.Equal(t, []*graph.SignalInput{repl.Signals().Run}, up.Signals().Ran.Connections())
	assert.Equal(t, 3, repl.Inputs().Get("x").Value(), "held data carries over")

	assert.Nil(t, mid.Parent())
	assert.False(t, mid.Inputs().Connected())
	assert.False(t, mid.Signals().Connected())

	// The rewired graph computes with the new semantics.
	res, err := repl.Run(graph.RunOptions{CheckReadiness: true, EmitRan: false})
	require.NoError(t, err)
	assert.Equal(t, 6, res)
	assert.Equal(t, 1, timesTwoRuns)
}

func TestReplaceChild_RollsBackOnInterfaceMismatch(t *testing.T) {
	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)
	up := plusOne(t, "up", nil)
	mid := plusOne(t, "mid", nil)
	for _, n := range []graph.Node{up, mid} {
		_, err := wf.Add(n)
		require.NoError(t, err)
	}
	require.NoError(t, mid.Inputs().Get("x").Connect(up.Outputs().Get("y")))

	exposedBefore := wf.Inputs().Get("up__x")

	// No input named x: the transfer must fail and roll back.
	var runs int
	repl := counter(t, "noinput", &runs)

	err = wf.ReplaceChild("mid", repl)
	var re *graph.ReplacementError
	require.ErrorAs(t, err, &re)

	assert.Same(t, graph.Node(mid), wf.Child("mid"), "the old child is back under its label")
	assert.Equal(t, []*graph.Output{up.Outputs().Get("y")}, mid.Inputs().Get("x").Connections())
	assert.Nil(t, repl.Parent())
	assert.Equal(t, "noinput", repl.Label(), "the replacement keeps its own label")
	assert.False(t, repl.Outputs().Connected())
	assert.Same(t, exposedBefore, wf.Inputs().Get("up__x"),
		"composite channels survive the aborted swap by identity")
}

func TestReplaceChild_RejectsConnectedReplacement(t *testing.T) {
	wf, err := graph.NewWorkflow("wf")
	require.NoError(t, err)
	mid := plusOne(t, "mid", nil)
	_, err = wf.Add(mid)
	require.NoError(t, err)

	repl := plusOne(t, "repl", nil)
	other := plusOne(t, "other", nil)
	require.NoError(t, repl.Inputs().Get("x").Connect(other.Outputs().Get("y")))

	var re *graph.ReplacementError
	require.ErrorAs(t, wf.ReplaceChild("mid", repl), &re)
	assert.Same(t, graph.Node(mid), wf.Child("mid"))
}
