package graph

import (
	"fmt"
	"strings"
)

// PortMap renames or hides child channels in a composite's public IO.
// Keys are child channel paths ("child__channel"); a value of Hidden
// removes the channel from the public IO, anything else becomes its
// exposed label.
type PortMap map[string]string

// Hidden marks a PortMap entry as not publicly exposed.
const Hidden = ""

// Copy returns an independent copy of the map.
func (m PortMap) Copy() PortMap {
	out := make(PortMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Composite is a node that owns child nodes and exposes an aggregated IO
// surface by re-mapping child channels to composite-level channels. All
// structural mutation is transactional: a failed operation restores the
// prior graph exactly.
type Composite struct {
	nodeCore

	children map[string]Node
	order    []string
	starting []Node

	inputsMap  PortMap
	outputsMap PortMap

	// Live links from exposed composite channel label to the backing
	// child channel.
	inputLinks  map[string]*Input
	outputLinks map[string]*Output
}

// NewComposite builds an empty composite container.
func NewComposite(label string) (*Composite, error) {
	c := &Composite{}
	if err := c.initComposite(c, label); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Composite) initComposite(self Node, label string) error {
	if err := c.init(self, label, c.runChildren); err != nil {
		return err
	}
	c.children = make(map[string]Node)
	c.inputsMap = make(PortMap)
	c.outputsMap = make(PortMap)
	c.inputLinks = make(map[string]*Input)
	c.outputLinks = make(map[string]*Output)
	return nil
}

func (c *Composite) composite() *Composite { return c }

// Ready reports whether the composite may run. An exposed input counts as
// satisfied when either the composite channel itself or the child channel
// backing it holds hint-conforming data, since values set directly on
// children never surface on the composite's own channels.
func (c *Composite) Ready() bool {
	c.mu.Lock()
	running, failed := c.running, c.failed
	c.mu.Unlock()
	if running || failed {
		return false
	}
	for _, in := range c.inputs.All() {
		if !c.inputSatisfied(in) {
			return false
		}
	}
	return true
}

// ReadinessReport renders the per-input ready state.
func (c *Composite) ReadinessReport() string {
	return c.readinessError().Error()
}

func (c *Composite) readinessError() *ReadinessError {
	c.mu.Lock()
	running, failed := c.running, c.failed
	c.mu.Unlock()
	re := &ReadinessError{Label: c.label, Running: running, Failed: failed}
	for _, in := range c.inputs.All() {
		re.Inputs = append(re.Inputs, InputReadiness{Label: in.Label(), Ready: c.inputSatisfied(in)})
	}
	return re
}

func (c *Composite) inputSatisfied(in *Input) bool {
	if in.Ready() {
		return true
	}
	link := c.inputLinks[in.Label()]
	return link != nil && link.Ready()
}

// Children returns the child nodes in insertion order.
func (c *Composite) Children() []Node {
	out := make([]Node, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, c.children[label])
	}
	return out
}

// Child returns the child with the given label, or nil.
func (c *Composite) Child(label string) Node { return c.children[label] }

// NumChildren returns the number of children.
func (c *Composite) NumChildren() int { return len(c.order) }

func (c *Composite) childIndex(label string) int {
	for i, l := range c.order {
		if l == label {
			return i
		}
	}
	return len(c.order)
}

// AddChild adopts the node as a child. The node must be an orphan (or
// already this composite's child, which is a no-op) and its label must be
// free within this scope.
func (c *Composite) AddChild(n Node) error {
	if n.core() == c.core() {
		return fmt.Errorf("%s cannot own itself", c.Path())
	}
	if p := n.Parent(); p != nil {
		if p == c {
			return nil
		}
		return fmt.Errorf("%s belongs to %s: %w", n.Label(), p.Path(), ErrHasParent)
	}
	if n.core().isParentmost {
		return fmt.Errorf("%s: %w", n.Label(), ErrParentmost)
	}
	if _, taken := c.children[n.Label()]; taken {
		return fmt.Errorf("%s already has a child %q: %w", c.Path(), n.Label(), ErrLabelTaken)
	}
	n.core().parent = c
	c.children[n.Label()] = n
	c.order = append(c.order, n.Label())
	return c.rebuildIO()
}

// RemoveChild disconnects the child entirely, drops it from the starting
// nodes, prunes any IO map entries that referenced it and orphans it.
func (c *Composite) RemoveChild(label string) error {
	n, ok := c.children[label]
	if !ok {
		return fmt.Errorf("%s has no child %q: %w", c.Path(), label, ErrNotFound)
	}
	return c.RemoveChildNode(n)
}

// RemoveChildNode is RemoveChild by node reference.
func (c *Composite) RemoveChildNode(n Node) error {
	label := n.Label()
	if c.children[label] == nil || c.children[label].core() != n.core() {
		return fmt.Errorf("%s is not a child of %s: %w", label, c.Path(), ErrNotFound)
	}
	n.Disconnect()
	c.starting = removeNode(c.starting, n)
	n.core().parent = nil
	delete(c.children, label)
	c.order = removeConn(c.order, label)
	prunePrefix(c.inputsMap, label)
	prunePrefix(c.outputsMap, label)
	return c.rebuildIO()
}

func (c *Composite) renameChild(oldLabel, newLabel string) error {
	n, ok := c.children[oldLabel]
	if !ok {
		return fmt.Errorf("%s has no child %q: %w", c.Path(), oldLabel, ErrNotFound)
	}
	if _, taken := c.children[newLabel]; taken {
		return fmt.Errorf("%s already has a child %q: %w", c.Path(), newLabel, ErrLabelTaken)
	}
	delete(c.children, oldLabel)
	c.children[newLabel] = n
	for i, l := range c.order {
		if l == oldLabel {
			c.order[i] = newLabel
		}
	}
	n.core().label = newLabel
	rekeyPrefix(c.inputsMap, oldLabel, newLabel)
	rekeyPrefix(c.outputsMap, oldLabel, newLabel)
	return c.rebuildIO()
}

// SetStarting designates the push-execution entry points. All nodes must
// be children.
func (c *Composite) SetStarting(nodes ...Node) error {
	for _, n := range nodes {
		if child := c.children[n.Label()]; child == nil || child.core() != n.core() {
			return fmt.Errorf("starting node %s is not a child of %s: %w", n.Label(), c.Path(), ErrNotFound)
		}
	}
	c.starting = append([]Node(nil), nodes...)
	return nil
}

// Starting returns the designated push entry points.
func (c *Composite) Starting() []Node { return append([]Node(nil), c.starting...) }

// SetInputsMap installs the input renaming/exposure table and rebuilds the
// public IO. A dangling or ambiguous entry fails loudly and leaves the
// previous map in force.
func (c *Composite) SetInputsMap(m PortMap) error {
	prev := c.inputsMap
	c.inputsMap = m.Copy()
	if err := c.rebuildIO(); err != nil {
		c.inputsMap = prev
		_ = c.rebuildIO()
		return err
	}
	return nil
}

// SetOutputsMap installs the output renaming/exposure table and rebuilds
// the public IO. A dangling or ambiguous entry fails loudly and leaves the
// previous map in force.
func (c *Composite) SetOutputsMap(m PortMap) error {
	prev := c.outputsMap
	c.outputsMap = m.Copy()
	if err := c.rebuildIO(); err != nil {
		c.outputsMap = prev
		_ = c.rebuildIO()
		return err
	}
	return nil
}

// InputsMap returns a copy of the current input map.
func (c *Composite) InputsMap() PortMap { return c.inputsMap.Copy() }

// OutputsMap returns a copy of the current output map.
func (c *Composite) OutputsMap() PortMap { return c.outputsMap.Copy() }

// exposure describes one composite-level channel derived from a child.
type exposure struct {
	label string
	in    *Input
	out   *Output
	hint  *Hint
}

// deriveExposures computes the public IO from current children and maps.
// Default policy: every child data channel without sibling connections is
// exposed as "child__channel"; map entries rename or hide, and may expose
// a channel the default policy would skip.
func (c *Composite) deriveExposures() (ins, outs []exposure, err error) {
	usedIn := make(map[string]bool)
	usedOut := make(map[string]bool)
	seenKeys := make(map[string]bool)

	for _, label := range c.order {
		child := c.children[label]
		for _, in := range child.Inputs().All() {
			key := label + portDelimiter + in.Label()
			seenKeys[key] = true
			exposed, name := c.resolveExposure(c.inputsMap, key, in.Connected())
			if !exposed {
				continue
			}
			if usedIn[name] {
				return nil, nil, fmt.Errorf("%s: exposed input label %q is ambiguous", c.Path(), name)
			}
			usedIn[name] = true
			ins = append(ins, exposure{label: name, in: in, hint: in.Hint()})
		}
		for _, out := range child.Outputs().All() {
			key := label + portDelimiter + out.Label()
			seenKeys[key] = true
			exposed, name := c.resolveExposure(c.outputsMap, key, out.Connected())
			if !exposed {
				continue
			}
			if usedOut[name] {
				return nil, nil, fmt.Errorf("%s: exposed output label %q is ambiguous", c.Path(), name)
			}
			usedOut[name] = true
			outs = append(outs, exposure{label: name, out: out, hint: out.Hint()})
		}
	}

	for key := range c.inputsMap {
		if !seenKeys[key] {
			return nil, nil, fmt.Errorf("%s: inputs map entry %q matches no child channel: %w", c.Path(), key, ErrNotFound)
		}
	}
	for key := range c.outputsMap {
		if !seenKeys[key] {
			return nil, nil, fmt.Errorf("%s: outputs map entry %q matches no child channel: %w", c.Path(), key, ErrNotFound)
		}
	}
	return ins, outs, nil
}

func (c *Composite) resolveExposure(m PortMap, key string, connected bool) (bool, string) {
	if name, mapped := m[key]; mapped {
		if name == Hidden {
			return false, ""
		}
		return true, name
	}
	if connected {
		// Internally wired channels stay private by default.
		return false, ""
	}
	return true, key
}

// rebuildIO re-derives the composite's public channels from the current
// children. Existing channel objects are kept when their exposed label
// survives, so external connections to the composite stay intact across
// structural mutations.
func (c *Composite) rebuildIO() error {
	ins, outs, err := c.deriveExposures()
	if err != nil {
		return err
	}

	wantIn := make(map[string]exposure, len(ins))
	for _, e := range ins {
		wantIn[e.label] = e
	}
	wantOut := make(map[string]exposure, len(outs))
	for _, e := range outs {
		wantOut[e.label] = e
	}

	for _, existing := range c.inputs.All() {
		if _, keep := wantIn[existing.Label()]; !keep {
			existing.DisconnectAll()
			c.inputs.remove(existing.Label())
			delete(c.inputLinks, existing.Label())
		}
	}
	for _, e := range ins {
		if existing := c.inputs.Get(e.label); existing != nil {
			existing.hint = e.hint
		} else {
			ch := newInput(c.self, e.label, e.hint, NoValue)
			if err := c.inputs.add(ch); err != nil {
				return err
			}
		}
		c.inputLinks[e.label] = e.in
	}

	for _, existing := range c.outputs.All() {
		if _, keep := wantOut[existing.Label()]; !keep {
			existing.DisconnectAll()
			c.outputs.remove(existing.Label())
			delete(c.outputLinks, existing.Label())
		}
	}
	for _, e := range outs {
		if existing := c.outputs.Get(e.label); existing != nil {
			existing.hint = e.hint
		} else {
			ch := newOutput(c.self, e.label, e.hint)
			if err := c.outputs.add(ch); err != nil {
				return err
			}
		}
		c.outputLinks[e.label] = e.out
	}
	return nil
}

// pushInputs copies every data-holding composite input down to the child
// channel backing it.
func (c *Composite) pushInputs() {
	for label, link := range c.inputLinks {
		if ch := c.inputs.Get(label); ch != nil && HasData(ch.Value()) {
			link.Set(ch.Value())
		}
	}
}

// runChildren is the composite's computation: push composite input values
// down to the linked child channels, drive the children, then pull the
// linked child outputs back up.
func (c *Composite) runChildren(in Values) (Values, error) {
	for label, v := range in {
		if link := c.inputLinks[label]; link != nil {
			link.Set(v)
		}
	}

	if len(c.starting) > 0 {
		for _, s := range c.starting {
			if _, err := s.Run(RunDefaults()); err != nil {
				return nil, err
			}
		}
	} else {
		children := c.Children()
		for _, child := range children {
			if child.Executor() != nil {
				return nil, fmt.Errorf("%s: %w", child.Path(), ErrPullWithExecutor)
			}
		}
		order, err := TopologicalOrder(children)
		if err != nil {
			return nil, err
		}
		for _, child := range order {
			if _, err := child.Run(RunOptions{FetchInput: true, CheckReadiness: true}); err != nil {
				return nil, err
			}
		}
	}

	out := make(Values, len(c.outputLinks))
	for label, link := range c.outputLinks {
		if HasData(link.Value()) {
			out[label] = link.Value()
		}
	}

	// Mirror onto the composite outputs eagerly too: finish() commits the
	// returned record, but pull-style callers inspect channels directly.
	for label, v := range out {
		if ch := c.outputs.Get(label); ch != nil {
			ch.Set(v)
		}
	}
	return out, nil
}

// automateExecution wires the children's run signals into one permanent
// linear chain derived from their data dependencies and designates the
// first node as the starting point. Used by composites whose graph is
// fixed at construction.
func (c *Composite) automateExecution() error {
	if len(c.order) == 0 {
		return nil
	}
	children := c.Children()
	order, err := TopologicalOrder(children)
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(order); i++ {
		if err := order[i].Signals().Ran.Connect(order[i+1].Signals().Run); err != nil {
			return err
		}
	}
	return c.SetStarting(order[0])
}

// replaceSnapshot captures everything ReplaceChild may need to restore.
type replaceSnapshot struct {
	inConns   map[string][]*Output
	outConns  map[string][]*Input
	sigIn     map[string][]*SignalOutput
	ranConns  []*SignalInput
	inValues  map[string]any
	outValues map[string]any

	replLabel     string
	replInValues  map[string]any
	replOutValues map[string]any

	startingIdx int
}

func snapshotNode(n Node) *replaceSnapshot {
	s := &replaceSnapshot{
		inConns:   make(map[string][]*Output),
		outConns:  make(map[string][]*Input),
		sigIn:     make(map[string][]*SignalOutput),
		inValues:  make(map[string]any),
		outValues: make(map[string]any),
	}
	for _, in := range n.Inputs().All() {
		s.inConns[in.Label()] = in.Connections()
		s.inValues[in.Label()] = in.Value()
	}
	for _, out := range n.Outputs().All() {
		s.outConns[out.Label()] = out.Connections()
		s.outValues[out.Label()] = out.Value()
	}
	sig := n.Signals()
	s.sigIn[sig.Run.Label()] = sig.Run.Connections()
	s.sigIn[sig.AccumulateAndRun.Label()] = sig.AccumulateAndRun.Connections()
	s.ranConns = sig.Ran.Connections()
	return s
}

// ReplaceChild swaps the child under the given label for repl, preserving
// every external connection by endpoint label and re-deriving the
// composite IO. repl must be an orphan with no connections of its own. If
// repl's interface cannot satisfy the old child's connections or the IO
// maps, everything is rolled back: the old child returns under its label
// with all its connections, and repl is restored to its pristine state.
// On success the old child is left orphaned and disconnected.
func (c *Composite) ReplaceChild(label string, repl Node) error {
	old, ok := c.children[label]
	if !ok {
		return fmt.Errorf("%s has no child %q: %w", c.Path(), label, ErrNotFound)
	}
	return c.ReplaceChildNode(old, repl)
}

// ReplaceChildNode is ReplaceChild by node reference.
func (c *Composite) ReplaceChildNode(old, repl Node) error {
	label := old.Label()
	if c.children[label] == nil || c.children[label].core() != old.core() {
		return fmt.Errorf("%s is not a child of %s: %w", old.Label(), c.Path(), ErrNotFound)
	}
	fail := func(cause error) *ReplacementError {
		return &ReplacementError{Composite: c.Path(), Old: label, New: repl.Label(), Cause: cause}
	}

	// Validate fully before mutating anything.
	if repl.Parent() != nil {
		return fail(ErrHasParent)
	}
	if repl.core().isParentmost {
		return fail(ErrParentmost)
	}
	if nodeConnected(repl) {
		return fail(fmt.Errorf("replacement must have no connections"))
	}

	snap := snapshotNode(old)
	snap.replLabel = repl.Label()
	snap.replInValues = make(map[string]any)
	for _, in := range repl.Inputs().All() {
		snap.replInValues[in.Label()] = in.Value()
	}
	snap.replOutValues = make(map[string]any)
	for _, out := range repl.Outputs().All() {
		snap.replOutValues[out.Label()] = out.Value()
	}
	snap.startingIdx = -1
	for i, s := range c.starting {
		if s.core() == old.core() {
			snap.startingIdx = i
		}
	}

	rollback := func() {
		repl.Disconnect()
		repl.core().parent = nil
		repl.core().label = snap.replLabel
		for l, v := range snap.replInValues {
			repl.Inputs().Get(l).Set(v)
		}
		for l, v := range snap.replOutValues {
			repl.Outputs().Get(l).Set(v)
		}

		c.children[label] = old
		old.core().parent = c
		if snap.startingIdx >= 0 {
			c.starting[snap.startingIdx] = old
		}

		old.Disconnect()
		for l, partners := range snap.inConns {
			ch := old.Inputs().Get(l)
			for _, p := range partners {
				_ = ch.Connect(p)
			}
		}
		for l, partners := range snap.outConns {
			ch := old.Outputs().Get(l)
			for _, p := range partners {
				_ = ch.Connect(p)
			}
		}
		sig := old.Signals()
		for _, p := range snap.sigIn[sig.Run.Label()] {
			_ = sig.Run.Connect(p)
		}
		for _, p := range snap.sigIn[sig.AccumulateAndRun.Label()] {
			_ = sig.AccumulateAndRun.Connect(p)
		}
		for _, p := range snap.ranConns {
			_ = sig.Ran.Connect(p)
		}
		_ = c.rebuildIO()
	}

	// Swap the registry entry; connections are transferred next, so the
	// old node keeps them until each one moves.
	c.children[label] = repl
	repl.core().parent = c
	repl.core().label = label
	old.core().parent = nil
	if snap.startingIdx >= 0 {
		c.starting[snap.startingIdx] = repl
	}

	// Re-establish every snapshotted connection by endpoint label on the
	// replacement; carry values over where the old channel held real data.
	for _, l := range old.Inputs().Labels() {
		target := repl.Inputs().Get(l)
		if target == nil && len(snap.inConns[l]) > 0 {
			rollback()
			return fail(fmt.Errorf("replacement has no input %q", l))
		}
		if target == nil {
			continue
		}
		old.Inputs().Get(l).DisconnectAll()
		for _, p := range snap.inConns[l] {
			if err := target.Connect(p); err != nil {
				rollback()
				return fail(err)
			}
		}
		if v := snap.inValues[l]; HasData(v) {
			target.Set(v)
		}
	}
	for _, l := range old.Outputs().Labels() {
		target := repl.Outputs().Get(l)
		if target == nil && len(snap.outConns[l]) > 0 {
			rollback()
			return fail(fmt.Errorf("replacement has no output %q", l))
		}
		if target == nil {
			continue
		}
		old.Outputs().Get(l).DisconnectAll()
		for _, p := range snap.outConns[l] {
			if err := target.Connect(p); err != nil {
				rollback()
				return fail(err)
			}
		}
		if v := snap.outValues[l]; HasData(v) {
			target.Set(v)
		}
	}
	oldSig, replSig := old.Signals(), repl.Signals()
	oldSig.Run.DisconnectAll()
	for _, p := range snap.sigIn[oldSig.Run.Label()] {
		_ = replSig.Run.Connect(p)
	}
	oldSig.AccumulateAndRun.DisconnectAll()
	for _, p := range snap.sigIn[oldSig.AccumulateAndRun.Label()] {
		_ = replSig.AccumulateAndRun.Connect(p)
	}
	oldSig.Ran.DisconnectAll()
	for _, p := range snap.ranConns {
		_ = replSig.Ran.Connect(p)
	}

	if err := c.rebuildIO(); err != nil {
		rollback()
		return fail(err)
	}
	return nil
}

func nodeConnected(n Node) bool {
	return n.Inputs().Connected() || n.Outputs().Connected() || n.Signals().Connected()
}

func removeNode(nodes []Node, target Node) []Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.core() != target.core() {
			out = append(out, n)
		}
	}
	return out
}

func prunePrefix(m PortMap, childLabel string) {
	prefix := childLabel + portDelimiter
	for key := range m {
		if strings.HasPrefix(key, prefix) {
			delete(m, key)
		}
	}
}

func rekeyPrefix(m PortMap, oldLabel, newLabel string) {
	oldPrefix := oldLabel + portDelimiter
	for key, val := range m {
		if strings.HasPrefix(key, oldPrefix) {
			delete(m, key)
			m[newLabel+portDelimiter+strings.TrimPrefix(key, oldPrefix)] = val
		}
	}
}
