package graph

// Data channels are the typed endpoints nodes expose to the graph. An
// Input holds at most one authoritative value but may have several
// incoming connections; fetching adopts the value of the first connected
// source that actually holds data. An Output fans out to any number of
// inputs. Connections are reflexive: each side records the other, in
// connection order.

// Input is a data-input endpoint.
type Input struct {
	label       string
	owner       Node
	hint        *Hint
	strict      bool
	value       any
	connections []*Output
}

// Output is a data-output endpoint.
type Output struct {
	label       string
	owner       Node
	hint        *Hint
	value       any
	connections []*Input
}

func newInput(owner Node, label string, hint *Hint, def any) *Input {
	return &Input{label: label, owner: owner, hint: hint, strict: true, value: def}
}

func newOutput(owner Node, label string, hint *Hint) *Output {
	return &Output{label: label, owner: owner, hint: hint, value: NoValue}
}

func (in *Input) Label() string { return in.label }
func (in *Input) Owner() Node   { return in.owner }
func (in *Input) Hint() *Hint   { return in.hint }
func (in *Input) Value() any    { return in.value }

// Path identifies the channel inside the whole graph, e.g. "/wf/add.x".
func (in *Input) Path() string { return in.owner.Path() + "." + in.label }

// SetStrict toggles type-hint enforcement on incoming connections.
// Readiness checks still consult the hint either way.
func (in *Input) SetStrict(strict bool) { in.strict = strict }

// Set stores a value directly on the channel. Values are accepted
// unconditionally; a hint violation surfaces through Ready instead, so the
// node refuses to run rather than the assignment failing.
func (in *Input) Set(v any) { in.value = v }

// Clear resets the channel to the NoValue sentinel.
func (in *Input) Clear() { in.value = NoValue }

// Ready reports whether the channel holds data conforming to its hint.
func (in *Input) Ready() bool {
	if !HasData(in.value) {
		return false
	}
	return in.hint == nil || in.hint.Satisfies(in.value)
}

// Connect wires this input to a data output. Connecting an already
// connected pair is a no-op. With strict hints on, the input's hint must
// accept everything the source can produce.
func (in *Input) Connect(out *Output) error {
	if out == nil {
		return &ConnectionError{From: in.Path(), To: "<nil>", Reason: "no partner channel"}
	}
	if in.connectedTo(out) {
		return nil
	}
	if in.strict && in.hint != nil {
		if !in.hint.Accepts(out.hint) {
			return &ConnectionError{
				From:   out.Path(),
				To:     in.Path(),
				Reason: "type hint " + in.hint.String() + " does not accept " + out.hint.String(),
			}
		}
	}
	in.connections = append(in.connections, out)
	out.connections = append(out.connections, in)
	return nil
}

// Disconnect severs the connection to out, if present. Both sides forget
// each other; the channels themselves stay valid.
func (in *Input) Disconnect(out *Output) bool {
	if !in.connectedTo(out) {
		return false
	}
	in.connections = removeConn(in.connections, out)
	out.connections = removeConn(out.connections, in)
	return true
}

// DisconnectAll removes every connection and returns the severed partners
// in their original order.
func (in *Input) DisconnectAll() []*Output {
	severed := append([]*Output(nil), in.connections...)
	for _, out := range severed {
		in.Disconnect(out)
	}
	return severed
}

// Connections returns the connected outputs in connection order.
func (in *Input) Connections() []*Output {
	return append([]*Output(nil), in.connections...)
}

// Connected reports whether any connection exists.
func (in *Input) Connected() bool { return len(in.connections) > 0 }

// Fetch adopts the value of the first connected source currently holding
// real data. Sources still at NoValue are skipped, so an unconnected or
// not-yet-run upstream never clobbers a user-set value.
func (in *Input) Fetch() {
	for _, out := range in.connections {
		if HasData(out.value) {
			in.value = out.value
			return
		}
	}
}

func (in *Input) connectedTo(out *Output) bool {
	for _, c := range in.connections {
		if c == out {
			return true
		}
	}
	return false
}

func (out *Output) Label() string { return out.label }
func (out *Output) Owner() Node   { return out.owner }
func (out *Output) Hint() *Hint   { return out.hint }
func (out *Output) Value() any    { return out.value }
func (out *Output) Path() string  { return out.owner.Path() + "." + out.label }

// Set commits a value to the output, making it visible to downstream
// fetches.
func (out *Output) Set(v any) { out.value = v }

// Clear resets the channel to the NoValue sentinel.
func (out *Output) Clear() { out.value = NoValue }

// Connect fans this output out to one or more inputs. Each target applies
// its own hint check; the first rejection aborts and is returned.
func (out *Output) Connect(ins ...*Input) error {
	for _, in := range ins {
		if in == nil {
			return &ConnectionError{From: out.Path(), To: "<nil>", Reason: "no partner channel"}
		}
		if err := in.Connect(out); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect severs the connection to in, if present.
func (out *Output) Disconnect(in *Input) bool { return in.Disconnect(out) }

// DisconnectAll removes every connection and returns the severed partners.
func (out *Output) DisconnectAll() []*Input {
	severed := append([]*Input(nil), out.connections...)
	for _, in := range severed {
		in.Disconnect(out)
	}
	return severed
}

// Connections returns the connected inputs in connection order.
func (out *Output) Connections() []*Input {
	return append([]*Input(nil), out.connections...)
}

// Connected reports whether any connection exists.
func (out *Output) Connected() bool { return len(out.connections) > 0 }

func removeConn[T comparable](conns []T, target T) []T {
	out := conns[:0]
	for _, c := range conns {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

// Inputs is an ordered collection of a node's data inputs.
type Inputs struct {
	items   []*Input
	byLabel map[string]*Input
}

func newInputs() *Inputs {
	return &Inputs{byLabel: make(map[string]*Input)}
}

func (c *Inputs) add(in *Input) error {
	if _, ok := c.byLabel[in.label]; ok {
		return ErrLabelTaken
	}
	c.items = append(c.items, in)
	c.byLabel[in.label] = in
	return nil
}

func (c *Inputs) remove(label string) {
	in, ok := c.byLabel[label]
	if !ok {
		return
	}
	delete(c.byLabel, label)
	c.items = removeConn(c.items, in)
}

// Get returns the input with the given label, or nil.
func (c *Inputs) Get(label string) *Input { return c.byLabel[label] }

// All returns the inputs in declaration order.
func (c *Inputs) All() []*Input { return append([]*Input(nil), c.items...) }

// Labels returns the input labels in declaration order.
func (c *Inputs) Labels() []string {
	labels := make([]string, len(c.items))
	for i, in := range c.items {
		labels[i] = in.label
	}
	return labels
}

// Len returns the number of inputs.
func (c *Inputs) Len() int { return len(c.items) }

// Ready reports whether every input holds hint-conforming data.
func (c *Inputs) Ready() bool {
	for _, in := range c.items {
		if !in.Ready() {
			return false
		}
	}
	return true
}

// Fetch updates every input from its connections.
func (c *Inputs) Fetch() {
	for _, in := range c.items {
		in.Fetch()
	}
}

// Values collects the current input values, skipping channels without data.
func (c *Inputs) Values() Values {
	vals := make(Values, len(c.items))
	for _, in := range c.items {
		if HasData(in.value) {
			vals[in.label] = in.value
		}
	}
	return vals
}

// Connected reports whether any input has a connection.
func (c *Inputs) Connected() bool {
	for _, in := range c.items {
		if in.Connected() {
			return true
		}
	}
	return false
}

// Outputs is an ordered collection of a node's data outputs.
type Outputs struct {
	items   []*Output
	byLabel map[string]*Output
}

func newOutputs() *Outputs {
	return &Outputs{byLabel: make(map[string]*Output)}
}

func (c *Outputs) add(out *Output) error {
	if _, ok := c.byLabel[out.label]; ok {
		return ErrLabelTaken
	}
	c.items = append(c.items, out)
	c.byLabel[out.label] = out
	return nil
}

func (c *Outputs) remove(label string) {
	out, ok := c.byLabel[label]
	if !ok {
		return
	}
	delete(c.byLabel, label)
	c.items = removeConn(c.items, out)
}

// Get returns the output with the given label, or nil.
func (c *Outputs) Get(label string) *Output { return c.byLabel[label] }

// All returns the outputs in declaration order.
func (c *Outputs) All() []*Output { return append([]*Output(nil), c.items...) }

// Labels returns the output labels in declaration order.
func (c *Outputs) Labels() []string {
	labels := make([]string, len(c.items))
	for i, out := range c.items {
		labels[i] = out.label
	}
	return labels
}

// Len returns the number of outputs.
func (c *Outputs) Len() int { return len(c.items) }

// Values collects the current output values, skipping channels without
// data.
func (c *Outputs) Values() Values {
	vals := make(Values, len(c.items))
	for _, out := range c.items {
		if HasData(out.value) {
			vals[out.label] = out.value
		}
	}
	return vals
}

// Connected reports whether any output has a connection.
func (c *Outputs) Connected() bool {
	for _, out := range c.items {
		if out.Connected() {
			return true
		}
	}
	return false
}
