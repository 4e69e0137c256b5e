package graph

// Signal channels carry control flow, never data. Emitting a signal output
// invokes the callback of every connected signal input synchronously, in
// connection order; by the time a downstream run is triggered the relevant
// data channels must already hold their values.

// TriggerMode selects when a SignalInput fires its callback.
type TriggerMode int

const (
	// TriggerAny fires the callback on every incoming signal (OR).
	TriggerAny TriggerMode = iota
	// TriggerAll fires only once a signal has arrived from every currently
	// connected source, then resets the accumulation for the next round
	// (AND).
	TriggerAll
)

// SignalInput is a control-flow input. Its callback is supplied by the
// owning node.
type SignalInput struct {
	label       string
	owner       Node
	mode        TriggerMode
	callback    func() error
	connections []*SignalOutput
	received    map[*SignalOutput]bool
}

// SignalOutput is a control-flow output.
type SignalOutput struct {
	label       string
	owner       Node
	connections []*SignalInput
}

func newSignalInput(owner Node, label string, mode TriggerMode, callback func() error) *SignalInput {
	return &SignalInput{
		label:    label,
		owner:    owner,
		mode:     mode,
		callback: callback,
		received: make(map[*SignalOutput]bool),
	}
}

func newSignalOutput(owner Node, label string) *SignalOutput {
	return &SignalOutput{label: label, owner: owner}
}

func (si *SignalInput) Label() string     { return si.label }
func (si *SignalInput) Owner() Node       { return si.owner }
func (si *SignalInput) Mode() TriggerMode { return si.mode }
func (si *SignalInput) Path() string      { return si.owner.Path() + "." + si.label }

// Connect wires this input to a signal output. Repeat connections are
// ignored.
func (si *SignalInput) Connect(so *SignalOutput) error {
	if so == nil {
		return &ConnectionError{From: si.Path(), To: "<nil>", Reason: "no partner channel"}
	}
	if si.connectedTo(so) {
		return nil
	}
	si.connections = append(si.connections, so)
	so.connections = append(so.connections, si)
	return nil
}

// Disconnect severs the connection to so, if present. Any accumulated
// arrival from that source is forgotten.
func (si *SignalInput) Disconnect(so *SignalOutput) bool {
	if !si.connectedTo(so) {
		return false
	}
	si.connections = removeConn(si.connections, so)
	so.connections = removeConn(so.connections, si)
	delete(si.received, so)
	return true
}

// DisconnectAll removes every connection and returns the severed partners.
func (si *SignalInput) DisconnectAll() []*SignalOutput {
	severed := append([]*SignalOutput(nil), si.connections...)
	for _, so := range severed {
		si.Disconnect(so)
	}
	return severed
}

// Connections returns the connected outputs in connection order.
func (si *SignalInput) Connections() []*SignalOutput {
	return append([]*SignalOutput(nil), si.connections...)
}

// Connected reports whether any connection exists.
func (si *SignalInput) Connected() bool { return len(si.connections) > 0 }

// Trigger delivers a signal from the given source (nil for a manual
// trigger, which always fires in TriggerAny fashion).
func (si *SignalInput) Trigger(from *SignalOutput) error {
	if si.mode == TriggerAll && from != nil {
		si.received[from] = true
		for _, so := range si.connections {
			if !si.received[so] {
				return nil
			}
		}
		si.received = make(map[*SignalOutput]bool)
	}
	if si.callback == nil {
		return nil
	}
	return si.callback()
}

func (si *SignalInput) connectedTo(so *SignalOutput) bool {
	for _, c := range si.connections {
		if c == so {
			return true
		}
	}
	return false
}

func (so *SignalOutput) Label() string { return so.label }
func (so *SignalOutput) Owner() Node   { return so.owner }
func (so *SignalOutput) Path() string  { return so.owner.Path() + "." + so.label }

// Connect wires this output to one or more signal inputs.
func (so *SignalOutput) Connect(sis ...*SignalInput) error {
	for _, si := range sis {
		if si == nil {
			return &ConnectionError{From: so.Path(), To: "<nil>", Reason: "no partner channel"}
		}
		if err := si.Connect(so); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect severs the connection to si, if present.
func (so *SignalOutput) Disconnect(si *SignalInput) bool { return si.Disconnect(so) }

// DisconnectAll removes every connection and returns the severed partners.
func (so *SignalOutput) DisconnectAll() []*SignalInput {
	severed := append([]*SignalInput(nil), so.connections...)
	for _, si := range severed {
		si.Disconnect(so)
	}
	return severed
}

// Connections returns the connected inputs in connection order.
func (so *SignalOutput) Connections() []*SignalInput {
	return append([]*SignalInput(nil), so.connections...)
}

// Connected reports whether any connection exists.
func (so *SignalOutput) Connected() bool { return len(so.connections) > 0 }

// Emit fires the signal at every connected input, depth-first in
// connection order. Propagation stops at the first downstream error.
func (so *SignalOutput) Emit() error {
	if hc, ok := so.owner.Root().(hookCarrier); ok {
		if h := hc.runtimeHooks(); h != nil && h.OnSignal != nil {
			h.OnSignal(SignalEvent{From: so.Path(), Fanout: len(so.connections)})
		}
	}
	for _, si := range append([]*SignalInput(nil), so.connections...) {
		if err := si.Trigger(so); err != nil {
			return err
		}
	}
	return nil
}

// Signals bundles the conventional control-flow channels every node
// carries: a "run" input (OR), an "accumulate_and_run" input (AND) and a
// "ran" output fired after a successful run.
type Signals struct {
	Run              *SignalInput
	AccumulateAndRun *SignalInput
	Ran              *SignalOutput
}

func newSignals(owner Node, run func() error) *Signals {
	return &Signals{
		Run:              newSignalInput(owner, "run", TriggerAny, run),
		AccumulateAndRun: newSignalInput(owner, "accumulate_and_run", TriggerAll, run),
		Ran:              newSignalOutput(owner, "ran"),
	}
}

// Connected reports whether any signal channel has a connection.
func (s *Signals) Connected() bool {
	return s.Run.Connected() || s.AccumulateAndRun.Connected() || s.Ran.Connected()
}

// DisconnectRun severs every connection into the run-triggering inputs,
// returning the severed (output, input) pairs in order.
func (s *Signals) DisconnectRun() []SignalPair {
	var pairs []SignalPair
	for _, in := range []*SignalInput{s.Run, s.AccumulateAndRun} {
		for _, so := range in.DisconnectAll() {
			pairs = append(pairs, SignalPair{Output: so, Input: in})
		}
	}
	return pairs
}

// DisconnectAll severs every signal connection on the node.
func (s *Signals) DisconnectAll() []SignalPair {
	pairs := s.DisconnectRun()
	for _, si := range s.Ran.DisconnectAll() {
		pairs = append(pairs, SignalPair{Output: s.Ran, Input: si})
	}
	return pairs
}

// SignalPair is a directed control-flow edge.
type SignalPair struct {
	Output *SignalOutput
	Input  *SignalInput
}
