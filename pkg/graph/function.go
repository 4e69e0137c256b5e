package graph

import "fmt"

// Function is the workhorse node kind: explicit port declarations around
// an ordinary Go function. Construction only wires structure; Activate
// (invoked by the owning composite or the top-level factory) performs any
// run-after-activate behavior.
type Function struct {
	nodeCore
}

// ComputeFunc is a Function's computation. It receives a snapshot of the
// input values keyed by input label and returns output values keyed by
// output label.
type ComputeFunc func(in Values) (Values, error)

// PortDef declares one data channel of a Function.
type PortDef func(f *Function) error

// In declares a data input. A nil hint leaves the input unconstrained.
func In(label string, hint *Hint) PortDef {
	return func(f *Function) error {
		if err := validateLabel(label); err != nil {
			return err
		}
		return f.inputs.add(newInput(f, label, hint, NoValue))
	}
}

// InWithDefault declares a data input pre-loaded with a default value.
func InWithDefault(label string, hint *Hint, def any) PortDef {
	return func(f *Function) error {
		if err := validateLabel(label); err != nil {
			return err
		}
		return f.inputs.add(newInput(f, label, hint, def))
	}
}

// Out declares a data output.
func Out(label string, hint *Hint) PortDef {
	return func(f *Function) error {
		if err := validateLabel(label); err != nil {
			return err
		}
		return f.outputs.add(newOutput(f, label, hint))
	}
}

// NewFunction builds a function node with the given ports.
func NewFunction(label string, fn ComputeFunc, defs ...PortDef) (*Function, error) {
	if fn == nil {
		return nil, fmt.Errorf("function node %q needs a compute func", label)
	}
	f := &Function{}
	if err := f.init(f, label, func(in Values) (Values, error) { return fn(in) }); err != nil {
		return nil, err
	}
	for _, def := range defs {
		if err := def(f); err != nil {
			return nil, fmt.Errorf("function node %q: %w", label, err)
		}
	}
	return f, nil
}

// MustFunction is NewFunction for statically correct declarations; it
// panics on a bad definition.
func MustFunction(label string, fn ComputeFunc, defs ...PortDef) *Function {
	f, err := NewFunction(label, fn, defs...)
	if err != nil {
		panic(err)
	}
	return f
}

// SetRunAfterActivate arms an automatic run during Activate. The run
// exits cleanly if the node turns out not to be ready.
func (f *Function) SetRunAfterActivate(run bool) { f.runAfterActivate = run }
