package graph

import "fmt"

// Macro is a composite whose internal graph is fixed at construction by a
// builder function and whose IO is a re-mapped projection of its
// children's IO. If the builder leaves the children's signals unwired,
// the execution order is derived from the data dependencies and wired
// permanently.
type Macro struct {
	Composite
}

// MacroBuilder assembles the macro's internal graph.
type MacroBuilder func(m *Macro) error

// MacroOption configures a macro after its graph is built.
type MacroOption func(m *Macro) error

// WithInputsMap installs the macro's input renaming/exposure table.
func WithInputsMap(m PortMap) MacroOption {
	return func(mac *Macro) error { return mac.SetInputsMap(m) }
}

// WithOutputsMap installs the macro's output renaming/exposure table.
func WithOutputsMap(m PortMap) MacroOption {
	return func(mac *Macro) error { return mac.SetOutputsMap(m) }
}

// NewMacro builds the macro by running the builder, then freezes the
// execution strategy: manual if the builder wired any signals or starting
// nodes, otherwise an automatic linear chain over the data dependencies.
func NewMacro(label string, build MacroBuilder, opts ...MacroOption) (*Macro, error) {
	if build == nil {
		return nil, fmt.Errorf("macro %q needs a builder", label)
	}
	m := &Macro{}
	if err := m.initComposite(m, label); err != nil {
		return nil, err
	}
	if err := build(m); err != nil {
		return nil, fmt.Errorf("building macro %q: %w", label, err)
	}

	if len(m.starting) == 0 && !m.childrenSignalsWired() {
		if err := m.automateExecution(); err != nil {
			return nil, fmt.Errorf("macro %q: %w", label, err)
		}
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("macro %q: %w", label, err)
		}
	}
	if err := m.rebuildIO(); err != nil {
		return nil, fmt.Errorf("macro %q: %w", label, err)
	}
	return m, nil
}

func (m *Macro) childrenSignalsWired() bool {
	for _, child := range m.Children() {
		if child.Signals().Connected() {
			return true
		}
	}
	return false
}
