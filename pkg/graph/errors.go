package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a child or channel label cannot be resolved.
var ErrNotFound = errors.New("not found")

// ErrLabelTaken is returned when a structural mutation would duplicate a
// label within one scope.
var ErrLabelTaken = errors.New("label already taken")

// ErrHasParent is returned when an operation requires an orphan node but the
// node already belongs to a composite.
var ErrHasParent = errors.New("node already has a parent")

// ErrParentmost is returned when assigning a parent to a workflow root.
var ErrParentmost = errors.New("parentmost node cannot receive a parent")

// ErrPullWithExecutor is returned by the pull path when a node in the data
// tree has an executor assigned: pulling must observe intermediate values
// synchronously, so deferred execution in the tree is rejected outright.
var ErrPullWithExecutor = errors.New("pull requires local execution but the data tree contains an executor-backed node")

// InputReadiness is one line of a readiness report.
type InputReadiness struct {
	Label string
	Ready bool
}

// ReadinessError reports a run request on a node that is not ready. The
// caller can fix the inputs and retry.
type ReadinessError struct {
	Label   string
	Running bool
	Failed  bool
	Inputs  []InputReadiness
}

func (e *ReadinessError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s received a run command but is not ready (running=%t, failed=%t)", e.Label, e.Running, e.Failed)
	sb.WriteString("\nINPUTS:")
	for _, in := range e.Inputs {
		fmt.Fprintf(&sb, "\n%s ready: %t", in.Label, in.Ready)
	}
	return sb.String()
}

// CircularDependencyError reports a data tree that is not a DAG. The graph
// is guaranteed untouched when this propagates.
type CircularDependencyError struct {
	// Paths of the nodes participating in (or downstream of) the cycle.
	Nodes []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular data dependency among: %s", strings.Join(e.Nodes, ", "))
}

// ConnectionError reports an invalid channel connection attempt.
type ConnectionError struct {
	From   string
	To     string
	Reason string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect %s to %s: %s", e.From, e.To, e.Reason)
}

// ReplacementError reports a failed child replacement. Whenever it
// propagates the composite has been fully rolled back to its pre-replace
// state, including the candidate's own label and parent.
type ReplacementError struct {
	Composite string
	Old       string
	New       string
	Cause     error
}

func (e *ReplacementError) Error() string {
	return fmt.Sprintf("replacing %q with %q in %s: %v", e.Old, e.New, e.Composite, e.Cause)
}

func (e *ReplacementError) Unwrap() error { return e.Cause }
