/*
Package flume is a dataflow graph engine: nodes wrap ordinary functions
behind typed data channels, composites nest graphs inside graphs, and
execution flows either by pulling a node's upstream dependencies or by
pushing run signals along control-flow wires.

# Concept

A graph is built from nodes. Each node declares data inputs and outputs
(optionally constrained by type hints) and carries three control
channels: "run" (fires on any incoming signal), "accumulate_and_run"
(fires once all connected sources have signalled) and "ran" (emitted
after a successful run). Data never travels on signals; by the time a
signal triggers a run, the upstream data channels already hold their
values.

Nodes nest: a Composite owns children and exposes a re-mapped projection
of their unconnected channels as its own IO. A Workflow is the parentmost
composite and derives its execution order from the data topology on
every run.

# Key Features

  - Pull execution: node.Pull runs exactly the node's upstream
    dependency tree in topological order, rejecting cyclic graphs before
    touching any state.
  - Push execution: run signals propagate synchronously along explicit
    control wires, with OR and AND trigger semantics.
  - Executors: a node can defer its computation to a worker pool and
    hand back a future that resolves to the committed result.
  - Transactional structure: replacing a child either fully succeeds or
    restores the prior graph exactly, connections included.
  - Storage: graph state projects to a flat snapshot that round-trips
    through pluggable stores (in-memory, Redis).

# Usage

Build a workflow in code, or load one from a YAML definition:

	package main

	import (
		"fmt"
		"log"

		"github.com/calyptra/flume"
	)

	func main() {
		eng, err := flume.New("./pipeline.yaml")
		if err != nil {
			log.Fatal(err)
		}

		outputs, err := eng.Run()
		if err != nil {
			log.Fatal(err)
		}
		for label, value := range outputs {
			fmt.Println(label, "=", value)
		}
	}

For programmatic construction use pkg/graph directly: NewWorkflow,
NewFunction, NewMacro and the channel Connect methods.
*/
package flume
