package graph

import (
	"fmt"
	"sort"
)

// The pull path: derive the closure of upstream data dependencies in the
// local scope, order it topologically, temporarily rewrite the run-signal
// wiring into that linear order and push from the top. Nodes are keyed by
// identity throughout, so user-visible labels are never touched and nested
// pulls cannot collide.

// DataTree returns the closure of nodes reachable by following data-input
// connections backward from start, restricted to start's local scope
// (nodes sharing its parent). start itself is included. Discovery order is
// stable; inside a composite the parent's insertion order breaks ties.
func DataTree(start Node) []Node {
	scope := start.Parent()
	visited := map[*nodeCore]bool{start.core(): true}
	tree := []Node{start}

	queue := []Node{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, in := range node.Inputs().All() {
			for _, out := range in.Connections() {
				owner := out.Owner()
				if scope != nil && owner.core() == scope.core() {
					// The composite's own pass-through channel, not a
					// sibling dependency.
					continue
				}
				if owner.Parent() != scope {
					continue
				}
				if visited[owner.core()] {
					continue
				}
				visited[owner.core()] = true
				tree = append(tree, owner)
				queue = append(queue, owner)
			}
		}
	}

	if scope != nil {
		sort.SliceStable(tree, func(i, j int) bool {
			return scope.childIndex(tree[i].Label()) < scope.childIndex(tree[j].Label())
		})
	}
	return tree
}

// TopologicalOrder produces one valid linear execution order for the given
// nodes under their "must run before" data relations, or fails with a
// CircularDependencyError. The analysis is pure: the graph is never
// mutated, so a failure leaves everything exactly as found.
func TopologicalOrder(tree []Node) ([]Node, error) {
	member := make(map[*nodeCore]bool, len(tree))
	for _, node := range tree {
		member[node.core()] = true
	}

	deps := make(map[*nodeCore][]*nodeCore, len(tree))
	for _, node := range tree {
		for _, in := range node.Inputs().All() {
			for _, out := range in.Connections() {
				up := out.Owner().core()
				if up != node.core() && member[up] {
					deps[node.core()] = append(deps[node.core()], up)
				}
			}
		}
	}

	emitted := make(map[*nodeCore]bool, len(tree))
	order := make([]Node, 0, len(tree))
	for len(order) < len(tree) {
		progressed := false
		for _, node := range tree {
			if emitted[node.core()] {
				continue
			}
			ready := true
			for _, up := range deps[node.core()] {
				if !emitted[up] {
					ready = false
					break
				}
			}
			if ready {
				emitted[node.core()] = true
				order = append(order, node)
				progressed = true
			}
		}
		if !progressed {
			cyclic := &CircularDependencyError{}
			for _, node := range tree {
				if !emitted[node.core()] {
					cyclic.Nodes = append(cyclic.Nodes, node.Path())
				}
			}
			return nil, cyclic
		}
	}
	return order, nil
}

// runDataTree runs every upstream data dependency of the node, optionally
// recursing into parent scopes first. The linear-chain signal rewiring is
// restored unconditionally, whatever happens during the push.
func (n *nodeCore) runDataTree(runParentTrees bool) error {
	if runParentTrees && n.parent != nil {
		if err := n.parent.core().runDataTree(true); err != nil {
			return err
		}
		n.parent.Inputs().Fetch()
		n.parent.pushInputs()
	}

	tree := DataTree(n.self)
	for _, node := range tree {
		if node.Executor() != nil {
			return fmt.Errorf("%s: %w", node.Path(), ErrPullWithExecutor)
		}
	}

	// Pure analysis first: a cycle aborts before anything is rewired.
	order, err := TopologicalOrder(tree)
	if err != nil {
		return err
	}
	if len(order) <= 1 {
		// Nothing upstream to run.
		return nil
	}

	// The closure is derived backward from this node, so it is the unique
	// sink and sits last; the chain covers everything upstream of it.
	chain := order[:len(order)-1]

	// Sever every run-flow edge touching the tree: nothing outside may
	// trigger these nodes mid-pull, and their ran signals must not leak
	// into unrelated downstream consumers.
	var severed []SignalPair
	for _, node := range order {
		severed = append(severed, node.Signals().DisconnectRun()...)
		ran := node.Signals().Ran
		for _, si := range ran.DisconnectAll() {
			severed = append(severed, SignalPair{Output: ran, Input: si})
		}
	}

	var temporary []SignalPair
	for i := 0; i+1 < len(chain); i++ {
		ran := chain[i].Signals().Ran
		run := chain[i+1].Signals().Run
		_ = ran.Connect(run)
		temporary = append(temporary, SignalPair{Output: ran, Input: run})
	}

	defer func() {
		for _, p := range temporary {
			p.Output.Disconnect(p.Input)
		}
		for _, p := range severed {
			_ = p.Input.Connect(p.Output)
		}
	}()

	_, err = chain[0].Run(RunDefaults())
	return err
}
