// Package graph renders dataflow graphs for human inspection.
package graph

import (
	"fmt"
	"strings"

	flume "github.com/calyptra/flume/pkg/graph"
)

// GenerateMermaid produces a Mermaid flowchart from a composite's
// children. It applies semantic styling:
// - Composite child: [[Subroutine]]
// - Executor-backed node: [/Parallelogram/]
// - Default: [Rectangle]
// Data connections are solid arrows labelled "out -> in"; signal
// connections are dotted. Run state is overlaid as node classes.
func GenerateMermaid(c *flume.Composite) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	children := c.Children()
	scope := make(map[flume.Node]bool, len(children))
	for _, child := range children {
		scope[child] = true
	}

	var failed, running []string
	for _, child := range children {
		safeID := sanitizeMermaidID(child.Label())

		opener, closer := "[", "]"
		switch {
		case isComposite(child):
			opener, closer = "[[", "]]"
		case child.Executor() != nil:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, child.Label(), closer))

		if child.Failed() {
			failed = append(failed, safeID)
		}
		if child.Running() {
			running = append(running, safeID)
		}
	}

	for _, child := range children {
		safeID := sanitizeMermaidID(child.Label())

		for _, out := range child.Outputs().All() {
			for _, in := range out.Connections() {
				if !scope[in.Owner()] {
					// Connections leaving this scope belong to the parent's
					// rendering.
					continue
				}
				label := fmt.Sprintf("%s → %s", out.Label(), in.Label())
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n",
					safeID, escapeMermaidLabel(label), sanitizeMermaidID(in.Owner().Label())))
			}
		}

		for _, si := range child.Signals().Ran.Connections() {
			if !scope[si.Owner()] {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n",
				safeID, escapeMermaidLabel(si.Label()), sanitizeMermaidID(si.Owner().Label())))
		}
	}

	if len(failed) > 0 || len(running) > 0 {
		sb.WriteString("\n    %% Run state\n")
		// Force black text for high contrast regardless of theme.
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef running fill:#fff8e1,stroke:#f57f17,stroke-width:2px,color:#000;\n")
		for _, id := range failed {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", id))
		}
		for _, id := range running {
			sb.WriteString(fmt.Sprintf("    class %s running;\n", id))
		}
	}

	return sb.String()
}

func isComposite(n flume.Node) bool {
	switch n.(type) {
	case *flume.Composite, *flume.Macro, *flume.Workflow:
		return true
	}
	return false
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
