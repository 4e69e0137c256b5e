package main

import (
	"fmt"
	"strings"

	"github.com/calyptra/flume"
	"github.com/calyptra/flume/internal/logging"
	"github.com/calyptra/flume/pkg/graph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newEngine builds an engine from the shared command flags.
func newEngine(cmd *cobra.Command, opts ...flume.Option) (*flume.Engine, error) {
	file, _ := cmd.Flags().GetString("file")
	levelFlag, _ := cmd.Flags().GetString("log-level")

	level, err := logging.ParseLevel(levelFlag)
	if err != nil {
		return nil, err
	}
	opts = append([]flume.Option{flume.WithLogger(logging.New(level))}, opts...)
	return flume.New(file, opts...)
}

// parseSets turns repeated --set label=value flags into channel values.
// Values decode as YAML scalars, so numbers and booleans come out typed.
func parseSets(sets []string) (graph.Values, error) {
	values := make(graph.Values, len(sets))
	for _, s := range sets {
		label, raw, ok := strings.Cut(s, "=")
		if !ok || label == "" {
			return nil, fmt.Errorf("malformed --set %q, want label=value", s)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		values[label] = v
	}
	return values, nil
}
