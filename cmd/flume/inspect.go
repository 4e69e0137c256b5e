package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/calyptra/flume/internal/presentation/tui"
	"github.com/calyptra/flume/pkg/graph"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a readiness report for every node",
	Long:  `Loads the workflow definition and reports each node's channels, current values and readiness. Rendered as styled markdown on a terminal, plain markdown otherwise.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := newEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing flume: %v\n", err)
			os.Exit(1)
		}

		report := buildReport(engine.Workflow())

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner()
			render := tui.NewRenderer()
			if styled, err := render(report); err == nil {
				fmt.Print(styled)
				return
			}
		}
		fmt.Print(report)
	},
}

func buildReport(wf *graph.Workflow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Workflow %s\n\n", wf.Label())

	for _, child := range wf.Children() {
		fmt.Fprintf(&sb, "## %s\n\n", child.Label())
		if id := child.PackageIdentifier(); id != "" {
			fmt.Fprintf(&sb, "Package: `%s`\n\n", id)
		}

		sb.WriteString("| Channel | Direction | Type | Value | Ready |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, in := range child.Inputs().All() {
			fmt.Fprintf(&sb, "| %s | input | %s | %s | %v |\n",
				in.Label(), in.Hint(), formatValue(in.Value()), in.Ready())
		}
		for _, out := range child.Outputs().All() {
			fmt.Fprintf(&sb, "| %s | output | %s | %s | |\n",
				out.Label(), out.Hint(), formatValue(out.Value()))
		}
		sb.WriteString("\n")

		if !child.Ready() {
			fmt.Fprintf(&sb, "```\n%s\n```\n\n", child.ReadinessReport())
		}
	}
	return sb.String()
}

func formatValue(v any) string {
	if !graph.HasData(v) {
		return "—"
	}
	return fmt.Sprintf("`%v`", v)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
