package main

import (
	"fmt"
	"os"

	presentation "github.com/calyptra/flume/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long:  `Loads the workflow definition and outputs a Mermaid diagram (graph TD) of its nodes, data connections and signal wires.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := newEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing flume: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(presentation.GenerateMermaid(&engine.Workflow().Composite))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
