package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the workflow and print its outputs",
	Long:  `Loads the workflow definition, applies any --set values to its exposed inputs, runs the graph in dependency order and prints the output record as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := newEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing flume: %v\n", err)
			os.Exit(1)
		}

		sets, _ := cmd.Flags().GetStringArray("set")
		values, err := parseSets(sets)
		if err != nil {
			fmt.Printf("Error parsing inputs: %v\n", err)
			os.Exit(1)
		}
		if len(values) > 0 {
			if err := engine.SetInputValues(values); err != nil {
				fmt.Printf("Error applying inputs: %v\n", err)
				os.Exit(1)
			}
		}

		outputs, err := engine.Run()
		if err != nil {
			fmt.Printf("Run failed: %v\n", err)
			os.Exit(1)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			fmt.Printf("Error encoding outputs: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArray("set", nil, "Preset an exposed input, label=value (repeatable)")
}
