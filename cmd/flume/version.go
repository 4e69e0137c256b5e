package main

import (
	"fmt"
	"strings"

	"github.com/calyptra/flume"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flume",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flume version %s\n", strings.TrimSpace(flume.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
