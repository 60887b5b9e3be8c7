package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/beacon/internal/source"
)

var version = "dev"

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available signal sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(source.Providers())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the beacon version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("beacon", version)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd, versionCmd)
}
