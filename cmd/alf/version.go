package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/texerai/alf/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("alf %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
