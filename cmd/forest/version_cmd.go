package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	versionMajor = 1
	versionMinor = 0
	versionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of forest",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "forest v%d.%d.%d\n", versionMajor, versionMinor, versionPatch)
		},
	}
}
