// Command forest builds feature datasets, trains bagged tree ensembles on
// them and runs the interactive training menu.
package main

import (
	"os"

	"signal-forest/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose bool
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:   "forest",
		Short: "forest trains bagged tree ensembles on daily stock signals",
		Long:  `A tool to build labelled daily feature sets, train bags of decision or random trees on them, and score the held-out tail`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init("forest", cmd.ErrOrStderr())
			if config.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log debug output to STDERR")
	rootCmd.AddCommand(versionCmd(), buildCmd(config), trainCmd(config), menuCmd(config))
	return rootCmd
}
