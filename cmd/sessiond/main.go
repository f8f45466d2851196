package main

import (
	"os"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"sessiond",
		"Index, search and export Claude Code sessions",
	)
	rootCmd.Long = `sessiond keeps a queryable index of Claude Code session transcripts.
Run the daemon for a continuously updated index served over a unix socket,
or use the commands directly for one-shot scans of the same data.`

	rootCmd.AddCommand(cmd.NewDaemonCmd())
	rootCmd.AddCommand(cmd.NewListCmd())
	rootCmd.AddCommand(cmd.NewSearchCmd())
	rootCmd.AddCommand(cmd.NewShowCmd())
	rootCmd.AddCommand(cmd.NewExportCmd())
	rootCmd.AddCommand(cmd.NewArtifactsCmd())
	rootCmd.AddCommand(cmd.NewStatsCmd())
	rootCmd.AddCommand(cmd.NewFollowCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	cli.ApplyHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
