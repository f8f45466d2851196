package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/pkg/daemon"
	"github.com/grovetools/sessiond/pkg/models"
)

// NewStatsCmd creates the `stats` command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate session statistics",
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		st, err := client.Stats(cmd.Context())
		if err != nil {
			return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Sessions:  %d (%d active)\n", st.Sessions.TotalSessions, st.Sessions.ActiveSessions)
		fmt.Printf("Messages:  %d\n", st.Sessions.TotalMessages)
		if st.Sessions.TotalTokens > 0 {
			fmt.Printf("Tokens:    %d\n", st.Sessions.TotalTokens)
		}
		if st.Sessions.FirstSessionDate != "" {
			fmt.Printf("Since:     %s\n", st.Sessions.FirstSessionDate)
		}
		source := "derived from transcripts"
		if st.Sessions.FromCache {
			source = "stats cache"
		}
		fmt.Printf("Source:    %s\n", source)

		if len(st.Sessions.ModelUsage) > 0 {
			fmt.Printf("\nModels:\n")
			names := make([]string, 0, len(st.Sessions.ModelUsage))
			for name := range st.Sessions.ModelUsage {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-40s %d\n", name, st.Sessions.ModelUsage[name])
			}
		}

		if st.Artifacts.Total > 0 {
			fmt.Printf("\nArtifacts: %d files across %d sessions\n", st.Artifacts.Total, st.Artifacts.SessionCount)
			types := make([]string, 0, len(st.Artifacts.ByType))
			for t := range st.Artifacts.ByType {
				types = append(types, string(t))
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Printf("  %-10s %d\n", t, st.Artifacts.ByType[models.FileType(t)])
			}
		}
		return nil
	}

	return cmd
}
