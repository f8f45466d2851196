package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/pkg/daemon"
)

// NewSearchCmd creates the `search` command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search sessions by content, summary or project path",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().Bool("no-thinking", false, "Exclude assistant thinking text from the search")
	cmd.Flags().Int("limit", 0, "Maximum number of matches to show")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		noThinking, _ := cmd.Flags().GetBool("no-thinking")
		limit, _ := cmd.Flags().GetInt("limit")
		query := strings.Join(args, " ")

		result, err := client.Search(cmd.Context(), query, daemon.SearchOptions{
			Limit:           limit,
			ExcludeThinking: noThinking,
		})
		if err != nil {
			return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if result.Total == 0 {
			fmt.Printf("No sessions match %q\n", query)
			return nil
		}

		for _, m := range result.Matches {
			fmt.Println(sessionLabel(m.Session))
			fmt.Printf("    [%s] %s\n", m.Field, m.Excerpt)
		}
		if result.Total > len(result.Matches) {
			fmt.Printf("\nShowing %d of %d matches\n", len(result.Matches), result.Total)
		}
		return nil
	}

	return cmd
}
