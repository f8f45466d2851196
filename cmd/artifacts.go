package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/pkg/daemon"
)

// NewArtifactsCmd creates the `artifacts` command.
func NewArtifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List files created or edited by Claude Code sessions",
	}

	cmd.Flags().String("type", "", "Filter by file type (code, web, config, document, shell, data, image, other)")
	cmd.Flags().String("session", "", "Only show artifacts from one session")
	cmd.Flags().String("history", "", "Show the full edit history for one file path")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		fileType, _ := cmd.Flags().GetString("type")
		session, _ := cmd.Flags().GetString("session")
		history, _ := cmd.Flags().GetString("history")

		artifacts, err := client.Artifacts(cmd.Context(), daemon.ArtifactQuery{
			Type:    fileType,
			Session: session,
			Path:    history,
		})
		if err != nil {
			return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(artifacts, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(artifacts) == 0 {
			fmt.Println("No artifacts found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tTYPE\tOP\tSESSION\tWHEN\tEXISTS")
		for _, a := range artifacts {
			exists := "no"
			if a.Exists {
				exists = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				a.FilePath, a.Type, a.Operation, shortID(a.SessionID), relativeTime(a.Timestamp), exists)
		}
		w.Flush()
		return nil
	}

	return cmd
}
