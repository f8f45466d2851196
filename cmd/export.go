package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/pkg/daemon"
)

// NewExportCmd creates the `export` command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session continuation document",
		Long:  "Render a markdown document summarizing a session, suitable for resuming work in a new conversation.",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringP("output", "o", "", "Write the document to a file instead of stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		if cli.GetOptions(cmd).JSONOutput {
			ctx, err := client.GetContext(cmd.Context(), args[0])
			if err != nil {
				return handler.Handle(err)
			}
			data, err := json.MarshalIndent(ctx, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		doc, err := client.ExportMarkdown(cmd.Context(), args[0])
		if err != nil {
			return handler.Handle(err)
		}

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("Wrote %s\n", output)
			return nil
		}
		fmt.Print(doc)
		return nil
	}

	return cmd
}
