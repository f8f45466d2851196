package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/pkg/daemon"
	"github.com/grovetools/sessiond/pkg/models"
)

// NewShowCmd creates the `show` command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show details and recent messages for one session",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().Int("messages", 10, "Number of recent messages to print")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		sess, err := client.GetSession(cmd.Context(), args[0])
		if err != nil {
			return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Session:   %s\n", sess.ID)
		fmt.Printf("Project:   %s\n", sess.ProjectPath)
		fmt.Printf("Started:   %s\n", sess.StartTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Last seen: %s\n", relativeTime(sess.LastActivity))
		fmt.Printf("Messages:  %d (%d user, %d assistant, %d tool results)\n",
			sess.MessageCount, sess.UserMessageCount, sess.AssistantMessageCount, sess.ToolResultCount)
		if model := sess.ModelUsed(); model != "" {
			fmt.Printf("Model:     %s\n", model)
		}
		if sess.Usage.InputTokens > 0 || sess.Usage.OutputTokens > 0 {
			fmt.Printf("Tokens:    %d in / %d out\n", sess.Usage.InputTokens, sess.Usage.OutputTokens)
		}
		if sess.MalformedLineCount > 0 {
			fmt.Printf("Warnings:  %d malformed transcript lines skipped\n", sess.MalformedLineCount)
		}
		if len(sess.Summaries) > 0 {
			fmt.Printf("\nSummary:\n")
			for _, s := range sess.Summaries {
				fmt.Printf("  %s\n", s)
			}
		}

		count, _ := cmd.Flags().GetInt("messages")
		msgs := sess.Messages
		if count > 0 && len(msgs) > count {
			msgs = msgs[len(msgs)-count:]
		}
		if len(msgs) > 0 {
			fmt.Printf("\nRecent messages:\n")
			for _, m := range msgs {
				printMessage(m)
			}
		}
		return nil
	}

	return cmd
}

func printMessage(m models.Message) {
	role := string(m.Role)
	ts := ""
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.Format("15:04:05")
	}
	fmt.Printf("  [%s] %s\n", role, ts)

	content := strings.TrimSpace(m.Content)
	if content != "" {
		fmt.Printf("    %s\n", firstLines(content, 3))
	}
	for _, call := range m.ToolCalls {
		target := call.FilePath
		if target == "" {
			target = string(call.Status)
		}
		fmt.Printf("    -> %s %s\n", call.Name, target)
	}
}

// firstLines keeps at most n lines of text for compact terminal output.
func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n    ")
	}
	return strings.Join(lines[:n], "\n    ") + " …"
}
