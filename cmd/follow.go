package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	sderr "github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/internal/scan"
	"github.com/grovetools/sessiond/pkg/daemon"
	"github.com/grovetools/sessiond/pkg/models"
)

// NewFollowCmd creates the `follow` command.
func NewFollowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow [session-id]",
		Short: "Tail a session's transcript in real time",
		Long:  "Follow a session's transcript as it is written. Without an argument, follows the most recently active session.",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.Flags().Bool("from-start", false, "Print the whole transcript before following")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		sess, err := resolveFollowTarget(cmd, client, args)
		if err != nil {
			return handler.Handle(err)
		}
		if sess.FilePath == "" {
			return handler.Handle(sderr.New(sderr.ErrCodeInternal,
				fmt.Sprintf("no transcript path known for session %s", sess.ID)))
		}

		fmt.Printf("Following %s\n\n", sessionLabel(sess))

		tailCfg := tail.Config{
			Follow: true,
			ReOpen: true,
			Logger: tail.DiscardingLogger,
		}
		if fromStart, _ := cmd.Flags().GetBool("from-start"); !fromStart {
			tailCfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
		}

		t, err := tail.TailFile(sess.FilePath, tailCfg)
		if err != nil {
			return fmt.Errorf("failed to tail transcript: %w", err)
		}
		defer t.Cleanup()

		go func() {
			<-cmd.Context().Done()
			_ = t.Stop()
		}()

		for line := range t.Lines {
			if line.Err != nil {
				return line.Err
			}
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			printRecord(scan.ParseRecord([]byte(text)))
		}
		return nil
	}

	return cmd
}

// resolveFollowTarget picks the session to follow: the given ID, or the
// most recently active session when none was named.
func resolveFollowTarget(cmd *cobra.Command, client daemon.Client, args []string) (*models.Session, error) {
	if len(args) == 1 {
		return client.GetSession(cmd.Context(), args[0])
	}

	page, err := client.ListSessions(cmd.Context(), daemon.ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Sessions) == 0 {
		return nil, sderr.New(sderr.ErrCodeSessionNotFound, "no sessions to follow")
	}
	return page.Sessions[0], nil
}

// printRecord renders one transcript record for the terminal.
func printRecord(rec scan.Record) {
	switch rec.Kind {
	case scan.KindSummary:
		fmt.Printf("--- summary: %s\n", rec.Summary)
	case scan.KindUser, scan.KindAssistant, scan.KindToolResult:
		if rec.Message == nil {
			return
		}
		ts := ""
		if !rec.Timestamp.IsZero() {
			ts = rec.Timestamp.Format("15:04:05 ")
		}
		fmt.Printf("%s[%s]\n", ts, rec.Message.Role)
		if content := strings.TrimSpace(rec.Message.Content); content != "" {
			fmt.Printf("  %s\n", firstLines(content, 6))
		}
		for _, call := range rec.Message.ToolCalls {
			fmt.Printf("  -> %s %s\n", call.Name, call.FilePath)
		}
	case scan.KindMalformed:
		fmt.Println("[unparseable line]")
	}
}
