package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/pkg/daemon"
	"github.com/grovetools/sessiond/pkg/models"
)

// NewListCmd creates the `list` command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed Claude Code sessions",
		Long:  "List sessions ordered by most recent activity. Uses the daemon when running, otherwise scans directly.",
	}

	cmd.Flags().Bool("active", false, "Only show active sessions")
	cmd.Flags().String("project", "", "Filter by project path substring")
	cmd.Flags().Int("limit", 0, "Maximum number of sessions to show")
	cmd.Flags().Int("offset", 0, "Number of sessions to skip")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		client := daemon.New(cfg)
		defer client.Close()

		activeOnly, _ := cmd.Flags().GetBool("active")
		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		page, err := client.ListSessions(cmd.Context(), daemon.ListOptions{
			Offset:     offset,
			Limit:      limit,
			ActiveOnly: activeOnly,
			Project:    project,
		})
		if err != nil {
			return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(page, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(page.Sessions) == 0 {
			fmt.Println("No sessions found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tPROJECT\tLAST ACTIVITY\tMESSAGES\tSTATUS")
		for _, s := range page.Sessions {
			status := ""
			if s.IsActive {
				status = "active"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				shortID(s.ID), s.ProjectPath, relativeTime(s.LastActivity), s.MessageCount, status)
		}
		w.Flush()

		if page.Total > len(page.Sessions) {
			fmt.Printf("\nShowing %d of %d sessions\n", len(page.Sessions), page.Total)
		}
		return nil
	}

	return cmd
}

// shortID trims a UUID to its first segment for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// relativeTime formats a timestamp as a human-friendly age.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// sessionLabel renders a one-line description used by several commands.
func sessionLabel(s *models.Session) string {
	return fmt.Sprintf("%s  %s  (%d messages)", shortID(s.ID), s.ProjectPath, s.MessageCount)
}
