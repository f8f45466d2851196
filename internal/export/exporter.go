// Package export synthesizes continuation documents for sessions. The
// output is a pure function of the session and todo input so repeated
// exports of an unchanged session are byte-identical.
package export

import (
	"fmt"
	"strings"

	"github.com/grovetools/sessiond/pkg/models"
)

const (
	maxKeyFiles       = 20
	maxKeyFilesShown  = 10
	maxSummaryTopics  = 5
	maxExcerptShown   = 5
	topicPreviewRunes = 200
	excerptRunes      = 500
)

// Options bounds the exported context.
type Options struct {
	IncludeFiles   bool
	IncludeTodos   bool
	RecentMessages int
}

// DefaultOptions matches the daemon's export endpoint defaults.
func DefaultOptions() Options {
	return Options{IncludeFiles: true, IncludeTodos: true, RecentMessages: 10}
}

// BuildContext assembles the structured continuation context for a session.
// The todos slice is the session's full todo list; completed items are
// filtered here.
func BuildContext(s *models.Session, todoItems []models.TodoItem, opts Options) models.SessionContext {
	ctx := models.SessionContext{
		SessionID:             s.ID,
		ProjectPath:           s.ProjectPath,
		StartTime:             s.StartTime,
		LastActivity:          s.LastActivity,
		DurationMin:           int(s.Duration().Minutes()),
		MessageCount:          s.MessageCount,
		UserMessageCount:      s.UserMessageCount,
		AssistantMessageCount: s.AssistantMessageCount,
		ModelUsed:             s.ModelUsed(),
		ResumeCommand:         "claude --continue " + s.ID,
	}

	recent := s.Messages
	if opts.RecentMessages > 0 && len(recent) > opts.RecentMessages {
		recent = recent[len(recent)-opts.RecentMessages:]
	}
	ctx.RecentMessages = recent

	ctx.Summary = buildSummary(s, recent)

	if opts.IncludeFiles {
		ctx.KeyFiles = keyFiles(s)
	}
	if opts.IncludeTodos {
		for _, item := range todoItems {
			if !item.Done() {
				ctx.PendingTodos = append(ctx.PendingTodos, item)
			}
		}
	}
	return ctx
}

// buildSummary prefers stored conversation summaries and falls back to a
// digest of recent user messages.
func buildSummary(s *models.Session, recent []models.Message) string {
	if len(s.Summaries) > 0 {
		return strings.Join(s.Summaries, "\n")
	}

	var topics []string
	for _, msg := range recent {
		if msg.Role != models.RoleUser || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		topics = append(topics, truncate(msg.Content, topicPreviewRunes))
	}
	if len(topics) > maxSummaryTopics {
		topics = topics[len(topics)-maxSummaryTopics:]
	}
	if len(topics) > 0 {
		return "Recent topics discussed:\n- " + strings.Join(topics, "\n- ")
	}
	return "No summary available"
}

// keyFiles collects unique file paths touched by tool calls, in first-seen
// order, capped at maxKeyFiles.
func keyFiles(s *models.Session) []string {
	seen := make(map[string]bool)
	var out []string
	for _, msg := range s.Messages {
		for _, call := range msg.ToolCalls {
			if call.FilePath == "" || seen[call.FilePath] {
				continue
			}
			seen[call.FilePath] = true
			out = append(out, call.FilePath)
			if len(out) == maxKeyFiles {
				return out
			}
		}
	}
	return out
}

// Markdown renders the continuation document. Timestamps are printed in
// UTC so the output does not depend on the host timezone.
func Markdown(ctx models.SessionContext) string {
	var b strings.Builder

	b.WriteString("# Session Context Continuation\n\n")
	b.WriteString("## Original Session\n")
	fmt.Fprintf(&b, "- **Session ID**: `%s`\n", ctx.SessionID)
	fmt.Fprintf(&b, "- **Project**: `%s`\n", ctx.ProjectPath)
	fmt.Fprintf(&b, "- **Started**: %s\n", ctx.StartTime.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- **Last Activity**: %s\n", ctx.LastActivity.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- **Messages**: %d (%d user, %d assistant)\n",
		ctx.MessageCount, ctx.UserMessageCount, ctx.AssistantMessageCount)
	if ctx.ModelUsed != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", ctx.ModelUsed)
	}
	b.WriteString("\n")

	b.WriteString("## Session Summary\n")
	b.WriteString(ctx.Summary)
	b.WriteString("\n\n")

	if len(ctx.KeyFiles) > 0 {
		b.WriteString("## Key Files\n")
		files := ctx.KeyFiles
		if len(files) > maxKeyFilesShown {
			files = files[:maxKeyFilesShown]
		}
		for _, f := range files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}

	if len(ctx.PendingTodos) > 0 {
		b.WriteString("## Pending Tasks\n")
		for _, todo := range ctx.PendingTodos {
			icon := "[ ]"
			if todo.Status == models.TodoInProgress {
				icon = "[~]"
			}
			fmt.Fprintf(&b, "- %s %s\n", icon, todo.Content)
		}
		b.WriteString("\n")
	}

	if len(ctx.RecentMessages) > 0 {
		b.WriteString("## Recent Conversation\n")
		msgs := ctx.RecentMessages
		if len(msgs) > maxExcerptShown {
			msgs = msgs[len(msgs)-maxExcerptShown:]
		}
		for _, msg := range msgs {
			role := "Assistant"
			switch msg.Role {
			case models.RoleUser:
				role = "User"
			case models.RoleToolResult:
				role = "Tool"
			}
			fmt.Fprintf(&b, "\n**%s** (%s):\n", role, msg.Timestamp.UTC().Format("15:04"))
			b.WriteString(truncate(msg.Content, excerptRunes))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Continue From Here\n")
	b.WriteString("Please continue working on this session. Review the context above and pick up where we left off.\n")
	if ctx.ResumeCommand != "" {
		fmt.Fprintf(&b, "\nResume with: `%s`\n", ctx.ResumeCommand)
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
