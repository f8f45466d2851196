// Package models defines the shared data model for Claude Code sessions,
// messages, tool calls, and derived artifacts.
package models

import (
	"encoding/json"
	"time"
)

// MessageRole identifies the sender of a conversation message.
type MessageRole string

const (
	RoleUser       MessageRole = "user"
	RoleAssistant  MessageRole = "assistant"
	RoleToolResult MessageRole = "tool_result"
)

// ToolStatus tracks the lifecycle of a tool call.
type ToolStatus string

const (
	ToolStatusPending ToolStatus = "pending"
	ToolStatusOK      ToolStatus = "ok"
	ToolStatusError   ToolStatus = "error"
)

// FileOperation describes how a tool call touched a file.
type FileOperation string

const (
	OpCreate FileOperation = "create"
	OpEdit   FileOperation = "edit"
)

// TokenUsage holds per-message or aggregate token counters.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens     int `json:"cache_read_tokens,omitempty"`
}

// Add accumulates another usage record into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}

// ToolCall is a single tool invocation made by the assistant. When the tool
// semantically writes a file, FilePath and Operation are populated.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input,omitempty"`
	Status    ToolStatus      `json:"status"`
	FilePath  string          `json:"file_path,omitempty"`
	Operation FileOperation   `json:"operation,omitempty"`
}

// Message is one conversation message in file order.
type Message struct {
	UUID       string      `json:"uuid"`
	ParentUUID string      `json:"parent_uuid,omitempty"`
	Role       MessageRole `json:"role"`
	Timestamp  time.Time   `json:"timestamp"`
	Content    string      `json:"content"`
	Thinking   string      `json:"thinking,omitempty"`
	Model      string      `json:"model,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	Usage      *TokenUsage `json:"usage,omitempty"`
}

// Session is the aggregate built from one transcript file. Messages are
// strictly ordered by append position in the source file.
type Session struct {
	ID          string `json:"id"`
	ProjectPath string `json:"project_path"`
	FilePath    string `json:"file_path,omitempty"`

	StartTime    time.Time `json:"start_time"`
	LastActivity time.Time `json:"last_activity"`

	Messages  []Message `json:"messages,omitempty"`
	Summaries []string  `json:"summaries,omitempty"`

	MessageCount          int `json:"message_count"`
	UserMessageCount      int `json:"user_message_count"`
	AssistantMessageCount int `json:"assistant_message_count"`
	ToolResultCount       int `json:"tool_result_count"`
	MalformedLineCount    int `json:"malformed_line_count,omitempty"`

	ModelsUsed []string   `json:"models_used,omitempty"`
	Usage      TokenUsage `json:"usage"`

	// IsActive is computed at query time, never persisted as a sticky flag.
	IsActive bool `json:"is_active"`
}

// ModelUsed returns the most recently seen model identifier.
func (s *Session) ModelUsed() string {
	if len(s.ModelsUsed) == 0 {
		return ""
	}
	return s.ModelsUsed[len(s.ModelsUsed)-1]
}

// Duration returns the wall-clock span of the session.
func (s *Session) Duration() time.Duration {
	if s.LastActivity.Before(s.StartTime) {
		return 0
	}
	return s.LastActivity.Sub(s.StartTime)
}

// Clone returns a deep copy of the session. Snapshots published to readers
// are clones so that incremental builders can keep extending their private
// aggregates without mutating shared state.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	for i := range out.Messages {
		m := &out.Messages[i]
		if len(m.ToolCalls) > 0 {
			calls := make([]ToolCall, len(m.ToolCalls))
			copy(calls, m.ToolCalls)
			m.ToolCalls = calls
		}
		if m.Usage != nil {
			usage := *m.Usage
			m.Usage = &usage
		}
	}
	out.Summaries = append([]string(nil), s.Summaries...)
	out.ModelsUsed = append([]string(nil), s.ModelsUsed...)
	return &out
}
