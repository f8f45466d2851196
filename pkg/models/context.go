package models

import "time"

// SessionContext is the continuation document synthesized for a session.
// Given identical session and todo input, the exported content is identical.
type SessionContext struct {
	SessionID    string    `json:"session_id"`
	ProjectPath  string    `json:"project_path"`
	StartTime    time.Time `json:"start_time"`
	LastActivity time.Time `json:"last_activity"`
	DurationMin  int       `json:"duration_minutes"`

	MessageCount          int `json:"message_count"`
	UserMessageCount      int `json:"user_message_count"`
	AssistantMessageCount int `json:"assistant_message_count"`

	ModelUsed string `json:"model_used,omitempty"`

	Summary        string     `json:"summary"`
	KeyFiles       []string   `json:"key_files,omitempty"`
	PendingTodos   []TodoItem `json:"pending_todos,omitempty"`
	RecentMessages []Message  `json:"recent_messages,omitempty"`

	ResumeCommand string `json:"resume_command,omitempty"`
}
