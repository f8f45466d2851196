package models

import "time"

// FileType is the coarse classification of an artifact by extension.
type FileType string

const (
	FileTypeCode     FileType = "code"
	FileTypeWeb      FileType = "web"
	FileTypeConfig   FileType = "config"
	FileTypeDocument FileType = "document"
	FileTypeShell    FileType = "shell"
	FileTypeData     FileType = "data"
	FileTypeImage    FileType = "image"
	FileTypeOther    FileType = "other"
)

// Artifact is a file the assistant is inferred to have created or edited,
// derived from tool-call records. It is never stored in the source data.
type Artifact struct {
	FilePath    string        `json:"file_path"`
	FileName    string        `json:"file_name"`
	Type        FileType      `json:"file_type"`
	Operation   FileOperation `json:"operation"`
	SessionID   string        `json:"session_id"`
	MessageUUID string        `json:"message_uuid,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`

	// Exists reflects a filesystem check performed at query time.
	Exists  bool      `json:"exists"`
	ModTime time.Time `json:"mod_time,omitzero"`
	Size    int64     `json:"size_bytes,omitempty"`
}

// ArtifactStats aggregates ledger counts for presentation.
type ArtifactStats struct {
	Total        int              `json:"total_artifacts"`
	ByType       map[FileType]int `json:"by_type"`
	SessionCount int              `json:"sessions_with_artifacts"`
}
