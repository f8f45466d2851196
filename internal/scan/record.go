// Package scan implements the transcript parsing pipeline: it decodes raw
// JSONL records, folds them into session aggregates, and performs incremental
// directory re-scans over the Claude data directory.
package scan

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/grovetools/sessiond/pkg/models"
)

// RecordKind classifies one parsed transcript line.
type RecordKind string

const (
	KindUser       RecordKind = "user"
	KindAssistant  RecordKind = "assistant"
	KindToolResult RecordKind = "tool_result"
	KindSummary    RecordKind = "summary"
	KindMeta       RecordKind = "meta"
	KindMalformed  RecordKind = "malformed"
)

// ToolResultRef correlates a tool_result content block back to the tool call
// that produced it.
type ToolResultRef struct {
	ToolUseID string
	IsError   bool
	Content   string
}

// FileWrite is a file operation reported by a toolUseResult payload.
type FileWrite struct {
	Path      string
	Operation models.FileOperation
}

// Record is the typed result of parsing a single transcript line. A line that
// cannot be decoded yields KindMalformed with a reason; it is never fatal.
type Record struct {
	Kind       RecordKind
	UUID       string
	ParentUUID string
	Timestamp  time.Time
	Summary    string
	Message    *models.Message
	// ToolResults holds correlation references extracted from tool_result
	// blocks so the builder can attach them to earlier tool calls.
	ToolResults []ToolResultRef
	// FileWrite is set when the record's toolUseResult reports a file write.
	FileWrite *FileWrite
	// Reason explains a malformed record. Raw carries the offending line.
	Reason string
	Raw    string
}

type rawUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *rawUsage       `json:"usage"`
}

type rawRecord struct {
	Type          string          `json:"type"`
	UUID          string          `json:"uuid"`
	ParentUUID    string          `json:"parentUuid"`
	Timestamp     string          `json:"timestamp"`
	Summary       string          `json:"summary"`
	Message       *rawMessage     `json:"message"`
	ToolUseResult json.RawMessage `json:"toolUseResult"`
}

type rawBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

type rawToolUseResult struct {
	Type     string `json:"type"`
	FilePath string `json:"filePath"`
}

// ParseRecord decodes one transcript line into a typed Record. It is a pure
// function of the line: unknown fields are ignored, missing optional fields
// are treated as absent, and undecodable lines become KindMalformed.
func ParseRecord(line []byte) Record {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{Kind: KindMalformed, Reason: err.Error(), Raw: string(line)}
	}

	rec := Record{
		UUID:       raw.UUID,
		ParentUUID: raw.ParentUUID,
		Timestamp:  parseTimestamp(raw.Timestamp),
	}

	switch raw.Type {
	case "summary":
		rec.Kind = KindSummary
		rec.Summary = raw.Summary
		return rec
	case "user", "assistant":
		// handled below
	default:
		// system, file-history-snapshot, queued-command, future record types
		rec.Kind = KindMeta
		return rec
	}

	msg := models.Message{
		UUID:       raw.UUID,
		ParentUUID: raw.ParentUUID,
		Timestamp:  rec.Timestamp,
	}

	var results []ToolResultRef
	if raw.Message != nil {
		msg.Model = raw.Message.Model
		if raw.Message.Usage != nil {
			msg.Usage = &models.TokenUsage{
				InputTokens:         raw.Message.Usage.InputTokens,
				OutputTokens:        raw.Message.Usage.OutputTokens,
				CacheCreationTokens: raw.Message.Usage.CacheCreationTokens,
				CacheReadTokens:     raw.Message.Usage.CacheReadTokens,
			}
		}
		results = decodeContent(raw.Message.Content, &msg)
	}

	switch {
	case raw.Type == "assistant":
		rec.Kind = KindAssistant
		msg.Role = models.RoleAssistant
	case len(results) > 0 && msg.Content == "":
		// A user record whose content is only tool_result blocks is the
		// transcript's encoding of a tool result, not a human turn.
		rec.Kind = KindToolResult
		msg.Role = models.RoleToolResult
	default:
		rec.Kind = KindUser
		msg.Role = models.RoleUser
	}

	rec.Message = &msg
	rec.ToolResults = results
	rec.FileWrite = decodeFileWrite(raw.ToolUseResult)
	return rec
}

// decodeContent fills text, thinking and tool calls from a message content
// field, which is either a plain string or a list of typed blocks.
func decodeContent(content json.RawMessage, msg *models.Message) []ToolResultRef {
	if len(content) == 0 {
		return nil
	}

	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		msg.Content = text
		return nil
	}

	var blocks []rawBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil
	}

	var parts []string
	var results []ToolResultRef
	for _, block := range blocks {
		switch block.Type {
		case "text":
			if block.Text != "" {
				parts = append(parts, block.Text)
			}
		case "thinking":
			msg.Thinking = block.Thinking
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, newToolCall(block))
		case "tool_result":
			results = append(results, ToolResultRef{
				ToolUseID: block.ToolUseID,
				IsError:   block.IsError,
				Content:   decodeResultText(block.Content),
			})
		}
	}
	msg.Content = strings.Join(parts, "\n")
	return results
}

// decodeResultText extracts plain text from a tool_result content field,
// which is either a string or a list of text blocks.
func decodeResultText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text
	}
	var blocks []rawBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func newToolCall(block rawBlock) models.ToolCall {
	call := models.ToolCall{
		ID:     block.ID,
		Name:   block.Name,
		Input:  block.Input,
		Status: models.ToolStatusPending,
	}
	if path, op, ok := fileOperation(block.Name, block.Input); ok {
		call.FilePath = path
		call.Operation = op
	}
	return call
}

// fileWriteTools is the allow-list of tools whose semantics are a file write,
// mapped to the input field carrying the target path and the operation kind.
var fileWriteTools = map[string]struct {
	pathField string
	op        models.FileOperation
}{
	"Write":        {"file_path", models.OpCreate},
	"Edit":         {"file_path", models.OpEdit},
	"MultiEdit":    {"file_path", models.OpEdit},
	"NotebookEdit": {"notebook_path", models.OpEdit},
}

// fileOperation resolves the target path and operation kind for recognized
// file-writing tools. Tool calls outside the allow-list are ignored.
func fileOperation(name string, input json.RawMessage) (string, models.FileOperation, bool) {
	spec, ok := fileWriteTools[name]
	if !ok || len(input) == 0 {
		return "", "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err != nil {
		return "", "", false
	}
	rawPath, ok := fields[spec.pathField]
	if !ok {
		return "", "", false
	}
	var path string
	if err := json.Unmarshal(rawPath, &path); err != nil || path == "" {
		return "", "", false
	}
	return path, spec.op, true
}

// decodeFileWrite extracts a file operation from a toolUseResult payload.
// The payload shape varies by tool; anything without a filePath is ignored.
func decodeFileWrite(data json.RawMessage) *FileWrite {
	if len(data) == 0 {
		return nil
	}
	var result rawToolUseResult
	if err := json.Unmarshal(data, &result); err != nil || result.FilePath == "" {
		return nil
	}
	op := models.OpEdit
	if result.Type == "create" {
		op = models.OpCreate
	}
	return &FileWrite{Path: result.FilePath, Operation: op}
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
