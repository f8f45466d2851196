package scan

import (
	"github.com/grovetools/sessiond/pkg/models"
)

// maxSummaries bounds the summaries kept per session.
const maxSummaries = 3

// callRef locates a tool call inside the session's message slice.
type callRef struct {
	msg  int
	call int
}

// builder folds parsed records into a Session aggregate in file order. It
// keeps the correlation state needed to attach tool results to the calls
// that produced them.
type builder struct {
	session *models.Session
	calls   map[string]callRef
}

func newBuilder(id, projectPath, filePath string) *builder {
	return &builder{
		session: &models.Session{
			ID:          id,
			ProjectPath: projectPath,
			FilePath:    filePath,
		},
		calls: make(map[string]callRef),
	}
}

// apply folds one record into the aggregate. Applying the same ordered record
// sequence always yields the same aggregate.
func (b *builder) apply(rec Record) {
	s := b.session

	switch rec.Kind {
	case KindMalformed:
		s.MalformedLineCount++
		return
	case KindMeta:
		return
	case KindSummary:
		if rec.Summary != "" && len(s.Summaries) < maxSummaries {
			s.Summaries = append(s.Summaries, rec.Summary)
		}
		return
	}

	msg := *rec.Message
	msgIdx := len(s.Messages)
	s.Messages = append(s.Messages, msg)
	s.MessageCount++

	switch msg.Role {
	case models.RoleUser:
		s.UserMessageCount++
	case models.RoleAssistant:
		s.AssistantMessageCount++
	case models.RoleToolResult:
		s.ToolResultCount++
	}

	if !msg.Timestamp.IsZero() {
		if s.StartTime.IsZero() || msg.Timestamp.Before(s.StartTime) {
			s.StartTime = msg.Timestamp
		}
		if msg.Timestamp.After(s.LastActivity) {
			s.LastActivity = msg.Timestamp
		}
	}

	if msg.Model != "" {
		b.trackModel(msg.Model)
	}
	if msg.Usage != nil {
		s.Usage.Add(*msg.Usage)
	}

	for i, call := range s.Messages[msgIdx].ToolCalls {
		if call.ID != "" {
			b.calls[call.ID] = callRef{msg: msgIdx, call: i}
		}
	}

	consumed := false
	for _, ref := range rec.ToolResults {
		if b.attachResult(ref, rec.FileWrite) {
			consumed = true
		}
	}
	if rec.FileWrite != nil && !consumed {
		// File write reported without a correlating tool call earlier in the
		// transcript. Record it as a synthetic call on the current message so
		// the artifact ledger still sees the event.
		msg := &b.session.Messages[msgIdx]
		msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
			Status:    models.ToolStatusOK,
			FilePath:  rec.FileWrite.Path,
			Operation: rec.FileWrite.Operation,
		})
	}
}

// attachResult resolves a tool_result reference against a previously seen
// tool call and updates its status. A toolUseResult file write on the same
// record fills in the call's target path when the parser could not infer it
// from the tool input alone. Returns true when the write was consumed.
func (b *builder) attachResult(ref ToolResultRef, write *FileWrite) bool {
	loc, ok := b.calls[ref.ToolUseID]
	if !ok {
		return false
	}

	call := &b.session.Messages[loc.msg].ToolCalls[loc.call]
	if ref.IsError {
		call.Status = models.ToolStatusError
	} else {
		call.Status = models.ToolStatusOK
	}
	if write == nil {
		return true
	}
	if call.FilePath == "" {
		call.FilePath = write.Path
		call.Operation = write.Operation
	}
	return true
}

func (b *builder) trackModel(model string) {
	for _, seen := range b.session.ModelsUsed {
		if seen == model {
			return
		}
	}
	b.session.ModelsUsed = append(b.session.ModelsUsed, model)
}

// empty reports whether the aggregate carries no conversation data at all.
// Transcripts holding only meta records produce no listable session.
func (b *builder) empty() bool {
	return b.session.MessageCount == 0 && len(b.session.Summaries) == 0
}
