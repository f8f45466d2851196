package scan

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/grovetools/sessiond/pkg/models"
	"github.com/grovetools/sessiond/pkg/paths"
	"github.com/sirupsen/logrus"
)

// fileState tracks the incremental parse position for one transcript file.
type fileState struct {
	size    int64
	modTime time.Time
	// offset is the byte position of the next unconsumed record. A trailing
	// line without a newline that fails to parse is left unconsumed and
	// retried on the next pass.
	offset int64
	// pending reports an unconsumed tail left behind by the last pass. If
	// the file does not change before the next pass, the tail was not a
	// mid-append write and is settled as a malformed line.
	pending   bool
	builder   *builder
	published *models.Session
}

// Result is the outcome of one scan pass over the projects directory.
type Result struct {
	// Sessions holds deep copies of every known session, safe to publish in
	// an immutable snapshot.
	Sessions []*models.Session
	// Rebuilt lists session IDs whose source file shrank since the previous
	// pass and were rebuilt from scratch.
	Rebuilt []string
	// Changed counts files that were parsed (fully or incrementally) this pass.
	Changed int
	// Failed counts files skipped due to I/O failures; they are retried on
	// the next pass.
	Failed int
}

// Scanner performs incremental re-scans of the Claude projects directory.
// It only re-parses files whose size or modification time changed since the
// previous pass, and re-reads only the appended byte range when a file grew.
// Scanner is not safe for concurrent use; the daemon drives it from a single
// background loop.
type Scanner struct {
	claudeDir string
	logger    *logrus.Entry
	files     map[string]*fileState
}

// NewScanner creates a Scanner rooted at the given Claude data directory.
func NewScanner(claudeDir string, logger *logrus.Entry) *Scanner {
	return &Scanner{
		claudeDir: claudeDir,
		logger:    logger,
		files:     make(map[string]*fileState),
	}
}

// Scan walks every transcript file under the projects directory and returns
// the full session set. Parsing problems are contained to a single line or a
// single file and never abort the pass; only context cancellation does.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	projectsDir := paths.ProjectsDir(s.claudeDir)
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing recorded yet; an empty result is valid.
			return &Result{}, nil
		}
		return nil, err
	}

	result := &Result{}
	present := make(map[string]bool)
	seenIDs := make(map[string]bool)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projectPath := decodeProjectPath(entry.Name())
		dir := filepath.Join(projectsDir, entry.Name())

		files, err := os.ReadDir(dir)
		if err != nil {
			s.logger.WithError(err).WithField("dir", dir).Warn("Skipping unreadable project directory")
			result.Failed++
			// Keep state for files under this directory so their sessions
			// survive until the directory is readable again.
			prefix := dir + string(filepath.Separator)
			for path := range s.files {
				if strings.HasPrefix(path, prefix) {
					present[path] = true
				}
			}
			continue
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			name := file.Name()
			if file.IsDir() || !strings.HasSuffix(name, ".jsonl") {
				continue
			}
			// Subagent transcripts are not sessions of their own.
			if strings.HasPrefix(name, "agent-") {
				continue
			}

			sessionID := strings.TrimSuffix(name, ".jsonl")
			if seenIDs[sessionID] {
				continue
			}
			seenIDs[sessionID] = true

			path := filepath.Join(dir, name)
			present[path] = true
			s.scanFile(path, sessionID, projectPath, result)
		}
	}

	// Drop state for files that disappeared.
	for path := range s.files {
		if !present[path] {
			delete(s.files, path)
		}
	}

	for _, path := range sortedKeys(s.files) {
		st := s.files[path]
		if st.published != nil {
			result.Sessions = append(result.Sessions, st.published)
		}
	}
	return result, nil
}

// scanFile brings the state for one transcript up to date. I/O failures are
// logged and counted; the previously published session (if any) survives
// until the next successful pass.
func (s *Scanner) scanFile(path, sessionID, projectPath string, result *Result) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.WithError(err).WithField("file", path).Warn("Skipping unreadable transcript")
		result.Failed++
		return
	}

	st := s.files[path]
	unchanged := st != nil && info.Size() == st.size && info.ModTime().Equal(st.modTime)
	if unchanged && !st.pending {
		return
	}

	if st != nil && info.Size() < st.size {
		// The file shrank: truncation or rotation. Rebuild from scratch and
		// surface the discontinuity instead of corrupting counts.
		s.logger.WithFields(logrus.Fields{
			"file":    path,
			"was":     st.size,
			"now":     info.Size(),
			"session": sessionID,
		}).Info("Transcript shrank, rebuilding session")
		result.Rebuilt = append(result.Rebuilt, sessionID)
		st = nil
	}

	if st == nil {
		st = &fileState{builder: newBuilder(sessionID, projectPath, path)}
		s.files[path] = st
	}

	consumed, err := s.parseFrom(path, st, unchanged)
	if err != nil {
		s.logger.WithError(err).WithField("file", path).Warn("Transcript read failed, will retry next pass")
		result.Failed++
		return
	}

	st.offset += consumed
	st.size = info.Size()
	st.modTime = info.ModTime()
	result.Changed++

	if st.builder.empty() {
		st.published = nil
		return
	}
	st.published = st.builder.session.Clone()
}

// parseFrom reads records starting at the state's offset and applies them to
// the builder. It returns the number of bytes consumed as complete records.
// When settle is set the file has not changed since the last pass, so an
// unparseable tail is consumed as malformed instead of being held back.
func (s *Scanner) parseFrom(path string, st *fileState, settle bool) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if st.offset > 0 {
		if _, err := f.Seek(st.offset, io.SeekStart); err != nil {
			return 0, err
		}
	}

	reader := bufio.NewReaderSize(f, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return consumed, err
		}

		complete := err == nil
		trimmed := bytes.TrimSpace(line)

		if complete {
			if len(trimmed) > 0 {
				st.builder.apply(ParseRecord(trimmed))
			}
			consumed += int64(len(line))
			continue
		}

		// Trailing bytes without a newline: either the final record of a
		// finished file or a partial mid-append write. Consume it only if it
		// parses or the file has settled; otherwise leave it for the next pass.
		st.pending = false
		if len(trimmed) > 0 {
			rec := ParseRecord(trimmed)
			switch {
			case rec.Kind != KindMalformed || settle:
				st.builder.apply(rec)
				consumed += int64(len(line))
			default:
				st.pending = true
			}
		} else {
			consumed += int64(len(line))
		}
		return consumed, nil
	}
}

// decodeProjectPath recovers an absolute project path from the flattened
// directory name Claude Code uses (dashes standing in for separators).
func decodeProjectPath(name string) string {
	path := strings.ReplaceAll(name, "-", "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func sortedKeys(m map[string]*fileState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
