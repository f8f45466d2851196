// Package todos reads the per-session todo lists Claude Code persists
// under ~/.claude/todos/.
package todos

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/pkg/models"
)

// Load returns the todo list for a session, or an empty slice when no
// todo file exists. The agent-suffixed filename is the current layout;
// the bare session ID is the older one and is tried second.
func Load(todosDir, sessionID string) ([]models.TodoItem, error) {
	candidates := []string{
		filepath.Join(todosDir, fmt.Sprintf("%s-agent-%s.json", sessionID, sessionID)),
		filepath.Join(todosDir, sessionID+".json"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.ScanIO(path, err)
		}
		var items []models.TodoItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScanIO, fmt.Sprintf("malformed todo file %s", path))
		}
		return items, nil
	}
	return []models.TodoItem{}, nil
}

// Pending filters a todo list down to items that are not completed.
func Pending(items []models.TodoItem) []models.TodoItem {
	var out []models.TodoItem
	for _, item := range items {
		if !item.Done() {
			out = append(out, item)
		}
	}
	return out
}
