package models

// TodoStatus is the lifecycle state of a task entry.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// TodoItem is a per-session task entry sourced from the sibling todo file.
type TodoItem struct {
	Content    string     `json:"content"`
	Status     TodoStatus `json:"status"`
	ActiveForm string     `json:"activeForm,omitempty"`
}

// Done reports whether the item needs no further work.
func (t TodoItem) Done() bool {
	return t.Status == TodoCompleted
}
