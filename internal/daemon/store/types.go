package store

// UpdateType defines what kind of change an update announces.
type UpdateType string

const (
	// UpdateSnapshot carries a new *index.Snapshot payload.
	UpdateSnapshot UpdateType = "snapshot"
	// UpdateDiscontinuity announces that one or more transcripts shrank and
	// were rebuilt from scratch. Payload is the affected session IDs.
	UpdateDiscontinuity UpdateType = "discontinuity"
)

// Update is one event published through the store.
type Update struct {
	Type       UpdateType
	Source     string // which collector produced this update
	Generation uint64
	Payload    interface{}
}
