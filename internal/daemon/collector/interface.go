// Package collector provides the background workers that keep the daemon's
// index current.
package collector

import (
	"context"

	"github.com/grovetools/sessiond/internal/daemon/store"
)

// Collector is a background worker that produces store updates.
type Collector interface {
	// Name returns the collector's name for logging.
	Name() string

	// Run starts the collector and blocks until the context is canceled.
	Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error
}
