// Package engine orchestrates the daemon's background collectors.
package engine

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/sessiond/internal/daemon/collector"
	"github.com/grovetools/sessiond/internal/daemon/store"
)

// Engine owns the store and runs all registered collectors.
type Engine struct {
	store      *store.Store
	collectors []collector.Collector
	logger     *logrus.Entry
}

// New creates an Engine around the given store.
func New(st *store.Store, logger *logrus.Entry) *Engine {
	return &Engine{
		store:  st,
		logger: logger,
	}
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Start runs all collectors and blocks until the context is canceled.
func (e *Engine) Start(ctx context.Context) {
	updates := make(chan store.Update, 100)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				e.store.ApplyUpdate(u)
			}
		}
	}()

	for _, c := range e.collectors {
		wg.Add(1)
		go func(col collector.Collector) {
			defer wg.Done()
			e.logger.WithField("collector", col.Name()).Info("Starting collector")
			if err := col.Run(ctx, e.store, updates); err != nil {
				e.logger.WithField("collector", col.Name()).WithError(err).Error("Collector failed")
			}
		}(c)
	}

	wg.Wait()
}

// Store returns the engine's snapshot store.
func (e *Engine) Store() *store.Store {
	return e.store
}
