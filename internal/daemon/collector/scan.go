package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/sessiond/internal/daemon/store"
	"github.com/grovetools/sessiond/internal/index"
	"github.com/grovetools/sessiond/internal/scan"
)

// ScanCollector drives the incremental transcript scanner on a fixed
// interval and publishes a fresh index snapshot whenever content changed.
// A nudge channel lets watchers request an early pass without waiting out
// the ticker. Active-session status is not part of the snapshot; it is
// derived per query by the serving layer.
type ScanCollector struct {
	scanner    *scan.Scanner
	interval   time.Duration
	nudge      chan struct{}
	logger     *logrus.Entry
	generation uint64
}

// NewScanCollector creates a ScanCollector over the given Claude directory.
func NewScanCollector(claudeDir string, interval time.Duration, logger *logrus.Entry) *ScanCollector {
	return &ScanCollector{
		scanner:  scan.NewScanner(claudeDir, logger),
		interval: interval,
		nudge:    make(chan struct{}, 1),
		logger:   logger,
	}
}

// Name returns the collector's name.
func (c *ScanCollector) Name() string { return "scan" }

// Nudge requests an early scan pass. It never blocks; a pass already
// pending absorbs the request.
func (c *ScanCollector) Nudge() {
	select {
	case c.nudge <- struct{}{}:
	default:
	}
}

// Run starts the scan loop. The first pass fires immediately so the store
// has data as soon as the daemon is up.
func (c *ScanCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if err := c.pass(ctx, updates); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.pass(ctx, updates); err != nil {
				return err
			}
		case <-c.nudge:
			if err := c.pass(ctx, updates); err != nil {
				return err
			}
		}
	}
}

// pass runs one scan and publishes a snapshot when the session data moved.
// Scan errors other than cancellation are logged and retried on the next
// tick.
func (c *ScanCollector) pass(ctx context.Context, updates chan<- store.Update) error {
	result, err := c.scanner.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		c.logger.WithError(err).Error("Scan pass failed")
		return nil
	}

	if c.generation > 0 && result.Changed == 0 && len(result.Rebuilt) == 0 {
		return nil
	}

	if len(result.Rebuilt) > 0 {
		updates <- store.Update{
			Type:       store.UpdateDiscontinuity,
			Source:     c.Name(),
			Generation: c.generation,
			Payload:    result.Rebuilt,
		}
	}

	c.generation++
	snap := index.Build(c.generation, result.Sessions)

	c.logger.WithFields(logrus.Fields{
		"generation": c.generation,
		"sessions":   snap.Len(),
		"changed":    result.Changed,
		"failed":     result.Failed,
	}).Debug("Publishing snapshot")

	updates <- store.Update{
		Type:       store.UpdateSnapshot,
		Source:     c.Name(),
		Generation: c.generation,
		Payload:    snap,
	}
	return nil
}
