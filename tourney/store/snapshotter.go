/* snapshotter.go
 * Periodic persistence of the live tournament set. The snapshot function is
 * supplied by the caller so the store stays ignorant of the registry.
 */

package store

import (
	"context"
	"log/slog"
	"time"

	"tourney-bot/tourney/coordinator"
)

// Snapshotter saves the live document on an interval and once more on
// shutdown.
type Snapshotter struct {
	store    *Store
	interval time.Duration
	collect  func() []coordinator.Snapshot
	logger   *slog.Logger
}

func NewSnapshotter(store *Store, interval time.Duration, collect func() []coordinator.Snapshot, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{store: store, interval: interval, collect: collect, logger: logger}
}

// Run saves until ctx is cancelled, then takes a final snapshot.
func (s *Snapshotter) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.save()
			return nil
		case <-ticker.C:
			s.save()
		}
	}
}

func (s *Snapshotter) save() {
	if err := s.store.SaveLive(s.collect()); err != nil {
		s.logger.Error("failed to save tournament snapshots", slog.Any("error", err))
	}
}
