/* reconcile.go
 * The background reconciliation loop: the single consumer of the match
 * update channel, plus the periodic tick that fires round time warnings and
 * tears down resources for rounds that closed without an update landing.
 */

package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/updates"
)

const defaultTickInterval = 30 * time.Second

// Reconciler drives round resources from match updates and wall-clock time.
type Reconciler struct {
	dir     *registry.Directory
	updates *updates.Channel
	logger  *slog.Logger

	// TickInterval overrides the warning/teardown cadence, for tests.
	TickInterval time.Duration
}

func New(dir *registry.Directory, upd *updates.Channel, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		dir:          dir,
		updates:      upd,
		logger:       logger,
		TickInterval: defaultTickInterval,
	}
}

// Run consumes updates and ticks until ctx is cancelled. Returns nil on
// cancellation; only a failed subscription is an error.
func (r *Reconciler) Run(ctx context.Context) error {
	ch, err := r.updates.Subscribe(ctx)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(r.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, u)
		case now := <-ticker.C:
			r.tick(ctx, now)
		}
	}
}

// handle routes one update to its tournament. A tournament that ended while
// the update was in flight is gone from the directory; that is benign.
func (r *Reconciler) handle(ctx context.Context, u updates.MatchUpdate) {
	err := r.dir.With(u.Tournament, func(g *coordinator.GuildTournament) error {
		g.ApplyUpdate(ctx, u)
		return nil
	})
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		r.logger.Error("failed to apply match update",
			slog.String("kind", string(u.Kind)), slog.Any("error", err))
	}
}

// tick advances every live tournament's round tracker.
func (r *Reconciler) tick(ctx context.Context, now time.Time) {
	r.dir.ForEach(func(g *coordinator.GuildTournament) {
		g.Tracker().Tick(ctx, g.Tourn, now)
	})
}
