/* update.go
 * Match update handling: the reconciliation loop routes consumed updates
 * back into the owning coordinator here, under the registry entry lock.
 */

package coordinator

import (
	"context"
	"time"

	"tourney-bot/tourney/rules"
	"tourney-bot/tourney/updates"
)

// ApplyUpdate reacts to one match update for this tournament: creating or
// tearing down round resources, or refreshing the round's summary message.
// A round the rules engine no longer knows is a stale update and is ignored.
func (g *GuildTournament) ApplyUpdate(ctx context.Context, u updates.MatchUpdate) {
	round, err := g.Tourn.GetRound(u.Round)
	if err != nil {
		return
	}
	switch u.Kind {
	case updates.KindNewMatch:
		g.tracker.CreateResources(ctx, g.Tourn, round, g.resourceConfig(), g.PlayerToUser)
	case updates.KindCancelled, updates.KindForceConfirm:
		g.tracker.Teardown(ctx, u.Round)
	default:
		if round.Status == rules.RoundCertified {
			g.tracker.Teardown(ctx, u.Round)
			return
		}
		g.tracker.Refresh(ctx, g.Tourn, round, time.Now())
	}
}
