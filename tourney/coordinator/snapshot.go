/* snapshot.go
 * Persistence shape of a coordinator. The store serializes Snapshot values;
 * FromSnapshot rebuilds a live coordinator after a restart, including the
 * tracker's bundle state so existing match resources are reused rather than
 * recreated.
 */

package coordinator

import (
	"tourney-bot/tourney/rules"
	"tourney-bot/tourney/tracker"
)

// Snapshot is the serializable state of one GuildTournament.
type Snapshot struct {
	GuildID      string                          `json:"guild_id"`
	Tournament   *rules.Tournament               `json:"tournament"`
	UserToPlayer map[string]rules.PlayerID       `json:"user_to_player"`
	Guests       map[string]rules.PlayerID       `json:"guests"`
	TournRoleID  string                          `json:"tourn_role_id,omitempty"`
	StatusMsg    *MessageRef                     `json:"status_msg,omitempty"`
	StandingsMsg *MessageRef                     `json:"standings_msg,omitempty"`
	Bundles      map[rules.RoundID]*tracker.Bundle `json:"bundles,omitempty"`
}

// Snapshot captures the coordinator's state for persistence.
func (g *GuildTournament) Snapshot() Snapshot {
	return Snapshot{
		GuildID:      g.GuildID,
		Tournament:   g.Tourn,
		UserToPlayer: g.UserToPlayer,
		Guests:       g.Guests,
		TournRoleID:  g.TournRoleID,
		StatusMsg:    g.StatusMsg,
		StandingsMsg: g.StandingsMsg,
		Bundles:      g.tracker.Bundles(),
	}
}

// FromSnapshot rebuilds a coordinator from persisted state. The reverse
// player-to-user mapping is derived rather than stored.
func FromSnapshot(s Snapshot, deps Deps) *GuildTournament {
	g := New(s.GuildID, s.Tournament, deps)
	for userID, player := range s.UserToPlayer {
		g.UserToPlayer[userID] = player
		g.PlayerToUser[player] = userID
	}
	for name, player := range s.Guests {
		g.Guests[name] = player
	}
	g.TournRoleID = s.TournRoleID
	g.StatusMsg = s.StatusMsg
	g.StandingsMsg = s.StandingsMsg
	if len(s.Bundles) > 0 {
		g.tracker.Restore(s.Bundles)
	}
	return g
}
