/* tournament.go
 * The tournament state machine. All mutation goes through ApplyOp in ops.go;
 * this file holds the core state, lifecycle checks and read-only queries.
 * The struct is not safe for concurrent use on its own; callers serialize
 * access through the registry's per-tournament lock.
 */

package rules

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TournamentID identifies a tournament across the whole bot.
type TournamentID = uuid.UUID

type TournStatus string

const (
	StatusPlanned   TournStatus = "planned"
	StatusStarted   TournStatus = "started"
	StatusFrozen    TournStatus = "frozen"
	StatusEnded     TournStatus = "ended"
	StatusCancelled TournStatus = "cancelled"
)

// Settings are the adjustable knobs of a tournament.
type Settings struct {
	Format       string        `json:"format"`
	MatchSize    int           `json:"match_size"`
	MinDeckCount int           `json:"min_deck_count"`
	MaxDeckCount int           `json:"max_deck_count"`
	RoundLength  time.Duration `json:"round_length"`
	RegOpen      bool          `json:"reg_open"`
	RequireDecks bool          `json:"require_decks"`
}

// DefaultSettings are used when an admin creates a tournament without
// overriding anything.
func DefaultSettings() Settings {
	return Settings{
		Format:       "swiss",
		MatchSize:    2,
		MinDeckCount: 0,
		MaxDeckCount: 1,
		RoundLength:  50 * time.Minute,
		RegOpen:      true,
	}
}

type Tournament struct {
	ID           TournamentID          `json:"id"`
	Name         string                `json:"name"`
	Status       TournStatus           `json:"status"`
	Settings     Settings              `json:"settings"`
	Players      map[PlayerID]*Player  `json:"players"`
	Rounds       map[RoundID]*Round    `json:"rounds"`
	RoundCounter int                   `json:"round_counter"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewTournament creates a planned tournament with the given name and settings.
func NewTournament(name string, settings Settings) *Tournament {
	return &Tournament{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusPlanned,
		Settings:  settings,
		Players:   make(map[PlayerID]*Player),
		Rounds:    make(map[RoundID]*Round),
		CreatedAt: time.Now(),
	}
}

// Live reports whether the tournament can still be operated on.
func (t *Tournament) Live() bool {
	switch t.Status {
	case StatusPlanned, StatusStarted, StatusFrozen:
		return true
	}
	return false
}

func (t *Tournament) mutable() bool {
	return t.Status == StatusPlanned || t.Status == StatusStarted
}

// GetPlayer returns the player with the given id.
func (t *Tournament) GetPlayer(id PlayerID) (*Player, error) {
	p, ok := t.Players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// PlayerByName returns the player with the exact display name,
// case-insensitively.
func (t *Tournament) PlayerByName(name string) (*Player, error) {
	for _, p := range t.Players {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// GetRound returns the round with the given id.
func (t *Tournament) GetRound(id RoundID) (*Round, error) {
	r, ok := t.Rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return r, nil
}

// RoundByNumber returns the round with the given match number.
func (t *Tournament) RoundByNumber(number int) (*Round, error) {
	for _, r := range t.Rounds {
		if r.Number == number {
			return r, nil
		}
	}
	return nil, ErrRoundNotFound
}

// ActiveRoundForPlayer returns the player's current open or uncertified
// round. Players are in at most one active round at a time.
func (t *Tournament) ActiveRoundForPlayer(player PlayerID) (*Round, error) {
	for _, r := range t.Rounds {
		if r.Active() && r.Contains(player) && !r.HasDropped(player) {
			return r, nil
		}
	}
	return nil, ErrNoActiveRound
}

// ActiveRounds returns every open or uncertified round.
func (t *Tournament) ActiveRounds() []*Round {
	var rounds []*Round
	for _, r := range t.Rounds {
		if r.Active() {
			rounds = append(rounds, r)
		}
	}
	return rounds
}

// ActivePlayerCount counts players still registered.
func (t *Tournament) ActivePlayerCount() int {
	n := 0
	for _, p := range t.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

// PrunePlayerCount counts players a prune-players operation would drop:
// registered players missing the minimum deck count.
func (t *Tournament) PrunePlayerCount() int {
	if t.Settings.MinDeckCount <= 0 {
		return 0
	}
	n := 0
	for _, p := range t.Players {
		if p.Active() && len(p.Decks) < t.Settings.MinDeckCount {
			n++
		}
	}
	return n
}

// PruneDeckCount counts decks a prune-decks operation would remove: the
// oldest decks of any player over the maximum deck count.
func (t *Tournament) PruneDeckCount() int {
	if t.Settings.MaxDeckCount <= 0 {
		return 0
	}
	n := 0
	for _, p := range t.Players {
		if over := len(p.Decks) - t.Settings.MaxDeckCount; over > 0 {
			n += over
		}
	}
	return n
}

// opponents returns the set of players this player has already been paired
// against in non-dead rounds.
func (t *Tournament) opponents(player PlayerID) map[PlayerID]bool {
	opps := make(map[PlayerID]bool)
	for _, r := range t.Rounds {
		if r.Status == RoundDead || !r.Contains(player) {
			continue
		}
		for _, p := range r.Players {
			if p != player {
				opps[p] = true
			}
		}
	}
	return opps
}
