/* player.go
 * Player and deck records owned by a tournament.
 */

package rules

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// PlayerID identifies a player within a single tournament.
type PlayerID = uuid.UUID

type PlayerStatus string

const (
	PlayerRegistered PlayerStatus = "registered"
	PlayerDropped    PlayerStatus = "dropped"
)

// Deck is a registered deck list. RegisteredAt orders decks for pruning.
type Deck struct {
	Name         string    `json:"name"`
	List         string    `json:"list"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Player is a tournament participant. Guests are ordinary players as far as
// the rules are concerned; the platform mapping lives with the coordinator.
type Player struct {
	ID       PlayerID        `json:"id"`
	Name     string          `json:"name"`
	GamerTag string          `json:"gamer_tag,omitempty"`
	Status   PlayerStatus    `json:"status"`
	Decks    map[string]Deck `json:"decks"`
}

func newPlayer(name string) *Player {
	return &Player{
		ID:     uuid.New(),
		Name:   name,
		Status: PlayerRegistered,
		Decks:  make(map[string]Deck),
	}
}

// Active reports whether the player is still in the tournament.
func (p *Player) Active() bool {
	return p.Status == PlayerRegistered
}

// DecksByAge returns the player's decks oldest first.
func (p *Player) DecksByAge() []Deck {
	decks := make([]Deck, 0, len(p.Decks))
	for _, d := range p.Decks {
		decks = append(decks, d)
	}
	sort.Slice(decks, func(i, j int) bool {
		return decks[i].RegisteredAt.Before(decks[j].RegisteredAt)
	})
	return decks
}
