/* round.go
 * Round (match) records owned by a tournament. A round moves open ->
 * uncertified once a result is recorded, and uncertified -> certified once
 * every active player has confirmed. Byes are created certified.
 */

package rules

import (
	"time"

	"github.com/google/uuid"
)

// RoundID identifies a round within a single tournament.
type RoundID = uuid.UUID

type RoundStatus string

const (
	RoundOpen        RoundStatus = "open"
	RoundUncertified RoundStatus = "uncertified"
	RoundCertified   RoundStatus = "certified"
	RoundDead        RoundStatus = "dead"
)

type Round struct {
	ID            RoundID            `json:"id"`
	Number        int                `json:"number"`
	Players       []PlayerID         `json:"players"`
	Status        RoundStatus        `json:"status"`
	Results       map[PlayerID]int   `json:"results"`
	Draws         int                `json:"draws"`
	Confirmations map[PlayerID]bool  `json:"confirmations"`
	Winner        *PlayerID          `json:"winner,omitempty"`
	Dropped       []PlayerID         `json:"dropped,omitempty"`
	IsBye         bool               `json:"is_bye"`
	StartedAt     time.Time          `json:"started_at"`
	Length        time.Duration      `json:"length"`
	Extension     time.Duration      `json:"extension"`
}

func newRound(number int, players []PlayerID, length time.Duration) *Round {
	return &Round{
		ID:            uuid.New(),
		Number:        number,
		Players:       players,
		Status:        RoundOpen,
		Results:       make(map[PlayerID]int),
		Confirmations: make(map[PlayerID]bool),
		StartedAt:     time.Now(),
		Length:        length,
	}
}

// Active reports whether the round still needs results or confirmations.
func (r *Round) Active() bool {
	return r.Status == RoundOpen || r.Status == RoundUncertified
}

// Deadline is the instant the round's clock runs out, extensions included.
func (r *Round) Deadline() time.Time {
	return r.StartedAt.Add(r.Length + r.Extension)
}

// TimeLeft reports the remaining round time at now. Negative once expired.
func (r *Round) TimeLeft(now time.Time) time.Duration {
	return r.Deadline().Sub(now)
}

// Contains reports whether the player was paired into this round.
func (r *Round) Contains(player PlayerID) bool {
	for _, p := range r.Players {
		if p == player {
			return true
		}
	}
	return false
}

// HasDropped reports whether the player dropped mid-round.
func (r *Round) HasDropped(player PlayerID) bool {
	for _, p := range r.Dropped {
		if p == player {
			return true
		}
	}
	return false
}

// recordResult stores a win count for player and reopens confirmations.
// Changing a result invalidates everyone's prior confirmation.
func (r *Round) recordResult(player PlayerID, wins int) {
	r.Results[player] = wins
	r.Confirmations = make(map[PlayerID]bool)
	r.Status = RoundUncertified
	r.updateWinner()
}

// confirm marks the player's confirmation and certifies the round when every
// active player has confirmed. Returns true when the round became certified
// by this call.
func (r *Round) confirm(player PlayerID) bool {
	r.Confirmations[player] = true
	for _, p := range r.Players {
		if r.HasDropped(p) {
			continue
		}
		if !r.Confirmations[p] {
			return false
		}
	}
	r.Status = RoundCertified
	return true
}

// recheckCertified re-runs the certification scan without adding a
// confirmation. A drop can leave every remaining player confirmed, and the
// round must certify then rather than wait for a redundant confirm.
func (r *Round) recheckCertified() bool {
	if r.Status != RoundUncertified {
		return false
	}
	for _, p := range r.Players {
		if r.HasDropped(p) {
			continue
		}
		if !r.Confirmations[p] {
			return false
		}
	}
	r.Status = RoundCertified
	return true
}

func (r *Round) updateWinner() {
	var best *PlayerID
	bestWins := 0
	tied := false
	for _, p := range r.Players {
		wins := r.Results[p]
		if wins > bestWins {
			id := p
			best = &id
			bestWins = wins
			tied = false
		} else if wins == bestWins && wins > 0 {
			tied = true
		}
	}
	if tied {
		r.Winner = nil
		return
	}
	r.Winner = best
}

// kill marks the round dead, discarding any recorded results.
func (r *Round) kill() {
	r.Status = RoundDead
	r.Winner = nil
}
