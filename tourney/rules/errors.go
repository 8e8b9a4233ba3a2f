/* errors.go
 * Typed errors returned by tournament operations. Handlers match on these with
 * errors.Is to produce user-facing messages, so every failure mode a command can
 * hit needs a sentinel here rather than an ad-hoc fmt.Errorf.
 */

package rules

import "errors"

var (
	// ErrIncorrectStatus indicates the tournament is not in a status that
	// allows the requested operation.
	ErrIncorrectStatus = errors.New("tournament status does not allow this operation")
	// ErrPlayerNotFound indicates the player is not in the tournament.
	ErrPlayerNotFound = errors.New("player not found in tournament")
	// ErrRoundNotFound indicates no round exists with the given id or number.
	ErrRoundNotFound = errors.New("round not found in tournament")
	// ErrDeckNotFound indicates the player has no deck with the given name.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrRegClosed indicates registration is closed.
	ErrRegClosed = errors.New("registration is closed")
	// ErrAlreadyRegistered indicates the player is already registered.
	ErrAlreadyRegistered = errors.New("player is already registered")
	// ErrNameTaken indicates another player already uses the display name.
	ErrNameTaken = errors.New("player name is already taken")
	// ErrInvalidBye indicates a bye was requested for other than one player.
	ErrInvalidBye = errors.New("a bye requires exactly one player")
	// ErrIncorrectMatchSize indicates a created match has the wrong number of players.
	ErrIncorrectMatchSize = errors.New("incorrect number of players for a match")
	// ErrDeckCountBounds indicates the player's deck count would leave the
	// configured min/max range.
	ErrDeckCountBounds = errors.New("deck count outside tournament limits")
	// ErrNoActiveRound indicates the player has no open or uncertified round.
	ErrNoActiveRound = errors.New("player has no active round")
	// ErrNotInRound indicates the player is not part of the given round.
	ErrNotInRound = errors.New("player is not in that round")
	// ErrRoundClosed indicates the round is already certified or dead.
	ErrRoundClosed = errors.New("round is no longer active")
	// ErrNoResultRecorded indicates a confirmation arrived before any result.
	ErrNoResultRecorded = errors.New("no result has been recorded for that round")
)
