/* errors.go
 * Mapping from typed domain errors to the text a user sees. The command
 * shell calls UserMessage on any TakeAction error before replying.
 */

package coordinator

import (
	"errors"

	"tourney-bot/tourney/rules"
)

// UserMessage renders an action error as user-facing text. Unknown errors
// get a generic line; the real error is for the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, rules.ErrIncorrectStatus):
		return "The tournament is not in a state that allows that."
	case errors.Is(err, rules.ErrPlayerNotFound):
		return "I couldn't find that player in the tournament."
	case errors.Is(err, rules.ErrRoundNotFound):
		return "I couldn't find that match."
	case errors.Is(err, rules.ErrDeckNotFound):
		return "You don't have a deck by that name."
	case errors.Is(err, rules.ErrRegClosed):
		return "Registration is closed."
	case errors.Is(err, rules.ErrAlreadyRegistered):
		return "You're already registered."
	case errors.Is(err, rules.ErrNameTaken):
		return "That name is already taken."
	case errors.Is(err, rules.ErrInvalidBye):
		return "A bye goes to exactly one active player without a match."
	case errors.Is(err, rules.ErrIncorrectMatchSize):
		return "That's the wrong number of players for a match."
	case errors.Is(err, rules.ErrDeckCountBounds):
		return "That would put you outside the allowed deck count."
	case errors.Is(err, rules.ErrNoActiveRound):
		return "You're not in an active match."
	case errors.Is(err, rules.ErrNotInRound):
		return "That player isn't in that match."
	case errors.Is(err, rules.ErrRoundClosed):
		return "That match is already closed."
	case errors.Is(err, rules.ErrNoResultRecorded):
		return "There's no result to confirm yet."
	}
	return "Something went wrong running that command."
}
