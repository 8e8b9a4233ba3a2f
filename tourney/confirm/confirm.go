/* confirm.go
 * The pending-confirmation registry: destructive admin actions are proposed
 * here and only executed after an explicit yes. One slot per user; proposing
 * again silently replaces the previous entry, and resolving removes the
 * entry atomically so a second yes cannot double-execute.
 */

package confirm

import (
	"sync"
	"time"

	"tourney-bot/tourney/rules"
)

// Action is the closed set of confirmable operations. Matched exhaustively
// by the coordinator when a confirmation resolves.
type Action interface {
	isAction()
}

type (
	// CutToTop drops everyone below rank N.
	CutToTop struct{ N int }
	// EndTournament finishes the tournament and archives it.
	EndTournament struct{}
	// CancelTournament aborts the tournament and archives it.
	CancelTournament struct{}
	// PrunePlayers drops players missing required decks. Count is the number
	// computed at proposal time, for the prompt.
	PrunePlayers struct{ Count int }
	// PruneDecks removes decks over the per-player limit.
	PruneDecks struct{ Count int }
	// PairNextRound pairs all unmatched players.
	PairNextRound struct{}
)

func (CutToTop) isAction()         {}
func (EndTournament) isAction()    {}
func (CancelTournament) isAction() {}
func (PrunePlayers) isAction()     {}
func (PruneDecks) isAction()       {}
func (PairNextRound) isAction()    {}

// Pending is a proposed-but-unexecuted action, bound to the tournament it
// was proposed against.
type Pending struct {
	Tournament rules.TournamentID
	Guild      string
	Action     Action
	ProposedAt time.Time
}

// Registry holds at most one pending confirmation per user.
type Registry struct {
	mu      sync.Mutex
	pending map[string]Pending
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]Pending)}
}

// Propose stores a pending action for the user, replacing any existing one.
func (r *Registry) Propose(userID string, p Pending) {
	if p.ProposedAt.IsZero() {
		p.ProposedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[userID] = p
}

// Resolve removes and returns the user's pending action. The second return
// is false when nothing was pending; callers report "nothing to confirm"
// rather than treating it as an error. Both yes and no consume the entry.
func (r *Registry) Resolve(userID string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[userID]
	if ok {
		delete(r.pending, userID)
	}
	return p, ok
}

// Peek returns the user's pending action without consuming it.
func (r *Registry) Peek(userID string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[userID]
	return p, ok
}
