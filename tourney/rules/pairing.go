/* pairing.go
 * Swiss-style pairing: group unmatched active players by standing, then
 * greedily fill matches while avoiding repeat opponents where possible.
 * Players left over when the pool doesn't divide evenly receive byes.
 */

package rules

import "math/rand"

func (t *Tournament) pairRound() (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}

	pool := t.unmatchedPlayers()
	if len(pool) == 0 {
		return RoundsData{}, nil
	}

	size := t.Settings.MatchSize
	if size < 1 {
		size = 2
	}

	ordered := t.orderPool(pool)
	var rounds []*Round
	for len(ordered) >= size {
		match, rest := t.pickMatch(ordered, size)
		ordered = rest
		t.RoundCounter++
		r := newRound(t.RoundCounter, match, t.Settings.RoundLength)
		t.Rounds[r.ID] = r
		rounds = append(rounds, r)
	}

	// Leftovers get byes rather than sitting out the round.
	for _, p := range ordered {
		t.RoundCounter++
		r := newRound(t.RoundCounter, []PlayerID{p}, t.Settings.RoundLength)
		r.IsBye = true
		r.Results[p] = 1
		r.Winner = &r.Players[0]
		r.Status = RoundCertified
		t.Rounds[r.ID] = r
		rounds = append(rounds, r)
	}

	return RoundsData{Rounds: rounds}, nil
}

// unmatchedPlayers returns active players with no active round.
func (t *Tournament) unmatchedPlayers() []PlayerID {
	var pool []PlayerID
	for _, p := range t.Players {
		if !p.Active() {
			continue
		}
		if _, err := t.ActiveRoundForPlayer(p.ID); err == nil {
			continue
		}
		pool = append(pool, p.ID)
	}
	return pool
}

// orderPool orders the pool by standing so players on similar records meet,
// shuffling within before ranking has any signal. The first round is
// effectively random since everyone is tied at zero points.
func (t *Tournament) orderPool(pool []PlayerID) []PlayerID {
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	rank := make(map[PlayerID]int)
	for _, s := range t.Standings() {
		rank[s.Player] = s.Rank
	}
	// Stable-ish selection sort by rank keeps the shuffle as the tie order.
	ordered := make([]PlayerID, 0, len(pool))
	for len(pool) > 0 {
		best := 0
		for i := 1; i < len(pool); i++ {
			if rank[pool[i]] < rank[pool[best]] {
				best = i
			}
		}
		ordered = append(ordered, pool[best])
		pool = append(pool[:best], pool[best+1:]...)
	}
	return ordered
}

// pickMatch takes the head of the pool and fills the match with the nearest
// players it has not faced, falling back to repeats when unavoidable.
func (t *Tournament) pickMatch(pool []PlayerID, size int) (match, rest []PlayerID) {
	head := pool[0]
	rest = pool[1:]
	match = []PlayerID{head}
	faced := t.opponents(head)

	for len(match) < size {
		idx := -1
		for i, cand := range rest {
			if !faced[cand] {
				idx = i
				break
			}
		}
		if idx == -1 {
			idx = 0
		}
		match = append(match, rest[idx])
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	return match, rest
}
