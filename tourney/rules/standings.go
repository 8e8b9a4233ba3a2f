/* standings.go
 * Standings computation: match points from certified rounds, with opponent
 * match-win percentage as the tie breaker.
 */

package rules

import "sort"

const (
	winPoints  = 3
	drawPoints = 1
)

// Standing is one row of the standings.
type Standing struct {
	Rank           int      `json:"rank"`
	Player         PlayerID `json:"player"`
	Name           string   `json:"name"`
	MatchPoints    int      `json:"match_points"`
	MatchWinPct    float64  `json:"match_win_pct"`
	OppMatchWinPct float64  `json:"opp_match_win_pct"`
}

// Standings ranks active players by match points, breaking ties on opponent
// match-win percentage, then name for a stable order. Only certified rounds
// count.
func (t *Tournament) Standings() []Standing {
	points := make(map[PlayerID]int)
	played := make(map[PlayerID]int)
	for _, r := range t.Rounds {
		if r.Status != RoundCertified {
			continue
		}
		for _, p := range r.Players {
			played[p]++
			if r.Winner == nil {
				points[p] += drawPoints
			} else if *r.Winner == p {
				points[p] += winPoints
			}
		}
	}

	winPct := func(p PlayerID) float64 {
		if played[p] == 0 {
			return 0
		}
		return float64(points[p]) / float64(played[p]*winPoints)
	}

	var rows []Standing
	for _, p := range t.Players {
		if !p.Active() {
			continue
		}
		opps := t.opponents(p.ID)
		oppPct := 0.0
		if len(opps) > 0 {
			sum := 0.0
			for o := range opps {
				sum += winPct(o)
			}
			oppPct = sum / float64(len(opps))
		}
		rows = append(rows, Standing{
			Player:         p.ID,
			Name:           p.Name,
			MatchPoints:    points[p.ID],
			MatchWinPct:    winPct(p.ID),
			OppMatchWinPct: oppPct,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MatchPoints != rows[j].MatchPoints {
			return rows[i].MatchPoints > rows[j].MatchPoints
		}
		if rows[i].OppMatchWinPct != rows[j].OppMatchWinPct {
			return rows[i].OppMatchWinPct > rows[j].OppMatchWinPct
		}
		return rows[i].Name < rows[j].Name
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
