/* ops.go
 * The operation set of the tournament state machine. Every mutation is a
 * TournOp value applied through ApplyOp, which either fully applies the
 * operation and returns typed result data, or returns a typed error and
 * leaves the tournament untouched.
 */

package rules

import (
	"fmt"
	"time"
)

// TournOp is a single atomic mutation of a tournament. The set is closed;
// ApplyOp switches over it exhaustively.
type TournOp interface {
	isTournOp()
}

type (
	// RegisterPlayer adds a player with the given display name.
	RegisterPlayer struct{ Name string }
	// RegisterGuest adds a participant with no platform account.
	RegisterGuest struct{ Name string }
	// AdminRegisterPlayer adds a player even when registration is closed.
	AdminRegisterPlayer struct{ Name string }
	// DropPlayer removes a player from play, recording the drop in their
	// active round if they have one.
	DropPlayer struct{ Player PlayerID }
	// RecordResult records the player's win count in their active round.
	RecordResult struct {
		Player PlayerID
		Wins   int
	}
	// AdminRecordResult records a result in an explicit round.
	AdminRecordResult struct {
		Round  RoundID
		Player PlayerID
		Wins   int
	}
	// ConfirmResult confirms the standing result of the player's active round.
	ConfirmResult struct{ Player PlayerID }
	// AdminConfirmResult confirms on a player's behalf in an explicit round.
	AdminConfirmResult struct {
		Round  RoundID
		Player PlayerID
	}
	// ForceConfirmRound certifies a round regardless of outstanding
	// confirmations.
	ForceConfirmRound struct{ Round RoundID }
	// GiveBye creates a certified bye round for exactly one player.
	GiveBye struct{ Players []PlayerID }
	// CreateRound creates an ad-hoc match between the given players.
	CreateRound struct{ Players []PlayerID }
	// PairRound pairs every unmatched active player into new rounds.
	PairRound struct{}
	// TimeExtension adds time to a round's clock.
	TimeExtension struct {
		Round RoundID
		Ext   time.Duration
	}
	// CancelRound marks a round dead.
	CancelRound struct{ Round RoundID }
	// Cut drops every player ranked below n in the standings.
	Cut struct{ N int }
	// PrunePlayers drops registered players missing the minimum deck count.
	PrunePlayers struct{}
	// PruneDecks removes players' oldest decks down to the maximum count.
	PruneDecks struct{}
	// AddDeck registers a deck for a player.
	AddDeck struct {
		Player PlayerID
		Name   string
		List   string
	}
	// RemoveDeck removes a player's deck by name.
	RemoveDeck struct {
		Player PlayerID
		Name   string
	}
	// SetGamerTag sets a player's in-game name.
	SetGamerTag struct {
		Player PlayerID
		Tag    string
	}
	// UpdateSettings replaces the tournament settings.
	UpdateSettings struct{ Settings Settings }
	// Start opens play; pairing and results become legal.
	Start struct{}
	// Freeze suspends all mutation except Thaw.
	Freeze struct{}
	// Thaw resumes a frozen tournament.
	Thaw struct{}
	// End finishes the tournament normally.
	End struct{}
	// Cancel aborts the tournament.
	Cancel struct{}
)

func (RegisterPlayer) isTournOp()      {}
func (RegisterGuest) isTournOp()       {}
func (AdminRegisterPlayer) isTournOp() {}
func (DropPlayer) isTournOp()          {}
func (RecordResult) isTournOp()        {}
func (AdminRecordResult) isTournOp()   {}
func (ConfirmResult) isTournOp()       {}
func (AdminConfirmResult) isTournOp()  {}
func (ForceConfirmRound) isTournOp()   {}
func (GiveBye) isTournOp()             {}
func (CreateRound) isTournOp()         {}
func (PairRound) isTournOp()           {}
func (TimeExtension) isTournOp()       {}
func (CancelRound) isTournOp()         {}
func (Cut) isTournOp()                 {}
func (PrunePlayers) isTournOp()        {}
func (PruneDecks) isTournOp()          {}
func (AddDeck) isTournOp()             {}
func (RemoveDeck) isTournOp()          {}
func (SetGamerTag) isTournOp()         {}
func (UpdateSettings) isTournOp()      {}
func (Start) isTournOp()               {}
func (Freeze) isTournOp()              {}
func (Thaw) isTournOp()                {}
func (End) isTournOp()                 {}
func (Cancel) isTournOp()              {}

// OpData is the typed result of a successful operation. Callers that know
// which op they applied can assert the concrete variant.
type OpData interface {
	isOpData()
}

type (
	// Nothing is returned by operations with no interesting result.
	Nothing struct{}
	// PlayerData carries the player an operation created or touched.
	PlayerData struct{ Player *Player }
	// RoundData carries a single affected round. Certified reports whether
	// this operation took the round to certified.
	RoundData struct {
		Round     *Round
		Certified bool
	}
	// RoundsData carries the rounds a pairing created.
	RoundsData struct{ Rounds []*Round }
	// CountData carries how many entities an operation affected.
	CountData struct{ Count int }
)

func (Nothing) isOpData()    {}
func (PlayerData) isOpData() {}
func (RoundData) isOpData()  {}
func (RoundsData) isOpData() {}
func (CountData) isOpData()  {}

// ApplyOp applies op to the tournament. On error the tournament state is
// unchanged; every validation happens before any mutation.
func (t *Tournament) ApplyOp(op TournOp) (OpData, error) {
	switch o := op.(type) {
	case RegisterPlayer:
		if !t.Settings.RegOpen {
			return nil, ErrRegClosed
		}
		return t.registerPlayer(o.Name)
	case RegisterGuest:
		return t.registerPlayer(o.Name)
	case AdminRegisterPlayer:
		return t.registerPlayer(o.Name)
	case DropPlayer:
		return t.dropPlayer(o.Player)
	case RecordResult:
		return t.recordActiveResult(o.Player, o.Wins)
	case AdminRecordResult:
		return t.recordRoundResult(o.Round, o.Player, o.Wins)
	case ConfirmResult:
		return t.confirmActiveResult(o.Player)
	case AdminConfirmResult:
		return t.confirmRoundResult(o.Round, o.Player)
	case ForceConfirmRound:
		return t.forceConfirm(o.Round)
	case GiveBye:
		return t.giveBye(o.Players)
	case CreateRound:
		return t.createRound(o.Players)
	case PairRound:
		return t.pairRound()
	case TimeExtension:
		return t.extendTime(o.Round, o.Ext)
	case CancelRound:
		return t.cancelRound(o.Round)
	case Cut:
		return t.cutToTop(o.N)
	case PrunePlayers:
		return t.prunePlayers()
	case PruneDecks:
		return t.pruneDecks()
	case AddDeck:
		return t.addDeck(o.Player, o.Name, o.List)
	case RemoveDeck:
		return t.removeDeck(o.Player, o.Name)
	case SetGamerTag:
		return t.setGamerTag(o.Player, o.Tag)
	case UpdateSettings:
		if !t.mutable() {
			return nil, ErrIncorrectStatus
		}
		t.Settings = o.Settings
		return Nothing{}, nil
	case Start:
		if t.Status != StatusPlanned {
			return nil, ErrIncorrectStatus
		}
		t.Status = StatusStarted
		return Nothing{}, nil
	case Freeze:
		if t.Status != StatusStarted {
			return nil, ErrIncorrectStatus
		}
		t.Status = StatusFrozen
		return Nothing{}, nil
	case Thaw:
		if t.Status != StatusFrozen {
			return nil, ErrIncorrectStatus
		}
		t.Status = StatusStarted
		return Nothing{}, nil
	case End:
		if !t.Live() {
			return nil, ErrIncorrectStatus
		}
		t.Status = StatusEnded
		return Nothing{}, nil
	case Cancel:
		if !t.Live() {
			return nil, ErrIncorrectStatus
		}
		t.Status = StatusCancelled
		return Nothing{}, nil
	default:
		return nil, fmt.Errorf("unknown tournament operation %T", op)
	}
}

func (t *Tournament) registerPlayer(name string) (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	if _, err := t.PlayerByName(name); err == nil {
		return nil, ErrNameTaken
	}
	p := newPlayer(name)
	t.Players[p.ID] = p
	return PlayerData{Player: p}, nil
}

func (t *Tournament) dropPlayer(id PlayerID) (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	p, err := t.GetPlayer(id)
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, ErrPlayerNotFound
	}
	p.Status = PlayerDropped
	if r, err := t.ActiveRoundForPlayer(id); err == nil {
		r.Dropped = append(r.Dropped, id)
		return RoundData{Round: r, Certified: r.recheckCertified()}, nil
	}
	return PlayerData{Player: p}, nil
}

func (t *Tournament) recordActiveResult(player PlayerID, wins int) (OpData, error) {
	r, err := t.playerRound(player)
	if err != nil {
		return nil, err
	}
	r.recordResult(player, wins)
	// Reporting your own result counts as your confirmation of it.
	certified := r.confirm(player)
	return RoundData{Round: r, Certified: certified}, nil
}

func (t *Tournament) recordRoundResult(round RoundID, player PlayerID, wins int) (OpData, error) {
	r, err := t.checkedRound(round, player)
	if err != nil {
		return nil, err
	}
	r.recordResult(player, wins)
	return RoundData{Round: r}, nil
}

func (t *Tournament) confirmActiveResult(player PlayerID) (OpData, error) {
	r, err := t.playerRound(player)
	if err != nil {
		return nil, err
	}
	return t.applyConfirm(r, player)
}

func (t *Tournament) confirmRoundResult(round RoundID, player PlayerID) (OpData, error) {
	r, err := t.checkedRound(round, player)
	if err != nil {
		return nil, err
	}
	return t.applyConfirm(r, player)
}

func (t *Tournament) applyConfirm(r *Round, player PlayerID) (OpData, error) {
	if !r.Active() {
		return nil, ErrRoundClosed
	}
	if r.Status != RoundUncertified {
		return nil, ErrNoResultRecorded
	}
	certified := r.confirm(player)
	return RoundData{Round: r, Certified: certified}, nil
}

func (t *Tournament) forceConfirm(round RoundID) (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	r, err := t.GetRound(round)
	if err != nil {
		return nil, err
	}
	if !r.Active() {
		return nil, ErrRoundClosed
	}
	r.Status = RoundCertified
	return RoundData{Round: r, Certified: true}, nil
}

func (t *Tournament) giveBye(players []PlayerID) (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	if len(players) != 1 {
		return nil, ErrInvalidBye
	}
	p, err := t.GetPlayer(players[0])
	if err != nil {
		return nil, err
	}
	t.RoundCounter++
	r := newRound(t.RoundCounter, []PlayerID{p.ID}, t.Settings.RoundLength)
	r.IsBye = true
	r.Results[p.ID] = 1
	r.Winner = &p.ID
	r.Status = RoundCertified
	t.Rounds[r.ID] = r
	return RoundData{Round: r, Certified: true}, nil
}

func (t *Tournament) createRound(players []PlayerID) (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	if len(players) != t.Settings.MatchSize {
		return nil, ErrIncorrectMatchSize
	}
	for _, id := range players {
		if _, err := t.GetPlayer(id); err != nil {
			return nil, err
		}
	}
	t.RoundCounter++
	r := newRound(t.RoundCounter, players, t.Settings.RoundLength)
	t.Rounds[r.ID] = r
	return RoundData{Round: r}, nil
}

func (t *Tournament) extendTime(round RoundID, ext time.Duration) (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	r, err := t.GetRound(round)
	if err != nil {
		return nil, err
	}
	if !r.Active() {
		return nil, ErrRoundClosed
	}
	r.Extension += ext
	return RoundData{Round: r}, nil
}

func (t *Tournament) cancelRound(round RoundID) (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	r, err := t.GetRound(round)
	if err != nil {
		return nil, err
	}
	if !r.Active() {
		return nil, ErrRoundClosed
	}
	r.kill()
	return RoundData{Round: r}, nil
}

func (t *Tournament) cutToTop(n int) (OpData, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	standings := t.Standings()
	dropped := 0
	for _, s := range standings {
		if s.Rank <= n {
			continue
		}
		if p, err := t.GetPlayer(s.Player); err == nil && p.Active() {
			p.Status = PlayerDropped
			dropped++
		}
	}
	return CountData{Count: dropped}, nil
}

func (t *Tournament) prunePlayers() (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	dropped := 0
	for _, p := range t.Players {
		if p.Active() && t.Settings.MinDeckCount > 0 && len(p.Decks) < t.Settings.MinDeckCount {
			p.Status = PlayerDropped
			dropped++
		}
	}
	return CountData{Count: dropped}, nil
}

func (t *Tournament) pruneDecks() (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	if t.Settings.MaxDeckCount <= 0 {
		return CountData{Count: 0}, nil
	}
	removed := 0
	for _, p := range t.Players {
		over := len(p.Decks) - t.Settings.MaxDeckCount
		if over <= 0 {
			continue
		}
		for _, d := range p.DecksByAge()[:over] {
			delete(p.Decks, d.Name)
			removed++
		}
	}
	return CountData{Count: removed}, nil
}

func (t *Tournament) addDeck(player PlayerID, name, list string) (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	p, err := t.GetPlayer(player)
	if err != nil {
		return nil, err
	}
	if _, exists := p.Decks[name]; !exists && t.Settings.MaxDeckCount > 0 && len(p.Decks) >= t.Settings.MaxDeckCount {
		return nil, ErrDeckCountBounds
	}
	p.Decks[name] = Deck{Name: name, List: list, RegisteredAt: time.Now()}
	return PlayerData{Player: p}, nil
}

func (t *Tournament) removeDeck(player PlayerID, name string) (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	p, err := t.GetPlayer(player)
	if err != nil {
		return nil, err
	}
	if _, ok := p.Decks[name]; !ok {
		return nil, ErrDeckNotFound
	}
	delete(p.Decks, name)
	return PlayerData{Player: p}, nil
}

func (t *Tournament) setGamerTag(player PlayerID, tag string) (OpData, error) {
	if !t.mutable() {
		return nil, ErrIncorrectStatus
	}
	p, err := t.GetPlayer(player)
	if err != nil {
		return nil, err
	}
	p.GamerTag = tag
	return PlayerData{Player: p}, nil
}

// playerRound resolves the player's active round, checking the tournament
// allows result activity first.
func (t *Tournament) playerRound(player PlayerID) (*Round, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	if _, err := t.GetPlayer(player); err != nil {
		return nil, err
	}
	return t.ActiveRoundForPlayer(player)
}

// checkedRound resolves an explicit round and verifies the player is in it.
func (t *Tournament) checkedRound(round RoundID, player PlayerID) (*Round, error) {
	if t.Status != StatusStarted {
		return nil, ErrIncorrectStatus
	}
	r, err := t.GetRound(round)
	if err != nil {
		return nil, err
	}
	if !r.Contains(player) {
		return nil, ErrNotInRound
	}
	if !r.Active() {
		return nil, ErrRoundClosed
	}
	return r, nil
}
