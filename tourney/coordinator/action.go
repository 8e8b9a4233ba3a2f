/* action.go
 * The closed set of actions a command can take against a tournament.
 * Variants referencing players or rounds carry already-resolved internal
 * ids; identifier resolution happens upstream in the resolver and the
 * command shell. Ids may still be semantically stale (player since dropped)
 * and that surfaces as a reported error, never a panic.
 */

package coordinator

import (
	"time"

	"tourney-bot/tourney/rules"
)

// Action is a single command intent against one tournament.
type Action interface {
	isAction()
}

// Query actions: no mutation, formatted content only.
type (
	ViewPlayers     struct{}
	ViewStandings   struct{}
	ViewStatus      struct{}
	ViewSettings    struct{}
	ExportStandings struct{}
	ViewProfile     struct{ Player rules.PlayerID }
	ViewDecklist    struct {
		Player rules.PlayerID
		Deck   string
	}
	ViewMatchStatus struct{ RoundNumber int }
)

// Confirmable actions: register a pending confirmation, mutate nothing.
type (
	ProposeCut          struct{ N int }
	ProposeEnd          struct{}
	ProposeCancel       struct{}
	ProposePrunePlayers struct{}
	ProposePruneDecks   struct{}
	ProposePair         struct{}
)

// Direct mutating actions.
type (
	Register      struct{}
	AdminRegister struct {
		UserID string
		Name   string
	}
	RegisterGuest struct{ Name string }
	Drop          struct{}
	AdminDrop     struct{ Player rules.PlayerID }
	RecordResult  struct{ Wins int }
	ConfirmResult struct{}
	AdminRecordResult struct {
		RoundNumber int
		Player      rules.PlayerID
		Wins        int
	}
	AdminConfirmResult struct {
		RoundNumber int
		Player      rules.PlayerID
	}
	ForceConfirm  struct{ RoundNumber int }
	GiveBye       struct{ Player rules.PlayerID }
	CreateMatch   struct{ Players []rules.PlayerID }
	TimeExtension struct {
		RoundNumber int
		Ext         time.Duration
	}
	CancelMatch struct{ RoundNumber int }
	AddDeck     struct {
		Name string
		List string
	}
	RemoveDeck  struct{ Name string }
	SetGamerTag struct{ Tag string }
	Start       struct{}
	Freeze      struct{}
	Thaw        struct{}
	UpdateSettings struct{ Settings rules.Settings }
	// RawOp applies an arbitrary rules operation, the admin passthrough.
	RawOp struct{ Op rules.TournOp }
)

func (ViewPlayers) isAction()        {}
func (ViewStandings) isAction()      {}
func (ViewStatus) isAction()         {}
func (ViewSettings) isAction()       {}
func (ExportStandings) isAction()    {}
func (ViewProfile) isAction()        {}
func (ViewDecklist) isAction()       {}
func (ViewMatchStatus) isAction()    {}
func (ProposeCut) isAction()         {}
func (ProposeEnd) isAction()         {}
func (ProposeCancel) isAction()      {}
func (ProposePrunePlayers) isAction() {}
func (ProposePruneDecks) isAction()  {}
func (ProposePair) isAction()        {}
func (Register) isAction()           {}
func (AdminRegister) isAction()      {}
func (RegisterGuest) isAction()      {}
func (Drop) isAction()               {}
func (AdminDrop) isAction()          {}
func (RecordResult) isAction()       {}
func (ConfirmResult) isAction()      {}
func (AdminRecordResult) isAction()  {}
func (AdminConfirmResult) isAction() {}
func (ForceConfirm) isAction()       {}
func (GiveBye) isAction()            {}
func (CreateMatch) isAction()        {}
func (TimeExtension) isAction()      {}
func (CancelMatch) isAction()        {}
func (AddDeck) isAction()            {}
func (RemoveDeck) isAction()         {}
func (SetGamerTag) isAction()        {}
func (Start) isAction()              {}
func (Freeze) isAction()             {}
func (Thaw) isAction()               {}
func (UpdateSettings) isAction()     {}
func (RawOp) isAction()              {}
