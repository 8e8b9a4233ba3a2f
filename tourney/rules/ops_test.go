/* ops_test.go
 * Unit tests for the tournament operation set.
 */

package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedTournament(t *testing.T, names ...string) (*Tournament, map[string]PlayerID) {
	t.Helper()
	tourn := NewTournament("Test Open", DefaultSettings())
	ids := make(map[string]PlayerID)
	for _, name := range names {
		data, err := tourn.ApplyOp(RegisterPlayer{Name: name})
		require.NoError(t, err)
		ids[name] = data.(PlayerData).Player.ID
	}
	_, err := tourn.ApplyOp(Start{})
	require.NoError(t, err)
	return tourn, ids
}

// TestRegisterPlayer_DuplicateName rejects a second registration with the
// same display name
func TestRegisterPlayer_DuplicateName(t *testing.T) {
	tourn := NewTournament("Test Open", DefaultSettings())
	_, err := tourn.ApplyOp(RegisterPlayer{Name: "Alice"})
	require.NoError(t, err)

	_, err = tourn.ApplyOp(RegisterPlayer{Name: "alice"})
	assert.ErrorIs(t, err, ErrNameTaken)
}

// TestRegisterPlayer_RegClosed rejects normal registration when closed but
// allows the admin override
func TestRegisterPlayer_RegClosed(t *testing.T) {
	settings := DefaultSettings()
	settings.RegOpen = false
	tourn := NewTournament("Test Open", settings)

	_, err := tourn.ApplyOp(RegisterPlayer{Name: "Alice"})
	assert.ErrorIs(t, err, ErrRegClosed)

	_, err = tourn.ApplyOp(AdminRegisterPlayer{Name: "Alice"})
	assert.NoError(t, err)
}

// TestRecordAndConfirm_CertifiesRound walks a two player round from result to
// certification; the reporter's result counts as their confirmation
func TestRecordAndConfirm_CertifiesRound(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")
	data, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	require.NoError(t, err)
	round := data.(RoundData).Round

	data, err = tourn.ApplyOp(RecordResult{Player: ids["Alice"], Wins: 2})
	require.NoError(t, err)
	assert.False(t, data.(RoundData).Certified)
	assert.Equal(t, RoundUncertified, round.Status)

	data, err = tourn.ApplyOp(ConfirmResult{Player: ids["Bob"]})
	require.NoError(t, err)
	assert.True(t, data.(RoundData).Certified)
	assert.Equal(t, RoundCertified, round.Status)
	require.NotNil(t, round.Winner)
	assert.Equal(t, ids["Alice"], *round.Winner)
}

// TestConfirm_BeforeResult rejects a confirmation before any result exists
func TestConfirm_BeforeResult(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")
	_, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	require.NoError(t, err)

	_, err = tourn.ApplyOp(ConfirmResult{Player: ids["Bob"]})
	assert.ErrorIs(t, err, ErrNoResultRecorded)
}

// TestRecordResult_ClearsPriorConfirmations makes a changed result require
// re-confirmation from the other player
func TestRecordResult_ClearsPriorConfirmations(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")
	_, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	require.NoError(t, err)

	_, err = tourn.ApplyOp(RecordResult{Player: ids["Alice"], Wins: 2})
	require.NoError(t, err)

	// Bob disputes and records a different result; Alice must confirm again.
	data, err := tourn.ApplyOp(RecordResult{Player: ids["Bob"], Wins: 2})
	require.NoError(t, err)
	assert.False(t, data.(RoundData).Certified)

	data, err = tourn.ApplyOp(ConfirmResult{Player: ids["Alice"]})
	require.NoError(t, err)
	assert.True(t, data.(RoundData).Certified)
}

// TestGiveBye_RequiresExactlyOnePlayer rejects byes for zero or two players
func TestGiveBye_RequiresExactlyOnePlayer(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")

	_, err := tourn.ApplyOp(GiveBye{Players: nil})
	assert.ErrorIs(t, err, ErrInvalidBye)

	_, err = tourn.ApplyOp(GiveBye{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	assert.ErrorIs(t, err, ErrInvalidBye)

	data, err := tourn.ApplyOp(GiveBye{Players: []PlayerID{ids["Alice"]}})
	require.NoError(t, err)
	round := data.(RoundData).Round
	assert.True(t, round.IsBye)
	assert.Equal(t, RoundCertified, round.Status)
}

// TestCreateRound_WrongSize rejects matches that are not the configured size
func TestCreateRound_WrongSize(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob", "Carol")
	_, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"], ids["Carol"]}})
	assert.ErrorIs(t, err, ErrIncorrectMatchSize)
}

// TestDropPlayer_InActiveRound records the drop in the player's round
func TestDropPlayer_InActiveRound(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")
	data, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	require.NoError(t, err)
	round := data.(RoundData).Round

	_, err = tourn.ApplyOp(DropPlayer{Player: ids["Bob"]})
	require.NoError(t, err)
	assert.True(t, round.HasDropped(ids["Bob"]))
	assert.False(t, tourn.Players[ids["Bob"]].Active())

	// With Bob out, Alice's report alone certifies the round.
	data, err = tourn.ApplyOp(RecordResult{Player: ids["Alice"], Wins: 2})
	require.NoError(t, err)
	assert.True(t, data.(RoundData).Certified)
}

// TestDropPlayer_LastUnconfirmedCertifies dropping the only player who had
// not confirmed certifies the round without another confirm
func TestDropPlayer_LastUnconfirmedCertifies(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")
	data, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	require.NoError(t, err)
	round := data.(RoundData).Round

	// Alice reports and is auto-confirmed; Bob is the lone holdout.
	_, err = tourn.ApplyOp(RecordResult{Player: ids["Alice"], Wins: 2})
	require.NoError(t, err)
	require.Equal(t, RoundUncertified, round.Status)

	data, err = tourn.ApplyOp(DropPlayer{Player: ids["Bob"]})
	require.NoError(t, err)
	assert.True(t, data.(RoundData).Certified)
	assert.Equal(t, RoundCertified, round.Status)
}

// TestTimeExtension adds to the round clock
func TestTimeExtension(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob")
	data, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids["Alice"], ids["Bob"]}})
	require.NoError(t, err)
	round := data.(RoundData).Round
	deadline := round.Deadline()

	_, err = tourn.ApplyOp(TimeExtension{Round: round.ID, Ext: 5 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, deadline.Add(5*time.Minute), round.Deadline())
}

// TestCut_DropsBelowRank keeps the top N and drops the rest
func TestCut_DropsBelowRank(t *testing.T) {
	tourn, ids := startedTournament(t, "Alice", "Bob", "Carol", "Dave")
	// Alice beats Bob, Carol beats Dave.
	for _, pair := range [][2]string{{"Alice", "Bob"}, {"Carol", "Dave"}} {
		_, err := tourn.ApplyOp(CreateRound{Players: []PlayerID{ids[pair[0]], ids[pair[1]]}})
		require.NoError(t, err)
		_, err = tourn.ApplyOp(RecordResult{Player: ids[pair[0]], Wins: 2})
		require.NoError(t, err)
		_, err = tourn.ApplyOp(ConfirmResult{Player: ids[pair[1]]})
		require.NoError(t, err)
	}

	data, err := tourn.ApplyOp(Cut{N: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, data.(CountData).Count)
	assert.Equal(t, 2, tourn.ActivePlayerCount())
	assert.True(t, tourn.Players[ids["Alice"]].Active())
	assert.True(t, tourn.Players[ids["Carol"]].Active())
}

// TestPruneDecks_RemovesOldestOverLimit removes oldest decks over the max
func TestPruneDecks_RemovesOldestOverLimit(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxDeckCount = 2
	tourn := NewTournament("Test Open", settings)
	data, err := tourn.ApplyOp(RegisterPlayer{Name: "Alice"})
	require.NoError(t, err)
	alice := data.(PlayerData).Player

	for _, name := range []string{"first", "second"} {
		_, err = tourn.ApplyOp(AddDeck{Player: alice.ID, Name: name, List: "..."})
		require.NoError(t, err)
		// Distinct timestamps so age ordering is deterministic.
		time.Sleep(2 * time.Millisecond)
	}
	_, err = tourn.ApplyOp(AddDeck{Player: alice.ID, Name: "third", List: "..."})
	assert.ErrorIs(t, err, ErrDeckCountBounds)

	// Loosen the limit, add one more, then tighten and prune.
	settings.MaxDeckCount = 3
	_, err = tourn.ApplyOp(UpdateSettings{Settings: settings})
	require.NoError(t, err)
	_, err = tourn.ApplyOp(AddDeck{Player: alice.ID, Name: "third", List: "..."})
	require.NoError(t, err)

	settings.MaxDeckCount = 1
	_, err = tourn.ApplyOp(UpdateSettings{Settings: settings})
	require.NoError(t, err)
	data, err = tourn.ApplyOp(PruneDecks{})
	require.NoError(t, err)
	assert.Equal(t, 2, data.(CountData).Count)
	_, stillThere := alice.Decks["third"]
	assert.True(t, stillThere)
}

// TestPrunePlayers_DropsDeckless drops players under the minimum deck count
func TestPrunePlayers_DropsDeckless(t *testing.T) {
	settings := DefaultSettings()
	settings.MinDeckCount = 1
	tourn := NewTournament("Test Open", settings)
	data, err := tourn.ApplyOp(RegisterPlayer{Name: "Alice"})
	require.NoError(t, err)
	alice := data.(PlayerData).Player
	_, err = tourn.ApplyOp(RegisterPlayer{Name: "Bob"})
	require.NoError(t, err)
	_, err = tourn.ApplyOp(AddDeck{Player: alice.ID, Name: "main", List: "..."})
	require.NoError(t, err)

	assert.Equal(t, 1, tourn.PrunePlayerCount())
	data, err = tourn.ApplyOp(PrunePlayers{})
	require.NoError(t, err)
	assert.Equal(t, 1, data.(CountData).Count)
	assert.True(t, alice.Active())
}

// TestLifecycle_StatusGates verifies status transitions and their guards
func TestLifecycle_StatusGates(t *testing.T) {
	tourn := NewTournament("Test Open", DefaultSettings())

	_, err := tourn.ApplyOp(PairRound{})
	assert.ErrorIs(t, err, ErrIncorrectStatus)

	_, err = tourn.ApplyOp(Start{})
	require.NoError(t, err)
	_, err = tourn.ApplyOp(Start{})
	assert.ErrorIs(t, err, ErrIncorrectStatus)

	_, err = tourn.ApplyOp(Freeze{})
	require.NoError(t, err)
	_, err = tourn.ApplyOp(RegisterPlayer{Name: "Late"})
	assert.ErrorIs(t, err, ErrIncorrectStatus)

	_, err = tourn.ApplyOp(Thaw{})
	require.NoError(t, err)
	_, err = tourn.ApplyOp(End{})
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, tourn.Status)

	_, err = tourn.ApplyOp(Cancel{})
	assert.ErrorIs(t, err, ErrIncorrectStatus)
}
