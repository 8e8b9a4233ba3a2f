/* coordinator_test.go
 * End-to-end coordinator behavior against the mock session: registration
 * side effects, confirmation-gated destructive actions, and the full
 * report-confirm-certify flow with display refreshes.
 */

package coordinator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney-bot/tourney/confirm"
	"tourney-bot/tourney/platform"
	"tourney-bot/tourney/rules"
	"tourney-bot/tourney/updates"
)

const testGuild = "guild-1"

type fixture struct {
	session  *platform.MockSession
	confirms *confirm.Registry
	updates  *updates.Channel
	incoming <-chan updates.MatchUpdate
	tourn    *GuildTournament
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := platform.NewMockSession()
	confirms := confirm.NewRegistry()
	upd := updates.NewChannel(logger)
	t.Cleanup(func() { upd.Close() })
	deps := Deps{
		Client:   platform.NewClient(session),
		Updates:  upd,
		Confirms: confirms,
		Logger:   logger,
		Settings: func(string) GuildSettings {
			s := DefaultGuildSettings()
			s.PairingsChannelID = "pairings"
			return s
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	incoming, err := upd.Subscribe(ctx)
	require.NoError(t, err)

	settings := rules.DefaultSettings()
	tourn := rules.NewTournament("Friday Showdown", settings)
	return &fixture{
		session:  session,
		confirms: confirms,
		updates:  upd,
		incoming: incoming,
		tourn:    New(testGuild, tourn, deps),
	}
}

// registerUsers registers n users and returns their user ids.
func (f *fixture) registerUsers(t *testing.T, n int) []string {
	t.Helper()
	users := make([]string, 0, n)
	for i := 0; i < n; i++ {
		userID := fmt.Sprintf("user-%d", i)
		name := fmt.Sprintf("Player%d", i)
		_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: userID, DisplayName: name}, Register{})
		require.NoError(t, err)
		users = append(users, userID)
	}
	return users
}

// drain receives exactly n buffered match updates.
func (f *fixture) drain(t *testing.T, n int) []updates.MatchUpdate {
	t.Helper()
	out := make([]updates.MatchUpdate, 0, n)
	for len(out) < n {
		select {
		case u := <-f.incoming:
			out = append(out, u)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for match update %d of %d", len(out)+1, n)
		}
	}
	return out
}

// TestTakeAction_Register registration maps the user to a player and grants
// the lazily created tournament role.
func TestTakeAction_Register(t *testing.T) {
	f := newFixture(t)
	resp, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "u1", DisplayName: "Alice"}, Register{})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Alice")

	player, ok := f.tourn.UserToPlayer["u1"]
	require.True(t, ok)
	assert.Equal(t, "u1", f.tourn.PlayerToUser[player])

	p, err := f.tourn.Tourn.GetPlayer(player)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)

	// Role created and granted.
	require.Len(t, f.session.CreatedRoles, 1)
	assert.Equal(t, "Friday Showdown Player", f.session.CreatedRoles[f.tourn.TournRoleID])
	assert.Contains(t, f.session.MemberRoles[testGuild+"/u1"], f.tourn.TournRoleID)
}

// TestTakeAction_RegisterTwice a second registration by the same user fails
// before touching the rules engine.
func TestTakeAction_RegisterTwice(t *testing.T) {
	f := newFixture(t)
	f.registerUsers(t, 1)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "user-0", DisplayName: "Player0"}, Register{})
	assert.ErrorIs(t, err, rules.ErrAlreadyRegistered)
}

// TestTakeAction_RegisterGuest guests land in the guest mapping, not the
// user mapping, and get no role.
func TestTakeAction_RegisterGuest(t *testing.T) {
	f := newFixture(t)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, RegisterGuest{Name: "Walkin"})
	require.NoError(t, err)
	_, ok := f.tourn.Guests["Walkin"]
	assert.True(t, ok)
	assert.Empty(t, f.tourn.UserToPlayer)
	assert.Empty(t, f.session.CreatedRoles)
}

// TestTakeAction_CutRequiresConfirmation a cut proposal registers a pending
// confirmation carrying the literal count and mutates nothing until
// resolved; an abort leaves the tournament unchanged.
func TestTakeAction_CutRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	f.registerUsers(t, 10)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, Start{})
	require.NoError(t, err)

	resp, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, ProposeCut{N: 8})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "top 8")
	assert.Contains(t, resp.Text, "drop 2 of 10")
	assert.Equal(t, 10, f.tourn.Tourn.ActivePlayerCount())

	pending, ok := f.confirms.Peek("admin")
	require.True(t, ok)
	assert.Equal(t, confirm.CutToTop{N: 8}, pending.Action)

	// Abort: resolve without executing. Nothing pending afterwards.
	_, ok = f.confirms.Resolve("admin")
	require.True(t, ok)
	_, ok = f.confirms.Peek("admin")
	assert.False(t, ok)
	assert.Equal(t, 10, f.tourn.Tourn.ActivePlayerCount())
}

// TestExecuteConfirmed_Cut a confirmed cut drops the players below the line.
func TestExecuteConfirmed_Cut(t *testing.T) {
	f := newFixture(t)
	f.registerUsers(t, 10)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, Start{})
	require.NoError(t, err)

	resp, err := f.tourn.ExecuteConfirmed(context.Background(), confirm.CutToTop{N: 8})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "2 players dropped")
	assert.Equal(t, 8, f.tourn.Tourn.ActivePlayerCount())
}

// TestTakeAction_ReportAndConfirm a full report-confirm cycle: the reporter's
// confirmation is implicit, the opponent's certifies the round, resources
// are torn down and the displays refresh.
func TestTakeAction_ReportAndConfirm(t *testing.T) {
	f := newFixture(t)
	users := f.registerUsers(t, 2)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, Start{})
	require.NoError(t, err)

	resp, err := f.tourn.ExecuteConfirmed(context.Background(), confirm.PairNextRound{})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Paired 1 matches")

	// Route the new-match update through ApplyUpdate as the reconciler would.
	for _, u := range f.drain(t, 1) {
		f.tourn.ApplyUpdate(context.Background(), u)
	}
	require.Len(t, f.tourn.Tracker().Bundles(), 1)

	editsBefore := len(f.session.EditedMessages)

	_, err = f.tourn.TakeAction(context.Background(), Invocation{UserID: users[0]}, RecordResult{Wins: 2})
	require.NoError(t, err)

	resp, err = f.tourn.TakeAction(context.Background(), Invocation{UserID: users[1]}, ConfirmResult{})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "certified")

	rounds := f.tourn.Tourn.ActiveRounds()
	assert.Empty(t, rounds)

	// One update for the report, one for the certifying confirmation; the
	// certification routed through ApplyUpdate removes the bundle.
	for _, u := range f.drain(t, 2) {
		f.tourn.ApplyUpdate(context.Background(), u)
	}
	assert.Empty(t, f.tourn.Tracker().Bundles())

	// Both displays refreshed exactly once on certification.
	assert.Equal(t, editsBefore+2, len(f.session.EditedMessages))
}

// TestTakeAction_Drop dropping revokes the tournament role.
func TestTakeAction_Drop(t *testing.T) {
	f := newFixture(t)
	users := f.registerUsers(t, 2)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: users[0]}, Drop{})
	require.NoError(t, err)
	assert.NotContains(t, f.session.MemberRoles[testGuild+"/"+users[0]], f.tourn.TournRoleID)
	assert.Equal(t, 1, f.tourn.Tourn.ActivePlayerCount())
}

// TestTakeAction_StartCreatesDisplays starting posts the status and
// standings messages in the pairings channel.
func TestTakeAction_StartCreatesDisplays(t *testing.T) {
	f := newFixture(t)
	f.registerUsers(t, 4)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, Start{})
	require.NoError(t, err)
	require.NotNil(t, f.tourn.StatusMsg)
	require.NotNil(t, f.tourn.StandingsMsg)
	assert.Equal(t, "pairings", f.tourn.StatusMsg.ChannelID)
}

// TestExecuteConfirmed_End ending tears down the role and reports success.
func TestExecuteConfirmed_End(t *testing.T) {
	f := newFixture(t)
	f.registerUsers(t, 2)
	_, err := f.tourn.TakeAction(context.Background(), Invocation{UserID: "admin"}, Start{})
	require.NoError(t, err)

	_, err = f.tourn.ExecuteConfirmed(context.Background(), confirm.EndTournament{})
	require.NoError(t, err)
	assert.Equal(t, rules.StatusEnded, f.tourn.Tourn.Status)
	assert.Empty(t, f.tourn.TournRoleID)
	assert.Len(t, f.session.DeletedRoles, 1)
}

// TestSnapshot_RoundTrip a snapshot rebuilds the coordinator with the
// reverse mapping derived.
func TestSnapshot_RoundTrip(t *testing.T) {
	f := newFixture(t)
	users := f.registerUsers(t, 3)

	snap := f.tourn.Snapshot()
	restored := FromSnapshot(snap, f.tourn.deps)

	assert.Equal(t, f.tourn.GuildID, restored.GuildID)
	assert.Equal(t, f.tourn.Tourn.ID, restored.Tourn.ID)
	for _, u := range users {
		player, ok := restored.UserToPlayer[u]
		require.True(t, ok)
		assert.Equal(t, u, restored.PlayerToUser[player])
	}
	assert.Equal(t, f.tourn.TournRoleID, restored.TournRoleID)
}

// TestUserMessage maps domain errors to fixed user text.
func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Registration is closed.", UserMessage(rules.ErrRegClosed))
	assert.Equal(t, "You're already registered.", UserMessage(rules.ErrAlreadyRegistered))
	assert.True(t, strings.HasPrefix(UserMessage(fmt.Errorf("boom")), "Something went wrong"))
}
