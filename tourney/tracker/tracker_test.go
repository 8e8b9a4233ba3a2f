/* tracker_test.go
 * Unit tests for round resource bundles and time warnings.
 */

package tracker

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney-bot/tourney/platform"
	"tourney-bot/tourney/rules"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSetup(t *testing.T) (*Tracker, *platform.MockSession, *rules.Tournament, *rules.Round) {
	t.Helper()
	session := platform.NewMockSession()
	tr := New("guild1", platform.NewClient(session), testLogger())

	tourn := rules.NewTournament("Test Open", rules.DefaultSettings())
	var players []rules.PlayerID
	for _, name := range []string{"Alice", "Bob"} {
		data, err := tourn.ApplyOp(rules.RegisterPlayer{Name: name})
		require.NoError(t, err)
		players = append(players, data.(rules.PlayerData).Player.ID)
	}
	_, err := tourn.ApplyOp(rules.Start{})
	require.NoError(t, err)
	data, err := tourn.ApplyOp(rules.CreateRound{Players: players})
	require.NoError(t, err)
	return tr, session, tourn, data.(rules.RoundData).Round
}

func warningCount(session *platform.MockSession, substr string) int {
	n := 0
	for _, m := range session.SentMessages {
		if strings.Contains(m.Content, substr) {
			n++
		}
	}
	return n
}

// TestCreateResources_BuildsFullBundle creates role, channels and message
func TestCreateResources_BuildsFullBundle(t *testing.T) {
	tr, session, tourn, round := testSetup(t)
	cfg := ResourceConfig{PairingsChannelID: "pairings", CreateVoice: true, CreateText: true}
	uids := map[rules.PlayerID]string{round.Players[0]: "u1", round.Players[1]: "u2"}

	b := tr.CreateResources(context.Background(), tourn, round, cfg, uids)

	assert.NotEmpty(t, b.RoleID)
	assert.NotEmpty(t, b.VoiceChannelID)
	assert.NotEmpty(t, b.TextChannelID)
	assert.NotEmpty(t, b.MessageID)
	assert.Contains(t, session.MemberRoles["guild1/u1"], b.RoleID)
	assert.Contains(t, session.MemberRoles["guild1/u2"], b.RoleID)
}

// TestCreateResources_PartialFailureNotFatal keeps going when the platform
// rejects everything; the round still gets a bundle
func TestCreateResources_PartialFailureNotFatal(t *testing.T) {
	tr, session, tourn, round := testSetup(t)
	session.ErrorToReturn = assert.AnError
	cfg := ResourceConfig{PairingsChannelID: "pairings", CreateVoice: true}

	b := tr.CreateResources(context.Background(), tourn, round, cfg, nil)

	assert.Empty(t, b.RoleID)
	assert.Empty(t, b.VoiceChannelID)
	_, ok := tr.Bundle(round.ID)
	assert.True(t, ok)
}

// TestFireWarnings_OneShot verifies a threshold crossing fires exactly once
// and later ticks above the next threshold stay quiet
func TestFireWarnings_OneShot(t *testing.T) {
	tr, session, tourn, round := testSetup(t)
	cfg := ResourceConfig{PairingsChannelID: "pairings"}
	tr.CreateResources(context.Background(), tourn, round, cfg, nil)
	deadline := round.Deadline()

	// 301s left: nothing yet.
	tr.Tick(context.Background(), tourn, deadline.Add(-301*time.Second))
	assert.Equal(t, 0, warningCount(session, "Five minutes"))

	// 299s left: the five minute warning fires.
	tr.Tick(context.Background(), tourn, deadline.Add(-299*time.Second))
	assert.Equal(t, 1, warningCount(session, "Five minutes"))

	// 250s and 61s left: no re-fire, no one minute warning yet.
	tr.Tick(context.Background(), tourn, deadline.Add(-250*time.Second))
	tr.Tick(context.Background(), tourn, deadline.Add(-61*time.Second))
	assert.Equal(t, 1, warningCount(session, "Five minutes"))
	assert.Equal(t, 0, warningCount(session, "One minute"))

	tr.Tick(context.Background(), tourn, deadline.Add(-59*time.Second))
	assert.Equal(t, 1, warningCount(session, "One minute"))

	tr.Tick(context.Background(), tourn, deadline.Add(time.Second))
	assert.Equal(t, 1, warningCount(session, "Time is up"))
	assert.Equal(t, 1, warningCount(session, "Five minutes"))
	assert.Equal(t, 1, warningCount(session, "One minute"))
}

// TestFireWarnings_BatchCatchUp fires only the latest level when a single
// tick skips thresholds, and marks the earlier levels fired
func TestFireWarnings_BatchCatchUp(t *testing.T) {
	tr, session, tourn, round := testSetup(t)
	cfg := ResourceConfig{PairingsChannelID: "pairings"}
	tr.CreateResources(context.Background(), tourn, round, cfg, nil)

	tr.Tick(context.Background(), tourn, round.Deadline().Add(time.Minute))
	assert.Equal(t, 1, warningCount(session, "Time is up"))
	assert.Equal(t, 0, warningCount(session, "Five minutes"))
	assert.Equal(t, 0, warningCount(session, "One minute"))

	b, ok := tr.Bundle(round.ID)
	require.True(t, ok)
	assert.True(t, b.FiveMinWarned)
	assert.True(t, b.OneMinWarned)
	assert.True(t, b.TimeUpWarned)
}

// TestTick_TearsDownInactiveRounds removes bundles and resources once the
// round is certified
func TestTick_TearsDownInactiveRounds(t *testing.T) {
	tr, session, tourn, round := testSetup(t)
	cfg := ResourceConfig{PairingsChannelID: "pairings", CreateVoice: true, CreateText: true}
	tr.CreateResources(context.Background(), tourn, round, cfg, map[rules.PlayerID]string{})

	_, err := tourn.ApplyOp(rules.ForceConfirmRound{Round: round.ID})
	require.NoError(t, err)

	tr.Tick(context.Background(), tourn, time.Now())

	_, ok := tr.Bundle(round.ID)
	assert.False(t, ok)
	assert.Empty(t, session.CreatedRoles, "match role must be deleted")
	assert.Empty(t, session.CreatedChannels, "match channels must be deleted")
}

// TestTeardown_UnknownRoundIsNoop tolerates rounds that were never tracked
func TestTeardown_UnknownRoundIsNoop(t *testing.T) {
	tr, _, _, _ := testSetup(t)
	tr.Teardown(context.Background(), rules.RoundID{})
}

// TestRefresh_EditsSummaryMessage pushes round state into the notification
// message
func TestRefresh_EditsSummaryMessage(t *testing.T) {
	tr, session, tourn, round := testSetup(t)
	cfg := ResourceConfig{PairingsChannelID: "pairings"}
	tr.CreateResources(context.Background(), tourn, round, cfg, nil)

	_, err := tourn.ApplyOp(rules.RecordResult{Player: round.Players[0], Wins: 2})
	require.NoError(t, err)
	tr.Refresh(context.Background(), tourn, round, time.Now())

	require.NotEmpty(t, session.EditedMessages)
	edit := session.EditedMessages[len(session.EditedMessages)-1]
	require.NotEmpty(t, edit.Embeds)
	found := false
	for _, f := range edit.Embeds[0].Fields {
		if strings.Contains(f.Value, "2 wins") {
			found = true
		}
	}
	assert.True(t, found, "summary embed should show the recorded result")
}
