/* store_test.go
 * Persistence round trips over a temp directory, including the
 * missing-file-is-empty behavior and archive appends.
 */

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/rules"
)

func testSnapshot(guildID, name string) coordinator.Snapshot {
	tourn := rules.NewTournament(name, rules.DefaultSettings())
	return coordinator.Snapshot{
		GuildID:      guildID,
		Tournament:   tourn,
		UserToPlayer: map[string]rules.PlayerID{},
		Guests:       map[string]rules.PlayerID{},
	}
}

// TestStore_EmptyLoads a fresh directory loads as empty, not as an error.
func TestStore_EmptyLoads(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	live, err := s.LoadLive()
	require.NoError(t, err)
	assert.Empty(t, live)

	closed, err := s.LoadArchive()
	require.NoError(t, err)
	assert.Empty(t, closed)

	settings, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Empty(t, settings)
}

// TestStore_LiveRoundTrip live snapshots survive a save/load cycle.
func TestStore_LiveRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	in := []coordinator.Snapshot{testSnapshot("g1", "Weekly"), testSnapshot("g2", "Monthly")}
	require.NoError(t, s.SaveLive(in))

	out, err := s.LoadLive()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Tournament.ID, out[0].Tournament.ID)
	assert.Equal(t, "Monthly", out[1].Tournament.Name)
}

// TestStore_ArchiveAppends each archived tournament is appended, never
// overwritten.
func TestStore_ArchiveAppends(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Archive(testSnapshot("g1", "First")))
	require.NoError(t, s.Archive(testSnapshot("g1", "Second")))

	closed, err := s.LoadArchive()
	require.NoError(t, err)
	require.Len(t, closed, 2)
	assert.Equal(t, "First", closed[0].Tournament.Name)
	assert.Equal(t, "Second", closed[1].Tournament.Name)
}

// TestStore_SettingsRoundTrip guild settings survive a save/load cycle.
func TestStore_SettingsRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	in := map[string]coordinator.GuildSettings{
		"g1": {Prefix: "?", PairingsChannelID: "c1", CreateVoice: true},
	}
	require.NoError(t, s.SaveSettings(in))

	out, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// TestStore_NoTempFilesLeft a completed write leaves only the document.
func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveLive([]coordinator.Snapshot{testSnapshot("g1", "Weekly")}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tournaments.json", entries[0].Name())
	_, err = os.Stat(filepath.Join(dir, "tournaments.json"))
	assert.NoError(t, err)
}

// TestSnapshotter_FinalSave cancellation triggers one last save.
func TestSnapshotter_FinalSave(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	collect := func() []coordinator.Snapshot {
		return []coordinator.Snapshot{testSnapshot("g1", "Weekly")}
	}
	snap := NewSnapshotter(s, time.Hour, collect, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = snap.Run(ctx)
	}()
	cancel()
	<-done

	live, err := s.LoadLive()
	require.NoError(t, err)
	assert.Len(t, live, 1)
}
