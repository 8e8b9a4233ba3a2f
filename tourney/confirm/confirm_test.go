/* confirm_test.go
 * Unit tests for the pending-confirmation registry.
 */

package confirm

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolve_ConsumesEntry verifies a second resolve finds nothing pending
func TestResolve_ConsumesEntry(t *testing.T) {
	r := NewRegistry()
	r.Propose("admin", Pending{Tournament: uuid.New(), Action: CutToTop{N: 8}})

	p, ok := r.Resolve("admin")
	require.True(t, ok)
	assert.Equal(t, CutToTop{N: 8}, p.Action)

	_, ok = r.Resolve("admin")
	assert.False(t, ok, "second resolve must be a no-op")
}

// TestPropose_ReplacesExisting verifies a new proposal silently overwrites
func TestPropose_ReplacesExisting(t *testing.T) {
	r := NewRegistry()
	r.Propose("admin", Pending{Action: EndTournament{}})
	r.Propose("admin", Pending{Action: PairNextRound{}})

	p, ok := r.Resolve("admin")
	require.True(t, ok)
	assert.Equal(t, PairNextRound{}, p.Action)
}

// TestResolve_PerUserSlots keeps users' pending actions independent
func TestResolve_PerUserSlots(t *testing.T) {
	r := NewRegistry()
	r.Propose("a", Pending{Action: CutToTop{N: 4}})
	r.Propose("b", Pending{Action: CancelTournament{}})

	p, ok := r.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, CutToTop{N: 4}, p.Action)

	p, ok = r.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, CancelTournament{}, p.Action)
}

// TestResolve_ConcurrentSingleWinner verifies exactly one of many concurrent
// resolves gets the entry
func TestResolve_ConcurrentSingleWinner(t *testing.T) {
	r := NewRegistry()
	r.Propose("admin", Pending{Action: PruneDecks{Count: 3}})

	var wg sync.WaitGroup
	winners := make(chan Pending, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, ok := r.Resolve("admin"); ok {
				winners <- p
			}
		}()
	}
	wg.Wait()
	close(winners)

	count := 0
	for range winners {
		count++
	}
	assert.Equal(t, 1, count)
}

// TestPeek_DoesNotConsume leaves the entry in place
func TestPeek_DoesNotConsume(t *testing.T) {
	r := NewRegistry()
	r.Propose("admin", Pending{Action: PrunePlayers{Count: 2}})

	_, ok := r.Peek("admin")
	require.True(t, ok)
	_, ok = r.Resolve("admin")
	assert.True(t, ok)
}
