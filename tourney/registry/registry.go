/* registry.go
 * The directory of live tournaments. Lookups take the directory's read
 * lock; all access to a tournament's state goes through With, which holds
 * that entry's own lock so operations on different tournaments never block
 * each other. A goroutine waiting on a busy entry parks on the mutex.
 */

package registry

import (
	"errors"
	"strings"
	"sync"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/rules"
)

var (
	ErrNotFound    = errors.New("tournament not found")
	ErrNameTaken   = errors.New("a tournament with that name already exists in this guild")
	ErrAmbiguous   = errors.New("multiple tournaments match; name one explicitly")
	ErrDuplicateID = errors.New("tournament id already registered")
)

// entry pairs a coordinator with its lock. The removed flag covers the
// race between a lookup handing out the entry and a concurrent Remove:
// whoever acquires the entry lock second sees the flag.
type entry struct {
	mu      sync.Mutex
	removed bool
	tourn   *coordinator.GuildTournament
}

// Directory indexes live tournaments by id and by guild.
type Directory struct {
	mu      sync.RWMutex
	byID    map[rules.TournamentID]*entry
	byGuild map[string]map[rules.TournamentID]*entry
}

func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[rules.TournamentID]*entry),
		byGuild: make(map[string]map[rules.TournamentID]*entry),
	}
}

// Insert registers a tournament. Names are unique per guild,
// case-insensitively.
func (d *Directory) Insert(g *coordinator.GuildTournament) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byID[g.Tourn.ID]; exists {
		return ErrDuplicateID
	}
	guild := d.byGuild[g.GuildID]
	for _, e := range guild {
		if strings.EqualFold(e.tourn.Tourn.Name, g.Tourn.Name) {
			return ErrNameTaken
		}
	}
	e := &entry{tourn: g}
	d.byID[g.Tourn.ID] = e
	if guild == nil {
		guild = make(map[rules.TournamentID]*entry)
		d.byGuild[g.GuildID] = guild
	}
	guild[g.Tourn.ID] = e
	return nil
}

// With runs fn with exclusive access to the tournament. The directory lock
// is not held while fn runs, so long operations on one tournament do not
// stall lookups or operations on others.
func (d *Directory) With(id rules.TournamentID, fn func(*coordinator.GuildTournament) error) error {
	d.mu.RLock()
	e, ok := d.byID[id]
	d.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		// Removed between lookup and acquiring the entry lock.
		return ErrNotFound
	}
	return fn(e.tourn)
}

// Remove unregisters a tournament and returns its coordinator, typically
// for archiving. Waits for any in-flight operation on the entry to finish.
func (d *Directory) Remove(id rules.TournamentID) (*coordinator.GuildTournament, error) {
	d.mu.RLock()
	e, ok := d.byID[id]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrNotFound
	}
	d.mu.Lock()
	delete(d.byID, id)
	if guild, ok := d.byGuild[e.tourn.GuildID]; ok {
		delete(guild, id)
		if len(guild) == 0 {
			delete(d.byGuild, e.tourn.GuildID)
		}
	}
	d.mu.Unlock()
	e.removed = true
	return e.tourn, nil
}

// ResolveName finds a guild's tournament by name. A guild with exactly one
// tournament resolves to it no matter what name was supplied; with several,
// the name must match exactly, case-insensitively, and an empty name is
// ambiguous.
func (d *Directory) ResolveName(guildID, name string) (rules.TournamentID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	guild := d.byGuild[guildID]
	if len(guild) == 1 {
		for id := range guild {
			return id, nil
		}
	}
	if name == "" {
		if len(guild) > 1 {
			return rules.TournamentID{}, ErrAmbiguous
		}
		return rules.TournamentID{}, ErrNotFound
	}
	for id, e := range guild {
		if strings.EqualFold(e.tourn.Tourn.Name, name) {
			return id, nil
		}
	}
	return rules.TournamentID{}, ErrNotFound
}

// GuildTournaments lists the ids of a guild's live tournaments.
func (d *Directory) GuildTournaments(guildID string) []rules.TournamentID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]rules.TournamentID, 0, len(d.byGuild[guildID]))
	for id := range d.byGuild[guildID] {
		ids = append(ids, id)
	}
	return ids
}

// IDs lists every live tournament id.
func (d *Directory) IDs() []rules.TournamentID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]rules.TournamentID, 0, len(d.byID))
	for id := range d.byID {
		ids = append(ids, id)
	}
	return ids
}

// ForEach runs fn against every live tournament, one entry lock at a time.
// The set of tournaments visited is the snapshot at call time; entries
// removed mid-iteration are skipped.
func (d *Directory) ForEach(fn func(*coordinator.GuildTournament)) {
	for _, id := range d.IDs() {
		_ = d.With(id, func(g *coordinator.GuildTournament) error {
			fn(g)
			return nil
		})
	}
}
