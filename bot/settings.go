/* settings.go
 * Per-guild bot settings, cached in memory and written through to the
 * store on every change.
 */

package bot

import (
	"fmt"
	"sync"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/store"
)

// SettingsManager hands out guild settings and persists changes.
type SettingsManager struct {
	mu      sync.RWMutex
	byGuild map[string]coordinator.GuildSettings
	store   *store.Store
}

func NewSettingsManager(st *store.Store) (*SettingsManager, error) {
	loaded, err := st.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return &SettingsManager{byGuild: loaded, store: st}, nil
}

// Get returns the guild's settings, defaulted when unconfigured.
func (m *SettingsManager) Get(guildID string) coordinator.GuildSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.byGuild[guildID]; ok {
		return s
	}
	return coordinator.DefaultGuildSettings()
}

// Update applies fn to the guild's settings and persists the result.
func (m *SettingsManager) Update(guildID string, fn func(*coordinator.GuildSettings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byGuild[guildID]
	if !ok {
		s = coordinator.DefaultGuildSettings()
	}
	fn(&s)
	m.byGuild[guildID] = s
	snapshot := make(map[string]coordinator.GuildSettings, len(m.byGuild))
	for k, v := range m.byGuild {
		snapshot[k] = v
	}
	return m.store.SaveSettings(snapshot)
}
