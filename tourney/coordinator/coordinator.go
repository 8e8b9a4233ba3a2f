/* coordinator.go
 * The per-tournament coordinator: owns a rules-engine tournament, the
 * mapping between Discord users and player ids, the round resource tracker
 * and the status/standings display messages. All methods assume the caller
 * holds the tournament's registry entry lock; the coordinator itself is not
 * concurrency safe.
 */

package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/confirm"
	"tourney-bot/tourney/platform"
	"tourney-bot/tourney/rules"
	"tourney-bot/tourney/tracker"
	"tourney-bot/tourney/updates"
)

// GuildSettings is a guild's bot configuration.
type GuildSettings struct {
	Prefix            string         `json:"prefix"`
	PairingsChannelID string         `json:"pairings_channel_id"`
	MatchesCategoryID string         `json:"matches_category_id"`
	JudgeRoleID       string         `json:"judge_role_id"`
	AdminRoleID       string         `json:"admin_role_id"`
	CreateVoice       bool           `json:"create_voice"`
	CreateText        bool           `json:"create_text"`
	Defaults          rules.Settings `json:"defaults"`
}

// DefaultGuildSettings returns settings for a guild that has not been
// configured yet.
func DefaultGuildSettings() GuildSettings {
	return GuildSettings{
		Prefix:      "!",
		CreateVoice: true,
		Defaults:    rules.DefaultSettings(),
	}
}

// Deps are the process-wide collaborators a coordinator calls out to.
// Explicit handles, not an ambient registry.
type Deps struct {
	Client   *platform.Client
	Updates  *updates.Channel
	Confirms *confirm.Registry
	Logger   *slog.Logger
	// Settings yields the current settings for a guild.
	Settings func(guildID string) GuildSettings
}

// MessageRef points at a display message the coordinator keeps updated.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Invocation is the per-command context TakeAction receives.
type Invocation struct {
	UserID      string
	DisplayName string
}

// Response is what a successful action hands back to the command shell.
type Response struct {
	Text  string
	Embed *discordgo.MessageEmbed
	// FileName/FileBody carry an attachment, for raw exports.
	FileName string
	FileBody []byte
}

// GuildTournament coordinates one tournament within one guild.
type GuildTournament struct {
	GuildID string
	Tourn   *rules.Tournament

	// UserToPlayer and PlayerToUser map Discord accounts to players. Guests
	// appear only in Guests, keyed by display name.
	UserToPlayer map[string]rules.PlayerID
	PlayerToUser map[rules.PlayerID]string
	Guests       map[string]rules.PlayerID

	// TournRoleID is the guild role granted to registered players, created
	// lazily on first registration.
	TournRoleID string

	StatusMsg    *MessageRef
	StandingsMsg *MessageRef

	tracker *tracker.Tracker
	deps    Deps
}

// New creates the coordinator for a freshly created tournament.
func New(guildID string, tourn *rules.Tournament, deps Deps) *GuildTournament {
	return &GuildTournament{
		GuildID:      guildID,
		Tourn:        tourn,
		UserToPlayer: make(map[string]rules.PlayerID),
		PlayerToUser: make(map[rules.PlayerID]string),
		Guests:       make(map[string]rules.PlayerID),
		tracker:      tracker.New(guildID, deps.Client, deps.Logger),
		deps:         deps,
	}
}

// Tracker exposes the round resource tracker to the reconciliation loop.
func (g *GuildTournament) Tracker() *tracker.Tracker {
	return g.tracker
}

// resourceConfig derives the tracker's resource config from the guild
// settings at call time.
func (g *GuildTournament) resourceConfig() tracker.ResourceConfig {
	s := g.deps.Settings(g.GuildID)
	return tracker.ResourceConfig{
		PairingsChannelID: s.PairingsChannelID,
		MatchesCategoryID: s.MatchesCategoryID,
		CreateVoice:       s.CreateVoice,
		CreateText:        s.CreateText,
	}
}

// playerFor maps the invoking user to their player id.
func (g *GuildTournament) playerFor(userID string) (rules.PlayerID, error) {
	id, ok := g.UserToPlayer[userID]
	if !ok {
		return rules.PlayerID{}, rules.ErrPlayerNotFound
	}
	return id, nil
}

// ensureTournRole creates the tournament player role on first use.
func (g *GuildTournament) ensureTournRole(ctx context.Context) (string, error) {
	if g.TournRoleID != "" {
		return g.TournRoleID, nil
	}
	roleID, err := g.deps.Client.CreateRole(ctx, g.GuildID, g.Tourn.Name+" Player")
	if err != nil {
		return "", err
	}
	g.TournRoleID = roleID
	return roleID, nil
}

// grantTournRole is best effort; registration already succeeded.
func (g *GuildTournament) grantTournRole(ctx context.Context, userID string) {
	roleID, err := g.ensureTournRole(ctx)
	if err != nil {
		g.deps.Logger.Warn("failed to create tournament role",
			slog.String("tournament", g.Tourn.Name), slog.Any("error", err))
		return
	}
	if err := g.deps.Client.GrantRole(ctx, g.GuildID, userID, roleID); err != nil {
		g.deps.Logger.Warn("failed to grant tournament role",
			slog.String("user", userID), slog.Any("error", err))
	}
}

// revokeTournRole is best effort; the drop already succeeded.
func (g *GuildTournament) revokeTournRole(ctx context.Context, userID string) {
	if g.TournRoleID == "" {
		return
	}
	if err := g.deps.Client.RevokeRole(ctx, g.GuildID, userID, g.TournRoleID); err != nil {
		g.deps.Logger.Warn("failed to revoke tournament role",
			slog.String("user", userID), slog.Any("error", err))
	}
}

// Cleanup tears down every platform resource the tournament owns: round
// bundles and the tournament role. Called on end or cancellation, before
// the coordinator moves to the archive.
func (g *GuildTournament) Cleanup(ctx context.Context) {
	g.tracker.TeardownAll(ctx)
	if g.TournRoleID != "" {
		if err := g.deps.Client.DeleteRole(ctx, g.GuildID, g.TournRoleID); err != nil {
			g.deps.Logger.Warn("failed to delete tournament role", slog.Any("error", err))
		}
		// Clear the cached id; the role is gone even if deletion reported
		// an error for a role already removed on the platform side.
		g.TournRoleID = ""
	}
}

// publish emits a match update; failures are logged, never propagated, since
// the rules mutation already succeeded.
func (g *GuildTournament) publish(round rules.RoundID, kind updates.Kind) {
	err := g.deps.Updates.Publish(updates.MatchUpdate{
		Tournament: g.Tourn.ID,
		Round:      round,
		Kind:       kind,
	})
	if err != nil {
		g.deps.Logger.Warn("failed to publish match update",
			slog.String("kind", string(kind)), slog.Any("error", err))
	}
}

// playerName renders a player id for user-facing text.
func (g *GuildTournament) playerName(id rules.PlayerID) string {
	if p, err := g.Tourn.GetPlayer(id); err == nil {
		return p.Name
	}
	return fmt.Sprintf("unknown player %s", id)
}
