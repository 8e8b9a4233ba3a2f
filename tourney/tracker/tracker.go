/* tracker.go
 * Owns the ephemeral Discord resources attached to active rounds: a match
 * role, optional voice/text channels, and a pairing notification message.
 * A periodic tick reconciles each bundle against the live round state,
 * fires one-shot time warnings and re-renders the round summary. All entry
 * points run under the owning tournament's registry lock, so the tracker
 * itself needs no locking.
 */

package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/platform"
	"tourney-bot/tourney/rules"
)

// ResourceConfig tells the tracker which resources to create for a round.
type ResourceConfig struct {
	PairingsChannelID string
	MatchesCategoryID string
	CreateVoice       bool
	CreateText        bool
}

// Bundle holds the platform resources created for one active round. Any
// field may be empty when creation partially failed; the round proceeds
// with whatever exists.
type Bundle struct {
	Round          rules.RoundID `json:"round"`
	MessageChannel string        `json:"message_channel,omitempty"`
	MessageID      string        `json:"message_id,omitempty"`
	VoiceChannelID string        `json:"voice_channel_id,omitempty"`
	TextChannelID  string        `json:"text_channel_id,omitempty"`
	RoleID         string        `json:"role_id,omitempty"`

	// Warning levels are one-shot and monotonic: once a level fires it never
	// re-fires, and firing a later level marks the earlier ones fired too.
	FiveMinWarned bool `json:"five_min_warned"`
	OneMinWarned  bool `json:"one_min_warned"`
	TimeUpWarned  bool `json:"time_up_warned"`
}

// Tracker manages the bundles of a single tournament.
type Tracker struct {
	guildID string
	client  *platform.Client
	logger  *slog.Logger
	bundles map[rules.RoundID]*Bundle
}

func New(guildID string, client *platform.Client, logger *slog.Logger) *Tracker {
	return &Tracker{
		guildID: guildID,
		client:  client,
		logger:  logger,
		bundles: make(map[rules.RoundID]*Bundle),
	}
}

// Bundle returns the bundle for a round, if one exists.
func (tr *Tracker) Bundle(round rules.RoundID) (*Bundle, bool) {
	b, ok := tr.bundles[round]
	return b, ok
}

// Bundles returns the tracked bundles, for persistence.
func (tr *Tracker) Bundles() map[rules.RoundID]*Bundle {
	return tr.bundles
}

// Restore reinstates bundles loaded from a snapshot.
func (tr *Tracker) Restore(bundles map[rules.RoundID]*Bundle) {
	if bundles != nil {
		tr.bundles = bundles
	}
}

// CreateResources builds the resource bundle for a newly paired round:
// a match role granted to every player with a platform account, optional
// voice/text channels, and the pairing notification message. Creation is
// best effort; any single failure is logged and the round keeps whatever
// resources did get created.
func (tr *Tracker) CreateResources(ctx context.Context, tourn *rules.Tournament, round *rules.Round, cfg ResourceConfig, userIDs map[rules.PlayerID]string) *Bundle {
	b := &Bundle{Round: round.ID}
	tr.bundles[round.ID] = b
	name := fmt.Sprintf("Match %d", round.Number)

	roleID, err := tr.client.CreateRole(ctx, tr.guildID, name)
	if err != nil {
		tr.logger.Warn("failed to create match role", slog.Int("round", round.Number), slog.Any("error", err))
	} else {
		b.RoleID = roleID
		for _, p := range round.Players {
			uid, ok := userIDs[p]
			if !ok {
				continue // guest, no platform account
			}
			if err := tr.client.GrantRole(ctx, tr.guildID, uid, roleID); err != nil {
				tr.logger.Warn("failed to grant match role", slog.String("user", uid), slog.Any("error", err))
			}
		}
	}

	if cfg.CreateVoice {
		id, err := tr.client.CreateChannel(ctx, tr.guildID, name, discordgo.ChannelTypeGuildVoice, cfg.MatchesCategoryID)
		if err != nil {
			tr.logger.Warn("failed to create voice channel", slog.Int("round", round.Number), slog.Any("error", err))
		} else {
			b.VoiceChannelID = id
		}
	}
	if cfg.CreateText {
		id, err := tr.client.CreateChannel(ctx, tr.guildID, name, discordgo.ChannelTypeGuildText, cfg.MatchesCategoryID)
		if err != nil {
			tr.logger.Warn("failed to create text channel", slog.Int("round", round.Number), slog.Any("error", err))
		} else {
			b.TextChannelID = id
		}
	}

	if cfg.PairingsChannelID != "" {
		msg, err := tr.client.SendEmbed(ctx, cfg.PairingsChannelID, tr.renderSummary(tourn, round, time.Now()))
		if err != nil {
			tr.logger.Warn("failed to send pairing message", slog.Int("round", round.Number), slog.Any("error", err))
		} else {
			b.MessageChannel = cfg.PairingsChannelID
			b.MessageID = msg.ID
		}
	}
	return b
}

// Teardown deletes the round's platform resources and drops the bundle.
// Deletion failures are logged; the bundle is dropped regardless so a
// half-deleted round can't wedge the tracker.
func (tr *Tracker) Teardown(ctx context.Context, round rules.RoundID) {
	b, ok := tr.bundles[round]
	if !ok {
		return
	}
	delete(tr.bundles, round)

	if b.RoleID != "" {
		if err := tr.client.DeleteRole(ctx, tr.guildID, b.RoleID); err != nil {
			tr.logger.Warn("failed to delete match role", slog.Any("error", err))
		}
	}
	for _, ch := range []string{b.VoiceChannelID, b.TextChannelID} {
		if ch == "" {
			continue
		}
		if err := tr.client.DeleteChannel(ctx, ch); err != nil {
			tr.logger.Warn("failed to delete match channel", slog.String("channel", ch), slog.Any("error", err))
		}
	}
}

// TeardownAll removes every bundle, for tournament end or cancellation.
func (tr *Tracker) TeardownAll(ctx context.Context) {
	for id := range tr.bundles {
		tr.Teardown(ctx, id)
	}
}

// Tick reconciles every bundle against the tournament: rounds no longer
// active are torn down, time warnings that crossed a threshold since the
// last tick fire once, and the summary message is re-rendered. All platform
// failures here are swallowed; the next tick retries.
func (tr *Tracker) Tick(ctx context.Context, tourn *rules.Tournament, now time.Time) {
	for id, b := range tr.bundles {
		round, err := tourn.GetRound(id)
		if err != nil || !round.Active() {
			tr.Teardown(ctx, id)
			continue
		}
		tr.fireWarnings(ctx, b, round, now)
		tr.Refresh(ctx, tourn, round, now)
	}
}

// Refresh re-renders the round's summary message. Edit failures are
// swallowed; the message may have been deleted out from under us.
func (tr *Tracker) Refresh(ctx context.Context, tourn *rules.Tournament, round *rules.Round, now time.Time) {
	b, ok := tr.bundles[round.ID]
	if !ok || b.MessageID == "" {
		return
	}
	if err := tr.client.EditEmbed(ctx, b.MessageChannel, b.MessageID, tr.renderSummary(tourn, round, now)); err != nil {
		tr.logger.Debug("failed to refresh round summary", slog.Int("round", round.Number), slog.Any("error", err))
	}
}

// fireWarnings fires the highest newly crossed warning level and marks it
// and every earlier level as fired. A tick that skips levels fires only the
// latest one; the earlier levels are considered caught up in the batch.
func (tr *Tracker) fireWarnings(ctx context.Context, b *Bundle, round *rules.Round, now time.Time) {
	left := round.TimeLeft(now)
	switch {
	case left <= 0 && !b.TimeUpWarned:
		tr.broadcast(ctx, b, round, fmt.Sprintf("Time is up in match %d!", round.Number))
		b.TimeUpWarned = true
		b.OneMinWarned = true
		b.FiveMinWarned = true
	case left <= time.Minute && !b.OneMinWarned:
		tr.broadcast(ctx, b, round, fmt.Sprintf("One minute left in match %d!", round.Number))
		b.OneMinWarned = true
		b.FiveMinWarned = true
	case left <= 5*time.Minute && !b.FiveMinWarned:
		tr.broadcast(ctx, b, round, fmt.Sprintf("Five minutes left in match %d.", round.Number))
		b.FiveMinWarned = true
	}
}

// broadcast sends a warning to the round's audience: its text channel when
// one exists, otherwise the channel of the notification message, mentioning
// the match role when one exists.
func (tr *Tracker) broadcast(ctx context.Context, b *Bundle, round *rules.Round, text string) {
	channel := b.TextChannelID
	if channel == "" {
		channel = b.MessageChannel
	}
	if channel == "" {
		return
	}
	if b.RoleID != "" {
		text = fmt.Sprintf("<@&%s> %s", b.RoleID, text)
	}
	if _, err := tr.client.SendMessage(ctx, channel, text); err != nil {
		tr.logger.Warn("failed to send round warning", slog.Int("round", round.Number), slog.Any("error", err))
	}
}

// renderSummary builds the round status embed: time or outcome, and
// per-player results with confirmation checkmarks.
func (tr *Tracker) renderSummary(tourn *rules.Tournament, round *rules.Round, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s — Match %d", tourn.Name, round.Number),
	}

	switch {
	case round.Status == rules.RoundCertified && round.Winner != nil:
		name := "unknown"
		if p, err := tourn.GetPlayer(*round.Winner); err == nil {
			name = p.Name
		}
		embed.Description = fmt.Sprintf("Winner: %s", name)
	case round.Status == rules.RoundCertified:
		embed.Description = "Result: draw"
	case round.Status == rules.RoundDead:
		embed.Description = "Match cancelled"
	default:
		left := round.TimeLeft(now)
		if left < 0 {
			embed.Description = "Time is up"
		} else {
			embed.Description = fmt.Sprintf("Time remaining: %s", left.Round(time.Second))
		}
	}

	for _, pid := range round.Players {
		name := "unknown"
		if p, err := tourn.GetPlayer(pid); err == nil {
			name = p.Name
		}
		value := fmt.Sprintf("%d wins", round.Results[pid])
		if round.Confirmations[pid] {
			value += " ✅"
		}
		if round.HasDropped(pid) {
			value += " (dropped)"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  value,
			Inline: true,
		})
	}
	if round.Draws > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Draws",
			Value: fmt.Sprintf("%d", round.Draws),
		})
	}
	return embed
}
