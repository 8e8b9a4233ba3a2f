/* confirm_replies.go
 * Handling of bare `yes`/`no` replies against the confirmation registry.
 * Only the user who proposed the action can resolve it, and resolution
 * consumes the pending entry whatever the answer.
 */

package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/rules"
)

func (b *Bot) confirmReply(ctx context.Context, message *discordgo.MessageCreate, accepted bool) {
	pending, ok := b.deps.Confirms.Peek(message.Author.ID)
	if !ok || pending.Guild != message.GuildID {
		// Nothing pending for this user here; a stray "yes" is not a
		// command and must not consume a confirmation waiting elsewhere.
		return
	}
	b.deps.Confirms.Resolve(message.Author.ID)
	if !accepted {
		b.reply(ctx, message.ChannelID, "Cancelled; nothing was changed.")
		return
	}

	var (
		resp  coordinator.Response
		ended bool
	)
	err := b.deps.Dir.With(pending.Tournament, func(g *coordinator.GuildTournament) error {
		var err error
		resp, err = g.ExecuteConfirmed(ctx, pending.Action)
		ended = !g.Tourn.Live()
		return err
	})
	if errors.Is(err, registry.ErrNotFound) {
		b.reply(ctx, message.ChannelID, "That tournament is already gone.")
		return
	}
	if err != nil {
		b.deps.Logger.Debug("confirmed action failed", slog.Any("error", err))
		b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
		return
	}
	b.sendResponse(ctx, message.ChannelID, resp)

	if ended {
		b.archive(ctx, message.GuildID, pending.Tournament)
	}
}

// archive moves an ended or cancelled tournament out of the directory and
// into the closed document.
func (b *Bot) archive(ctx context.Context, guildID string, id rules.TournamentID) {
	g, err := b.deps.Dir.Remove(id)
	if err != nil {
		return
	}
	b.setFocus(guildID, "")
	if err := b.deps.Store.Archive(g.Snapshot()); err != nil {
		b.deps.Logger.Error("failed to archive tournament",
			slog.String("tournament", g.Tourn.Name), slog.Any("error", err))
	}
}
