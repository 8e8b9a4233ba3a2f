/* router.go
 * Message routing: strips the guild's command prefix, tokenizes with quote
 * awareness so multi-word names stay one argument, and dispatches to the
 * player or staff handlers.
 */

package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/resolver"
	"tourney-bot/tourney/rules"
)

func (b *Bot) route(ctx context.Context, message *discordgo.MessageCreate) {
	// A contract breach inside one command must not take the process down.
	defer func() {
		if r := recover(); r != nil {
			b.deps.Logger.Error("panic handling command",
				slog.String("content", message.Content), slog.Any("panic", r))
		}
	}()
	if message.GuildID == "" {
		return
	}
	content := strings.TrimSpace(message.Content)

	// Confirmation replies are bare words, no prefix.
	switch strings.ToLower(content) {
	case "yes":
		b.confirmReply(ctx, message, true)
		return
	case "no":
		b.confirmReply(ctx, message, false)
		return
	}

	prefix := b.deps.Settings.Get(message.GuildID).Prefix
	if !strings.HasPrefix(content, prefix) {
		return
	}
	tokens := tokenize(strings.TrimPrefix(content, prefix))
	if len(tokens) == 0 {
		return
	}
	cmd, args := strings.ToLower(tokens[0]), tokens[1:]

	switch cmd {
	case "help":
		b.helpMessage(ctx, message)
	case "use":
		b.useTournament(ctx, message, args)

	case "register":
		b.act(ctx, message, coordinator.Register{})
	case "drop":
		b.act(ctx, message, coordinator.Drop{})
	case "report":
		b.report(ctx, message, args)
	case "confirm":
		b.act(ctx, message, coordinator.ConfirmResult{})
	case "adddeck":
		b.addDeck(ctx, message, args)
	case "removedeck":
		b.removeDeck(ctx, message, args)
	case "tag":
		b.setTag(ctx, message, args)

	case "players":
		b.act(ctx, message, coordinator.ViewPlayers{})
	case "standings":
		b.act(ctx, message, coordinator.ViewStandings{})
	case "status":
		b.act(ctx, message, coordinator.ViewStatus{})
	case "settings":
		b.act(ctx, message, coordinator.ViewSettings{})
	case "export":
		b.act(ctx, message, coordinator.ExportStandings{})
	case "match":
		b.matchStatus(ctx, message, args)
	case "profile":
		b.profile(ctx, message, args)
	case "decklist":
		b.decklist(ctx, message, args)

	// Staff commands.
	case "create":
		b.staff(ctx, message, func() { b.createTournament(ctx, message, args) })
	case "start":
		b.staff(ctx, message, func() { b.act(ctx, message, coordinator.Start{}) })
	case "freeze":
		b.staff(ctx, message, func() { b.act(ctx, message, coordinator.Freeze{}) })
	case "thaw":
		b.staff(ctx, message, func() { b.act(ctx, message, coordinator.Thaw{}) })
	case "pair":
		b.staff(ctx, message, func() { b.act(ctx, message, coordinator.ProposePair{}) })
	case "cut":
		b.staff(ctx, message, func() { b.cut(ctx, message, args) })
	case "prune":
		b.staff(ctx, message, func() { b.prune(ctx, message, args) })
	case "end":
		b.staff(ctx, message, func() { b.act(ctx, message, coordinator.ProposeEnd{}) })
	case "cancel":
		b.staff(ctx, message, func() { b.act(ctx, message, coordinator.ProposeCancel{}) })
	case "bye":
		b.staff(ctx, message, func() { b.giveBye(ctx, message, args) })
	case "creatematch":
		b.staff(ctx, message, func() { b.createMatch(ctx, message, args) })
	case "cancelmatch":
		b.staff(ctx, message, func() { b.cancelMatch(ctx, message, args) })
	case "extend":
		b.staff(ctx, message, func() { b.extend(ctx, message, args) })
	case "forceconfirm":
		b.staff(ctx, message, func() { b.forceConfirm(ctx, message, args) })
	case "aregister":
		b.staff(ctx, message, func() { b.adminRegister(ctx, message, args) })
	case "guest":
		b.staff(ctx, message, func() { b.registerGuest(ctx, message, args) })
	case "adrop":
		b.staff(ctx, message, func() { b.adminDrop(ctx, message, args) })
	case "arecord":
		b.staff(ctx, message, func() { b.adminRecord(ctx, message, args) })
	case "aconfirm":
		b.staff(ctx, message, func() { b.adminConfirm(ctx, message, args) })
	case "set":
		b.staff(ctx, message, func() { b.setSetting(ctx, message, args) })
	case "save":
		b.staff(ctx, message, func() { b.saveNow(ctx, message) })
	}
}

// tokenize splits on spaces with quote awareness, so "The Night Owls" is
// one token.
func tokenize(s string) []string {
	spaceSplitter, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return strings.Fields(s)
	}
	tokens, err := spaceSplitter.Split(strings.TrimSpace(s))
	if err != nil {
		return strings.Fields(s)
	}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(strings.TrimSpace(tok), `"`)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func (b *Bot) reply(ctx context.Context, channelID, text string) {
	if _, err := b.client.SendMessage(ctx, channelID, text); err != nil {
		b.deps.Logger.Warn("failed to send reply", slog.Any("error", err))
	}
}

// sendResponse delivers an action's response to the channel the command
// came from.
func (b *Bot) sendResponse(ctx context.Context, channelID string, resp coordinator.Response) {
	var err error
	switch {
	case resp.FileBody != nil:
		_, err = b.client.SendFile(ctx, channelID, resp.Text, resp.FileName, strings.NewReader(string(resp.FileBody)))
	case resp.Embed != nil:
		_, err = b.client.SendEmbed(ctx, channelID, resp.Embed)
	default:
		_, err = b.client.SendMessage(ctx, channelID, resp.Text)
	}
	if err != nil {
		b.deps.Logger.Warn("failed to send response", slog.Any("error", err))
	}
}

// withTournament resolves the guild's target tournament and runs fn under
// its entry lock, replying on resolution failure.
func (b *Bot) withTournament(ctx context.Context, message *discordgo.MessageCreate, fn func(*coordinator.GuildTournament) error) {
	id, err := b.deps.Dir.ResolveName(message.GuildID, b.focusedName(message.GuildID))
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrAmbiguous):
			b.reply(ctx, message.ChannelID, "Multiple tournaments are running. Pick one with `use <name>`.")
		default:
			b.reply(ctx, message.ChannelID, "No tournament is running here.")
		}
		return
	}
	if err := b.deps.Dir.With(id, fn); errors.Is(err, registry.ErrNotFound) {
		b.reply(ctx, message.ChannelID, "No tournament is running here.")
	}
}

// act runs one action against the guild's tournament and replies with the
// result or the error's user text.
func (b *Bot) act(ctx context.Context, message *discordgo.MessageCreate, action coordinator.Action) {
	b.withTournament(ctx, message, func(g *coordinator.GuildTournament) error {
		inv := invocation(message)
		resp, err := g.TakeAction(ctx, inv, action)
		if err != nil {
			b.deps.Logger.Debug("action failed",
				slog.String("user", inv.UserID), slog.Any("error", err))
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		b.sendResponse(ctx, message.ChannelID, resp)
		return nil
	})
}

func invocation(message *discordgo.MessageCreate) coordinator.Invocation {
	name := message.Author.Username
	if message.Member != nil && message.Member.Nick != "" {
		name = message.Member.Nick
	}
	return coordinator.Invocation{UserID: message.Author.ID, DisplayName: name}
}

// staff gates a handler on the guild's admin or judge role. A guild with
// no admin role configured leaves staff commands open.
func (b *Bot) staff(ctx context.Context, message *discordgo.MessageCreate, fn func()) {
	settings := b.deps.Settings.Get(message.GuildID)
	if settings.AdminRoleID == "" {
		fn()
		return
	}
	if message.Member != nil {
		for _, role := range message.Member.Roles {
			if role == settings.AdminRoleID || role == settings.JudgeRoleID {
				fn()
				return
			}
		}
	}
	b.reply(ctx, message.ChannelID, "That command needs the tournament staff role.")
}

// resolvePlayer turns a user-supplied token into a player id: a mention,
// user id or member name first, then a registered player name, covering
// guests.
func (b *Bot) resolvePlayer(ctx context.Context, g *coordinator.GuildTournament, guildID, token string) (rules.PlayerID, error) {
	if userID, err := resolver.ResolveUser(ctx, b.client, guildID, token); err == nil {
		if player, ok := g.UserToPlayer[userID]; ok {
			return player, nil
		}
	}
	p, err := g.Tourn.PlayerByName(token)
	if err != nil {
		return rules.PlayerID{}, err
	}
	return p.ID, nil
}
