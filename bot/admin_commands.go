/* admin_commands.go
 * Handlers for the staff commands: tournament lifecycle, match surgery and
 * guild configuration.
 */

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/resolver"
	"tourney-bot/tourney/rules"
)

// createTournament makes a new tournament from the guild's default settings
// and registers it in the directory.
func (b *Bot) createTournament(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `create \"<name>\"`")
		return
	}
	name := args[0]
	settings := b.deps.Settings.Get(message.GuildID)
	deps := coordinator.Deps{
		Client:   b.client,
		Updates:  b.deps.Updates,
		Confirms: b.deps.Confirms,
		Logger:   b.deps.Logger,
		Settings: b.deps.Settings.Get,
	}
	g := coordinator.New(message.GuildID, rules.NewTournament(name, settings.Defaults), deps)
	if err := b.deps.Dir.Insert(g); err != nil {
		if err == registry.ErrNameTaken {
			b.reply(ctx, message.ChannelID, "A tournament with that name already exists here.")
			return
		}
		b.deps.Logger.Error("failed to create tournament", slog.Any("error", err))
		b.reply(ctx, message.ChannelID, "Something went wrong creating the tournament.")
		return
	}
	b.setFocus(message.GuildID, name)
	b.reply(ctx, message.ChannelID, fmt.Sprintf("%s created. Registration is open; `register` to join.", name))
}

func (b *Bot) cut(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `cut <n>`")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		b.reply(ctx, message.ChannelID, "The cut size must be a positive number.")
		return
	}
	b.act(ctx, message, coordinator.ProposeCut{N: n})
}

func (b *Bot) prune(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `prune players` or `prune decks`")
		return
	}
	switch strings.ToLower(args[0]) {
	case "players":
		b.act(ctx, message, coordinator.ProposePrunePlayers{})
	case "decks":
		b.act(ctx, message, coordinator.ProposePruneDecks{})
	default:
		b.reply(ctx, message.ChannelID, "Usage: `prune players` or `prune decks`")
	}
}

func (b *Bot) giveBye(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `bye <player>`")
		return
	}
	b.actOnPlayer(ctx, message, args[0], func(player rules.PlayerID) coordinator.Action {
		return coordinator.GiveBye{Player: player}
	})
}

func (b *Bot) createMatch(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		b.reply(ctx, message.ChannelID, "Usage: `creatematch <player> <player> ...`")
		return
	}
	b.withTournament(ctx, message, func(g *coordinator.GuildTournament) error {
		players := make([]rules.PlayerID, 0, len(args))
		for _, token := range args {
			player, err := b.resolvePlayer(ctx, g, message.GuildID, token)
			if err != nil {
				b.replyUnknownPlayer(ctx, g, message.ChannelID, token)
				return nil
			}
			players = append(players, player)
		}
		resp, err := g.TakeAction(ctx, invocation(message), coordinator.CreateMatch{Players: players})
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		b.sendResponse(ctx, message.ChannelID, resp)
		return nil
	})
}

func (b *Bot) cancelMatch(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	number, ok := b.matchNumber(ctx, message, args, "cancelmatch <match>")
	if !ok {
		return
	}
	b.act(ctx, message, coordinator.CancelMatch{RoundNumber: number})
}

func (b *Bot) extend(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 2 {
		b.reply(ctx, message.ChannelID, "Usage: `extend <match> <minutes>`")
		return
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(ctx, message.ChannelID, "Usage: `extend <match> <minutes>`")
		return
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes < 1 {
		b.reply(ctx, message.ChannelID, "The extension must be a positive number of minutes.")
		return
	}
	b.act(ctx, message, coordinator.TimeExtension{
		RoundNumber: number,
		Ext:         time.Duration(minutes) * time.Minute,
	})
}

func (b *Bot) forceConfirm(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	number, ok := b.matchNumber(ctx, message, args, "forceconfirm <match>")
	if !ok {
		return
	}
	b.act(ctx, message, coordinator.ForceConfirm{RoundNumber: number})
}

// adminRegister registers a guild member, optionally under an explicit name.
func (b *Bot) adminRegister(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) == 0 || len(args) > 2 {
		b.reply(ctx, message.ChannelID, "Usage: `aregister <user> [name]`")
		return
	}
	userID, err := resolver.ResolveUser(ctx, b.client, message.GuildID, args[0])
	if err != nil {
		b.reply(ctx, message.ChannelID, "I couldn't find that guild member.")
		return
	}
	name := args[0]
	if len(args) == 2 {
		name = args[1]
	}
	b.act(ctx, message, coordinator.AdminRegister{UserID: userID, Name: name})
}

func (b *Bot) registerGuest(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `guest \"<name>\"`")
		return
	}
	b.act(ctx, message, coordinator.RegisterGuest{Name: args[0]})
}

func (b *Bot) adminDrop(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `adrop <player>`")
		return
	}
	b.actOnPlayer(ctx, message, args[0], func(player rules.PlayerID) coordinator.Action {
		return coordinator.AdminDrop{Player: player}
	})
}

func (b *Bot) adminRecord(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 3 {
		b.reply(ctx, message.ChannelID, "Usage: `arecord <match> <player> <wins>`")
		return
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(ctx, message.ChannelID, "Usage: `arecord <match> <player> <wins>`")
		return
	}
	wins, err := strconv.Atoi(args[2])
	if err != nil || wins < 0 {
		b.reply(ctx, message.ChannelID, "Wins must be a non-negative number.")
		return
	}
	b.actOnPlayer(ctx, message, args[1], func(player rules.PlayerID) coordinator.Action {
		return coordinator.AdminRecordResult{RoundNumber: number, Player: player, Wins: wins}
	})
}

func (b *Bot) adminConfirm(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 2 {
		b.reply(ctx, message.ChannelID, "Usage: `aconfirm <match> <player>`")
		return
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(ctx, message.ChannelID, "Usage: `aconfirm <match> <player>`")
		return
	}
	b.actOnPlayer(ctx, message, args[1], func(player rules.PlayerID) coordinator.Action {
		return coordinator.AdminConfirmResult{RoundNumber: number, Player: player}
	})
}

// setSetting updates one guild or tournament-default setting.
func (b *Bot) setSetting(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 2 {
		b.reply(ctx, message.ChannelID, "Usage: `set <key> <value>`. Keys: prefix, pairings, category, adminrole, judgerole, voice, text, matchsize, roundlength, mindecks, maxdecks, regopen")
		return
	}
	key, value := strings.ToLower(args[0]), args[1]
	err := b.deps.Settings.Update(message.GuildID, func(s *coordinator.GuildSettings) {
		switch key {
		case "prefix":
			s.Prefix = value
		case "pairings":
			s.PairingsChannelID = strings.Trim(value, "<#>")
		case "category":
			s.MatchesCategoryID = value
		case "adminrole":
			s.AdminRoleID = strings.Trim(value, "<@&>")
		case "judgerole":
			s.JudgeRoleID = strings.Trim(value, "<@&>")
		case "voice":
			s.CreateVoice = value == "on"
		case "text":
			s.CreateText = value == "on"
		case "matchsize":
			if n, err := strconv.Atoi(value); err == nil && n >= 1 {
				s.Defaults.MatchSize = n
			}
		case "roundlength":
			if n, err := strconv.Atoi(value); err == nil && n >= 1 {
				s.Defaults.RoundLength = time.Duration(n) * time.Minute
			}
		case "mindecks":
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				s.Defaults.MinDeckCount = n
			}
		case "maxdecks":
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				s.Defaults.MaxDeckCount = n
			}
		case "regopen":
			s.Defaults.RegOpen = value == "on"
		}
	})
	if err != nil {
		b.deps.Logger.Error("failed to save guild settings", slog.Any("error", err))
		b.reply(ctx, message.ChannelID, "Something went wrong saving that setting.")
		return
	}
	b.reply(ctx, message.ChannelID, "Setting saved.")
}

// saveNow snapshots every live tournament immediately, outside the
// periodic snapshotter's cadence.
func (b *Bot) saveNow(ctx context.Context, message *discordgo.MessageCreate) {
	var snaps []coordinator.Snapshot
	b.deps.Dir.ForEach(func(g *coordinator.GuildTournament) {
		snaps = append(snaps, g.Snapshot())
	})
	if err := b.deps.Store.SaveLive(snaps); err != nil {
		b.deps.Logger.Error("failed to save snapshots", slog.Any("error", err))
		b.reply(ctx, message.ChannelID, "Something went wrong saving.")
		return
	}
	b.reply(ctx, message.ChannelID, fmt.Sprintf("Saved %d tournaments.", len(snaps)))
}

// actOnPlayer resolves a player token, then runs the action built from it.
func (b *Bot) actOnPlayer(ctx context.Context, message *discordgo.MessageCreate, token string, build func(rules.PlayerID) coordinator.Action) {
	b.withTournament(ctx, message, func(g *coordinator.GuildTournament) error {
		player, err := b.resolvePlayer(ctx, g, message.GuildID, token)
		if err != nil {
			b.replyUnknownPlayer(ctx, g, message.ChannelID, token)
			return nil
		}
		resp, err := g.TakeAction(ctx, invocation(message), build(player))
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		b.sendResponse(ctx, message.ChannelID, resp)
		return nil
	})
}

// replyUnknownPlayer tells the caller a token matched nobody, with fuzzy
// suggestions from the registered player names.
func (b *Bot) replyUnknownPlayer(ctx context.Context, g *coordinator.GuildTournament, channelID, token string) {
	names := make([]string, 0, len(g.Tourn.Players))
	for _, p := range g.Tourn.Players {
		names = append(names, p.Name)
	}
	text := fmt.Sprintf("I couldn't find a player matching %q.", token)
	if suggestions := resolver.Suggest(token, names); len(suggestions) > 0 {
		text += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	b.reply(ctx, channelID, text)
}

func (b *Bot) matchNumber(ctx context.Context, message *discordgo.MessageCreate, args []string, usage string) (int, bool) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `"+usage+"`")
		return 0, false
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(ctx, message.ChannelID, "Usage: `"+usage+"`")
		return 0, false
	}
	return number, true
}
