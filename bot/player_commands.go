/* player_commands.go
 * Handlers for the commands any participant can run.
 */

package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/rules"
)

func (b *Bot) helpMessage(ctx context.Context, message *discordgo.MessageCreate) {
	prefix := b.deps.Settings.Get(message.GuildID).Prefix
	var res strings.Builder
	res.WriteString("Tourney Bot\n")
	res.WriteString("Player commands:\n")
	res.WriteString("`" + prefix + "register`: join the tournament\n")
	res.WriteString("`" + prefix + "drop`: drop out; an unfinished match counts as a loss\n")
	res.WriteString("`" + prefix + "report <wins>`: report your game wins in your current match\n")
	res.WriteString("`" + prefix + "confirm`: confirm the reported result of your match\n")
	res.WriteString("`" + prefix + "adddeck \"<name>\" <list>`: register a deck. Multi-word names need quotes\n")
	res.WriteString("`" + prefix + "removedeck \"<name>\"`: remove one of your decks\n")
	res.WriteString("`" + prefix + "tag <tag>`: set your in-game name\n")
	res.WriteString("`" + prefix + "standings` / `" + prefix + "players` / `" + prefix + "status` / `" + prefix + "settings`: tournament info\n")
	res.WriteString("`" + prefix + "match [n]`: show your match, or match n\n")
	res.WriteString("`" + prefix + "profile [player]` and `" + prefix + "decklist [player] \"<deck>\"`\n")
	res.WriteString("Staff commands: `create`, `start`, `pair`, `cut`, `bye`, `extend`, `forceconfirm`, `end`, and more. Destructive ones ask for a `yes` reply.\n")
	b.reply(ctx, message.ChannelID, res.String())
}

// useTournament sets which tournament this guild's commands target.
func (b *Bot) useTournament(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `use <tournament>`")
		return
	}
	if _, err := b.deps.Dir.ResolveName(message.GuildID, args[0]); err != nil {
		b.reply(ctx, message.ChannelID, "No tournament by that name here.")
		return
	}
	b.setFocus(message.GuildID, args[0])
	b.reply(ctx, message.ChannelID, "Now targeting "+args[0]+".")
}

func (b *Bot) report(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `report <wins>`")
		return
	}
	wins, err := strconv.Atoi(args[0])
	if err != nil || wins < 0 {
		b.reply(ctx, message.ChannelID, "Wins must be a non-negative number.")
		return
	}
	b.act(ctx, message, coordinator.RecordResult{Wins: wins})
}

func (b *Bot) addDeck(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		b.reply(ctx, message.ChannelID, "Usage: `adddeck \"<name>\" <list>`")
		return
	}
	b.act(ctx, message, coordinator.AddDeck{Name: args[0], List: strings.Join(args[1:], " ")})
}

func (b *Bot) removeDeck(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `removedeck \"<name>\"`")
		return
	}
	b.act(ctx, message, coordinator.RemoveDeck{Name: args[0]})
}

func (b *Bot) setTag(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		b.reply(ctx, message.ChannelID, "Usage: `tag <tag>`")
		return
	}
	b.act(ctx, message, coordinator.SetGamerTag{Tag: args[0]})
}

// matchStatus shows an explicit match by number, or the caller's active one.
func (b *Bot) matchStatus(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) == 1 {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			b.reply(ctx, message.ChannelID, "Usage: `match [number]`")
			return
		}
		b.act(ctx, message, coordinator.ViewMatchStatus{RoundNumber: number})
		return
	}
	b.withTournament(ctx, message, func(g *coordinator.GuildTournament) error {
		player, ok := g.UserToPlayer[message.Author.ID]
		if !ok {
			b.reply(ctx, message.ChannelID, "You're not registered.")
			return nil
		}
		r, err := g.Tourn.ActiveRoundForPlayer(player)
		if err != nil {
			b.reply(ctx, message.ChannelID, "You're not in an active match.")
			return nil
		}
		resp, err := g.TakeAction(ctx, invocation(message), coordinator.ViewMatchStatus{RoundNumber: r.Number})
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		b.sendResponse(ctx, message.ChannelID, resp)
		return nil
	})
}

// profile shows a named player, or the caller.
func (b *Bot) profile(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	b.withTournament(ctx, message, func(g *coordinator.GuildTournament) error {
		player, err := b.targetPlayer(ctx, g, message, args)
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		resp, err := g.TakeAction(ctx, invocation(message), coordinator.ViewProfile{Player: player})
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		b.sendResponse(ctx, message.ChannelID, resp)
		return nil
	})
}

// decklist shows a deck: `decklist "<deck>"` for your own, or
// `decklist <player> "<deck>"`.
func (b *Bot) decklist(ctx context.Context, message *discordgo.MessageCreate, args []string) {
	if len(args) == 0 || len(args) > 2 {
		b.reply(ctx, message.ChannelID, "Usage: `decklist [player] \"<deck>\"`")
		return
	}
	b.withTournament(ctx, message, func(g *coordinator.GuildTournament) error {
		deck := args[len(args)-1]
		player, err := b.targetPlayer(ctx, g, message, args[:len(args)-1])
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		resp, err := g.TakeAction(ctx, invocation(message), coordinator.ViewDecklist{Player: player, Deck: deck})
		if err != nil {
			b.reply(ctx, message.ChannelID, coordinator.UserMessage(err))
			return nil
		}
		b.sendResponse(ctx, message.ChannelID, resp)
		return nil
	})
}

// targetPlayer resolves the optional player argument, defaulting to the
// caller.
func (b *Bot) targetPlayer(ctx context.Context, g *coordinator.GuildTournament, message *discordgo.MessageCreate, args []string) (rules.PlayerID, error) {
	if len(args) == 0 {
		if player, ok := g.UserToPlayer[message.Author.ID]; ok {
			return player, nil
		}
		return rules.PlayerID{}, rules.ErrPlayerNotFound
	}
	return b.resolvePlayer(ctx, g, message.GuildID, args[0])
}
