/* bot.go
 * Contains logic used for creating and running the bot. Requires a discord
 * bot token; everything else is wired in through Deps from main.go.
 */

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/confirm"
	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/platform"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/store"
	"tourney-bot/tourney/updates"
)

// Deps are the bot's collaborators, shared with the web server and the
// background loops.
type Deps struct {
	Dir      *registry.Directory
	Confirms *confirm.Registry
	Updates  *updates.Channel
	Store    *store.Store
	Settings *SettingsManager
	Logger   *slog.Logger
}

type Bot struct {
	session *discordgo.Session
	client  *platform.Client
	deps    Deps

	// focus maps a guild to the tournament name its commands target when
	// the guild runs more than one at a time.
	focusMu sync.Mutex
	focus   map[string]string
}

func New(botToken string, deps Deps) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuildMembers
	return &Bot{
		session: session,
		client:  platform.NewClient(session),
		deps:    deps,
		focus:   make(map[string]string),
	}, nil
}

// Client exposes the rate-limited platform client for wiring coordinators.
func (b *Bot) Client() *platform.Client {
	return b.client
}

// Run opens the gateway session and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(b.onMessage)
	b.session.AddHandler(b.onRoleDelete)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.deps.Logger.Info("bot running")
	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) onMessage(discord *discordgo.Session, message *discordgo.MessageCreate) {
	// To prevent the bot from responding to its own messages.
	if message.Author.ID == discord.State.User.ID {
		return
	}
	b.route(context.Background(), message)
}

// onRoleDelete clears a tournament's cached player role when an admin
// deletes the role out from under it. Later registrations recreate it.
func (b *Bot) onRoleDelete(discord *discordgo.Session, event *discordgo.GuildRoleDelete) {
	for _, id := range b.deps.Dir.GuildTournaments(event.GuildID) {
		_ = b.deps.Dir.With(id, func(g *coordinator.GuildTournament) error {
			if g.TournRoleID == event.RoleID {
				g.TournRoleID = ""
				b.deps.Logger.Info("player role deleted externally, cleared cached id",
					"guild", event.GuildID, "role", event.RoleID)
			}
			return nil
		})
	}
}

// setFocus records which tournament a guild's commands target.
func (b *Bot) setFocus(guildID, name string) {
	b.focusMu.Lock()
	defer b.focusMu.Unlock()
	b.focus[guildID] = name
}

func (b *Bot) focusedName(guildID string) string {
	b.focusMu.Lock()
	defer b.focusMu.Unlock()
	return b.focus[guildID]
}
