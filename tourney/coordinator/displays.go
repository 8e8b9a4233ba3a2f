/* displays.go
 * Rendering of query responses and the pinned status/standings display
 * messages. Displays live in the guild's pairings channel and are edited in
 * place; refresh failures are logged and swallowed.
 */

package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"tourney-bot/tourney/rules"
)

// createDisplays posts the status and standings messages when the
// tournament starts. Best effort; a guild without a pairings channel simply
// has no displays.
func (g *GuildTournament) createDisplays(ctx context.Context) {
	channelID := g.deps.Settings(g.GuildID).PairingsChannelID
	if channelID == "" {
		return
	}
	if msg, err := g.deps.Client.SendEmbed(ctx, channelID, g.renderStatus()); err != nil {
		g.deps.Logger.Warn("failed to post status display", slog.Any("error", err))
	} else {
		g.StatusMsg = &MessageRef{ChannelID: channelID, MessageID: msg.ID}
	}
	if msg, err := g.deps.Client.SendEmbed(ctx, channelID, g.renderStandings()); err != nil {
		g.deps.Logger.Warn("failed to post standings display", slog.Any("error", err))
	} else {
		g.StandingsMsg = &MessageRef{ChannelID: channelID, MessageID: msg.ID}
	}
}

// refreshDisplays re-renders both display messages.
func (g *GuildTournament) refreshDisplays(ctx context.Context) {
	if g.StatusMsg != nil {
		err := g.deps.Client.EditEmbed(ctx, g.StatusMsg.ChannelID, g.StatusMsg.MessageID, g.renderStatus())
		if err != nil {
			g.deps.Logger.Warn("failed to refresh status display", slog.Any("error", err))
		}
	}
	if g.StandingsMsg != nil {
		err := g.deps.Client.EditEmbed(ctx, g.StandingsMsg.ChannelID, g.StandingsMsg.MessageID, g.renderStandings())
		if err != nil {
			g.deps.Logger.Warn("failed to refresh standings display", slog.Any("error", err))
		}
	}
}

func (g *GuildTournament) renderStatus() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: g.Tourn.Name,
		Description: fmt.Sprintf("Status: %s · %d active players",
			g.Tourn.Status, g.Tourn.ActivePlayerCount()),
	}
	active := g.Tourn.ActiveRounds()
	sort.Slice(active, func(i, j int) bool { return active[i].Number < active[j].Number })
	now := time.Now()
	for _, r := range active {
		names := make([]string, 0, len(r.Players))
		for _, p := range r.Players {
			names = append(names, g.playerName(p))
		}
		value := "waiting for result"
		if r.Status == rules.RoundUncertified {
			value = "result in, awaiting confirmation"
		}
		if left := r.TimeLeft(now); left > 0 {
			value += fmt.Sprintf(" · %s left", left.Round(time.Minute))
		} else {
			value += " · time expired"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Match %d: %s", r.Number, strings.Join(names, " vs ")),
			Value: value,
		})
	}
	if len(active) == 0 {
		embed.Description += " · no active matches"
	}
	return embed
}

func (g *GuildTournament) renderStandings() *discordgo.MessageEmbed {
	rows := g.Tourn.Standings()
	var b strings.Builder
	for _, s := range rows {
		fmt.Fprintf(&b, "%d. %s — %d pts (OMW %.1f%%)\n",
			s.Rank, s.Name, s.MatchPoints, s.OppMatchWinPct*100)
	}
	if b.Len() == 0 {
		b.WriteString("No players yet.")
	}
	return &discordgo.MessageEmbed{
		Title:       g.Tourn.Name + " — Standings",
		Description: b.String(),
	}
}

func (g *GuildTournament) viewPlayers() Response {
	players := make([]*rules.Player, 0, len(g.Tourn.Players))
	for _, p := range g.Tourn.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** — %d players\n", g.Tourn.Name, len(players))
	for _, p := range players {
		line := p.Name
		if p.GamerTag != "" {
			line += fmt.Sprintf(" (%s)", p.GamerTag)
		}
		if !p.Active() {
			line += " — dropped"
		}
		b.WriteString(line + "\n")
	}
	return Response{Text: b.String()}
}

func (g *GuildTournament) viewSettings() Response {
	s := g.Tourn.Settings
	embed := &discordgo.MessageEmbed{
		Title: g.Tourn.Name + " — Settings",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Format", Value: s.Format, Inline: true},
			{Name: "Match size", Value: fmt.Sprint(s.MatchSize), Inline: true},
			{Name: "Round length", Value: s.RoundLength.String(), Inline: true},
			{Name: "Decks per player", Value: fmt.Sprintf("%d–%d", s.MinDeckCount, s.MaxDeckCount), Inline: true},
			{Name: "Registration", Value: openClosed(s.RegOpen), Inline: true},
			{Name: "Decklists required", Value: fmt.Sprint(s.RequireDecks), Inline: true},
		},
	}
	return Response{Embed: embed}
}

func openClosed(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}

// exportStandings renders the standings as a CSV attachment.
func (g *GuildTournament) exportStandings() Response {
	var b strings.Builder
	b.WriteString("rank,name,match_points,match_win_pct,opp_match_win_pct\n")
	for _, s := range g.Tourn.Standings() {
		fmt.Fprintf(&b, "%d,%s,%d,%.4f,%.4f\n",
			s.Rank, s.Name, s.MatchPoints, s.MatchWinPct, s.OppMatchWinPct)
	}
	return Response{
		Text:     fmt.Sprintf("Standings for %s:", g.Tourn.Name),
		FileName: "standings.csv",
		FileBody: []byte(b.String()),
	}
}

func (g *GuildTournament) viewProfile(player rules.PlayerID) (Response, error) {
	p, err := g.Tourn.GetPlayer(player)
	if err != nil {
		return Response{}, err
	}
	embed := &discordgo.MessageEmbed{Title: p.Name}
	if p.GamerTag != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Gamer tag", Value: p.GamerTag, Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Status", Value: string(p.Status), Inline: true,
	})
	names := make([]string, 0, len(p.Decks))
	for _, d := range p.DecksByAge() {
		names = append(names, d.Name)
	}
	if len(names) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Decks", Value: strings.Join(names, ", "),
		})
	}
	return Response{Embed: embed}, nil
}

// viewDecklist returns the raw decklist as an attachment; lists routinely
// exceed the message length limit.
func (g *GuildTournament) viewDecklist(player rules.PlayerID, deck string) (Response, error) {
	p, err := g.Tourn.GetPlayer(player)
	if err != nil {
		return Response{}, err
	}
	d, ok := p.Decks[deck]
	if !ok {
		return Response{}, rules.ErrDeckNotFound
	}
	return Response{
		Text:     fmt.Sprintf("%s — %s:", p.Name, d.Name),
		FileName: d.Name + ".txt",
		FileBody: []byte(d.List),
	}, nil
}

func (g *GuildTournament) viewMatchStatus(number int) (Response, error) {
	r, err := g.Tourn.RoundByNumber(number)
	if err != nil {
		return Response{}, err
	}
	embed := &discordgo.MessageEmbed{Title: fmt.Sprintf("Match %d", r.Number)}
	switch {
	case r.Status == rules.RoundDead:
		embed.Description = "Cancelled."
	case r.Status == rules.RoundCertified && r.Winner != nil:
		embed.Description = fmt.Sprintf("Certified — winner: %s.", g.playerName(*r.Winner))
	case r.Status == rules.RoundCertified:
		embed.Description = "Certified — draw."
	case r.Status == rules.RoundUncertified:
		embed.Description = "Result recorded, awaiting confirmation."
	default:
		embed.Description = fmt.Sprintf("In progress · %s left.", r.TimeLeft(time.Now()).Round(time.Minute))
	}
	for _, p := range r.Players {
		value := fmt.Sprintf("%d wins", r.Results[p])
		if r.Confirmations[p] {
			value += " · confirmed"
		}
		if r.HasDropped(p) {
			value += " · dropped"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: g.playerName(p), Value: value, Inline: true,
		})
	}
	return Response{Embed: embed}, nil
}
