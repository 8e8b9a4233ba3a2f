/* take_action.go
 * Action dispatch: translates an Action into at most one rules-engine
 * operation, applies it, and performs side effects on success. Side effects
 * (match updates, display refreshes, role changes) are best effort and a
 * rules mutation is never rolled back because a Discord call failed.
 */

package coordinator

import (
	"context"
	"fmt"
	"strings"

	"tourney-bot/tourney/confirm"
	"tourney-bot/tourney/rules"
	"tourney-bot/tourney/updates"
)

// TakeAction applies one action for the invoking user. Errors are typed
// (rules package sentinels where they originate there) and are converted to
// user-facing text by the command shell via UserMessage.
func (g *GuildTournament) TakeAction(ctx context.Context, inv Invocation, action Action) (Response, error) {
	switch a := action.(type) {
	// Queries.
	case ViewPlayers:
		return g.viewPlayers(), nil
	case ViewStandings:
		return Response{Embed: g.renderStandings()}, nil
	case ViewStatus:
		return Response{Embed: g.renderStatus()}, nil
	case ViewSettings:
		return g.viewSettings(), nil
	case ExportStandings:
		return g.exportStandings(), nil
	case ViewProfile:
		return g.viewProfile(a.Player)
	case ViewDecklist:
		return g.viewDecklist(a.Player, a.Deck)
	case ViewMatchStatus:
		return g.viewMatchStatus(a.RoundNumber)

	// Confirmable actions: propose, never mutate.
	case ProposeCut:
		return g.propose(inv, confirm.CutToTop{N: a.N},
			fmt.Sprintf("Cut to top %d? This will drop %d of %d players.",
				a.N, max(0, g.Tourn.ActivePlayerCount()-a.N), g.Tourn.ActivePlayerCount()))
	case ProposeEnd:
		return g.propose(inv, confirm.EndTournament{},
			fmt.Sprintf("End %s? Standings will be final and all match resources removed.", g.Tourn.Name))
	case ProposeCancel:
		return g.propose(inv, confirm.CancelTournament{},
			fmt.Sprintf("Cancel %s? The tournament will be discarded without final standings.", g.Tourn.Name))
	case ProposePrunePlayers:
		count := g.Tourn.PrunePlayerCount()
		return g.propose(inv, confirm.PrunePlayers{Count: count},
			fmt.Sprintf("Prune players? %d players without the required decks will be dropped.", count))
	case ProposePruneDecks:
		count := g.Tourn.PruneDeckCount()
		return g.propose(inv, confirm.PruneDecks{Count: count},
			fmt.Sprintf("Prune decks? %d decks over the per-player limit will be removed.", count))
	case ProposePair:
		return g.propose(inv, confirm.PairNextRound{},
			fmt.Sprintf("Pair the next round? %d active players will be matched.", g.Tourn.ActivePlayerCount()))

	// Direct mutating actions.
	case Register:
		return g.register(ctx, inv.UserID, inv.DisplayName, false)
	case AdminRegister:
		return g.register(ctx, a.UserID, a.Name, true)
	case RegisterGuest:
		return g.registerGuest(a.Name)
	case Drop:
		player, err := g.playerFor(inv.UserID)
		if err != nil {
			return Response{}, err
		}
		return g.drop(ctx, player)
	case AdminDrop:
		return g.drop(ctx, a.Player)
	case RecordResult:
		player, err := g.playerFor(inv.UserID)
		if err != nil {
			return Response{}, err
		}
		return g.applyRoundOp(ctx, rules.RecordResult{Player: player, Wins: a.Wins}, updates.KindResult,
			fmt.Sprintf("Recorded %d wins for %s.", a.Wins, g.playerName(player)))
	case ConfirmResult:
		player, err := g.playerFor(inv.UserID)
		if err != nil {
			return Response{}, err
		}
		return g.applyRoundOp(ctx, rules.ConfirmResult{Player: player}, updates.KindConfirmation,
			fmt.Sprintf("%s confirmed the result.", g.playerName(player)))
	case AdminRecordResult:
		r, err := g.Tourn.RoundByNumber(a.RoundNumber)
		if err != nil {
			return Response{}, err
		}
		return g.applyRoundOp(ctx, rules.AdminRecordResult{Round: r.ID, Player: a.Player, Wins: a.Wins}, updates.KindResult,
			fmt.Sprintf("Recorded %d wins for %s in match %d.", a.Wins, g.playerName(a.Player), a.RoundNumber))
	case AdminConfirmResult:
		r, err := g.Tourn.RoundByNumber(a.RoundNumber)
		if err != nil {
			return Response{}, err
		}
		return g.applyRoundOp(ctx, rules.AdminConfirmResult{Round: r.ID, Player: a.Player}, updates.KindConfirmation,
			fmt.Sprintf("Confirmed the result for %s in match %d.", g.playerName(a.Player), a.RoundNumber))
	case ForceConfirm:
		r, err := g.Tourn.RoundByNumber(a.RoundNumber)
		if err != nil {
			return Response{}, err
		}
		return g.applyRoundOp(ctx, rules.ForceConfirmRound{Round: r.ID}, updates.KindForceConfirm,
			fmt.Sprintf("Match %d force-confirmed.", a.RoundNumber))
	case GiveBye:
		data, err := g.Tourn.ApplyOp(rules.GiveBye{Players: []rules.PlayerID{a.Player}})
		if err != nil {
			return Response{}, err
		}
		round := data.(rules.RoundData).Round
		g.refreshDisplays(ctx)
		return Response{Text: fmt.Sprintf("%s receives a bye (match %d).", g.playerName(a.Player), round.Number)}, nil
	case CreateMatch:
		data, err := g.Tourn.ApplyOp(rules.CreateRound{Players: a.Players})
		if err != nil {
			return Response{}, err
		}
		round := data.(rules.RoundData).Round
		g.publish(round.ID, updates.KindNewMatch)
		names := make([]string, 0, len(a.Players))
		for _, p := range a.Players {
			names = append(names, g.playerName(p))
		}
		return Response{Text: fmt.Sprintf("Created match %d: %s.", round.Number, strings.Join(names, " vs "))}, nil
	case TimeExtension:
		r, err := g.Tourn.RoundByNumber(a.RoundNumber)
		if err != nil {
			return Response{}, err
		}
		if _, err := g.Tourn.ApplyOp(rules.TimeExtension{Round: r.ID, Ext: a.Ext}); err != nil {
			return Response{}, err
		}
		g.publish(r.ID, updates.KindTimeExtension)
		return Response{Text: fmt.Sprintf("Match %d extended by %s.", a.RoundNumber, a.Ext)}, nil
	case CancelMatch:
		r, err := g.Tourn.RoundByNumber(a.RoundNumber)
		if err != nil {
			return Response{}, err
		}
		if _, err := g.Tourn.ApplyOp(rules.CancelRound{Round: r.ID}); err != nil {
			return Response{}, err
		}
		g.publish(r.ID, updates.KindCancelled)
		return Response{Text: fmt.Sprintf("Match %d cancelled.", a.RoundNumber)}, nil
	case AddDeck:
		player, err := g.playerFor(inv.UserID)
		if err != nil {
			return Response{}, err
		}
		if _, err := g.Tourn.ApplyOp(rules.AddDeck{Player: player, Name: a.Name, List: a.List}); err != nil {
			return Response{}, err
		}
		return Response{Text: fmt.Sprintf("Deck %q registered.", a.Name)}, nil
	case RemoveDeck:
		player, err := g.playerFor(inv.UserID)
		if err != nil {
			return Response{}, err
		}
		if _, err := g.Tourn.ApplyOp(rules.RemoveDeck{Player: player, Name: a.Name}); err != nil {
			return Response{}, err
		}
		return Response{Text: fmt.Sprintf("Deck %q removed.", a.Name)}, nil
	case SetGamerTag:
		player, err := g.playerFor(inv.UserID)
		if err != nil {
			return Response{}, err
		}
		if _, err := g.Tourn.ApplyOp(rules.SetGamerTag{Player: player, Tag: a.Tag}); err != nil {
			return Response{}, err
		}
		return Response{Text: fmt.Sprintf("Gamer tag set to %q.", a.Tag)}, nil
	case Start:
		if _, err := g.Tourn.ApplyOp(rules.Start{}); err != nil {
			return Response{}, err
		}
		g.createDisplays(ctx)
		return Response{Text: fmt.Sprintf("%s has started!", g.Tourn.Name)}, nil
	case Freeze:
		if _, err := g.Tourn.ApplyOp(rules.Freeze{}); err != nil {
			return Response{}, err
		}
		return Response{Text: fmt.Sprintf("%s is frozen.", g.Tourn.Name)}, nil
	case Thaw:
		if _, err := g.Tourn.ApplyOp(rules.Thaw{}); err != nil {
			return Response{}, err
		}
		return Response{Text: fmt.Sprintf("%s has resumed.", g.Tourn.Name)}, nil
	case UpdateSettings:
		if _, err := g.Tourn.ApplyOp(rules.UpdateSettings{Settings: a.Settings}); err != nil {
			return Response{}, err
		}
		return Response{Text: "Tournament settings updated."}, nil
	case RawOp:
		if _, err := g.Tourn.ApplyOp(a.Op); err != nil {
			return Response{}, err
		}
		g.refreshDisplays(ctx)
		return Response{Text: "Operation applied."}, nil

	default:
		return Response{}, fmt.Errorf("unknown action %T", action)
	}
}

// propose registers a pending confirmation and returns the prompt.
func (g *GuildTournament) propose(inv Invocation, action confirm.Action, prompt string) (Response, error) {
	g.deps.Confirms.Propose(inv.UserID, confirm.Pending{
		Tournament: g.Tourn.ID,
		Guild:      g.GuildID,
		Action:     action,
	})
	return Response{Text: prompt + " Reply `yes` to proceed or `no` to abort."}, nil
}

// applyRoundOp applies an operation that targets a round, publishes the
// update and refreshes the displays once when the round newly certifies.
func (g *GuildTournament) applyRoundOp(ctx context.Context, op rules.TournOp, kind updates.Kind, text string) (Response, error) {
	data, err := g.Tourn.ApplyOp(op)
	if err != nil {
		return Response{}, err
	}
	rd, ok := data.(rules.RoundData)
	if !ok {
		return Response{Text: text}, nil
	}
	g.publish(rd.Round.ID, kind)
	if rd.Certified {
		// Only a full certification refreshes the status and standings
		// displays; partial confirmations would be redundant refreshes.
		g.refreshDisplays(ctx)
		text += fmt.Sprintf(" Match %d is certified.", rd.Round.Number)
	}
	return Response{Text: text}, nil
}

func (g *GuildTournament) register(ctx context.Context, userID, name string, admin bool) (Response, error) {
	if _, exists := g.UserToPlayer[userID]; exists {
		return Response{}, rules.ErrAlreadyRegistered
	}
	var op rules.TournOp = rules.RegisterPlayer{Name: name}
	if admin {
		op = rules.AdminRegisterPlayer{Name: name}
	}
	data, err := g.Tourn.ApplyOp(op)
	if err != nil {
		return Response{}, err
	}
	player := data.(rules.PlayerData).Player
	g.UserToPlayer[userID] = player.ID
	g.PlayerToUser[player.ID] = userID
	g.grantTournRole(ctx, userID)
	return Response{Text: fmt.Sprintf("%s is registered for %s.", name, g.Tourn.Name)}, nil
}

func (g *GuildTournament) registerGuest(name string) (Response, error) {
	data, err := g.Tourn.ApplyOp(rules.RegisterGuest{Name: name})
	if err != nil {
		return Response{}, err
	}
	player := data.(rules.PlayerData).Player
	g.Guests[name] = player.ID
	return Response{Text: fmt.Sprintf("Guest %s is registered for %s.", name, g.Tourn.Name)}, nil
}

func (g *GuildTournament) drop(ctx context.Context, player rules.PlayerID) (Response, error) {
	name := g.playerName(player)
	data, err := g.Tourn.ApplyOp(rules.DropPlayer{Player: player})
	if err != nil {
		return Response{}, err
	}
	if userID, ok := g.PlayerToUser[player]; ok {
		g.revokeTournRole(ctx, userID)
	}
	if rd, ok := data.(rules.RoundData); ok {
		g.publish(rd.Round.ID, updates.KindPlayerDropped)
		if rd.Certified {
			g.refreshDisplays(ctx)
		}
	}
	return Response{Text: fmt.Sprintf("%s has dropped from %s.", name, g.Tourn.Name)}, nil
}

// ExecuteConfirmed runs a confirmed destructive action. Called by the
// command shell after the confirmation registry resolved an affirmative
// reply from the proposing user.
func (g *GuildTournament) ExecuteConfirmed(ctx context.Context, action confirm.Action) (Response, error) {
	switch a := action.(type) {
	case confirm.CutToTop:
		data, err := g.Tourn.ApplyOp(rules.Cut{N: a.N})
		if err != nil {
			return Response{}, err
		}
		g.refreshDisplays(ctx)
		return Response{Text: fmt.Sprintf("Cut to top %d: %d players dropped.", a.N, data.(rules.CountData).Count)}, nil
	case confirm.EndTournament:
		if _, err := g.Tourn.ApplyOp(rules.End{}); err != nil {
			return Response{}, err
		}
		g.refreshDisplays(ctx)
		g.Cleanup(ctx)
		return Response{Text: fmt.Sprintf("%s has ended. Congratulations to the winners!", g.Tourn.Name)}, nil
	case confirm.CancelTournament:
		if _, err := g.Tourn.ApplyOp(rules.Cancel{}); err != nil {
			return Response{}, err
		}
		g.Cleanup(ctx)
		return Response{Text: fmt.Sprintf("%s has been cancelled.", g.Tourn.Name)}, nil
	case confirm.PrunePlayers:
		data, err := g.Tourn.ApplyOp(rules.PrunePlayers{})
		if err != nil {
			return Response{}, err
		}
		g.refreshDisplays(ctx)
		return Response{Text: fmt.Sprintf("Pruned %d players.", data.(rules.CountData).Count)}, nil
	case confirm.PruneDecks:
		data, err := g.Tourn.ApplyOp(rules.PruneDecks{})
		if err != nil {
			return Response{}, err
		}
		return Response{Text: fmt.Sprintf("Pruned %d decks.", data.(rules.CountData).Count)}, nil
	case confirm.PairNextRound:
		data, err := g.Tourn.ApplyOp(rules.PairRound{})
		if err != nil {
			return Response{}, err
		}
		rounds := data.(rules.RoundsData).Rounds
		matches, byes := 0, 0
		for _, r := range rounds {
			if r.IsBye {
				byes++
				continue
			}
			matches++
			g.publish(r.ID, updates.KindNewMatch)
		}
		if byes > 0 {
			g.refreshDisplays(ctx)
		}
		return Response{Text: fmt.Sprintf("Paired %d matches (%d byes).", matches, byes)}, nil
	default:
		return Response{}, fmt.Errorf("unknown confirmable action %T", action)
	}
}
