/* resolver.go
 * Resolves free-text user tokens into Discord user ids. Rules apply in
 * strict priority order: raw numeric id, mention syntax, unique nickname
 * substring, unique username substring. Multiple candidates at one level
 * fail as ambiguous instead of falling through; the bot never guesses
 * between two people.
 */

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var (
	// ErrAmbiguous indicates more than one member matched the token.
	ErrAmbiguous = errors.New("ambiguous name")
	// ErrNoMatch indicates no member matched the token.
	ErrNoMatch = errors.New("no matching member")
)

// MemberLister supplies the guild member list, usually platform.Client.
type MemberLister interface {
	Members(ctx context.Context, guildID string) ([]*discordgo.Member, error)
}

// ResolveUser resolves token to exactly one Discord user id within a guild.
func ResolveUser(ctx context.Context, lister MemberLister, guildID, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty name", ErrNoMatch)
	}

	if isDigits(token) {
		return token, nil
	}

	if id, ok := parseMention(token); ok {
		return id, nil
	}

	members, err := lister.Members(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("failed to list guild members: %w", err)
	}

	needle := strings.ToLower(token)

	// Nicknames take priority over usernames so a server-specific name wins.
	if id, err := uniqueMatch(members, needle, func(m *discordgo.Member) string { return m.Nick }); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	if id, err := uniqueMatch(members, needle, func(m *discordgo.Member) string { return m.User.Username }); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	if suggestions := Suggest(token, memberNames(members)); len(suggestions) > 0 {
		return "", fmt.Errorf("%w for %q (did you mean %s?); use an exact name or a mention",
			ErrNoMatch, token, strings.Join(suggestions, ", "))
	}
	return "", fmt.Errorf("%w for %q; use an exact name or a mention", ErrNoMatch, token)
}

// uniqueMatch finds the single member whose name contains needle. Returns an
// empty id when nothing matches, and ErrAmbiguous when several do.
func uniqueMatch(members []*discordgo.Member, needle string, name func(*discordgo.Member) string) (string, error) {
	var found *discordgo.Member
	var candidates []string
	for _, m := range members {
		n := name(m)
		if n == "" || !strings.Contains(strings.ToLower(n), needle) {
			continue
		}
		candidates = append(candidates, n)
		found = m
	}
	switch len(candidates) {
	case 0:
		return "", nil
	case 1:
		return found.User.ID, nil
	default:
		return "", fmt.Errorf("%w: %q matches %s; be more specific or use a mention",
			ErrAmbiguous, needle, strings.Join(candidates, ", "))
	}
}

// Suggest ranks candidates by fuzzy distance to input and returns up to
// three close names for error guidance.
func Suggest(input string, candidates []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(input, candidates)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)
	var out []string
	for _, r := range ranks {
		out = append(out, r.Target)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func memberNames(members []*discordgo.Member) []string {
	var names []string
	for _, m := range members {
		if m.Nick != "" {
			names = append(names, m.Nick)
		}
		names = append(names, m.User.Username)
	}
	return names
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// parseMention extracts the user id from <@id> or <@!id> mention syntax.
func parseMention(token string) (string, bool) {
	if !strings.HasPrefix(token, "<@") || !strings.HasSuffix(token, ">") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(token, "<@"), ">")
	id = strings.TrimPrefix(id, "!")
	if !isDigits(id) {
		return "", false
	}
	return id, true
}
