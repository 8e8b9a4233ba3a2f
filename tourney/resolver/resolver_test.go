/* resolver_test.go
 * Unit tests for user token resolution.
 */

package resolver

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	members []*discordgo.Member
}

func (l *staticLister) Members(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	return l.members, nil
}

func member(id, username, nick string) *discordgo.Member {
	return &discordgo.Member{Nick: nick, User: &discordgo.User{ID: id, Username: username}}
}

func testLister() *staticLister {
	return &staticLister{members: []*discordgo.Member{
		member("100", "alice", "Ace"),
		member("200", "bob", ""),
		member("300", "bobby", "Catfish"),
		member("400", "carol", "Seabiscuit"),
	}}
}

// TestResolveUser_RawID passes numeric tokens through untouched
func TestResolveUser_RawID(t *testing.T) {
	id, err := ResolveUser(context.Background(), testLister(), "g1", "123456789012345678")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678", id)
}

// TestResolveUser_Mention parses both mention forms
func TestResolveUser_Mention(t *testing.T) {
	for _, token := range []string{"<@100>", "<@!100>"} {
		id, err := ResolveUser(context.Background(), testLister(), "g1", token)
		require.NoError(t, err)
		assert.Equal(t, "100", id)
	}
}

// TestResolveUser_NicknameBeatsUsername prefers a nickname match even when a
// username would also match
func TestResolveUser_NicknameBeatsUsername(t *testing.T) {
	// "sea" matches nick "Seabiscuit" only; usernames are never consulted.
	id, err := ResolveUser(context.Background(), testLister(), "g1", "sea")
	require.NoError(t, err)
	assert.Equal(t, "400", id)
}

// TestResolveUser_UsernameFallback falls through to usernames when no
// nickname matches
func TestResolveUser_UsernameFallback(t *testing.T) {
	id, err := ResolveUser(context.Background(), testLister(), "g1", "carol")
	require.NoError(t, err)
	assert.Equal(t, "400", id)
}

// TestResolveUser_AmbiguousFailsInsteadOfFallingThrough reports ambiguity at
// the username level rather than guessing
func TestResolveUser_AmbiguousFailsInsteadOfFallingThrough(t *testing.T) {
	_, err := ResolveUser(context.Background(), testLister(), "g1", "bob")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

// TestResolveUser_NoMatchSuggests returns guidance with close names
func TestResolveUser_NoMatchSuggests(t *testing.T) {
	_, err := ResolveUser(context.Background(), testLister(), "g1", "alicia")
	require.ErrorIs(t, err, ErrNoMatch)
	assert.Contains(t, err.Error(), "exact name or a mention")
}

// TestResolveUser_CaseInsensitive matches regardless of case
func TestResolveUser_CaseInsensitive(t *testing.T) {
	id, err := ResolveUser(context.Background(), testLister(), "g1", "ACE")
	require.NoError(t, err)
	assert.Equal(t, "100", id)
}

// TestSuggest ranks closer names first and caps at three
func TestSuggest(t *testing.T) {
	got := Suggest("bb", []string{"bob", "bobby", "alice", "babble", "barb"})
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 3)
}
