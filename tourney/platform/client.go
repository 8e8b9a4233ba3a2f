/* client.go
 * Capability wrapper over a Discord session. Every outbound call waits on a
 * shared rate limiter so background reconciliation can't starve interactive
 * commands of Discord's global request budget.
 */

package platform

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when a named channel, category or role does not
// exist in the guild.
var ErrNotFound = fmt.Errorf("not found in guild")

// Client exposes the platform side effects the tournament layer needs.
type Client struct {
	session Session
	limiter *rate.Limiter
}

// NewClient wraps a session. The limiter stays under Discord's global
// 50 req/s budget with room for the gateway's own traffic.
func NewClient(session Session) *Client {
	return &Client{
		session: session,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
	}
}

// SendMessage sends plain text to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.session.ChannelMessageSend(channelID, content)
}

// SendEmbed sends a single embed to a channel.
func (c *Client) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

// SendFile sends a file attachment with optional accompanying text.
func (c *Client) SendFile(ctx context.Context, channelID, content, filename string, file io.Reader) (*discordgo.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: filename, Reader: file}},
	})
}

// EditEmbed replaces the embed of an existing message.
func (c *Client) EditEmbed(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Embeds = &[]*discordgo.MessageEmbed{embed}
	_, err := c.session.ChannelMessageEditComplex(edit)
	return err
}

// CreateRole creates a guild role and returns its id.
func (c *Client) CreateRole(ctx context.Context, guildID, name string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	role, err := c.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to create role %q: %w", name, err)
	}
	return role.ID, nil
}

// DeleteRole removes a guild role.
func (c *Client) DeleteRole(ctx context.Context, guildID, roleID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.session.GuildRoleDelete(guildID, roleID)
}

// GrantRole adds a role to a member.
func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

// RevokeRole removes a role from a member.
func (c *Client) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.session.GuildMemberRoleRemove(guildID, userID, roleID)
}

// CreateChannel creates a voice or text channel, optionally under a category,
// and returns its id.
func (c *Client) CreateChannel(ctx context.Context, guildID, name string, kind discordgo.ChannelType, parentID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ch, err := c.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     kind,
		ParentID: parentID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create channel %q: %w", name, err)
	}
	return ch.ID, nil
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.session.ChannelDelete(channelID)
	return err
}

// FindChannel resolves a channel of the given type by name within a guild.
func (c *Client) FindChannel(ctx context.Context, guildID, name string, kind discordgo.ChannelType) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	channels, err := c.session.GuildChannels(guildID)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Type == kind && strings.EqualFold(ch.Name, name) {
			return ch.ID, nil
		}
	}
	return "", ErrNotFound
}

// FindRole resolves a role by name within a guild.
func (c *Client) FindRole(ctx context.Context, guildID, name string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	roles, err := c.session.GuildRoles(guildID)
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if strings.EqualFold(role.Name, name) {
			return role.ID, nil
		}
	}
	return "", ErrNotFound
}

// Members lists guild members, paging through Discord's 1000-member limit.
func (c *Client) Members(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := c.session.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < 1000 {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}
