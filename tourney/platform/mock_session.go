/* mock_session.go
 * Mock implementation of Session for testing. Records every side effect and
 * hands out predictable ids so tests can assert on created resources.
 */

package platform

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// MockSession implements Session for testing purposes.
type MockSession struct {
	// SentMessages stores all messages sent during tests
	SentMessages []MockMessage
	// EditedMessages stores all message edits during tests
	EditedMessages []MockMessage
	// CreatedRoles maps role id to role name
	CreatedRoles map[string]string
	// DeletedRoles lists role ids removed
	DeletedRoles []string
	// MemberRoles maps "guildID/userID" to granted role ids
	MemberRoles map[string][]string
	// CreatedChannels maps channel id to channel name
	CreatedChannels map[string]string
	// DeletedChannels lists channel ids removed
	DeletedChannels []string
	// GuildMemberList is returned by GuildMembers
	GuildMemberList []*discordgo.Member
	// ErrorToReturn allows tests to simulate errors on every call
	ErrorToReturn error

	nextID int
}

// MockMessage represents a message sent or edited in a channel
type MockMessage struct {
	ChannelID string
	MessageID string
	Content   string
	Embeds    []*discordgo.MessageEmbed
}

func NewMockSession() *MockSession {
	return &MockSession{
		CreatedRoles:    make(map[string]string),
		MemberRoles:     make(map[string][]string),
		CreatedChannels: make(map[string]string),
	}
}

func (m *MockSession) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s_%d", prefix, m.nextID)
}

func (m *MockSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	msgID := m.id("msg")
	m.SentMessages = append(m.SentMessages, MockMessage{ChannelID: channelID, MessageID: msgID, Content: content})
	return &discordgo.Message{ID: msgID, ChannelID: channelID, Content: content}, nil
}

func (m *MockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	msgID := m.id("msg")
	m.SentMessages = append(m.SentMessages, MockMessage{ChannelID: channelID, MessageID: msgID, Content: data.Content, Embeds: data.Embeds})
	return &discordgo.Message{ID: msgID, ChannelID: channelID, Content: data.Content}, nil
}

func (m *MockSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	mm := MockMessage{ChannelID: edit.Channel, MessageID: edit.ID}
	if edit.Content != nil {
		mm.Content = *edit.Content
	}
	if edit.Embeds != nil {
		mm.Embeds = *edit.Embeds
	}
	m.EditedMessages = append(m.EditedMessages, mm)
	return &discordgo.Message{ID: edit.ID, ChannelID: edit.Channel}, nil
}

func (m *MockSession) GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	roleID := m.id("role")
	m.CreatedRoles[roleID] = data.Name
	return &discordgo.Role{ID: roleID, Name: data.Name}, nil
}

func (m *MockSession) GuildRoleDelete(guildID string, roleID string, options ...discordgo.RequestOption) error {
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	delete(m.CreatedRoles, roleID)
	m.DeletedRoles = append(m.DeletedRoles, roleID)
	return nil
}

func (m *MockSession) GuildMemberRoleAdd(guildID string, userID string, roleID string, options ...discordgo.RequestOption) error {
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	key := guildID + "/" + userID
	m.MemberRoles[key] = append(m.MemberRoles[key], roleID)
	return nil
}

func (m *MockSession) GuildMemberRoleRemove(guildID string, userID string, roleID string, options ...discordgo.RequestOption) error {
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	key := guildID + "/" + userID
	roles := m.MemberRoles[key]
	for i, r := range roles {
		if r == roleID {
			m.MemberRoles[key] = append(roles[:i], roles[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	chanID := m.id("chan")
	m.CreatedChannels[chanID] = data.Name
	return &discordgo.Channel{ID: chanID, Name: data.Name, Type: data.Type}, nil
}

func (m *MockSession) ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	delete(m.CreatedChannels, channelID)
	m.DeletedChannels = append(m.DeletedChannels, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func (m *MockSession) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	var channels []*discordgo.Channel
	for id, name := range m.CreatedChannels {
		channels = append(channels, &discordgo.Channel{ID: id, Name: name})
	}
	return channels, nil
}

func (m *MockSession) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	var roles []*discordgo.Role
	for id, name := range m.CreatedRoles {
		roles = append(roles, &discordgo.Role{ID: id, Name: name})
	}
	return roles, nil
}

func (m *MockSession) GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	return m.GuildMemberList, nil
}

// GetLastMessage returns the last message sent, or an empty MockMessage.
func (m *MockSession) GetLastMessage() MockMessage {
	if len(m.SentMessages) == 0 {
		return MockMessage{}
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

// Ensure MockSession implements Session
var _ Session = (*MockSession)(nil)
