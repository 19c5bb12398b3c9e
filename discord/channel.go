// Package discord provides a canillita.Channel that posts article chunks
// to a Discord channel as a chain of replies.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fwojciec/canillita"
)

// MaxMessageLength is Discord's message content limit.
const MaxMessageLength = 2000

// Ensure Channel implements canillita.Channel at compile time.
var _ canillita.Channel = (*Channel)(nil)

// Session is the part of *discordgo.Session used by Channel.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Channel posts messages to one Discord channel.
type Channel struct {
	session   Session
	channelID string
}

// NewChannel creates a Channel posting to channelID.
func NewChannel(session Session, channelID string) *Channel {
	return &Channel{session: session, channelID: channelID}
}

// NewSession creates a bot session for token.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return s, nil
}

// Deliver posts the first message to the channel and each following
// message as a reply to the one before it. Delivery stops at the first
// failure.
func (c *Channel) Deliver(ctx context.Context, item *canillita.Item, messages []string) error {
	if len(messages) == 0 {
		return canillita.Errorf(canillita.EINVALID, "no messages to deliver for item %q", item.ID)
	}

	var prev *discordgo.Message
	for i, content := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len([]rune(content)) > MaxMessageLength {
			return canillita.Errorf(canillita.EINVALID, "message %d exceeds %d characters", i+1, MaxMessageLength)
		}

		data := &discordgo.MessageSend{
			Content:         content,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}
		if prev != nil {
			data.Reference = prev.Reference()
		}

		msg, err := c.session.ChannelMessageSendComplex(c.channelID, data, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("send message %d of %d: %w", i+1, len(messages), err)
		}
		prev = msg
	}
	return nil
}
