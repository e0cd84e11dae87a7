package twitchirc

import (
	"fmt"
	"strings"
)

// IRCer is an outbound IRC command.
type IRCer interface {
	IRC() string
}

type PassMessage struct {
	Token string
}

func (p PassMessage) IRC() string {
	return "PASS " + p.Token
}

type NickMessage struct {
	Nick string
}

func (n NickMessage) IRC() string {
	return "NICK " + n.Nick
}

type CapReqMessage struct {
	Capabilities []string
}

func (c CapReqMessage) IRC() string {
	return "CAP REQ :" + strings.Join(c.Capabilities, " ")
}

var defaultCapabilities = []string{"twitch.tv/commands", "twitch.tv/tags"}

type PongMessage struct{}

func (PongMessage) IRC() string {
	return "PONG :tmi.twitch.tv"
}

// JoinMessage joins all channels with a single command.
type JoinMessage struct {
	Channels []string
}

func (j JoinMessage) IRC() string {
	return "JOIN " + ircChannelList(j.Channels)
}

type PartMessage struct {
	Channels []string
}

func (p PartMessage) IRC() string {
	return "PART " + ircChannelList(p.Channels)
}

type PrivateMessage struct {
	Channel string
	Content string

	// ReplyTo is the ID of the message this one answers, optional.
	ReplyTo string
}

func (p PrivateMessage) IRC() string {
	msg := fmt.Sprintf("PRIVMSG #%s :%s", normalizeChannel(p.Channel), p.Content)
	if p.ReplyTo != "" {
		return fmt.Sprintf("@reply-parent-msg-id=%s %s", escapeTagValue(p.ReplyTo), msg)
	}

	return msg
}

func ircChannelList(channels []string) string {
	names := make([]string, 0, len(channels))
	for _, c := range channels {
		names = append(names, "#"+normalizeChannel(c))
	}

	return strings.Join(names, ",")
}

// validateChannel rejects names that would end the line or split the channel list.
func validateChannel(name string) error {
	channel := normalizeChannel(name)
	if channel == "" || strings.ContainsAny(channel, "\r\n\x00 ,") {
		return fmt.Errorf("%w: channel name %q", ErrInvalidInput, name)
	}

	return nil
}

func validateChannels(names []string) error {
	for _, name := range names {
		if err := validateChannel(name); err != nil {
			return err
		}
	}

	return nil
}

// validateContent rejects content that would end the PRIVMSG line.
func validateContent(content string) error {
	if strings.ContainsAny(content, "\r\n\x00") {
		return fmt.Errorf("%w: message content contains a line break or NUL", ErrInvalidInput)
	}

	return nil
}

// encode joins the commands into one CRLF terminated payload.
func encode(msgs ...IRCer) []byte {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.IRC())
		b.WriteString("\r\n")
	}

	return []byte(b.String())
}
