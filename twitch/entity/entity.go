// Package entity holds the immutable domain values produced from Helix payloads and IRC tags.
package entity

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// User is a Twitch account as returned by Helix.
type User struct {
	ID              string    `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Type            string    `json:"type"`             // "", admin, global_mod or staff
	BroadcasterType string    `json:"broadcaster_type"` // "", affiliate or partner
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// Viewer is a user seen in a specific channel's chat.
type Viewer struct {
	User

	// Color is the chat color as 0xRRGGBB, 0 when the user never picked one.
	Color         int  `json:"color"`
	IsMod         bool `json:"is_mod"`
	IsSubscriber  bool `json:"is_subscriber"`
	IsTurbo       bool `json:"is_turbo"`
	IsBroadcaster bool `json:"is_broadcaster"`
}

type Game struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Channel struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
	Game        Game   `json:"game"`
	Title       string `json:"title"`
	Delay       int    `json:"delay"`
}

// IRCName returns the channel name as used on the wire.
func (c Channel) IRCName() string {
	return "#" + c.Username
}

// MessageSender sends chat messages, implemented by the IRC client.
type MessageSender interface {
	CreateMessage(ctx context.Context, channel, content, replyTo string) (Message, error)
}

type Message struct {
	ID        string    `json:"id"`
	Author    Viewer    `json:"author"`
	Channel   Channel   `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
	Bits      int       `json:"bits"`
	Content   string    `json:"content"`
}

// Respond sends content to the message's channel. With reply set the new message
// is threaded under m.
func (m Message) Respond(ctx context.Context, sender MessageSender, content string, reply bool) (Message, error) {
	var replyTo string
	if reply {
		replyTo = m.ID
	}

	return sender.CreateMessage(ctx, m.Channel.Username, content, replyTo)
}

type StreamType string

const (
	StreamTypeLive    StreamType = "live"
	StreamTypeUnknown StreamType = ""
)

type Stream struct {
	ID           string     `json:"id"`
	Channel      Channel    `json:"channel"`
	Type         StreamType `json:"type"`
	Title        string     `json:"title"`
	ViewerCount  int        `json:"viewer_count"`
	CreatedAt    time.Time  `json:"created_at"`
	IsMature     bool       `json:"is_mature"`
	ThumbnailURL string     `json:"thumbnail_url"`
}

func (s Stream) Uptime() time.Duration {
	return time.Since(s.CreatedAt)
}

// ThumbnailURLFor fills the {width} and {height} placeholders of the thumbnail template.
func (s Stream) ThumbnailURLFor(width, height int) string {
	r := strings.NewReplacer(
		"{width}", strconv.Itoa(width),
		"{height}", strconv.Itoa(height),
	)
	return r.Replace(s.ThumbnailURL)
}
