package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/julez-dev/chatbridge/twitch"
)

// Factory turns Helix payloads and IRC tags into entities.
type Factory interface {
	User(data twitch.UserData) User
	Viewer(user User, tags map[string]string) Viewer
	Channel(data twitch.ChannelData) Channel
	Stream(data twitch.StreamData, channel Channel) Stream
	Message(tags map[string]string, author Viewer, channel Channel, content string) Message
}

// DefaultFactory maps payloads field by field. Missing tags leave the zero value.
type DefaultFactory struct{}

func (DefaultFactory) User(data twitch.UserData) User {
	return User{
		ID:              data.ID,
		Login:           data.Login,
		DisplayName:     data.DisplayName,
		Type:            data.Type,
		BroadcasterType: data.BroadcasterType,
		Description:     data.Description,
		ProfileImageURL: data.ProfileImageURL,
		OfflineImageURL: data.OfflineImageURL,
		CreatedAt:       data.CreatedAt,
	}
}

func (DefaultFactory) Viewer(user User, tags map[string]string) Viewer {
	return Viewer{
		User:          user,
		Color:         parseColor(tags["color"]),
		IsMod:         tags["mod"] == "1",
		IsSubscriber:  tags["subscriber"] == "1",
		IsTurbo:       tags["turbo"] == "1",
		IsBroadcaster: hasBadge(tags["badges"], "broadcaster"),
	}
}

func (DefaultFactory) Channel(data twitch.ChannelData) Channel {
	return Channel{
		ID:          data.BroadcasterID,
		Username:    data.BroadcasterLogin,
		DisplayName: data.BroadcasterName,
		Language:    data.BroadcasterLanguage,
		Game: Game{
			ID:   data.GameID,
			Name: data.GameName,
		},
		Title: data.Title,
		Delay: data.Delay,
	}
}

func (DefaultFactory) Stream(data twitch.StreamData, channel Channel) Stream {
	streamType := StreamTypeUnknown
	if data.Type == string(StreamTypeLive) {
		streamType = StreamTypeLive
	}

	return Stream{
		ID:           data.ID,
		Channel:      channel,
		Type:         streamType,
		Title:        data.Title,
		ViewerCount:  data.ViewerCount,
		CreatedAt:    data.StartedAt,
		IsMature:     data.IsMature,
		ThumbnailURL: data.ThumbnailURL,
	}
}

func (DefaultFactory) Message(tags map[string]string, author Viewer, channel Channel, content string) Message {
	msg := Message{
		ID:      tags["id"],
		Author:  author,
		Channel: channel,
		Content: content,
	}

	if ts, err := strconv.ParseInt(tags["tmi-sent-ts"], 10, 64); err == nil {
		msg.CreatedAt = time.UnixMilli(ts).UTC()
	}

	if bits, err := strconv.Atoi(tags["bits"]); err == nil {
		msg.Bits = bits
	}

	return msg
}

// parseColor parses #RRGGBB, anything else yields 0.
func parseColor(s string) int {
	if !strings.HasPrefix(s, "#") {
		return 0
	}

	c, err := strconv.ParseInt(s[1:], 16, 32)
	if err != nil {
		return 0
	}

	return int(c)
}

// hasBadge checks a badges tag like "broadcaster/1,subscriber/12".
func hasBadge(badges, name string) bool {
	for badge := range strings.SplitSeq(badges, ",") {
		setID, _, _ := strings.Cut(badge, "/")
		if setID == name {
			return true
		}
	}

	return false
}
