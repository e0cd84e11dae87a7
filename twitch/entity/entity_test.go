package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	channel, content, replyTo string
}

func (r *recordingSender) CreateMessage(_ context.Context, channel, content, replyTo string) (Message, error) {
	r.channel, r.content, r.replyTo = channel, content, replyTo
	return Message{Content: content}, nil
}

func TestMessage_Respond(t *testing.T) {
	t.Parallel()

	msg := Message{ID: "parent-id", Channel: Channel{Username: "twitchdev"}}

	t.Run("plain", func(t *testing.T) {
		t.Parallel()

		sender := &recordingSender{}
		_, err := msg.Respond(context.Background(), sender, "hello", false)
		require.NoError(t, err)
		require.Equal(t, "twitchdev", sender.channel)
		require.Equal(t, "hello", sender.content)
		require.Empty(t, sender.replyTo)
	})

	t.Run("reply", func(t *testing.T) {
		t.Parallel()

		sender := &recordingSender{}
		_, err := msg.Respond(context.Background(), sender, "hello", true)
		require.NoError(t, err)
		require.Equal(t, "parent-id", sender.replyTo)
	})
}

func TestStream(t *testing.T) {
	t.Parallel()

	s := Stream{
		CreatedAt:    time.Now().Add(-time.Hour),
		ThumbnailURL: "https://static-cdn.jtvnw.net/previews-ttv/live_user_twitchdev-{width}x{height}.jpg",
	}

	require.Equal(t, "https://static-cdn.jtvnw.net/previews-ttv/live_user_twitchdev-1920x1080.jpg", s.ThumbnailURLFor(1920, 1080))
	require.InDelta(t, time.Hour.Seconds(), s.Uptime().Seconds(), 5)
}
