package twitchirc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoder_Feed(t *testing.T) {
	t.Parallel()

	t.Run("multiple lines in one read", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		msgs := d.Feed([]byte("PING :tmi.twitch.tv\r\n:bot!bot@bot.tmi.twitch.tv JOIN #chan\r\n"))

		require.Len(t, msgs, 2)
		require.Equal(t, CommandPing, msgs[0].Command)
		require.Equal(t, CommandJoin, msgs[1].Command)
		require.Zero(t, d.Pending())
	})

	t.Run("line split across reads", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		line := privmsgLine + "\r\n"

		// split mid tag and mid content
		require.Empty(t, d.Feed([]byte(line[:40])))
		require.Equal(t, 40, d.Pending())
		require.Empty(t, d.Feed([]byte(line[40:len(line)-8])))

		msgs := d.Feed([]byte(line[len(line)-8:]))
		require.Len(t, msgs, 1)
		require.Equal(t, "HeyGuys <3 PartyTime", msgs[0].Trailing())
		require.Equal(t, "713936733", msgs[0].Tags["user-id"])
	})

	t.Run("crlf split between reads", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		require.Empty(t, d.Feed([]byte("PING :tmi.twitch.tv\r")))

		msgs := d.Feed([]byte("\nPING :tmi.twitch.tv\r\n"))
		require.Len(t, msgs, 2)
		require.Equal(t, "tmi.twitch.tv", msgs[0].Trailing())
	})

	t.Run("bare newlines and blank lines", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		msgs := d.Feed([]byte("\r\n\nPING :tmi.twitch.tv\n"))
		require.Len(t, msgs, 1)
	})

	t.Run("oversized line is skipped up to its newline", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		require.Empty(t, d.Feed(bytes.Repeat([]byte("a"), maxPendingLineSize+1)))
		require.Zero(t, d.Pending())

		require.Empty(t, d.Feed([]byte("PRIVMSG #chan :still the same line")))
		require.Zero(t, d.Pending())

		msgs := d.Feed([]byte(" end\r\nPING :tmi.twitch.tv\r\n"))
		require.Len(t, msgs, 1)
		require.Equal(t, CommandPing, msgs[0].Command)
		require.Zero(t, d.Pending())
	})

	t.Run("reset stops skipping an oversized line", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		d.Feed(bytes.Repeat([]byte("a"), maxPendingLineSize+1))
		d.Reset()

		msgs := d.Feed([]byte("PING :tmi.twitch.tv\r\n"))
		require.Len(t, msgs, 1)
		require.Equal(t, CommandPing, msgs[0].Command)
	})

	t.Run("reset drops partial line", func(t *testing.T) {
		t.Parallel()

		var d Decoder
		d.Feed([]byte("@badge-info=;bad"))
		d.Reset()

		msgs := d.Feed([]byte("PING :tmi.twitch.tv\r\n"))
		require.Len(t, msgs, 1)
		require.Equal(t, CommandPing, msgs[0].Command)
	})
}

func TestPrivateMessage_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, tt := range []PrivateMessage{
		{Channel: "twitchdev", Content: "HeyGuys <3 PartyTime"},
		{Channel: "#TwitchDev", Content: "hello :) world"},
		{Channel: "twitchdev", Content: "threaded", ReplyTo: "885196de-cb67-427a-baa8-82f9b0fcd05f"},
		{Channel: "twitchdev", Content: "escaped parent", ReplyTo: "a b;c\\d"},
	} {
		t.Run(tt.Content, func(t *testing.T) {
			t.Parallel()

			var d Decoder
			msgs := d.Feed(encode(tt))
			require.Len(t, msgs, 1)

			msg := msgs[0]
			require.Equal(t, CommandPrivmsg, msg.Command)
			require.Equal(t, normalizeChannel(tt.Channel), msg.Channel())
			require.Equal(t, tt.Content, msg.Trailing())
			require.Equal(t, tt.ReplyTo, msg.Tags["reply-parent-msg-id"])
		})
	}
}
