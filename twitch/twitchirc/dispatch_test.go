package twitchirc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julez-dev/chatbridge/twitch"
	"github.com/julez-dev/chatbridge/twitch/entity"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestDispatcher(r Resolver) *dispatcher {
	return &dispatcher{
		resolver: r,
		factory:  entity.DefaultFactory{},
		now:      func() time.Time { return fixedNow },
	}
}

func TestDispatcher_Clearchat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want Event
	}{
		{
			name: "ban-duration means timeout",
			line: "@ban-duration=350;room-id=12345678;target-user-id=555;tmi-sent-ts=1642719320727 :tmi.twitch.tv CLEARCHAT #bar :troll",
			want: TimeoutEvent{
				ModAction: ModAction{
					Channel:   entity.Channel{ID: "12345678", Username: "bar", DisplayName: "Bar"},
					CreatedAt: time.UnixMilli(1642719320727).UTC(),
				},
				User:     entity.User{ID: "555", Login: "troll"},
				Duration: 350 * time.Second,
			},
		},
		{
			name: "timeout without timestamp uses current time",
			line: "@ban-duration=10;room-id=12345678;target-user-id=555 :tmi.twitch.tv CLEARCHAT #bar :troll",
			want: TimeoutEvent{
				ModAction: ModAction{
					Channel:   entity.Channel{ID: "12345678", Username: "bar", DisplayName: "Bar"},
					CreatedAt: fixedNow,
				},
				User:     entity.User{ID: "555", Login: "troll"},
				Duration: 10 * time.Second,
			},
		},
		{
			name: "target-user-id means ban",
			line: "@room-id=12345678;target-user-id=555;tmi-sent-ts=1642715756806 :tmi.twitch.tv CLEARCHAT #bar :troll",
			want: BanEvent{
				ModAction: ModAction{
					Channel:   entity.Channel{ID: "12345678", Username: "bar", DisplayName: "Bar"},
					CreatedAt: time.UnixMilli(1642715756806).UTC(),
				},
				User: entity.User{ID: "555", Login: "troll"},
			},
		},
		{
			name: "neither means clear",
			line: "@room-id=12345678;tmi-sent-ts=1642715695392 :tmi.twitch.tv CLEARCHAT #bar",
			want: ClearEvent{
				ModAction: ModAction{
					Channel:   entity.Channel{ID: "12345678", Username: "bar", DisplayName: "Bar"},
					CreatedAt: time.UnixMilli(1642715695392).UTC(),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDispatcher(newStubResolver())
			ev, err := d.dispatch(context.Background(), ParseLine(tt.line), newSessionState())

			require.NoError(t, err)
			require.Equal(t, tt.want, ev)
		})
	}
}

func TestDispatcher_Privmsg(t *testing.T) {
	t.Parallel()

	t.Run("resolves author and channel", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(newStubResolver())
		ev, err := d.dispatch(context.Background(), ParseLine(privmsgLine), newSessionState())
		require.NoError(t, err)

		created, ok := ev.(MessageCreateEvent)
		require.True(t, ok)

		msg := created.Message
		require.Equal(t, "HeyGuys <3 PartyTime", msg.Content)
		require.Equal(t, 0, msg.Bits)
		require.Equal(t, "885196de-cb67-427a-baa8-82f9b0fcd05f", msg.ID)
		require.True(t, msg.Author.IsBroadcaster)
		require.False(t, msg.Author.IsMod)
		require.Equal(t, 0x0000FF, msg.Author.Color)
		require.Equal(t, "lovingt3s", msg.Author.Login)
		require.Equal(t, "twitchdev", msg.Channel.Username)
		require.Equal(t, time.UnixMilli(1643904084794).UTC(), msg.CreatedAt)
	})

	t.Run("bits are read from tags", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(newStubResolver())
		ev, err := d.dispatch(context.Background(), ParseLine("@bits=100;room-id=713936733;user-id=713936733 :lovingt3s!lovingt3s@lovingt3s.tmi.twitch.tv PRIVMSG #twitchdev :cheer100"), newSessionState())
		require.NoError(t, err)
		require.Equal(t, 100, ev.(MessageCreateEvent).Message.Bits)
	})

	t.Run("falls back to prefix nick and channel name", func(t *testing.T) {
		t.Parallel()

		r := newStubResolver()
		d := newTestDispatcher(r)
		ev, err := d.dispatch(context.Background(), ParseLine(":lovingt3s!lovingt3s@lovingt3s.tmi.twitch.tv PRIVMSG #twitchdev :hi"), newSessionState())
		require.NoError(t, err)

		msg := ev.(MessageCreateEvent).Message
		require.Equal(t, "713936733", msg.Author.ID)
		require.Equal(t, "141981764", msg.Channel.ID)
		require.Equal(t, []string{"user:lovingt3s", "user:twitchdev", "channel:141981764"}, r.calls)
	})

	t.Run("resolver failure returns error", func(t *testing.T) {
		t.Parallel()

		r := newStubResolver()
		r.setErr(twitch.APIError{ErrorText: "Internal Server Error", Status: 500, Message: "oops"})

		d := newTestDispatcher(r)
		ev, err := d.dispatch(context.Background(), ParseLine(privmsgLine), newSessionState())
		require.ErrorIs(t, err, twitch.ErrRequestFailed)
		require.Nil(t, ev)
	})
}

func TestDispatcher_Roomstate(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(newStubResolver())

	ev, err := d.dispatch(context.Background(), ParseLine("@emote-only=0;followers-only=-1;r9k=0;room-id=12345678;slow=0;subs-only=0 :tmi.twitch.tv ROOMSTATE #bar"), newSessionState())
	require.NoError(t, err)
	require.Equal(t, JoinRoomstateEvent{Channel: entity.Channel{ID: "12345678", Username: "bar", DisplayName: "Bar"}}, ev)

	ev, err = d.dispatch(context.Background(), ParseLine("@room-id=12345678;slow=10 :tmi.twitch.tv ROOMSTATE #bar"), newSessionState())
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestDispatcher_Session(t *testing.T) {
	t.Parallel()

	r := newStubResolver()
	d := newTestDispatcher(r)
	state := newSessionState()

	ev, err := d.dispatch(context.Background(), ParseLine(":tmi.twitch.tv 001 mybot :Welcome, GLHF!"), state)
	require.NoError(t, err)
	require.Equal(t, selfUserResolved{User: entity.User{ID: "1000", Login: "mybot", DisplayName: "MyBot"}}, ev)
	require.False(t, state.apply(ev))

	self, ok := state.selfUser()
	require.True(t, ok)
	require.Equal(t, "mybot", self.Login)

	// only the first welcome numeric resolves
	ev, err = d.dispatch(context.Background(), ParseLine(":tmi.twitch.tv 002 mybot :Your host is tmi.twitch.tv"), state)
	require.NoError(t, err)
	require.Nil(t, ev)
	require.Equal(t, 1, r.callCount())

	ev, err = d.dispatch(context.Background(), ParseLine(":mybot!mybot@mybot.tmi.twitch.tv JOIN #TwitchDev"), state)
	require.NoError(t, err)
	require.Equal(t, JoinEvent{Channel: "twitchdev"}, ev)
	require.True(t, state.apply(ev))
	require.True(t, state.isJoined("twitchdev"))

	ev, err = d.dispatch(context.Background(), ParseLine(":mybot!mybot@mybot.tmi.twitch.tv PART #twitchdev"), state)
	require.NoError(t, err)
	require.Equal(t, PartEvent{Channel: "twitchdev"}, ev)
	require.True(t, state.apply(ev))
	require.False(t, state.isJoined("twitchdev"))
}

func TestDispatcher_Ignored(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(newStubResolver())

	for _, line := range []string{
		":tmi.twitch.tv 376 mybot :>",
		":tmi.twitch.tv CAP * ACK :twitch.tv/commands twitch.tv/tags",
		"@msg-id=subs_on :tmi.twitch.tv NOTICE #bar :This room is now in subscribers-only mode.",
		"garbage",
		"",
	} {
		ev, err := d.dispatch(context.Background(), ParseLine(line), newSessionState())
		require.NoError(t, err, line)
		require.Nil(t, ev, line)
	}
}
