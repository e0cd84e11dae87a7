package entity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julez-dev/chatbridge/twitch"
)

type fakeHelix struct {
	users    func(logins, ids []string) (twitch.UserResponse, error)
	channels func(ids []string) (twitch.GetChannelInformationResponse, error)
	streams  func(userIDs, userLogins []string) (twitch.GetStreamsResponse, error)

	userCalls atomic.Int32
}

func (f *fakeHelix) GetUsers(_ context.Context, logins []string, ids []string) (twitch.UserResponse, error) {
	f.userCalls.Add(1)
	return f.users(logins, ids)
}

func (f *fakeHelix) GetChannelInformation(_ context.Context, ids []string) (twitch.GetChannelInformationResponse, error) {
	return f.channels(ids)
}

func (f *fakeHelix) GetStreams(_ context.Context, userIDs []string, userLogins []string) (twitch.GetStreamsResponse, error) {
	return f.streams(userIDs, userLogins)
}

func TestHelixResolver_FetchUser(t *testing.T) {
	t.Parallel()

	t.Run("numeric input is looked up by id", func(t *testing.T) {
		t.Parallel()

		api := &fakeHelix{users: func(logins, ids []string) (twitch.UserResponse, error) {
			require.Empty(t, logins)
			require.Equal(t, []string{"141981764"}, ids)
			return twitch.UserResponse{Data: []twitch.UserData{{ID: "141981764", Login: "twitchdev"}}}, nil
		}}

		user, err := NewHelixResolver(api, nil).FetchUser(context.Background(), "141981764")
		require.NoError(t, err)
		require.Equal(t, "twitchdev", user.Login)
	})

	t.Run("login is normalised", func(t *testing.T) {
		t.Parallel()

		api := &fakeHelix{users: func(logins, ids []string) (twitch.UserResponse, error) {
			require.Equal(t, []string{"twitchdev"}, logins)
			require.Empty(t, ids)
			return twitch.UserResponse{Data: []twitch.UserData{{ID: "141981764", Login: "twitchdev"}}}, nil
		}}

		user, err := NewHelixResolver(api, nil).FetchUser(context.Background(), "#TwitchDev")
		require.NoError(t, err)
		require.Equal(t, "141981764", user.ID)
	})

	t.Run("empty result is not found", func(t *testing.T) {
		t.Parallel()

		api := &fakeHelix{users: func(logins, ids []string) (twitch.UserResponse, error) {
			return twitch.UserResponse{}, nil
		}}

		_, err := NewHelixResolver(api, nil).FetchUser(context.Background(), "nobody")
		require.ErrorIs(t, err, twitch.ErrNotFound)
		require.NotErrorIs(t, err, twitch.ErrRequestFailed)
	})

	t.Run("request failure is propagated", func(t *testing.T) {
		t.Parallel()

		api := &fakeHelix{users: func(logins, ids []string) (twitch.UserResponse, error) {
			return twitch.UserResponse{}, twitch.APIError{ErrorText: "Bad Request", Status: 400, Message: "bad"}
		}}

		_, err := NewHelixResolver(api, nil).FetchUser(context.Background(), "x")
		require.ErrorIs(t, err, twitch.ErrRequestFailed)
	})
}

func TestHelixResolver_FetchChannel(t *testing.T) {
	t.Parallel()

	api := &fakeHelix{channels: func(ids []string) (twitch.GetChannelInformationResponse, error) {
		if ids[0] == "1" {
			return twitch.GetChannelInformationResponse{Data: []twitch.ChannelData{{BroadcasterID: "1", BroadcasterLogin: "one", Title: "title"}}}, nil
		}
		return twitch.GetChannelInformationResponse{}, nil
	}}

	r := NewHelixResolver(api, nil)

	channel, err := r.FetchChannel(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "one", channel.Username)
	require.Equal(t, "title", channel.Title)

	_, err = r.FetchChannel(context.Background(), "2")
	require.ErrorIs(t, err, twitch.ErrNotFound)
}

func TestHelixResolver_FetchStream(t *testing.T) {
	t.Parallel()

	t.Run("resolves channel of the stream", func(t *testing.T) {
		t.Parallel()

		api := &fakeHelix{
			streams: func(userIDs, userLogins []string) (twitch.GetStreamsResponse, error) {
				require.Equal(t, []string{"twitchdev"}, userLogins)
				return twitch.GetStreamsResponse{Data: []twitch.StreamData{{ID: "s1", UserID: "141981764", Type: "live", ViewerCount: 10}}}, nil
			},
			channels: func(ids []string) (twitch.GetChannelInformationResponse, error) {
				require.Equal(t, []string{"141981764"}, ids)
				return twitch.GetChannelInformationResponse{Data: []twitch.ChannelData{{BroadcasterID: "141981764", BroadcasterLogin: "twitchdev"}}}, nil
			},
		}

		stream, err := NewHelixResolver(api, nil).FetchStream(context.Background(), "twitchdev")
		require.NoError(t, err)
		require.Equal(t, "s1", stream.ID)
		require.Equal(t, StreamTypeLive, stream.Type)
		require.Equal(t, "twitchdev", stream.Channel.Username)
	})

	t.Run("offline is not found", func(t *testing.T) {
		t.Parallel()

		api := &fakeHelix{streams: func(userIDs, userLogins []string) (twitch.GetStreamsResponse, error) {
			return twitch.GetStreamsResponse{}, nil
		}}

		_, err := NewHelixResolver(api, nil).FetchStream(context.Background(), "141981764")
		require.True(t, errors.Is(err, twitch.ErrNotFound))
	})
}
