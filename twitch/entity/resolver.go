package entity

import (
	"context"
	"strings"

	"resenje.org/singleflight"

	"github.com/julez-dev/chatbridge/twitch"
)

// HelixAPI is the subset of the Helix client the resolver needs.
type HelixAPI interface {
	GetUsers(ctx context.Context, logins []string, ids []string) (twitch.UserResponse, error)
	GetChannelInformation(ctx context.Context, broadcasterIDs []string) (twitch.GetChannelInformationResponse, error)
	GetStreams(ctx context.Context, userIDs []string, userLogins []string) (twitch.GetStreamsResponse, error)
}

// HelixResolver resolves entities through Helix. Nothing is cached, concurrent
// lookups of the same key share one request.
type HelixResolver struct {
	api     HelixAPI
	factory Factory

	users    singleflight.Group[string, User]
	channels singleflight.Group[string, Channel]
	streams  singleflight.Group[string, Stream]
}

func NewHelixResolver(api HelixAPI, factory Factory) *HelixResolver {
	if factory == nil {
		factory = DefaultFactory{}
	}

	return &HelixResolver{
		api:     api,
		factory: factory,
	}
}

// FetchUser looks up a user by numeric ID or by login.
func (r *HelixResolver) FetchUser(ctx context.Context, idOrLogin string) (User, error) {
	key := normalizeLookup(idOrLogin)

	user, _, err := r.users.Do(ctx, key, func(ctx context.Context) (User, error) {
		var logins, ids []string
		if isNumeric(key) {
			ids = []string{key}
		} else {
			logins = []string{key}
		}

		resp, err := r.api.GetUsers(ctx, logins, ids)
		if err != nil {
			return User{}, err
		}

		if len(resp.Data) == 0 {
			return User{}, twitch.ErrNotFound
		}

		return r.factory.User(resp.Data[0]), nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

// FetchChannel looks up a channel by its broadcaster ID.
func (r *HelixResolver) FetchChannel(ctx context.Context, id string) (Channel, error) {
	channel, _, err := r.channels.Do(ctx, id, func(ctx context.Context) (Channel, error) {
		resp, err := r.api.GetChannelInformation(ctx, []string{id})
		if err != nil {
			return Channel{}, err
		}

		if len(resp.Data) == 0 {
			return Channel{}, twitch.ErrNotFound
		}

		return r.factory.Channel(resp.Data[0]), nil
	})
	if err != nil {
		return Channel{}, err
	}

	return channel, nil
}

// FetchStream looks up the live stream of a user by ID or login.
// An offline user yields twitch.ErrNotFound.
func (r *HelixResolver) FetchStream(ctx context.Context, idOrLogin string) (Stream, error) {
	key := normalizeLookup(idOrLogin)

	stream, _, err := r.streams.Do(ctx, key, func(ctx context.Context) (Stream, error) {
		var logins, ids []string
		if isNumeric(key) {
			ids = []string{key}
		} else {
			logins = []string{key}
		}

		resp, err := r.api.GetStreams(ctx, ids, logins)
		if err != nil {
			return Stream{}, err
		}

		if len(resp.Data) == 0 {
			return Stream{}, twitch.ErrNotFound
		}

		data := resp.Data[0]

		channel, err := r.FetchChannel(ctx, data.UserID)
		if err != nil {
			return Stream{}, err
		}

		return r.factory.Stream(data, channel), nil
	})
	if err != nil {
		return Stream{}, err
	}

	return stream, nil
}

func normalizeLookup(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
