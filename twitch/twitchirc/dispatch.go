package twitchirc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julez-dev/chatbridge/twitch/entity"
)

// Resolver turns identifiers into entities, usually through Helix.
type Resolver interface {
	FetchUser(ctx context.Context, idOrLogin string) (entity.User, error)
	FetchChannel(ctx context.Context, id string) (entity.Channel, error)
	FetchStream(ctx context.Context, idOrLogin string) (entity.Stream, error)
}

// roomstateFullTagCount is exceeded only by the ROOMSTATE sent once after joining,
// the updates sent later carry the room-id and the changed setting.
const roomstateFullTagCount = 2

var errMissingTag = errors.New("missing tag")

type dispatcher struct {
	resolver Resolver
	factory  entity.Factory
	now      func() time.Time
}

// dispatch maps msg to at most one event. It returns nil for lines that produce
// no event. Resolver failures are returned and the line is dropped by the caller.
func (d *dispatcher) dispatch(ctx context.Context, msg Message, state *sessionState) (Event, error) {
	switch msg.Command {
	case CommandPing:
		return PingEvent{}, nil
	case CommandWelcome, CommandYourHost:
		if _, ok := state.selfUser(); ok || len(msg.Params) == 0 {
			return nil, nil
		}

		user, err := d.resolver.FetchUser(ctx, msg.Params[0])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session user %q: %w", msg.Params[0], err)
		}

		return selfUserResolved{User: user}, nil
	case CommandJoin:
		channel := msg.Channel()
		if channel == "" {
			return nil, nil
		}

		return JoinEvent{Channel: channel}, nil
	case CommandPart:
		channel := msg.Channel()
		if channel == "" {
			return nil, nil
		}

		return PartEvent{Channel: channel}, nil
	case CommandRoomstate:
		if len(msg.Tags) <= roomstateFullTagCount {
			return nil, nil
		}

		channel, err := d.fetchRoom(ctx, msg)
		if err != nil {
			return nil, err
		}

		return JoinRoomstateEvent{Channel: channel}, nil
	case CommandClearchat:
		return d.clearchat(ctx, msg)
	case CommandPrivmsg:
		return d.privmsg(ctx, msg)
	}

	return nil, nil
}

func (d *dispatcher) clearchat(ctx context.Context, msg Message) (Event, error) {
	channel, err := d.fetchRoom(ctx, msg)
	if err != nil {
		return nil, err
	}

	action := ModAction{
		Channel:   channel,
		CreatedAt: d.sentAt(msg.Tags),
	}

	// ban-duration decides over target-user-id, a timeout carries both
	if msg.Tags.Has("ban-duration") {
		user, err := d.fetchTarget(ctx, msg)
		if err != nil {
			return nil, err
		}

		seconds, _ := strconv.Atoi(msg.Tags["ban-duration"])

		return TimeoutEvent{
			ModAction: action,
			User:      user,
			Duration:  time.Duration(seconds) * time.Second,
		}, nil
	}

	if msg.Tags.Has("target-user-id") {
		user, err := d.fetchTarget(ctx, msg)
		if err != nil {
			return nil, err
		}

		return BanEvent{ModAction: action, User: user}, nil
	}

	return ClearEvent{ModAction: action}, nil
}

func (d *dispatcher) privmsg(ctx context.Context, msg Message) (Event, error) {
	sender := msg.Tags["user-id"]
	if sender == "" {
		sender = msg.Prefix.Name
	}

	if sender == "" {
		return nil, fmt.Errorf("PRIVMSG without sender: %w", errMissingTag)
	}

	user, err := d.resolver.FetchUser(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve author %q: %w", sender, err)
	}

	channel, err := d.fetchRoom(ctx, msg)
	if err != nil {
		return nil, err
	}

	viewer := d.factory.Viewer(user, msg.Tags)
	message := d.factory.Message(msg.Tags, viewer, channel, msg.Trailing())

	return MessageCreateEvent{Message: message}, nil
}

// fetchRoom resolves the channel of a line through its room-id tag, falling
// back to the channel name in the params.
func (d *dispatcher) fetchRoom(ctx context.Context, msg Message) (entity.Channel, error) {
	roomID := msg.Tags["room-id"]

	if roomID == "" {
		name := msg.Channel()
		if name == "" {
			return entity.Channel{}, fmt.Errorf("%s without room-id: %w", msg.Command, errMissingTag)
		}

		user, err := d.resolver.FetchUser(ctx, name)
		if err != nil {
			return entity.Channel{}, fmt.Errorf("failed to resolve channel owner %q: %w", name, err)
		}
		roomID = user.ID
	}

	channel, err := d.resolver.FetchChannel(ctx, roomID)
	if err != nil {
		return entity.Channel{}, fmt.Errorf("failed to resolve channel %q: %w", roomID, err)
	}

	return channel, nil
}

func (d *dispatcher) fetchTarget(ctx context.Context, msg Message) (entity.User, error) {
	target := msg.Tags["target-user-id"]
	if target == "" {
		return entity.User{}, fmt.Errorf("%s without target-user-id: %w", msg.Command, errMissingTag)
	}

	user, err := d.resolver.FetchUser(ctx, target)
	if err != nil {
		return entity.User{}, fmt.Errorf("failed to resolve target user %q: %w", target, err)
	}

	return user, nil
}

func (d *dispatcher) sentAt(tags Tags) time.Time {
	if ts, err := strconv.ParseInt(tags["tmi-sent-ts"], 10, 64); err == nil {
		return time.UnixMilli(ts).UTC()
	}

	return d.now()
}
