package twitchirc

import (
	"time"

	"github.com/julez-dev/chatbridge/twitch/entity"
)

// Event is emitted for every handled inbound line.
type Event interface {
	// EventName is a stable snake_case name, e.g. "message_create".
	EventName() string
}

// Sink receives events from the receive loop. Dispatch is called synchronously
// from the loop and must not block for long.
type Sink interface {
	Dispatch(ev Event)
}

type SinkFunc func(ev Event)

func (f SinkFunc) Dispatch(ev Event) {
	f(ev)
}

type PingEvent struct{}

func (PingEvent) EventName() string { return "ping" }

// JoinEvent is emitted when the server acknowledged a JOIN.
type JoinEvent struct {
	Channel string `json:"channel"`
}

func (JoinEvent) EventName() string { return "join" }

type PartEvent struct {
	Channel string `json:"channel"`
}

func (PartEvent) EventName() string { return "part" }

// JoinRoomstateEvent carries the channel announced by the full ROOMSTATE sent after joining.
type JoinRoomstateEvent struct {
	Channel entity.Channel `json:"channel"`
}

func (JoinRoomstateEvent) EventName() string { return "join_roomstate" }

// ModAction is shared by all moderation events.
type ModAction struct {
	Channel   entity.Channel `json:"channel"`
	CreatedAt time.Time      `json:"created_at"`
}

// ClearEvent is emitted when the whole chat was cleared.
type ClearEvent struct {
	ModAction
}

func (ClearEvent) EventName() string { return "clear" }

type BanEvent struct {
	ModAction
	User entity.User `json:"user"`
}

func (BanEvent) EventName() string { return "ban" }

type TimeoutEvent struct {
	ModAction
	User     entity.User   `json:"user"`
	Duration time.Duration `json:"duration"`
}

func (TimeoutEvent) EventName() string { return "timeout" }

type MessageCreateEvent struct {
	Message entity.Message `json:"message"`
}

func (MessageCreateEvent) EventName() string { return "message_create" }

// selfUserResolved updates the session identity, it is never emitted.
type selfUserResolved struct {
	User entity.User
}

func (selfUserResolved) EventName() string { return "self_user_resolved" }
