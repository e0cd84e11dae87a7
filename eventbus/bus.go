// Package eventbus delivers chat events to in-process subscribers.
package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

// DefaultBufferSize is used by Listen for its subscription.
const DefaultBufferSize = 64

type subscription struct {
	deliver func(ev twitchirc.Event) (matched, delivered bool)
	close   func()
}

// Bus fans out events to subscribers. It implements twitchirc.Sink and never
// blocks the receive loop: events for a full subscriber are dropped.
type Bus struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscription
}

func New(logger zerolog.Logger) *Bus {
	return &Bus{
		logger: logger.With().Str("component", "eventbus").Logger(),
		subs:   map[uint64]subscription{},
	}
}

// Dispatch delivers ev to every subscriber of its type.
func (b *Bus) Dispatch(ev twitchirc.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		matched, delivered := sub.deliver(ev)
		if matched && !delivered {
			b.logger.Warn().Uint64("subscription", id).Str("event", ev.EventName()).Msg("subscriber too slow, dropping event")
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Subscribe returns a channel receiving every event of type T, use
// twitchirc.Event to receive all events. cancel removes the subscription and
// closes the channel, it may be called more than once.
func Subscribe[T twitchirc.Event](b *Bus, size int) (<-chan T, func()) {
	ch := make(chan T, size)

	sub := subscription{
		deliver: func(ev twitchirc.Event) (bool, bool) {
			typed, ok := ev.(T)
			if !ok {
				return false, false
			}

			select {
			case ch <- typed:
				return true, true
			default:
				return true, false
			}
		},
		close: func() { close(ch) },
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()

			// no Dispatch holds the read lock anymore, closing is safe
			sub.close()
		})
	}

	return ch, cancel
}

// Listen calls fn for every event of type T until ctx is done. fn runs on the
// caller's goroutine, not on the receive loop.
func Listen[T twitchirc.Event](ctx context.Context, b *Bus, fn func(ev T)) error {
	events, cancel := Subscribe[T](b, DefaultBufferSize)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fn(ev)
		}
	}
}
