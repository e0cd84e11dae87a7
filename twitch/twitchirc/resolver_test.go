package twitchirc

import (
	"context"
	"sync"

	"github.com/julez-dev/chatbridge/twitch"
	"github.com/julez-dev/chatbridge/twitch/entity"
)

// stubResolver answers from fixed maps, unknown keys yield twitch.ErrNotFound.
type stubResolver struct {
	mu       sync.Mutex
	users    map[string]entity.User
	channels map[string]entity.Channel
	calls    []string
	err      error

	// hold blocks user and channel lookups until it is closed or ctx ends
	hold    chan struct{}
	entered chan struct{}
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		users: map[string]entity.User{
			"713936733": {ID: "713936733", Login: "lovingt3s", DisplayName: "lovingt3s"},
			"lovingt3s": {ID: "713936733", Login: "lovingt3s", DisplayName: "lovingt3s"},
			"mybot":     {ID: "1000", Login: "mybot", DisplayName: "MyBot"},
			"twitchdev": {ID: "141981764", Login: "twitchdev", DisplayName: "TwitchDev"},
			"555":       {ID: "555", Login: "troll"},
		},
		channels: map[string]entity.Channel{
			"713936733": {ID: "713936733", Username: "twitchdev", DisplayName: "TwitchDev"},
			"141981764": {ID: "141981764", Username: "twitchdev", DisplayName: "TwitchDev"},
			"12345678":  {ID: "12345678", Username: "bar", DisplayName: "Bar"},
		},
	}
}

func (s *stubResolver) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// blockLookups makes every following user and channel lookup wait for its
// context. The returned channel receives once a lookup is waiting.
func (s *stubResolver) blockLookups() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hold = make(chan struct{})
	s.entered = make(chan struct{}, 1)

	return s.entered
}

func (s *stubResolver) wait(ctx context.Context) error {
	s.mu.Lock()
	hold, entered := s.hold, s.entered
	s.mu.Unlock()

	if hold == nil {
		return nil
	}

	select {
	case entered <- struct{}{}:
	default:
	}

	select {
	case <-hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubResolver) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubResolver) FetchUser(ctx context.Context, idOrLogin string) (entity.User, error) {
	if err := s.wait(ctx); err != nil {
		return entity.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, "user:"+idOrLogin)
	if s.err != nil {
		return entity.User{}, s.err
	}

	u, ok := s.users[idOrLogin]
	if !ok {
		return entity.User{}, twitch.ErrNotFound
	}
	return u, nil
}

func (s *stubResolver) FetchChannel(ctx context.Context, id string) (entity.Channel, error) {
	if err := s.wait(ctx); err != nil {
		return entity.Channel{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, "channel:"+id)
	if s.err != nil {
		return entity.Channel{}, s.err
	}

	c, ok := s.channels[id]
	if !ok {
		return entity.Channel{}, twitch.ErrNotFound
	}
	return c, nil
}

func (s *stubResolver) FetchStream(_ context.Context, idOrLogin string) (entity.Stream, error) {
	return entity.Stream{}, twitch.ErrNotFound
}
