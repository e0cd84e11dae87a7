package twitchirc

import (
	"slices"
	"sync"

	"github.com/julez-dev/chatbridge/twitch/entity"
)

// sessionState is written only by the receive loop, readers take the read lock.
type sessionState struct {
	mu     sync.RWMutex
	joined map[string]struct{}
	rooms  map[string]entity.Channel
	self   *entity.User
}

func newSessionState() *sessionState {
	return &sessionState{
		joined: map[string]struct{}{},
		rooms:  map[string]entity.Channel{},
	}
}

// apply records the effect of ev and reports whether ev should be emitted.
func (s *sessionState) apply(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev := ev.(type) {
	case JoinEvent:
		s.joined[ev.Channel] = struct{}{}
	case PartEvent:
		delete(s.joined, ev.Channel)
		delete(s.rooms, ev.Channel)
	case JoinRoomstateEvent:
		s.rooms[ev.Channel.Username] = ev.Channel
	case selfUserResolved:
		user := ev.User
		s.self = &user
		return false
	}

	return true
}

func (s *sessionState) isJoined(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.joined[channel]
	return ok
}

func (s *sessionState) joinedChannels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]string, 0, len(s.joined))
	for c := range s.joined {
		channels = append(channels, c)
	}

	slices.Sort(channels)
	return channels
}

// room returns the channel announced by ROOMSTATE, if any.
func (s *sessionState) room(channel string) (entity.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.rooms[channel]
	return c, ok
}

func (s *sessionState) selfUser() (entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.self == nil {
		return entity.User{}, false
	}

	return *s.self, true
}

// clearJoined empties the joined set and returns what it held. A new connection
// has no JOIN acknowledgements yet.
func (s *sessionState) clearJoined() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]string, 0, len(s.joined))
	for c := range s.joined {
		channels = append(channels, c)
	}
	slices.Sort(channels)

	clear(s.joined)
	clear(s.rooms)

	return channels
}

func (s *sessionState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.joined)
	clear(s.rooms)
	s.self = nil
}
