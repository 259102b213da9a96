package session

import (
	"sync"

	"github.com/desertthunder/pathfinder/internal/models"
)

// Event is published whenever the session changes.
type Event struct {
	State models.AuthState
	User  *models.User
}

const subscriberBuffer = 8

type subscribers struct {
	mu     sync.Mutex
	nextID int
	chans  map[int]chan Event
}

func (s *subscribers) add() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chans == nil {
		s.chans = make(map[int]chan Event)
	}
	id := s.nextID
	s.nextID++
	ch := make(chan Event, subscriberBuffer)
	s.chans[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.chans, id)
			close(ch)
		})
	}
	return ch, cancel
}

// publish never blocks. A subscriber that is not draining its channel misses events.
func (s *subscribers) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.chans {
		select {
		case ch <- ev:
		default:
		}
	}
}
