package session

import (
	"sync"

	"github.com/sarthi-kalathiya/examsync/internal/model"
)

// userStream is the replay-latest broadcast channel for the current user.
// New subscribers immediately receive the latest published value; slow
// subscribers only ever lag by one value because pending sends are replaced,
// not queued (last-write-wins).
type userStream struct {
	mu        sync.Mutex
	subs      map[int]chan *model.UserProfile
	nextID    int
	latest    *model.UserProfile
	hasLatest bool
	closed    bool
}

func newUserStream() *userStream {
	return &userStream{subs: make(map[int]chan *model.UserProfile)}
}

// subscribe registers a subscriber and returns its channel plus a cancel
// function. The channel is closed on cancel or stream close.
func (s *userStream) subscribe() (<-chan *model.UserProfile, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *model.UserProfile, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	if s.hasLatest {
		ch <- s.latest
	}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish replaces the latest value and fans it out. A subscriber that has
// not drained its previous value gets it replaced by the newer one.
func (s *userStream) publish(u *model.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.latest = u
	s.hasLatest = true

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- u
	}
}

// close closes every subscriber channel. Further publishes are dropped.
func (s *userStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
