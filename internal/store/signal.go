package store

import "sync"

// Signal fans a "something changed" tick out to every subscriber. Ticks are
// coalesced: a slow subscriber sees at most one pending tick.
type Signal struct {
	mu      sync.Mutex
	next    int
	subs    map[int]chan struct{}
	version uint64
}

// NewSignal constructs an empty broadcaster.
func NewSignal() *Signal {
	return &Signal{subs: make(map[int]chan struct{})}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel.
func (s *Signal) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Notify ticks every subscriber without blocking.
func (s *Signal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Version counts the notifications sent so far.
func (s *Signal) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
