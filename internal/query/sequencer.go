// Package query keeps overlapping fetches for the same logical query in order.
package query

import "sync"

// Sequencer hands out increasing sequence numbers per query key so that a
// response can be checked against the latest dispatched request.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Next marks a new request for key as dispatched and returns its number.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

// IsLatest reports whether seq is still the newest request for key.
func (s *Sequencer) IsLatest(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] == seq
}

// Latest returns the newest sequence number dispatched for key.
func (s *Sequencer) Latest(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key]
}
