package transcript

import (
	"sync"

	"github.com/nhle/mailchat/internal/model"
)

// Store is the ordered message log of one chat session. Entries are only
// ever appended or bulk-removed; existing entries are never reordered or
// modified. Every mutation is atomic with respect to Snapshot.
type Store struct {
	mu          sync.Mutex
	messages    []model.Message
	version     uint64
	subscribers []chan struct{}
}

// New creates a store seeded with the given messages.
func New(initial ...model.Message) *Store {
	s := &Store{messages: make([]model.Message, 0, 16)}
	s.messages = append(s.messages, initial...)
	return s
}

// Append adds a message at the end of the transcript.
func (s *Store) Append(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.changed()
}

// RemoveWhere drops every message matching pred in a single step and
// returns how many were removed. Relative order of the survivors is kept.
func (s *Store) RemoveWhere(pred func(model.Message) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if !pred(msg) {
			kept = append(kept, msg)
		}
	}

	removed := len(s.messages) - len(kept)
	if removed > 0 {
		s.messages = kept
		s.changed()
	}
	return removed
}

// Replace removes every message matching pred and appends msg, as one
// atomic mutation. It returns the number of messages removed.
func (s *Store) Replace(pred func(model.Message) bool, msg model.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Message, 0, len(s.messages)+1)
	for _, m := range s.messages {
		if !pred(m) {
			kept = append(kept, m)
		}
	}
	removed := len(s.messages) - len(kept)

	s.messages = append(kept, msg)
	s.changed()
	return removed
}

// Snapshot returns a copy of the current transcript in order.
func (s *Store) Snapshot() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Message, len(s.messages))
	copy(result, s.messages)
	return result
}

// Len returns the number of messages in the transcript.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.messages)
}

// Version increases by one with every mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.version
}

// Subscribe returns a channel that receives a signal after mutations.
// Signals coalesce: a slow reader sees at most one pending tick.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// changed must be called with mu held.
func (s *Store) changed() {
	s.version++
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// IsStatus matches status placeholders.
func IsStatus(msg model.Message) bool {
	return msg.IsStatus()
}

// IsStatusOf matches status placeholders created by one invocation.
func IsStatusOf(invocation string) func(model.Message) bool {
	return func(msg model.Message) bool {
		return msg.IsStatus() && msg.Invocation() == invocation
	}
}

// CountStatus returns the number of status placeholders in msgs.
func CountStatus(msgs []model.Message) int {
	n := 0
	for _, msg := range msgs {
		if msg.IsStatus() {
			n++
		}
	}
	return n
}
