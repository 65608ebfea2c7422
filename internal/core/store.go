package core

import (
	"strings"
	"sync"
)

// MessageStore keeps a capped, ordered history of messages per scope.
// The empty scope is the global room. IDs are assigned from a single
// process-lifetime counter and never reused, even after Clear.
//
// The hub is the only writer; reads may come from any goroutine.
type MessageStore struct {
	mu        sync.RWMutex
	nextID    int64
	histories map[string][]Message
}

// NewMessageStore constructs an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		nextID:    1,
		histories: make(map[string][]Message),
	}
}

// Append assigns the next ID to msg, stamps its scope, and appends it to
// that scope's history, evicting the oldest entries past HistoryCap.
// The stored message is returned.
func (s *MessageStore) Append(scope string, msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID
	s.nextID++
	msg.RoomID = scope

	history := append(s.histories[scope], msg)
	if excess := len(history) - HistoryCap; excess > 0 {
		history = history[excess:]
	}
	s.histories[scope] = history

	return msg
}

// History returns up to limit most recent messages for scope, oldest
// first. The scope is trimmed so reads resolve the same scope writes were
// stored under. A non-positive limit falls back to DefaultHistoryLimit
// and any requested limit is clamped to HistoryCap.
func (s *MessageStore) History(scope string, limit int) []Message {
	scope = strings.TrimSpace(scope)
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > HistoryCap {
		limit = HistoryCap
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[scope]
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Clear empties the history for one scope. Membership and presence are
// untouched; the ID counter is not reset.
func (s *MessageStore) Clear(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, scope)
}

// ClearAll empties every scope, global included.
func (s *MessageStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories = make(map[string][]Message)
}
