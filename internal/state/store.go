package state

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/five82/archiver/internal/archive"
)

// Snapshot represents the latest dashboard data available to the UI.
type Snapshot struct {
	Status              json.RawMessage
	HasStatus           bool
	Chats               []archive.ChatSummary
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(status json.RawMessage, chats []archive.ChatSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Chats = cloneChats(chats)
	if status != nil {
		s.snapshot.Status = cloneRaw(status)
		s.snapshot.HasStatus = true
	} else {
		s.snapshot.Status = nil
		s.snapshot.HasStatus = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Chats = cloneChats(s.snapshot.Chats)
	snap.Status = cloneRaw(s.snapshot.Status)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneChats(items []archive.ChatSummary) []archive.ChatSummary {
	if len(items) == 0 {
		return nil
	}
	dup := make([]archive.ChatSummary, len(items))
	copy(dup, items)
	return dup
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
