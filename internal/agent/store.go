package agent

import (
	"sync"

	"github.com/nhdewitt/rabbit/internal/protocol"
)

// Store owns the Snapshot. The scheduler is the only writer; HTTP handlers
// read through WithRead. Each subsystem is written in a single WithWrite
// call so readers never see half of one subsystem's update.
type Store struct {
	mu   sync.RWMutex
	snap *protocol.Snapshot
}

func NewStore(static protocol.StaticInfo) *Store {
	return &Store{snap: protocol.NewSnapshot(static)}
}

// WithRead runs fn under the shared lock. fn must not retain the snapshot
// or any of its maps after returning.
func (s *Store) WithRead(fn func(*protocol.Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.snap)
}

// WithWrite runs fn under the exclusive lock. fn must not block.
func (s *Store) WithWrite(fn func(*protocol.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snap)
}
