// Package store caches the last loaded collections of every resource.
//
// The cache is replaced only as a whole. Each refresh takes a ticket when it
// starts; a finished refresh is committed only if no refresh started after it
// has been committed already, so a slow stale load never overwrites a newer
// one.
package store

import (
	"sync"
	"time"

	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
)

// Ticket orders refreshes by start time.
type Ticket uint64

// Snapshot is one immutable, consistent set of collections and the
// statistics derived from them. Callers must not modify it.
type Snapshot struct {
	Collections registry.Collections
	Stats       Stats
	LoadedAt    time.Time
	Ticket      Ticket
}

// Records returns the cached records of key, nil when never loaded.
func (s *Snapshot) Records(key registry.Key) []records.Record {
	return s.Collections[key]
}

// Find returns the record of key with the given id.
func (s *Snapshot) Find(key registry.Key, id string) (records.Record, bool) {
	if id == "" {
		return nil, false
	}
	for _, r := range s.Collections[key] {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	snap      *Snapshot
	issued    Ticket
	committed Ticket
	inflight  int
	err       error
	errTicket Ticket
}

// New returns a store holding an empty snapshot.
func New() *Store {
	return &Store{snap: &Snapshot{Collections: registry.Collections{}, Stats: ComputeStats(nil)}}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Begin marks the start of a refresh.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.inflight++
	return s.issued
}

// Commit installs collections loaded by refresh t. It reports false, leaving
// the cache untouched, when a newer refresh has already been committed.
func (s *Store) Commit(t Ticket, collections registry.Collections, at time.Time) bool {
	cp := make(registry.Collections, len(collections))
	for k, v := range collections {
		cp[k] = v
	}
	snap := &Snapshot{Collections: cp, Stats: ComputeStats(cp), LoadedAt: at, Ticket: t}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if t <= s.committed {
		return false
	}
	s.committed = t
	s.snap = snap
	return true
}

// Fail records that refresh t failed. The cache keeps its last snapshot.
func (s *Store) Fail(t Ticket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if t > s.errTicket {
		s.err = err
		s.errTicket = t
	}
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// LastError returns the failure of the most recent refresh, unless a refresh
// started after it has since been committed.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.errTicket > s.committed {
		return s.err
	}
	return nil
}
