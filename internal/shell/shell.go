// Package shell coordinates the record cache with the REST backend: the load
// protocol, mutations followed by a full refresh, and record lookups.
package shell

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/nexus-crm/internal/apiclient"
	"github.com/diewo77/nexus-crm/internal/form"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/internal/store"
)

var (
	// ErrUnknownResource is returned for a resource key outside the registry.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrNotFound is returned for an id missing from the cache.
	ErrNotFound = errors.New("record not found")
)

// API is the subset of the REST client the shell uses.
type API interface {
	ListAll(ctx context.Context, resources []apiclient.Resource) (map[apiclient.Resource][]records.Record, error)
	Create(ctx context.Context, res apiclient.Resource, payload records.Values) (records.Record, error)
	Update(ctx context.Context, res apiclient.Resource, id string, payload records.Values) (records.Record, error)
	Delete(ctx context.Context, res apiclient.Resource, id string) error
}

// Shell is safe for concurrent use; the store is its only mutable state.
type Shell struct {
	api   API
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// New returns a shell over api caching into st.
func New(api API, st *store.Store, log zerolog.Logger) *Shell {
	return &Shell{api: api, store: st, log: log, now: time.Now}
}

// State is what every page needs to know about the cache.
type State struct {
	Active    registry.Key
	NavOpen   bool
	Loading   bool
	LoadError error
	Snapshot  *store.Snapshot
}

// State returns the cache state for a page showing active.
func (s *Shell) State(active registry.Key, navOpen bool) State {
	return State{
		Active:    active,
		NavOpen:   navOpen,
		Loading:   s.store.Loading(),
		LoadError: s.store.LastError(),
		Snapshot:  s.store.Snapshot(),
	}
}

// Refresh refetches every collection concurrently and replaces the cache
// once all have arrived. On failure the cache keeps its last snapshot and the
// error is kept for the banner.
func (s *Shell) Refresh(ctx context.Context) error {
	keys := registry.Keys()
	resources := make([]apiclient.Resource, 0, len(keys))
	for _, key := range keys {
		def, _ := registry.Lookup(key)
		resources = append(resources, def.Resource)
	}

	ticket := s.store.Begin()
	start := s.now()
	loaded, err := s.api.ListAll(ctx, resources)
	if err != nil {
		s.store.Fail(ticket, err)
		s.log.Error().Err(err).Uint64("ticket", uint64(ticket)).Msg("refresh failed")
		return err
	}

	collections := make(registry.Collections, len(keys))
	for i, key := range keys {
		rows := loaded[resources[i]]
		if rows == nil {
			rows = []records.Record{}
		}
		collections[key] = rows
	}
	if !s.store.Commit(ticket, collections, s.now()) {
		s.log.Debug().Uint64("ticket", uint64(ticket)).Msg("stale refresh dropped")
		return nil
	}
	s.log.Info().Uint64("ticket", uint64(ticket)).Dur("elapsed", s.now().Sub(start)).Msg("data refreshed")
	return nil
}

// Definition resolves a resource key.
func (s *Shell) Definition(key string) (*registry.Definition, error) {
	def, ok := registry.Lookup(registry.Key(key))
	if !ok {
		return nil, ErrUnknownResource
	}
	return def, nil
}

// Find returns the cached record id of key. No network call is made.
func (s *Shell) Find(key, id string) (*registry.Definition, records.Record, error) {
	def, err := s.Definition(key)
	if err != nil {
		return nil, nil, err
	}
	r, ok := s.store.Snapshot().Find(def.Key, id)
	if !ok {
		return def, nil, ErrNotFound
	}
	return def, r, nil
}

// Related returns the collections relation selects are built from.
func (s *Shell) Related() registry.Collections {
	return s.store.Snapshot().Collections
}

// Create sends the filled-in values and refreshes on success.
func (s *Shell) Create(ctx context.Context, def *registry.Definition, values records.Values) (records.Record, error) {
	rec, err := s.api.Create(ctx, def.Resource, form.Payload(values))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("resource", string(def.Key)).Str("id", rec.ID()).Msg("record created")
	s.refreshAfterMutation(ctx)
	return rec, nil
}

// Update patches id with the filled-in values and refreshes on success.
func (s *Shell) Update(ctx context.Context, def *registry.Definition, id string, values records.Values) (records.Record, error) {
	rec, err := s.api.Update(ctx, def.Resource, id, form.Payload(values))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("resource", string(def.Key)).Str("id", id).Msg("record updated")
	s.refreshAfterMutation(ctx)
	return rec, nil
}

// Delete removes id and refreshes on success.
func (s *Shell) Delete(ctx context.Context, def *registry.Definition, id string) error {
	if err := s.api.Delete(ctx, def.Resource, id); err != nil {
		return err
	}
	s.log.Info().Str("resource", string(def.Key)).Str("id", id).Msg("record deleted")
	s.refreshAfterMutation(ctx)
	return nil
}

// refreshAfterMutation reloads the cache. A load failure here does not undo
// the mutation; it surfaces through the banner like any other load failure.
func (s *Shell) refreshAfterMutation(ctx context.Context) {
	_ = s.Refresh(ctx)
}
