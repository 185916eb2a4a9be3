// Package store implements the shared entity store: users, posts,
// comments, likes, follow edges, messages and notifications, with every
// mutation applied as one atomic, persisted state transition.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"kidflix/internal/kvstore"
	"kidflix/internal/models"
	"kidflix/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Store owns all application state. Writers are serialized; readers get
// immutable States and never observe a partially applied operation.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[State]

	kv  kvstore.Store
	key string

	now   func() time.Time
	newID func() string

	listenersMu sync.RWMutex
	listeners   []func(*State)

	log *observability.StoreLogger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how entity ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New returns an empty store persisting to kv under key. Call Load to
// rehydrate from an existing snapshot.
func New(kv kvstore.Store, key string, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		key:   key,
		now:   time.Now,
		newID: uuid.NewString,
		log:   observability.NewStoreLogger("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptyState())
	return s
}

// Load replaces the in-memory state with the persisted snapshot. A missing
// snapshot leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.LogError(ctx, err, "load")
		return models.NewInternalError(err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.LogError(ctx, err, "load")
		return models.NewInternalError(fmt.Errorf("corrupt snapshot under %q: %w", s.key, err))
	}
	st := stateFromSnapshot(snap)
	s.current.Store(st)
	s.log.LogMutation(ctx, "load", map[string]interface{}{
		"users": len(st.Users),
		"posts": len(st.Posts),
	})
	return nil
}

// State returns the current immutable state.
func (s *Store) State() *State {
	return s.current.Load()
}

// OnChange registers fn to be called with the new state after every
// committed transition. Listeners run on the committing goroutine after
// the write lock is released.
func (s *Store) OnChange(fn func(*State)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// SetCurrentUser records the logged-in user id; empty means logged out.
func (s *Store) SetCurrentUser(ctx context.Context, userID string) error {
	return s.commit(ctx, "set_current_user", func(next *State) (bool, error) {
		if userID != "" && next.userIndex(userID) < 0 {
			return false, models.NewNotFoundError("User", userID)
		}
		if next.CurrentUserID == userID {
			return false, nil
		}
		next.CurrentUserID = userID
		return true, nil
	})
}

// commit applies fn to a private copy of the current state, persists the
// result and only then publishes it. fn reports whether it changed
// anything; unchanged states are neither persisted nor published.
func (s *Store) commit(ctx context.Context, op string, fn func(next *State) (bool, error)) error {
	published, err := s.apply(ctx, op, fn)
	if err != nil || published == nil {
		return err
	}

	s.listenersMu.RLock()
	listeners := make([]func(*State), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()
	for _, l := range listeners {
		l(published)
	}
	return nil
}

func (s *Store) apply(ctx context.Context, op string, fn func(next *State) (bool, error)) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span, ctx := observability.NewSpan(ctx, "store."+op)
	defer span.End()

	next := s.current.Load().clone()
	changed, err := fn(next)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !changed {
		return nil, nil
	}
	next.Version++

	if err := s.persist(ctx, next); err != nil {
		span.SetError(err)
		s.log.LogError(ctx, err, op)
		return nil, models.NewInternalError(err)
	}

	s.current.Store(next)
	observability.StoreMutations.WithLabelValues(op).Inc()
	span.AddAttributes(attribute.Int64("store.version", int64(next.Version)))
	s.log.LogMutation(ctx, op, map[string]interface{}{"version": next.Version})
	return next, nil
}

func (s *Store) persist(ctx context.Context, st *State) error {
	raw, err := json.Marshal(st.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	driver := s.kv.Driver()
	span, ctx := observability.TraceSnapshotWrite(ctx, driver, s.key, len(raw))
	defer span.End()
	defer observability.TrackPersist(driver)()
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		span.SetError(err)
		observability.SnapshotPersistErrors.WithLabelValues(driver).Inc()
		return err
	}
	return nil
}
