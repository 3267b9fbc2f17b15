// Package sessions keeps workflow definitions that are being edited in the builder.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/dukex/atelier/pkg/workflow"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 2 * time.Hour

var ErrSessionNotFound = errors.New("editing session not found")

// Session is one builder tab editing one definition. Edits run under its lock.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	definition *workflow.Definition
}

// Store holds editing sessions in memory and expires the idle ones.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
	newID func() string
	now   func() time.Time
}

type StoreOption func(*Store)

func WithIDGenerator(generator func() string) StoreOption {
	return func(s *Store) {
		s.newID = generator
	}
}

func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore creates a store. A non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	store := &Store{
		cache: gocache.New(ttl, ttl/2),
		ttl:   ttl,
		newID: uuid.NewString,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Create opens a session on definition and returns it.
func (s *Store) Create(definition *workflow.Definition) *Session {
	session := &Session{
		ID:         s.newID(),
		CreatedAt:  s.now().UTC(),
		definition: definition,
	}

	s.cache.Set(session.ID, session, s.ttl)

	return session
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, error) {
	value, found := s.cache.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}

	session := value.(*Session)

	// Replace only succeeds while the key exists, so a concurrent Delete wins.
	if err := s.cache.Replace(id, session, s.ttl); err != nil {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// With runs fn against the session's definition while holding the session
// lock, so concurrent requests on one session are applied one at a time.
func (s *Store) With(id string, fn func(*workflow.Definition) error) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return fn(session.definition)
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) Count() int {
	return s.cache.ItemCount()
}
