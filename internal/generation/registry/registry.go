// Package registry tracks in-flight generation sessions by id.
//
// Entries live without expiration while a session is running; once a session
// reaches a terminal state the caller marks it for retention-bounded
// eviction, so registry memory does not grow for the life of the process.
package registry

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lunagrove/landingforge/internal/generation/domain"
	"github.com/lunagrove/landingforge/internal/platform/errors"
)

const (
	// DefaultRetention keeps terminal sessions discoverable long enough for
	// a caller to collect results before eviction.
	DefaultRetention = 30 * time.Minute
	// DefaultCleanupInterval bounds how often expired entries are purged.
	DefaultCleanupInterval = 5 * time.Minute
)

// ErrNotFound indicates the requested session is unknown or already evicted.
var ErrNotFound = errors.New(errors.CodeNotFound, "session not found")

// Registry is the process-wide lookup of active sessions.
type Registry struct {
	sessions  *gocache.Cache
	retention time.Duration
	clock     func() time.Time
	newID     func() (string, error)
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithIDGenerator overrides session id generation, for tests.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(r *Registry) { r.newID = generate }
}

// New creates a Registry evicting terminal sessions after retention.
// Non-positive durations fall back to the defaults.
func New(retention, cleanupInterval time.Duration, opts ...Option) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	sessions := gocache.New(gocache.NoExpiration, cleanupInterval)
	sessions.OnEvicted(func(_ string, value interface{}) {
		if session, ok := value.(*domain.Session); ok {
			session.CloseEvents()
		}
	})

	registry := &Registry{
		sessions:  sessions,
		retention: retention,
	}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// Create allocates a new IDLE session, stores it keyed by id, and returns it.
func (r *Registry) Create(ownerID int64) (*domain.Session, error) {
	session, err := domain.NewSession(ownerID, r.clock, r.newID)
	if err != nil {
		return nil, err
	}
	r.sessions.Set(session.ID(), session, gocache.NoExpiration)
	return session, nil
}

// Get returns the session with the given id, or ErrNotFound.
func (r *Registry) Get(sessionID string) (*domain.Session, error) {
	value, ok := r.sessions.Get(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	session, ok := value.(*domain.Session)
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

// Expire switches a session's entry to the retention TTL. Called once the
// session is terminal; the entry stays readable until the TTL elapses.
func (r *Registry) Expire(sessionID string) {
	value, ok := r.sessions.Get(sessionID)
	if !ok {
		return
	}
	r.sessions.Set(sessionID, value, r.retention)
}

// Delete removes the entry immediately. A Session reference already held by
// a caller stays usable; deletion only affects discoverability.
func (r *Registry) Delete(sessionID string) {
	r.sessions.Delete(sessionID)
}

// Len returns the number of tracked sessions, including not-yet-purged
// expired entries.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}
