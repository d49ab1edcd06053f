// Package session provides in-memory per-conversation state management for IntentPipe.
//
// The store holds exactly one session per key and evicts sessions lazily: an
// expired session is replaced with a fresh one on next access rather than
// swept by a background task. Access to a single key is serialized so two
// concurrent turns can never mutate the same session at once; different keys
// proceed in parallel.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/IntentPipe/internal/models"
	"github.com/google/uuid"
)

// DefaultTimeout is the idle period after which a session expires.
const DefaultTimeout = 600 * time.Second

// Opts holds configuration options for the session store.
type Opts struct {
	Timeout time.Duration
}

// Option defines a configuration option for the session store.
type Option func(*Opts)

// WithTimeout overrides the session expiry timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// entry pairs a session with the lock that serializes turns on its key.
type entry struct {
	mu      sync.Mutex
	session *models.Session
}

// Store is an in-memory session store with timeout-based lazy eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	timeout time.Duration
}

// NewStore creates a session store with the given options.
func NewStore(opts ...Option) *Store {
	cfg := Opts{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("session.NewStore: creating store", "timeout", cfg.Timeout)
	return &Store{
		entries: make(map[string]*entry),
		timeout: cfg.Timeout,
	}
}

// GenerateKey returns a fresh session key for callers that supply none.
func GenerateKey() string {
	return uuid.NewString()
}

// Acquire returns the session for key with its turn lock held, creating a
// fresh session if the key is absent or the existing session has expired.
// The caller owns the session exclusively until release is called.
func (s *Store) Acquire(key string) (sess *models.Session, release func()) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{session: models.NewSession(key)}
		s.entries[key] = e
		slog.Debug("session.Store.Acquire: created session", "key", key)
	}
	s.mu.Unlock()

	e.mu.Lock()
	if e.session.Expired(s.timeout) {
		// Expired sessions are recreated silently; callers must not assume
		// continuity beyond the timeout window.
		slog.Debug("session.Store.Acquire: session expired, recreating", "key", key, "last_active", e.session.LastActiveAt)
		e.session = models.NewSession(key)
	}
	return e.session, e.mu.Unlock
}

// GetOrCreate returns a copy-free reference to the session for key, creating
// it if absent or expired. The caller must not retain the reference across
// concurrent turns; use Acquire for turn processing.
func (s *Store) GetOrCreate(key string) *models.Session {
	sess, release := s.Acquire(key)
	defer release()
	sess.Touch()
	return sess
}

// Delete removes the session for key. Missing keys are a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		slog.Debug("session.Store.Delete: session removed", "key", key)
	}
}

// AppendMessage appends a history entry to the session for key.
func (s *Store) AppendMessage(key string, role models.MessageRole, text string, source models.DecisionSource) {
	sess, release := s.Acquire(key)
	defer release()
	sess.AppendMessage(role, text, source)
}

// SetIntent records the most recent classifier output for key. The value is
// diagnostic only and never drives routing on later turns.
func (s *Store) SetIntent(key string, intent string) {
	sess, release := s.Acquire(key)
	defer release()
	sess.LastIntent = intent
	sess.Touch()
}

// History returns a copy of the conversation history for key.
func (s *Store) History(key string) []models.Message {
	sess, release := s.Acquire(key)
	defer release()
	out := make([]models.Message, len(sess.History))
	copy(out, sess.History)
	return out
}

// Exists reports whether a live (non-expired) session is present for key.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.session.Expired(s.timeout)
}

// Len returns the number of tracked session entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
