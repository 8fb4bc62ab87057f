// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package session keeps per-browser state on the server: the storage
// connection a user configured and the flash messages waiting to be shown.
// Only an opaque random ID travels in the cookie.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// DefaultTTL is the sliding lifetime of an idle session.
const DefaultTTL = 24 * time.Hour

// DefaultMaxSessions bounds the number of sessions a MemoryStore holds.
const DefaultMaxSessions = 10000

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is a snapshot of one session's state.
type Session struct {
	ID         string
	Connection *common.Connection
	Flashes    []Flash
	CreatedAt  time.Time
	LastSeen   time.Time
}

// Configured reports whether the session holds a connection.
func (s *Session) Configured() bool {
	return s != nil && s.Connection != nil
}

// Store persists sessions.
type Store interface {
	// Create starts a new empty session.
	Create() *Session

	// Get returns a snapshot of the session and extends its lifetime.
	Get(id string) (*Session, error)

	// SetConnection stores conn for the session.
	SetConnection(id string, conn common.Connection) error

	// ClearConnection drops the stored connection.
	ClearConnection(id string) error

	// AddFlash queues a message for the next page.
	AddFlash(id string, flash Flash) error

	// PopFlashes returns and clears the queued messages.
	PopFlashes(id string) ([]Flash, error)

	// Delete removes the session.
	Delete(id string)
}

type entry struct {
	conn      *common.Connection
	flashes   []Flash
	createdAt time.Time
	lastSeen  time.Time
}

// MemoryStore is a Store held in process memory. Sessions expire after the
// TTL without activity; expired sessions are removed lazily on access and
// by the janitor started with Run. When the store is full, Create drops
// expired sessions and then the least recently seen one.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithTTL sets the idle lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxSessions caps the number of stored sessions. Non-positive values
// keep the default.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*entry),
		ttl:         DefaultTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the idle lifetime.
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

// MaxSessions returns the session cap.
func (s *MemoryStore) MaxSessions() int {
	return s.maxSessions
}

// Create starts a new empty session.
func (s *MemoryStore) Create() *Session {
	now := s.now()
	id := uuid.New().String()

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.sweepLocked(now)
	}
	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}
	s.sessions[id] = &entry{createdAt: now, lastSeen: now}
	s.mu.Unlock()

	return &Session{ID: id, CreatedAt: now, LastSeen: now}
}

// evictOldestLocked removes the least recently seen session. Callers hold mu.
func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.sessions {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

// lookup returns the live entry for id and touches it. Callers hold mu.
func (s *MemoryStore) lookup(id string) (*entry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	e.lastSeen = now
	return e, nil
}

// Get returns a snapshot of the session and extends its lifetime.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        id,
		CreatedAt: e.createdAt,
		LastSeen:  e.lastSeen,
		Flashes:   append([]Flash(nil), e.flashes...),
	}
	if e.conn != nil {
		conn := *e.conn
		sess.Connection = &conn
	}
	return sess, nil
}

// SetConnection stores conn for the session.
func (s *MemoryStore) SetConnection(id string, conn common.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.conn = &conn
	return nil
}

// ClearConnection drops the stored connection.
func (s *MemoryStore) ClearConnection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.conn = nil
	return nil
}

// AddFlash queues a message for the next page.
func (s *MemoryStore) AddFlash(id string, flash Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.flashes = append(e.flashes, flash)
	return nil
}

// PopFlashes returns and clears the queued messages.
func (s *MemoryStore) PopFlashes(id string) ([]Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	flashes := e.flashes
	e.flashes = nil
	return flashes, nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, expired ones included until
// they are swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many it removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// sweepLocked removes sessions idle longer than the TTL. Callers hold mu.
func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Verify interface compliance at compile time
var _ Store = (*MemoryStore)(nil)
