package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/repositories"
)

// DefaultStorageKey is the key the credential is stored under.
const DefaultStorageKey = "accessToken"

const storeTimeout = 5 * time.Second

// Store persists the single session credential under a fixed key.
//
// Store never returns errors. When the backend fails it logs a warning and keeps the credential in
// memory for the rest of the process, so the session keeps working without durability.
type Store struct {
	backend repositories.CredentialStore
	key     string
	logger  *log.Logger

	mu       sync.Mutex
	degraded bool
	value    string
	present  bool
}

// NewStore wraps backend. A nil backend gives a memory-only store.
func NewStore(backend repositories.CredentialStore, key string, logger *log.Logger) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{backend: backend, key: key, logger: logger, degraded: backend == nil}
}

// Durable reports whether writes still reach the backend.
func (s *Store) Durable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.degraded
}

// Save replaces the stored credential.
func (s *Store) Save(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value, s.present = credential, true
	if s.degraded {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.backend.Save(ctx, s.key, credential); err != nil {
		s.degrade("save", err)
	}
}

// Load returns the stored credential, if any.
func (s *Store) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return s.value, s.present
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	value, ok, err := s.backend.Load(ctx, s.key)
	if err != nil {
		s.degrade("load", err)
		return s.value, s.present
	}

	s.value, s.present = value, ok
	return value, ok
}

// Clear removes the stored credential. Clearing an empty store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value, s.present = "", false
	if s.degraded {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.degrade("clear", err)
	}
}

func (s *Store) degrade(op string, err error) {
	s.degraded = true
	s.logger.Warn("credential storage unavailable, continuing in memory",
		"op", op, "backend", s.backend.Name(), "error", err)
}
