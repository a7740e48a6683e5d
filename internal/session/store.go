// Package session holds the bearer token for the running client.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrEmptyToken = errors.New("token cannot be empty")

// Storage is the durable side of the session: one key holding the token.
// Load returns "" with a nil error when nothing was persisted.
type Storage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Listener is called after every token change, outside the store lock.
type Listener func(token string, authenticated bool)

type Store struct {
	mu        sync.RWMutex
	token     string
	storage   Storage
	listeners map[int]Listener
	nextID    int
	log       *logrus.Logger
}

// NewStore reads the persisted token, if any. A storage read failure leaves the
// store anonymous; it is logged, not returned, because anonymous is a valid state.
func NewStore(storage Storage, logger *logrus.Logger) *Store {
	s := &Store{
		storage:   storage,
		listeners: make(map[int]Listener),
		log:       logger,
	}
	token, err := storage.Load()
	if err != nil {
		logger.Warnf("Session: Failed to load persisted token, starting anonymous: %v", err)
		return s
	}
	s.token = token
	if token != "" {
		logger.Debugf("Session: Restored token %s...", tokenPrefix(token))
	}
	return s
}

func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// SetToken keeps the token in memory even when persisting it fails; the
// persistence error is still returned so the caller can tell the user.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	var persistErr error
	if err := s.storage.Save(token); err != nil {
		s.log.Errorf("Session: Failed to persist token: %v", err)
		persistErr = fmt.Errorf("failed to persist session token: %w", err)
	}
	s.log.Infof("Session: Token set (%s...)", tokenPrefix(token))
	s.notify(token, true)
	return persistErr
}

func (s *Store) ClearToken() error {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	var persistErr error
	if err := s.storage.Clear(); err != nil {
		s.log.Errorf("Session: Failed to remove persisted token: %v", err)
		persistErr = fmt.Errorf("failed to remove session token: %w", err)
	}
	if had {
		s.log.Info("Session: Token cleared")
		s.notify("", false)
	}
	return persistErr
}

// AuthHeader returns the headers every outgoing call should carry.
func (s *Store) AuthHeader() http.Header {
	token, _ := s.Token()
	return HeaderFor(token)
}

// Subscribe registers fn for token changes and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(token string, authenticated bool) {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(token, authenticated)
	}
}

// HeaderFor builds the JSON content type plus, when token is set, a bearer
// Authorization header.
func HeaderFor(token string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func tokenPrefix(token string) string {
	return token[:min(6, len(token))]
}
