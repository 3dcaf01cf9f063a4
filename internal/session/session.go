// Package session tracks per-connection authentication state.
//
// Identity is always keyed by [ConnID]; there is no shared "current user".
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAlreadyAuthenticated = errors.New("already logged in")
	ErrNotAuthenticated     = errors.New("not logged in")
	ErrUnknownConnection    = errors.New("unknown connection")
)

// ConnID identifies one accepted connection for its whole lifetime.
type ConnID uuid.UUID

// NewConnID returns a fresh random connection identity.
func NewConnID() ConnID {
	return ConnID(uuid.New())
}

// String returns the canonical UUID form.
func (id ConnID) String() string {
	return uuid.UUID(id).String()
}

// Session is the authentication state of one connection.
type Session struct {
	Authenticated bool
	UserEmail     string
}

// Registry holds the session of every open connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[ConnID]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[ConnID]*Session)}
}

// Open registers an unauthenticated session for id.
func (r *Registry) Open(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &Session{}
}

// Close forgets id entirely.
func (r *Registry) Close(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Login marks id as authenticated as email.
func (r *Registry) Login(id ConnID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrUnknownConnection
	}
	if s.Authenticated {
		return ErrAlreadyAuthenticated
	}
	s.Authenticated = true
	s.UserEmail = email
	return nil
}

// Logout clears the authentication of id.
func (r *Registry) Logout(id ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.Authenticated {
		return ErrNotAuthenticated
	}
	s.Authenticated = false
	s.UserEmail = ""
	return nil
}

// User returns the email id is authenticated as.
func (r *Registry) User(id ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || !s.Authenticated {
		return "", false
	}
	return s.UserEmail, true
}

// Get returns a copy of the session for id.
func (r *Registry) Get(id ConnID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
