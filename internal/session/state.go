package session

import (
	"context"
	"slices"
	"sync"

	"github.com/kassolend/console/internal/models"
)

// Authenticator is the part of the auth service the session state needs
type Authenticator interface {
	StoredUser() *models.User
	IsAuthenticated() bool
	Logout(ctx context.Context) error
}

// State is the in-memory view of who is signed in. It is safe for concurrent use.
type State struct {
	auth Authenticator

	mu            sync.RWMutex
	user          *models.User
	authenticated bool
	loading       bool
	err           string
}

// NewState creates a state that starts loading until Initialize runs
func NewState(auth Authenticator) *State {
	return &State{auth: auth, loading: true}
}

// Initialize restores the session from storage. A stored credential alone
// counts as signed in; the user record may be missing, in which case User is
// nil until the backend is asked.
func (s *State) Initialize() {
	user := s.auth.StoredUser()
	authenticated := s.auth.IsAuthenticated()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = authenticated
	s.user = nil
	if authenticated {
		s.user = user
	}
	s.loading = false
	s.err = ""
}

// SetUser records a freshly signed-in user. A nil user signs the state out.
func (s *State) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.authenticated = user != nil
	s.loading = false
	s.err = ""
}

func (s *State) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
	s.loading = false
}

// Logout signs out through the backend and drops the in-memory session
// whatever the backend answered
func (s *State) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	err := s.auth.Logout(ctx)
	s.Expire()
	return err
}

// Expire drops the in-memory session without calling the backend. It is used
// when the transport has already forced a logout.
func (s *State) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.authenticated = false
	s.loading = false
	s.err = ""
}

// User returns the signed-in user, or nil
func (s *State) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last recorded error message, or ""
func (s *State) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// HasPermission reports whether the user holds p directly or through their role
func (s *State) HasPermission(p models.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasPermission(s.user, p)
}

// HasRole reports whether the user's role is one of roles
func (s *State) HasRole(roles ...models.UserRole) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && slices.Contains(roles, s.user.Role)
}

func (s *State) HasAnyPermission(perms ...models.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range perms {
		if hasPermission(s.user, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user holds every one of perms. An
// empty list is vacuously held by a signed-in user.
func (s *State) HasAllPermissions(perms ...models.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	for _, p := range perms {
		if !hasPermission(s.user, p) {
			return false
		}
	}
	return true
}

func hasPermission(user *models.User, p models.Permission) bool {
	if user == nil {
		return false
	}
	return slices.Contains(user.Permissions, p) || slices.Contains(models.RolePermissions[user.Role], p)
}
