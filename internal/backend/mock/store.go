package mock

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helioshq/helios-admin/internal/authz"
	"github.com/helioshq/helios-admin/internal/identity"
)

// Store is the in-memory user table behind the mock directory. It is an
// explicit object passed by injection, constructed once per process and
// reset between test cases, never a package-level variable.
type Store struct {
	mu    sync.RWMutex
	users map[string]*identity.User // keyed by lowercase email
	now   func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock overrides the store clock, for deterministic tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore builds a store seeded with one account per system role.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset restores the seed dataset, dropping every runtime mutation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*identity.User)
	for _, seed := range seedAccounts() {
		s.users[seed.Email] = seed
	}
}

// seedAccounts builds the fixed demo dataset.
func seedAccounts() []*identity.User {
	seeds := []struct {
		email     string
		first     string
		last      string
		role      string
		avatarURL string
	}{
		{"admin@example.com", "Ada", "Sterling", authz.RoleAdmin, "/avatars/seed/admin.png"},
		{"manager@example.com", "Miles", "Okafor", authz.RoleManager, "/avatars/seed/manager.png"},
		{"editor@example.com", "Elena", "Brandt", authz.RoleEditor, ""},
		{"viewer@example.com", "Vik", "Halvorsen", authz.RoleViewer, ""},
	}
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	users := make([]*identity.User, 0, len(seeds))
	for _, sd := range seeds {
		role, _ := authz.RoleByName(sd.role)
		u := &identity.User{
			ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("helios:"+sd.email)).String(),
			Email:      sd.email,
			FirstName:  sd.first,
			LastName:   sd.last,
			AvatarURL:  sd.avatarURL,
			IsActive:   true,
			IsVerified: true,
			CreatedAt:  created,
			UpdatedAt:  created,
			Profile:    identity.Profile{Preferences: identity.DefaultPreferences()},
		}
		u.DisplayName = u.FullName()
		u.MaterializeRole(role)
		users = append(users, u)
	}
	return users
}

// find returns a snapshot of the user with the given email.
func (s *Store) find(email string) (*identity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[normalizeEmail(email)]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// insert adds a new user; reports false when the email is taken.
func (s *Store) insert(u *identity.User) bool {
	key := normalizeEmail(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[key]; exists {
		return false
	}
	s.users[key] = u.Clone()
	return true
}

// update replaces the stored record for the user's email, applying mutate to
// a fresh snapshot and returning the result.
func (s *Store) update(email string, mutate func(*identity.User)) (*identity.User, bool) {
	key := normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[key]
	if !ok {
		return nil, false
	}
	next := current.Clone()
	mutate(next)
	next.UpdatedAt = s.now().UTC()
	s.users[key] = next
	return next.Clone(), true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
