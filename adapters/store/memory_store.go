package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/ports"
)

// MemoryStore is an in-memory implementation of the UserStore interface,
// used in tests and local development.
type MemoryStore struct {
	users map[string]core.User
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]core.User)}
}

var _ ports.UserStore = (*MemoryStore)(nil)

// FindByEmail looks up a user by email.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != "" && u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, core.ErrUserNotFound
}

// FindByID looks up a user by id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	user := u
	return &user, nil
}

// FindByWallet looks up a user by wallet address, case-insensitively.
func (s *MemoryStore) FindByWallet(ctx context.Context, walletAddress string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.WalletAddress != "" && strings.EqualFold(u.WalletAddress, walletAddress) {
			user := u
			return &user, nil
		}
	}
	return nil, core.ErrUserNotFound
}

// Create inserts a new user record. A duplicate email fails the same
// way the relational unique constraint would.
func (s *MemoryStore) Create(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if user.Email != "" && u.Email == user.Email {
			return core.ErrEmailTaken
		}
	}
	s.users[user.ID] = *user
	return nil
}

// UpdateRole sets the role of an existing user.
func (s *MemoryStore) UpdateRole(ctx context.Context, id string, role core.Role) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	s.users[id] = u

	user := u
	return &user, nil
}

// List returns all users ordered by creation time.
func (s *MemoryStore) List(ctx context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Delete removes a user record.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return core.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
