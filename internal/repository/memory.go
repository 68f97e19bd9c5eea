package repository

import (
	"context"
	"sync"
)

// MemoryAuthRepository keeps accounts in process memory. It is used when
// no database is configured and in tests.
type MemoryAuthRepository struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewMemoryAuthRepository returns an empty repository.
func NewMemoryAuthRepository() *MemoryAuthRepository {
	return &MemoryAuthRepository{users: make(map[string]string)}
}

// UserExists reports whether email is registered.
func (m *MemoryAuthRepository) UserExists(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[email]
	return ok, nil
}

// CreateUser stores the account or returns ErrUserExists.
func (m *MemoryAuthRepository) CreateUser(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return ErrUserExists
	}
	m.users[email] = passwordHash
	return nil
}

// PasswordHash returns the stored hash for email, or ErrUserNotFound.
func (m *MemoryAuthRepository) PasswordHash(_ context.Context, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, ok := m.users[email]
	if !ok {
		return "", ErrUserNotFound
	}
	return hash, nil
}
