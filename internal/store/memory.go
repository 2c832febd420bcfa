package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"userflow-backend/internal/models"
	"userflow-backend/internal/shared"
)

// MemoryStore implements Store in process memory. It backs tests and doubles
// as a stand-in secondary store during local development.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]models.User),
	}
}

func (m *MemoryStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, shared.ErrConflict
		}
	}

	m.nextID++
	now := time.Now().UTC()
	stored := *user
	stored.ID = fmt.Sprintf("mem-%d", m.nextID)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := u
	return &out, nil
}

func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemoryStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	patch.Apply(&u)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	out := u
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}
