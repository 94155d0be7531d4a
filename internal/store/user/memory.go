package user

import (
	"context"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*User
	byEmail map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[int64]*User{}, byEmail: map[string]int64{}}
}

func (m *MemoryRepository) GetByID(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	id, ok := m.byEmail[NormalizeEmail(email)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MemoryRepository) Create(_ context.Context, nu NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := NormalizeEmail(nu.Email)
	if _, taken := m.byEmail[email]; taken {
		return nil, ErrEmailTaken
	}
	if nu.Status == "" {
		nu.Status = StatusActive
	}
	m.nextID++
	u := &User{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		Status:       nu.Status,
		CreatedAt:    time.Now(),
	}
	m.byID[u.ID] = u
	m.byEmail[email] = u.ID
	cp := *u
	return &cp, nil
}

// Put inserta o reemplaza un usuario tal cual (seed y tests).
func (m *MemoryRepository) Put(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = NormalizeEmail(u.Email)
	if u.ID > m.nextID {
		m.nextID = u.ID
	}
	m.byID[u.ID] = &u
	m.byEmail[u.Email] = u.ID
}
