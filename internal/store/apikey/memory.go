package apikey

import (
	"context"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byHash map[string]Key
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byHash: map[string]Key{}}
}

func (m *MemoryRepository) GetByHash(_ context.Context, hash string) (*Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

func (m *MemoryRepository) Create(_ context.Context, nk NewKey) (Created, error) {
	raw, prefix, hash, err := Generate()
	if err != nil {
		return Created{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	k := Key{
		ID:            m.nextID,
		Name:          nk.Name,
		Prefix:        prefix,
		KeyHash:       hash,
		Active:        true,
		RateLimit:     nk.RateLimit,
		Window:        nk.Window,
		UserRateLimit: nk.UserRateLimit,
		IPRateLimit:   nk.IPRateLimit,
		CreatedAt:     time.Now(),
	}
	m.byHash[hash] = k
	return Created{Raw: raw, Key: k}, nil
}

// SetActive activa/desactiva una key por hash (tests, tooling).
func (m *MemoryRepository) SetActive(hash string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.byHash[hash]; ok {
		k.Active = active
		m.byHash[hash] = k
	}
}
