package refreshtoken

import (
	"context"
	"fmt"
	"sync"

	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// MemoryRepository implementa Repository en memoria (dev/tests, una réplica).
type MemoryRepository struct {
	opts Options

	mu     sync.Mutex
	nextID int64
	byHash map[string]*RefreshToken
}

func NewMemoryRepository(opts Options) *MemoryRepository {
	return &MemoryRepository{opts: opts.withDefaults(), byHash: map[string]*RefreshToken{}}
}

func (m *MemoryRepository) Issue(_ context.Context, userID int64) (Issued, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(userID, nil)
}

func (m *MemoryRepository) insertLocked(userID int64, rotatedFrom *int64) (Issued, error) {
	raw, err := token.Opaque(token.RefreshBytes)
	if err != nil {
		return Issued{}, fmt.Errorf("generate refresh token: %w", err)
	}
	m.nextID++
	now := m.opts.Now()
	rec := &RefreshToken{
		ID:          m.nextID,
		UserID:      userID,
		TokenHash:   token.Hash(raw),
		ExpiresAt:   now.Add(m.opts.TTL),
		RotatedFrom: rotatedFrom,
		CreatedAt:   now,
	}
	m.byHash[rec.TokenHash] = rec
	return Issued{Token: raw, Record: *rec}, nil
}

func (m *MemoryRepository) FindActive(_ context.Context, tok string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byHash[token.Hash(tok)]
	if !ok || !rec.Active(m.opts.Now()) {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryRepository) Revoke(_ context.Context, tok string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byHash[token.Hash(tok)]
	if !ok {
		return false, nil
	}
	if rec.RevokedAt == nil {
		now := m.opts.Now()
		rec.RevokedAt = &now
	}
	return true, nil
}

func (m *MemoryRepository) RevokeAllForUser(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	affected := false
	for _, rec := range m.byHash {
		if rec.UserID == userID && rec.RevokedAt == nil {
			t := now
			rec.RevokedAt = &t
			affected = true
		}
	}
	return affected, nil
}

func (m *MemoryRepository) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	var n int64
	for h, rec := range m.byHash {
		if !now.Before(rec.ExpiresAt) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Rotate(_ context.Context, tok string) (Rotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byHash[token.Hash(tok)]
	if !ok {
		return Rotation{}, ErrNotFound
	}
	now := m.opts.Now()
	if !rec.Active(now) {
		if rec.RevokedAt != nil && m.hasSuccessorLocked(rec.ID) {
			return Rotation{}, ErrAlreadyRotated
		}
		return Rotation{}, ErrNotFound
	}

	rec.RevokedAt = &now
	prev := rec.ID
	next, err := m.insertLocked(rec.UserID, &prev)
	if err != nil {
		rec.RevokedAt = nil
		return Rotation{}, err
	}
	return Rotation{UserID: rec.UserID, PreviousID: prev, Next: next}, nil
}

func (m *MemoryRepository) hasSuccessorLocked(id int64) bool {
	for _, rec := range m.byHash {
		if rec.RotatedFrom != nil && *rec.RotatedFrom == id {
			return true
		}
	}
	return false
}
