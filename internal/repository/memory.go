package repository

import (
	"context"
	"sync"
	"time"

	"belleza/internal/models"
)

type memoryEntry struct {
	session   *models.Session
	expiresAt time.Time
}

type rateEntry struct {
	count    int
	windowAt time.Time
}

// MemorySessionRepository is the in-process fallback when Redis is down.
// Entries carry the same TTL semantics and are evicted lazily on access.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[int64]memoryEntry
	rates    map[int64]rateEntry
	now      func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl:      ttl,
		sessions: make(map[int64]memoryEntry),
		rates:    make(map[int64]rateEntry),
		now:      time.Now,
	}
}

func (m *MemorySessionRepository) GetSession(_ context.Context, chatID int64) (*models.Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[chatID]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, chatID)
		m.mu.Unlock()
		return nil, nil
	}
	return entry.session, nil
}

func (m *MemorySessionRepository) SetSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ChatID] = memoryEntry{session: session, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionRepository) ClearSession(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}

func (m *MemorySessionRepository) CheckRateLimit(_ context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.rates[chatID]
	if !ok || now.Sub(entry.windowAt) > window {
		m.rates[chatID] = rateEntry{count: 1, windowAt: now}
		return true, nil
	}

	entry.count++
	m.rates[chatID] = entry
	return entry.count <= limit, nil
}
