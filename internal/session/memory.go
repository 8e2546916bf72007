package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Memory хранит сессии в памяти процесса. Истёкшие сессии удаляет janitor.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemory создаёт реестр сессий в памяти.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Put сохраняет сессию.
func (m *Memory) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get возвращает сессию, если она существует и не истекла.
func (m *Memory) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || s.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete удаляет сессию.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Purge удаляет истёкшие сессии и возвращает их количество.
func (m *Memory) Purge() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor периодически удаляет истёкшие сессии до отмены ctx.
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Purge(); n > 0 {
				logger.Debug("expired sessions purged", zap.Int("count", n))
			}
		}
	}
}
