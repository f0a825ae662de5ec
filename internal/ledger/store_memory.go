package ledger

import (
	"context"
	"sync"
	"time"

	"trustbind/pkg/domain"
)

// Memory is an in-memory group ledger for development mode and tests.
type Memory struct {
	mu     sync.RWMutex
	expiry map[domain.Account]time.Time
}

func NewMemory() *Memory {
	return &Memory{expiry: make(map[domain.Account]time.Time)}
}

func (m *Memory) SetTrustBatch(_ context.Context, members []domain.Account, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range members {
		m.expiry[member] = expiry
	}
	return nil
}

func (m *Memory) IsTrusted(_ context.Context, member domain.Account) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Now().Before(m.expiry[member]), nil
}

func (m *Memory) TrustExpiry(_ context.Context, member domain.Account) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiry[member], nil
}
