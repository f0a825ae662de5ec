package links

import (
	"context"
	"sync"

	"trustbind/pkg/domain"
)

// Memory is an in-memory link registry for development mode and tests.
// Outgoing assertions are kept in insertion order to match the linked-list
// enumeration the real registry exposes.
type Memory struct {
	mu  sync.RWMutex
	out map[domain.Account][]domain.Account
}

func NewMemory() *Memory {
	return &Memory{out: make(map[domain.Account][]domain.Account)}
}

func (m *Memory) Link(_ context.Context, from, to domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.out[from] {
		if existing == to {
			return nil
		}
	}
	m.out[from] = append(m.out[from], to)
	return nil
}

func (m *Memory) HasAsserted(_ context.Context, from, to domain.Account) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasAsserted(from, to), nil
}

func (m *Memory) IsLinkEstablished(_ context.Context, a, b domain.Account) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasAsserted(a, b) && m.hasAsserted(b, a), nil
}

func (m *Memory) Outgoing(_ context.Context, from, cursor domain.Account, limit int) ([]domain.Account, domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.out[from]
	start := 0
	if !cursor.IsZero() {
		for i, partner := range all {
			if partner == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := append([]domain.Account(nil), all[start:end]...)

	var next domain.Account
	if end < len(all) && len(page) > 0 {
		next = page[len(page)-1]
	}
	return page, next, nil
}

func (m *Memory) hasAsserted(from, to domain.Account) bool {
	for _, existing := range m.out[from] {
		if existing == to {
			return true
		}
	}
	return false
}
