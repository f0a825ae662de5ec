package store

import (
	"context"
	"sync"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// InMemory keeps the two binding indexes in maps guarded by one mutex, so the
// bijection check and the writes are a single atomic step.
type InMemory struct {
	mu        sync.RWMutex
	byAccount map[domain.Account]domain.CredentialID
	byID      map[domain.CredentialID]domain.Account
}

func NewInMemory() *InMemory {
	return &InMemory{
		byAccount: make(map[domain.Account]domain.CredentialID),
		byID:      make(map[domain.CredentialID]domain.Account),
	}
}

func (s *InMemory) Bind(_ context.Context, account domain.Account, id domain.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, bound := s.byAccount[account]; bound {
		return sentinel.ErrConflict
	}
	if _, bound := s.byID[id]; bound {
		return sentinel.ErrConflict
	}
	s.byAccount[account] = id
	s.byID[id] = account
	return nil
}

func (s *InMemory) CredentialOf(_ context.Context, account domain.Account) (domain.CredentialID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAccount[account]
	if !ok {
		return domain.CredentialID{}, sentinel.ErrNotFound
	}
	return id, nil
}

func (s *InMemory) AccountOf(_ context.Context, id domain.CredentialID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return domain.Account{}, sentinel.ErrNotFound
	}
	return account, nil
}

func (s *InMemory) Walk(_ context.Context, fn func(domain.Account, domain.CredentialID) error) error {
	s.mu.RLock()
	snapshot := make(map[domain.Account]domain.CredentialID, len(s.byAccount))
	for account, id := range s.byAccount {
		snapshot[account] = id
	}
	s.mu.RUnlock()

	for account, id := range snapshot {
		if err := fn(account, id); err != nil {
			return err
		}
	}
	return nil
}
