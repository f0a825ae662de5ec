package oracle

import (
	"context"
	"sync"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// Memory is an in-memory oracle for development mode and tests. It implements
// both the read surface and the issuance side the real oracle performs.
type Memory struct {
	mu       sync.RWMutex
	byID     map[domain.CredentialID]domain.Credential
	byHolder map[domain.Account]domain.CredentialID
}

func NewMemory() *Memory {
	return &Memory{
		byID:     make(map[domain.CredentialID]domain.Credential),
		byHolder: make(map[domain.Account]domain.CredentialID),
	}
}

// Issue records a credential for its owner, replacing any previous record for
// the same id (renewals extend the expiry in place).
func (m *Memory) Issue(cred domain.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[cred.ID] = cred
	m.byHolder[cred.Owner] = cred.ID
}

// Remove deletes the credential record entirely, as if the oracle never issued it.
func (m *Memory) Remove(id domain.CredentialID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cred, ok := m.byID[id]; ok {
		delete(m.byHolder, cred.Owner)
		delete(m.byID, id)
	}
}

func (m *Memory) IsHuman(_ context.Context, account domain.Account) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byHolder[account]
	return ok, nil
}

func (m *Memory) HumanityOf(_ context.Context, account domain.Account) (domain.CredentialID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHolder[account]
	if !ok {
		return domain.CredentialID{}, sentinel.ErrNotFound
	}
	return id, nil
}

func (m *Memory) BoundTo(_ context.Context, id domain.CredentialID) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.byID[id]
	if !ok {
		return domain.Account{}, sentinel.ErrNotFound
	}
	return cred.Owner, nil
}

func (m *Memory) CredentialData(_ context.Context, id domain.CredentialID) (domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.byID[id]
	if !ok {
		return domain.Credential{}, sentinel.ErrNotFound
	}
	return cred, nil
}
