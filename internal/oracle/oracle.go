// Package oracle defines the identity oracle port and its adapters. The
// oracle is the authoritative source of credential ownership and expiry;
// trustbind only ever reads from it.
package oracle

import (
	"context"
	"errors"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// Oracle is the read surface of one identity oracle instance.
// Lookup misses are reported as sentinel.ErrNotFound.
type Oracle interface {
	// IsHuman reports whether the account currently holds a credential.
	IsHuman(ctx context.Context, account domain.Account) (bool, error)
	// HumanityOf returns the credential id held by the account.
	HumanityOf(ctx context.Context, account domain.Account) (domain.CredentialID, error)
	// BoundTo returns the account that owns the credential.
	BoundTo(ctx context.Context, id domain.CredentialID) (domain.Account, error)
	// CredentialData returns the full credential record, expiry included.
	CredentialData(ctx context.Context, id domain.CredentialID) (domain.Credential, error)
}

// Fallback consults the primary oracle and falls back to the secondary only
// when the primary has no record. Results are never merged across sources.
type Fallback struct {
	primary   Oracle
	secondary Oracle
}

// NewFallback builds the two-source resolver. secondary may be nil.
func NewFallback(primary, secondary Oracle) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) IsHuman(ctx context.Context, account domain.Account) (bool, error) {
	ok, err := f.primary.IsHuman(ctx, account)
	if err != nil {
		return false, err
	}
	if ok || f.secondary == nil {
		return ok, nil
	}
	return f.secondary.IsHuman(ctx, account)
}

func (f *Fallback) HumanityOf(ctx context.Context, account domain.Account) (domain.CredentialID, error) {
	id, err := f.primary.HumanityOf(ctx, account)
	if f.miss(err) {
		return f.secondary.HumanityOf(ctx, account)
	}
	return id, err
}

func (f *Fallback) BoundTo(ctx context.Context, id domain.CredentialID) (domain.Account, error) {
	account, err := f.primary.BoundTo(ctx, id)
	if f.miss(err) {
		return f.secondary.BoundTo(ctx, id)
	}
	return account, err
}

func (f *Fallback) CredentialData(ctx context.Context, id domain.CredentialID) (domain.Credential, error) {
	cred, err := f.primary.CredentialData(ctx, id)
	if f.miss(err) {
		return f.secondary.CredentialData(ctx, id)
	}
	return cred, err
}

func (f *Fallback) miss(err error) bool {
	return f.secondary != nil && errors.Is(err, sentinel.ErrNotFound)
}
