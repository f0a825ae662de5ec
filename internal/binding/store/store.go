// Package store persists the account↔credential bindings. The bijection has a
// single write path, Bind, so the uniqueness invariant is enforced in exactly
// one place per implementation.
package store

import (
	"context"

	"trustbind/pkg/domain"
)

// Store is the binding double-index. Bindings are permanent: there is no
// update or delete. Implementations return sentinel.ErrConflict from Bind when
// either side is already bound and sentinel.ErrNotFound from lookups.
type Store interface {
	// Bind atomically records account↔id. It fails with sentinel.ErrConflict
	// if the account is already bound or the credential is already bound to
	// any account, leaving all state unchanged.
	Bind(ctx context.Context, account domain.Account, id domain.CredentialID) error
	// CredentialOf returns the credential bound to the account.
	CredentialOf(ctx context.Context, account domain.Account) (domain.CredentialID, error)
	// AccountOf returns the account bound to the credential (reverse index).
	AccountOf(ctx context.Context, id domain.CredentialID) (domain.Account, error)
	// Walk calls fn for every binding. Used by the reconciliation backfill;
	// fn returning an error stops the walk.
	Walk(ctx context.Context, fn func(account domain.Account, id domain.CredentialID) error) error
}
