// Package ledger defines the group ledger port. The ledger owns the trust
// relations; trustbind only writes expiries through it and never caches the
// authoritative state.
package ledger

import (
	"context"
	"time"

	"trustbind/pkg/domain"
)

//go:generate mockgen -source=ledger.go -destination=mocks/mock_ledger.go -package=mocks

// GroupLedger is the consumed surface of one trust group on the ledger.
// A zero expiry revokes trust for the listed members.
type GroupLedger interface {
	// SetTrustBatch sets the trust expiry for every listed member at once.
	SetTrustBatch(ctx context.Context, members []domain.Account, expiry time.Time) error
	// IsTrusted reports whether the member's trust expiry is in the future.
	IsTrusted(ctx context.Context, member domain.Account) (bool, error)
	// TrustExpiry returns the member's current trust expiry; the zero time
	// means no trust relation exists (or it has been revoked).
	TrustExpiry(ctx context.Context, member domain.Account) (time.Time, error)
}
