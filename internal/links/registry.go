// Package links defines the link registry port. Link assertions are directed
// and permanent; a link is established between two accounts only when both
// directions have been asserted. trustbind consumes reads and enumeration; the
// write path exists for development mode and tests.
package links

import (
	"context"

	"trustbind/pkg/domain"
)

// Registry is the consumed surface of the external link registry.
type Registry interface {
	// Link asserts a directed link from caller to partner. Asserting twice is a no-op.
	Link(ctx context.Context, from, to domain.Account) error
	// HasAsserted reports whether the directed assertion from→to exists.
	HasAsserted(ctx context.Context, from, to domain.Account) (bool, error)
	// IsLinkEstablished reports whether both a→b and b→a assertions exist.
	IsLinkEstablished(ctx context.Context, a, b domain.Account) (bool, error)
	// Outgoing enumerates the accounts that `from` has asserted links to, in
	// assertion order, starting after cursor (zero cursor = from the start).
	// It returns up to limit partners and the cursor for the next page; a zero
	// next cursor means the enumeration is complete.
	Outgoing(ctx context.Context, from, cursor domain.Account, limit int) ([]domain.Account, domain.Account, error)
}
