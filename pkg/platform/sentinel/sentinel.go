package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, oracle clients, and ledger
// adapters return these (optionally wrapped) so services can translate them
// into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist (no binding, no credential record)
// - ErrConflict: write would violate a uniqueness invariant
// - ErrUnavailable: backing service temporarily unreachable
//
// For input validation, use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
