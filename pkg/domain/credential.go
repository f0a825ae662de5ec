package domain

import "time"

// Credential is a unique-human credential as reported by an identity oracle.
// Exactly one account owns a credential; the oracle is authoritative for both
// ownership and expiry.
type Credential struct {
	ID        CredentialID
	Owner     Account
	ExpiresAt time.Time
}

// ValidAt reports whether the credential is valid at the given instant.
// The boundary convention is strict everywhere in trustbind: a credential whose
// expiry equals now is already expired.
func (c Credential) ValidAt(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}
