// Package domain holds the identifier and credential types shared across
// trustbind. Identifiers are fixed-length byte arrays parsed at trust
// boundaries; services and stores only ever see the typed forms.
package domain

import (
	"encoding/hex"
	"strings"

	dErrors "trustbind/pkg/domain-errors"
)

// AccountLen is the byte length of a network account identifier.
const AccountLen = 20

// CredentialIDLen is the byte length of a unique-human credential identifier.
const CredentialIDLen = 32

// Account identifies a network participant. The zero value means "no account".
type Account [AccountLen]byte

// CredentialID identifies a unique-human credential issued by an identity
// oracle. The zero value means "no credential".
type CredentialID [CredentialIDLen]byte

// ParseAccount parses a 0x-prefixed (or bare) hex string into an Account.
func ParseAccount(s string) (Account, error) {
	var a Account
	b, err := parseFixedHex(s, AccountLen)
	if err != nil {
		return a, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid account")
	}
	copy(a[:], b)
	if a.IsZero() {
		return Account{}, dErrors.New(dErrors.CodeInvalidInput, "account must not be zero")
	}
	return a, nil
}

// ParseCredentialID parses a 0x-prefixed (or bare) hex string into a CredentialID.
func ParseCredentialID(s string) (CredentialID, error) {
	var id CredentialID
	b, err := parseFixedHex(s, CredentialIDLen)
	if err != nil {
		return id, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid credential id")
	}
	copy(id[:], b)
	if id.IsZero() {
		return CredentialID{}, dErrors.New(dErrors.CodeInvalidInput, "credential id must not be zero")
	}
	return id, nil
}

func (a Account) String() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Account) IsZero() bool { return a == Account{} }

// MarshalText implements encoding.TextMarshaler so accounts render as hex in JSON.
func (a Account) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := ParseAccount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (id CredentialID) String() string { return "0x" + hex.EncodeToString(id[:]) }

func (id CredentialID) IsZero() bool { return id == CredentialID{} }

// MarshalText implements encoding.TextMarshaler.
func (id CredentialID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *CredentialID) UnmarshalText(text []byte) error {
	parsed, err := ParseCredentialID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseFixedHex(s string, length int) ([]byte, error) {
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "empty identifier")
	}
	s = strings.TrimPrefix(s, "0x")
	if len(s) != length*2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "wrong identifier length")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "not a hex identifier")
	}
	return b, nil
}
