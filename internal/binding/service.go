// Package binding implements the membership binding: a permanent, bijective
// mapping between network accounts and unique-human credentials, gated on a
// mutual-link prerequisite between the registering account and the credential
// holder.
package binding

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"trustbind/internal/binding/metrics"
	"trustbind/internal/binding/store"
	"trustbind/internal/links"
	"trustbind/internal/oracle"
	"trustbind/pkg/domain"
	dErrors "trustbind/pkg/domain-errors"
	"trustbind/pkg/platform/sentinel"
	"trustbind/pkg/requestcontext"
)

// maxAutoSearch caps the partners probed by RegisterMemberAuto. Link chains
// are attacker-extendable, so the search must have a fixed worst-case cost;
// a qualifying partner beyond the cap is reported the same as no partner at
// all, and only the diagnostics distinguish the two.
const maxAutoSearch = 50

// outgoingPageSize is the enumeration page size for the bounded search.
const outgoingPageSize = 10

// Service enforces the binding invariants. All registration paths converge on
// bind, the single write path to the store.
type Service struct {
	store   store.Store
	oracle  oracle.Oracle
	links   links.Registry
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewService(st store.Store, orc oracle.Oracle, reg links.Registry, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		store:   st,
		oracle:  orc,
		links:   reg,
		metrics: m,
		log:     log.With().Str("component", "binding").Logger(),
	}
}

// PassesMembershipCondition reports whether the account is bound and the bound
// credential is still valid. It is side-effect-free: once the credential
// expiry passes, the result flips without any call having been made.
func (s *Service) PassesMembershipCondition(ctx context.Context, account domain.Account) (bool, error) {
	id, err := s.store.CredentialOf(ctx, account)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	cred, err := s.oracle.CredentialData(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cred.ValidAt(requestcontext.Now(ctx)), nil
}

// RegisterMember binds account to the credential held by holder. The link
// between account and holder must be established (both directions asserted)
// and the holder's credential must be valid.
func (s *Service) RegisterMember(ctx context.Context, account, holder domain.Account) error {
	established, err := s.links.IsLinkEstablished(ctx, account, holder)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "link registry lookup failed")
	}
	if !established {
		return dErrors.New(dErrors.CodeLinkNotEstablished, "no established link between account and holder")
	}

	id, err := s.validCredentialOf(ctx, holder)
	if err != nil {
		return err
	}
	return s.bind(ctx, account, id)
}

// RegisterMemberWithID binds account to the given credential id. The owner is
// resolved through the oracle; unless the account is the owner itself, the
// link prerequisite applies against the resolved owner.
func (s *Service) RegisterMemberWithID(ctx context.Context, account domain.Account, id domain.CredentialID) error {
	if stored, err := s.store.CredentialOf(ctx, account); err == nil {
		if stored != id {
			return dErrors.New(dErrors.CodeIdentityMismatch, "account already bound to a different credential")
		}
		return dErrors.New(dErrors.CodeAlreadyBound, "account already bound")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	owner, err := s.oracle.BoundTo(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeCredentialNotFound, "credential has no owner")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}

	resolved, err := s.validCredentialOf(ctx, owner)
	if err != nil {
		return err
	}
	if resolved != id {
		return dErrors.New(dErrors.CodeIdentityMismatch, "supplied credential disagrees with the oracle's record")
	}

	// Self-binding skips the link prerequisite, same as the auto path.
	if owner != account {
		established, err := s.links.IsLinkEstablished(ctx, account, owner)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "link registry lookup failed")
		}
		if !established {
			return dErrors.New(dErrors.CodeLinkNotEstablished, "no established link between account and credential owner")
		}
	}
	return s.bind(ctx, account, id)
}

// RegisterMemberAuto binds account without the caller naming a credential.
// A credential held by the account itself wins outright (no link needed);
// otherwise the account's outgoing link assertions are searched, bounded by
// maxAutoSearch, for the first mutually-linked partner holding a valid
// credential.
func (s *Service) RegisterMemberAuto(ctx context.Context, account domain.Account) error {
	id, err := s.oracle.HumanityOf(ctx, account)
	switch {
	case err == nil:
		cred, err := s.oracle.CredentialData(ctx, id)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
		}
		if err == nil && cred.ValidAt(requestcontext.Now(ctx)) {
			return s.bind(ctx, account, id)
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}

	id, probed, err := s.searchLinkedHolder(ctx, account)
	if err != nil {
		return err
	}
	if id.IsZero() {
		if probed >= maxAutoSearch {
			// Cap exhaustion and genuine absence are the same outcome for the
			// caller; keep them apart in the diagnostics.
			s.metrics.IncAutoSearchExhausted()
			s.log.Debug().Stringer("account", account).Int("probed", probed).
				Msg("auto search cap exhausted without a qualifying partner")
		}
		return dErrors.New(dErrors.CodeCredentialNotFound, "no valid credential reachable for account")
	}
	s.metrics.ObserveAutoSearchDepth(probed)
	return s.bind(ctx, account, id)
}

// CredentialOf exposes the forward index for callers outside the write paths.
func (s *Service) CredentialOf(ctx context.Context, account domain.Account) (domain.CredentialID, error) {
	return s.store.CredentialOf(ctx, account)
}

// AccountOf exposes the reverse index.
func (s *Service) AccountOf(ctx context.Context, id domain.CredentialID) (domain.Account, error) {
	return s.store.AccountOf(ctx, id)
}

// searchLinkedHolder walks account's outgoing assertions in order, probing at
// most maxAutoSearch partners. It returns the zero id when nothing qualified.
func (s *Service) searchLinkedHolder(ctx context.Context, account domain.Account) (domain.CredentialID, int, error) {
	now := requestcontext.Now(ctx)
	probed := 0
	var cursor domain.Account

	for probed < maxAutoSearch {
		limit := outgoingPageSize
		if remaining := maxAutoSearch - probed; remaining < limit {
			limit = remaining
		}
		page, next, err := s.links.Outgoing(ctx, account, cursor, limit)
		if err != nil {
			return domain.CredentialID{}, probed, dErrors.Wrap(err, dErrors.CodeUnavailable, "link enumeration failed")
		}
		for _, partner := range page {
			probed++
			mutual, err := s.links.HasAsserted(ctx, partner, account)
			if err != nil {
				return domain.CredentialID{}, probed, dErrors.Wrap(err, dErrors.CodeUnavailable, "link registry lookup failed")
			}
			if !mutual {
				continue
			}
			id, err := s.oracle.HumanityOf(ctx, partner)
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			if err != nil {
				return domain.CredentialID{}, probed, dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
			}
			cred, err := s.oracle.CredentialData(ctx, id)
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			if err != nil {
				return domain.CredentialID{}, probed, dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
			}
			if cred.ValidAt(now) {
				return id, probed, nil
			}
		}
		if next.IsZero() {
			break
		}
		cursor = next
	}
	return domain.CredentialID{}, probed, nil
}

// validCredentialOf resolves holder's credential and checks validity.
func (s *Service) validCredentialOf(ctx context.Context, holder domain.Account) (domain.CredentialID, error) {
	id, err := s.oracle.HumanityOf(ctx, holder)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.CredentialID{}, dErrors.New(dErrors.CodeCredentialNotFound, "holder has no credential")
	}
	if err != nil {
		return domain.CredentialID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}
	cred, err := s.oracle.CredentialData(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.CredentialID{}, dErrors.New(dErrors.CodeCredentialNotFound, "credential record missing")
	}
	if err != nil {
		return domain.CredentialID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}
	if !cred.ValidAt(requestcontext.Now(ctx)) {
		return domain.CredentialID{}, dErrors.New(dErrors.CodeCredentialNotFound, "holder credential expired")
	}
	return id, nil
}

// bind is the single write path; the store enforces the bijection atomically.
func (s *Service) bind(ctx context.Context, account domain.Account, id domain.CredentialID) error {
	if err := s.store.Bind(ctx, account, id); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyBound, "account or credential already bound")
		}
		return err
	}
	s.metrics.IncBindingsCreated()
	s.log.Info().Stringer("account", account).Stringer("credential", id).Msg("binding created")
	return nil
}
