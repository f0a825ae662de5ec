// Package trust translates binding state into trust-relation updates on the
// external group ledger. One Service instance serves one trust group.
package trust

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustbind/internal/ledger"
	"trustbind/pkg/domain"
	dErrors "trustbind/pkg/domain-errors"
	"trustbind/pkg/platform/sentinel"
	"trustbind/pkg/requestcontext"
)

// Bindings is the slice of the binding service the trust layer needs.
type Bindings interface {
	RegisterMemberWithID(ctx context.Context, account domain.Account, id domain.CredentialID) error
	CredentialOf(ctx context.Context, account domain.Account) (domain.CredentialID, error)
	AccountOf(ctx context.Context, id domain.CredentialID) (domain.Account, error)
}

// Oracle is the slice of the oracle surface the trust layer needs.
type Oracle interface {
	CredentialData(ctx context.Context, id domain.CredentialID) (domain.Credential, error)
}

// Service derives the group's trust expiries from credential expiries. Every
// entry point is permissionless: correctness comes from the binding and
// validity invariants, not from who calls.
type Service struct {
	group    domain.Account
	bindings Bindings
	oracle   Oracle
	ledger   ledger.GroupLedger
	tracer   trace.Tracer
	log      zerolog.Logger
}

func NewService(group domain.Account, bindings Bindings, orc Oracle, led ledger.GroupLedger, log zerolog.Logger) *Service {
	return &Service{
		group:    group,
		bindings: bindings,
		oracle:   orc,
		ledger:   led,
		tracer:   otel.Tracer("trustbind/trust"),
		log:      log.With().Str("component", "trust").Stringer("group", group).Logger(),
	}
}

// Register establishes or refreshes group trust for the account, setting the
// trust expiry to exactly the credential's expiry. Repeated calls overwrite
// with the latest value, so the operation is idempotent and safely retriable.
// The binding write commits before the ledger call; a ledger failure leaves a
// retriable half-step, never a half-updated binding.
func (s *Service) Register(ctx context.Context, id domain.CredentialID, account domain.Account) error {
	ctx, span := s.tracer.Start(ctx, "trust.Register", trace.WithAttributes(
		attribute.Stringer("credential", id),
		attribute.Stringer("account", account),
	))
	defer span.End()

	stored, err := s.bindings.CredentialOf(ctx, account)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		if err := s.bindings.RegisterMemberWithID(ctx, account, id); err != nil {
			return err
		}
	case err != nil:
		return err
	case stored != id:
		return dErrors.New(dErrors.CodeIdentityMismatch, "account bound to a different credential")
	}

	cred, err := s.oracle.CredentialData(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeCredentialNotFound, "credential record missing")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}
	if !cred.ValidAt(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeInvalidCredential, "credential already expired")
	}

	if err := s.ledger.SetTrustBatch(ctx, []domain.Account{account}, cred.ExpiresAt); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger trust update failed")
	}
	s.log.Info().Stringer("account", account).Time("expiry", cred.ExpiresAt).Msg("trust registered")
	return nil
}

// Untrust revokes group trust for the account when its bound credential is no
// longer valid; while the credential is valid it is a no-op. Idempotent, safe
// to call speculatively.
func (s *Service) Untrust(ctx context.Context, account domain.Account) error {
	ctx, span := s.tracer.Start(ctx, "trust.Untrust", trace.WithAttributes(
		attribute.Stringer("account", account),
	))
	defer span.End()

	id, err := s.bindings.CredentialOf(ctx, account)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeInvalidAccount, "account is not bound")
	}
	if err != nil {
		return err
	}

	cred, err := s.oracle.CredentialData(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}
	// A missing credential record counts as invalid: the oracle no longer
	// vouches for it.
	if err == nil && cred.ValidAt(requestcontext.Now(ctx)) {
		return nil
	}

	if err := s.ledger.SetTrustBatch(ctx, []domain.Account{account}, time.Time{}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger trust update failed")
	}
	s.log.Info().Stringer("account", account).Msg("trust revoked")
	return nil
}

// UntrustByCredential resolves the bound account through the reverse index and
// behaves as Untrust.
func (s *Service) UntrustByCredential(ctx context.Context, id domain.CredentialID) error {
	account, err := s.bindings.AccountOf(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeInvalidCredential, "credential is not bound to any account")
	}
	if err != nil {
		return err
	}
	return s.Untrust(ctx, account)
}

// Reconcile aligns the ledger's trust expiry for a bound account with the
// credential's current state, writing only on divergence. The backfill pass
// uses it so a full sweep over the bindings stays cheap when nothing drifted.
func (s *Service) Reconcile(ctx context.Context, id domain.CredentialID, account domain.Account) error {
	current, err := s.ledger.TrustExpiry(ctx, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger expiry lookup failed")
	}

	var desired time.Time
	cred, err := s.oracle.CredentialData(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle lookup failed")
	}
	if err == nil && cred.ValidAt(requestcontext.Now(ctx)) {
		desired = cred.ExpiresAt
	}

	if desired.Equal(current) {
		return nil
	}
	if err := s.ledger.SetTrustBatch(ctx, []domain.Account{account}, desired); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger trust update failed")
	}
	s.log.Info().Stringer("account", account).Time("expiry", desired).Msg("trust reconciled")
	return nil
}

// Group returns the trust group this service manages.
func (s *Service) Group() domain.Account { return s.group }
