package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustbind/internal/binding"
	"trustbind/internal/binding/store"
	"trustbind/internal/ledger/mocks"
	"trustbind/internal/links"
	"trustbind/internal/oracle"
	"trustbind/pkg/domain"
	dErrors "trustbind/pkg/domain-errors"
	"trustbind/pkg/requestcontext"
)

type TrustServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	ledger   *mocks.MockGroupLedger
	store    *store.InMemory
	oracle   *oracle.Memory
	bindings *binding.Service
	service  *Service
	group    domain.Account
	now      time.Time
	ctx      context.Context
}

func TestTrustServiceSuite(t *testing.T) {
	suite.Run(t, new(TrustServiceSuite))
}

func (s *TrustServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mocks.NewMockGroupLedger(s.ctrl)
	s.store = store.NewInMemory()
	s.oracle = oracle.NewMemory()
	s.bindings = binding.NewService(s.store, s.oracle, links.NewMemory(), nil, zerolog.Nop())
	s.group = acct(255)
	s.service = NewService(s.group, s.bindings, s.oracle, s.ledger, zerolog.Nop())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func acct(n byte) domain.Account {
	var a domain.Account
	a[domain.AccountLen-1] = n
	return a
}

func cid(n byte) domain.CredentialID {
	var id domain.CredentialID
	id[domain.CredentialIDLen-1] = n
	return id
}

func (s *TrustServiceSuite) issue(owner domain.Account, n byte, expiresAt time.Time) domain.CredentialID {
	id := cid(n)
	s.oracle.Issue(domain.Credential{ID: id, Owner: owner, ExpiresAt: expiresAt})
	return id
}

func (s *TrustServiceSuite) TestRegister() {
	s.Run("binds an unbound account and trusts it to the credential expiry", func() {
		account := acct(1)
		expiry := s.now.Add(time.Hour)
		id := s.issue(account, 1, expiry)

		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, expiry).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		stored, err := s.store.CredentialOf(s.ctx, account)
		s.Require().NoError(err)
		s.Equal(id, stored)
	})

	s.Run("a repeated call overwrites with the renewed expiry", func() {
		account := acct(2)
		id := s.issue(account, 2, s.now.Add(time.Hour))

		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, s.now.Add(time.Hour)).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		renewed := s.now.Add(48 * time.Hour)
		s.issue(account, 2, renewed)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, renewed).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))
	})

	s.Run("rejects a credential other than the bound one", func() {
		account := acct(3)
		id := s.issue(account, 3, s.now.Add(time.Hour))
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		err := s.service.Register(s.ctx, cid(4), account)
		s.True(dErrors.HasCode(err, dErrors.CodeIdentityMismatch))
	})

	s.Run("rejects a lapsed credential without touching the ledger", func() {
		account := acct(5)
		expiry := s.now.Add(time.Hour)
		id := s.issue(account, 5, expiry)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		later := requestcontext.WithTime(context.Background(), expiry)
		err := s.service.Register(later, id, account)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
	})

	s.Run("a missing credential record is reported as not found", func() {
		account := acct(6)
		id := s.issue(account, 6, s.now.Add(time.Hour))
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		s.oracle.Remove(id)
		err := s.service.Register(s.ctx, id, account)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
	})

	s.Run("a ledger failure leaves the binding committed and retriable", func() {
		account := acct(7)
		expiry := s.now.Add(time.Hour)
		id := s.issue(account, 7, expiry)

		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, expiry).
			Return(errors.New("ledger down"))
		err := s.service.Register(s.ctx, id, account)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		stored, err := s.store.CredentialOf(s.ctx, account)
		s.Require().NoError(err)
		s.Equal(id, stored)

		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, expiry).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))
	})
}

func (s *TrustServiceSuite) TestUntrust() {
	s.Run("an unbound account is invalid", func() {
		err := s.service.Untrust(s.ctx, acct(10))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAccount))
	})

	s.Run("a still-valid credential makes untrust a no-op", func() {
		account := acct(11)
		id := s.issue(account, 11, s.now.Add(time.Hour))
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		s.Require().NoError(s.service.Untrust(s.ctx, account))
	})

	s.Run("an expired credential revokes trust, idempotently", func() {
		account := acct(12)
		expiry := s.now.Add(time.Hour)
		id := s.issue(account, 12, expiry)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		later := requestcontext.WithTime(context.Background(), expiry)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, time.Time{}).Return(nil).Times(2)
		s.Require().NoError(s.service.Untrust(later, account))
		s.Require().NoError(s.service.Untrust(later, account))
	})

	s.Run("a revoked credential record also revokes trust", func() {
		account := acct(13)
		id := s.issue(account, 13, s.now.Add(time.Hour))
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		s.oracle.Remove(id)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, time.Time{}).Return(nil)
		s.Require().NoError(s.service.Untrust(s.ctx, account))
	})
}

func (s *TrustServiceSuite) TestUntrustByCredential() {
	s.Run("an unbound credential is invalid", func() {
		err := s.service.UntrustByCredential(s.ctx, cid(20))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
	})

	s.Run("resolves the bound account through the reverse index", func() {
		account := acct(21)
		id := s.issue(account, 21, s.now.Add(time.Hour))
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.service.Register(s.ctx, id, account))

		s.oracle.Remove(id)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, time.Time{}).Return(nil)
		s.Require().NoError(s.service.UntrustByCredential(s.ctx, id))
	})
}

func (s *TrustServiceSuite) TestReconcile() {
	s.Run("aligned state writes nothing", func() {
		account := acct(30)
		expiry := s.now.Add(time.Hour)
		id := s.issue(account, 30, expiry)

		s.ledger.EXPECT().TrustExpiry(gomock.Any(), account).Return(expiry, nil)
		s.Require().NoError(s.service.Reconcile(s.ctx, id, account))
	})

	s.Run("a stale expiry is rewritten to the credential's", func() {
		account := acct(31)
		expiry := s.now.Add(time.Hour)
		id := s.issue(account, 31, expiry)

		s.ledger.EXPECT().TrustExpiry(gomock.Any(), account).Return(s.now.Add(time.Minute), nil)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, expiry).Return(nil)
		s.Require().NoError(s.service.Reconcile(s.ctx, id, account))
	})

	s.Run("an invalid credential drives the expiry to zero", func() {
		account := acct(32)
		id := s.issue(account, 32, s.now.Add(-time.Minute))

		s.ledger.EXPECT().TrustExpiry(gomock.Any(), account).Return(s.now.Add(time.Hour), nil)
		s.ledger.EXPECT().SetTrustBatch(gomock.Any(), []domain.Account{account}, time.Time{}).Return(nil)
		s.Require().NoError(s.service.Reconcile(s.ctx, id, account))
	})

	s.Run("already-revoked trust for an invalid credential writes nothing", func() {
		account := acct(33)
		id := s.issue(account, 33, s.now.Add(-time.Minute))

		s.ledger.EXPECT().TrustExpiry(gomock.Any(), account).Return(time.Time{}, nil)
		s.Require().NoError(s.service.Reconcile(s.ctx, id, account))
	})
}
