//go:build integration

package store

import (
	"context"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
	"trustbind/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "bindings"))
}

func (s *PostgresStoreSuite) TestBind() {
	s.Run("binding round-trips through both indexes", func() {
		account, id := testAccount(1), testCredentialID(1)
		s.Require().NoError(s.store.Bind(s.ctx, account, id))

		got, err := s.store.CredentialOf(s.ctx, account)
		s.Require().NoError(err)
		s.Equal(id, got)

		back, err := s.store.AccountOf(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(account, back)
	})

	s.Run("the primary key rejects a second credential for the account", func() {
		account := testAccount(2)
		s.Require().NoError(s.store.Bind(s.ctx, account, testCredentialID(2)))
		s.ErrorIs(s.store.Bind(s.ctx, account, testCredentialID(3)), sentinel.ErrConflict)
	})

	s.Run("the unique constraint rejects a second account for the credential", func() {
		id := testCredentialID(4)
		s.Require().NoError(s.store.Bind(s.ctx, testAccount(4), id))
		s.ErrorIs(s.store.Bind(s.ctx, testAccount(5), id), sentinel.ErrConflict)
	})
}

func (s *PostgresStoreSuite) TestLookup() {
	s.Run("missing rows map to not found", func() {
		_, err := s.store.CredentialOf(s.ctx, testAccount(10))
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.AccountOf(s.ctx, testCredentialID(10))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestWalk() {
	s.Run("visits every persisted binding", func() {
		want := map[domain.Account]domain.CredentialID{}
		for n := byte(20); n < 24; n++ {
			account, id := testAccount(n), testCredentialID(n)
			want[account] = id
			s.Require().NoError(s.store.Bind(s.ctx, account, id))
		}

		got := map[domain.Account]domain.CredentialID{}
		err := s.store.Walk(s.ctx, func(account domain.Account, id domain.CredentialID) error {
			got[account] = id
			return nil
		})
		s.Require().NoError(err)
		s.Equal(want, got)
	})
}
