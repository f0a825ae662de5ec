package httptransport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"trustbind/internal/binding"
	"trustbind/internal/binding/store"
	"trustbind/internal/ledger"
	"trustbind/internal/links"
	"trustbind/internal/oracle"
	"trustbind/internal/trust"
	"trustbind/pkg/domain"
	"trustbind/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	store  *store.InMemory
	oracle *oracle.Memory
	links  *links.Memory
	ledger *ledger.Memory
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.oracle = oracle.NewMemory()
	s.links = links.NewMemory()
	s.ledger = ledger.NewMemory()

	bindingSvc := binding.NewService(s.store, s.oracle, s.links, nil, zerolog.Nop())
	trustSvc := trust.NewService(acct(255), bindingSvc, s.oracle, s.ledger, zerolog.Nop())
	s.router = NewRouter(NewHandler(trustSvc, bindingSvc, zerolog.Nop()))
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

func (s *HandlerSuite) issue(owner domain.Account, n byte, expiresAt time.Time) domain.CredentialID {
	id := cid(n)
	s.oracle.Issue(domain.Credential{ID: id, Owner: owner, ExpiresAt: expiresAt})
	return id
}

func (s *HandlerSuite) TestTrustRegister() {
	s.Run("registers a self-owned credential and sets trust", func() {
		account := acct(1)
		expiry := time.Now().Add(time.Hour)
		id := s.issue(account, 1, expiry)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trust/register", map[string]string{
			"credential_id": id.String(),
			"account":       account.String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)

		got, err := s.ledger.TrustExpiry(req.Context(), account)
		s.Require().NoError(err)
		s.True(got.Equal(expiry))
	})

	s.Run("malformed credential id is a bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trust/register", map[string]string{
			"credential_id": "0xnothex",
			"account":       acct(2).String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unknown credential maps to not found", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trust/register", map[string]string{
			"credential_id": cid(3).String(),
			"account":       acct(3).String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNotFound, rr.Code)

		var body errorResponse
		testutil.DecodeJSON(s.T(), rr, &body)
		s.Equal("credential_not_found", body.Error.Code)
	})
}

func (s *HandlerSuite) TestUntrust() {
	s.Run("untrusting an unbound account is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trust/untrust", map[string]string{
			"account": acct(10).String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNotFound, rr.Code)

		var body errorResponse
		testutil.DecodeJSON(s.T(), rr, &body)
		s.Equal("invalid_account", body.Error.Code)
	})

	s.Run("untrust by credential resolves the reverse index", func() {
		account := acct(11)
		id := s.issue(account, 11, time.Now().Add(time.Hour))
		register := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trust/register", map[string]string{
			"credential_id": id.String(),
			"account":       account.String(),
		})
		s.Require().Equal(http.StatusOK, testutil.DoRequest(s.router, register).Code)

		s.oracle.Remove(id)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trust/untrust-by-credential", map[string]string{
			"credential_id": id.String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)

		got, err := s.ledger.TrustExpiry(req.Context(), account)
		s.Require().NoError(err)
		s.True(got.IsZero())
	})
}

func (s *HandlerSuite) TestBindings() {
	s.Run("registering through an established link creates the binding", func() {
		account, holder := acct(20), acct(21)
		ctx := context.Background()
		s.Require().NoError(s.links.Link(ctx, account, holder))
		s.Require().NoError(s.links.Link(ctx, holder, account))
		id := s.issue(holder, 21, time.Now().Add(time.Hour))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/bindings", map[string]string{
			"account": account.String(),
			"holder":  holder.String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusCreated, rr.Code)

		get := testutil.NewRequest(s.T(), http.MethodGet, "/bindings/"+account.String())
		rr = testutil.DoRequest(s.router, get)
		s.Require().Equal(http.StatusOK, rr.Code)

		var body bindingResponse
		testutil.DecodeJSON(s.T(), rr, &body)
		s.Equal(id, body.CredentialID)
		s.Equal(account, body.Account)
	})

	s.Run("registering without a link is rejected with the coded envelope", func() {
		holder := acct(23)
		s.issue(holder, 23, time.Now().Add(time.Hour))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/bindings", map[string]string{
			"account": acct(22).String(),
			"holder":  holder.String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusUnprocessableEntity, rr.Code)

		var body errorResponse
		testutil.DecodeJSON(s.T(), rr, &body)
		s.Equal("link_not_established", body.Error.Code)
	})

	s.Run("auto registration binds an own credential", func() {
		account := acct(24)
		s.issue(account, 24, time.Now().Add(time.Hour))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/bindings/auto", map[string]string{
			"account": account.String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusCreated, rr.Code)
	})

	s.Run("lookup of an unbound account is not found", func() {
		get := testutil.NewRequest(s.T(), http.MethodGet, "/bindings/"+acct(25).String())
		rr := testutil.DoRequest(s.router, get)
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *HandlerSuite) TestMembership() {
	s.Run("bound account with a valid credential is eligible", func() {
		account := acct(30)
		s.issue(account, 30, time.Now().Add(time.Hour))
		auto := testutil.NewJSONRequest(s.T(), http.MethodPost, "/bindings/auto", map[string]string{
			"account": account.String(),
		})
		s.Require().Equal(http.StatusCreated, testutil.DoRequest(s.router, auto).Code)

		get := testutil.NewRequest(s.T(), http.MethodGet, "/membership/"+account.String())
		rr := testutil.DoRequest(s.router, get)
		s.Require().Equal(http.StatusOK, rr.Code)

		var body membershipResponse
		testutil.DecodeJSON(s.T(), rr, &body)
		s.True(body.Eligible)
	})

	s.Run("unbound account is not eligible", func() {
		get := testutil.NewRequest(s.T(), http.MethodGet, "/membership/"+acct(31).String())
		rr := testutil.DoRequest(s.router, get)
		s.Require().Equal(http.StatusOK, rr.Code)

		var body membershipResponse
		testutil.DecodeJSON(s.T(), rr, &body)
		s.False(body.Eligible)
	})
}

func (s *HandlerSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusOK, rr.Code)
}
