//go:build integration

package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustbind/internal/platform/config"
	platformredis "trustbind/internal/platform/redis"
	"trustbind/pkg/testutil/containers"
)

type CacheIntegrationSuite struct {
	suite.Suite
	rc     *containers.RedisContainer
	client *platformredis.Client
	next   *Memory
	cache  *Cache
	ctx    context.Context
}

func TestCacheIntegrationSuite(t *testing.T) {
	suite.Run(t, new(CacheIntegrationSuite))
}

func (s *CacheIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.rc = containers.NewRedisContainer(s.T())

	var err error
	s.client, err = platformredis.New(config.RedisConfig{
		URL:          s.rc.URL,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
}

func (s *CacheIntegrationSuite) SetupTest() {
	s.Require().NoError(s.rc.Client.FlushAll(s.ctx).Err())
	s.next = NewMemory()
	s.cache = NewCache(s.next, s.client, time.Minute)
}

func (s *CacheIntegrationSuite) TestCredentialData() {
	s.Run("a miss populates the cache and a hit skips the oracle", func() {
		expiry := time.Now().Add(time.Hour).Truncate(time.Second)
		s.next.Issue(cred(1, expiry))

		got, err := s.cache.CredentialData(s.ctx, cid(1))
		s.Require().NoError(err)
		s.True(got.ExpiresAt.Equal(expiry))

		// Remove the backing record: the cached copy must now answer.
		s.next.Remove(cid(1))
		got, err = s.cache.CredentialData(s.ctx, cid(1))
		s.Require().NoError(err)
		s.Equal(cid(1), got.ID)
		s.Equal(acct(1), got.Owner)
		s.True(got.ExpiresAt.Equal(expiry))
	})

	s.Run("a corrupt entry falls through and is repopulated", func() {
		expiry := time.Now().Add(time.Hour).Truncate(time.Second)
		s.next.Issue(cred(2, expiry))
		s.Require().NoError(s.rc.Client.Set(s.ctx, "credential:"+cid(2).String(), "not json", time.Minute).Err())

		got, err := s.cache.CredentialData(s.ctx, cid(2))
		s.Require().NoError(err)
		s.True(got.ExpiresAt.Equal(expiry))

		raw, err := s.rc.Client.Get(s.ctx, "credential:"+cid(2).String()).Result()
		s.Require().NoError(err)
		s.NotEqual("not json", raw)
	})

	s.Run("ownership lookups pass through uncached", func() {
		s.next.Issue(cred(3, time.Now().Add(time.Hour)))

		owner, err := s.cache.BoundTo(s.ctx, cid(3))
		s.Require().NoError(err)
		s.Equal(acct(3), owner)

		s.next.Remove(cid(3))
		_, err = s.cache.BoundTo(s.ctx, cid(3))
		s.Error(err)
	})
}
