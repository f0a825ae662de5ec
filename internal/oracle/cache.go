package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "trustbind/internal/platform/redis"
	"trustbind/pkg/domain"
)

// Cache decorates an Oracle with a redis-backed cache for CredentialData,
// the hottest lookup on the reconciliation path. Ownership lookups pass
// through; credential records are cached with a TTL so a renewal becomes
// visible within one TTL at worst.
type Cache struct {
	next Oracle
	rdb  *platformredis.Client
	ttl  time.Duration
}

type cachedCredential struct {
	ID        domain.CredentialID `json:"credential_id"`
	Owner     domain.Account      `json:"owner"`
	ExpiresAt int64               `json:"expires_at"`
}

func NewCache(next Oracle, rdb *platformredis.Client, ttl time.Duration) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl}
}

func (c *Cache) IsHuman(ctx context.Context, account domain.Account) (bool, error) {
	return c.next.IsHuman(ctx, account)
}

func (c *Cache) HumanityOf(ctx context.Context, account domain.Account) (domain.CredentialID, error) {
	return c.next.HumanityOf(ctx, account)
}

func (c *Cache) BoundTo(ctx context.Context, id domain.CredentialID) (domain.Account, error) {
	return c.next.BoundTo(ctx, id)
}

func (c *Cache) CredentialData(ctx context.Context, id domain.CredentialID) (domain.Credential, error) {
	key := "credential:" + id.String()

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var entry cachedCredential
		if err := json.Unmarshal(raw, &entry); err == nil {
			return domain.Credential{
				ID:        entry.ID,
				Owner:     entry.Owner,
				ExpiresAt: time.Unix(entry.ExpiresAt, 0).UTC(),
			}, nil
		}
		// Corrupt entry: fall through and repopulate.
	} else if !errors.Is(err, goredis.Nil) {
		// Cache outage must not take down reads; go straight to the oracle.
		return c.next.CredentialData(ctx, id)
	}

	cred, err := c.next.CredentialData(ctx, id)
	if err != nil {
		return domain.Credential{}, err
	}

	entry, err := json.Marshal(cachedCredential{
		ID:        cred.ID,
		Owner:     cred.Owner,
		ExpiresAt: cred.ExpiresAt.Unix(),
	})
	if err == nil {
		// Best effort; a failed cache write only costs the next lookup.
		_ = c.rdb.Set(ctx, key, entry, c.ttl).Err()
	}
	return cred, nil
}
