package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration, assembled from environment
// variables so main stays lean. Empty backend addresses select the in-memory
// implementations, which keeps the binary runnable without external services.
type Config struct {
	Addr     string
	LogLevel string

	// PostgresDSN selects the postgres binding store; empty means in-memory.
	PostgresDSN string

	Redis     RedisConfig
	Kafka     KafkaConfig
	Oracle    OracleConfig
	Links     LinksConfig
	Ledger    LedgerConfig
	Reconcile ReconcileConfig
}

// LinksConfig points at the external link registry.
type LinksConfig struct {
	URL     string
	Timeout time.Duration
}

// RedisConfig configures the optional credential-data cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the oracle lifecycle event feed.
type KafkaConfig struct {
	Brokers      []string
	GroupID      string
	ClaimedTopic string
	RevokedTopic string
}

// OracleConfig points at the primary and secondary identity oracle instances.
// The secondary is optional; when set it is consulted only on primary misses.
type OracleConfig struct {
	PrimaryURL   string
	SecondaryURL string
	Timeout      time.Duration
}

// LedgerConfig configures the group ledger adapter and its signing identity.
type LedgerConfig struct {
	URL        string
	Group      string
	SignerID   string
	SigningKey string
	Timeout    time.Duration
}

// ReconcileConfig tunes the event reconciliation loop.
type ReconcileConfig struct {
	Workers    int
	QueueSize  int
	Interval   time.Duration
	MaxElapsed time.Duration
}

// FromEnv builds a Config from environment variables, applying defaults that
// suit local development.
func FromEnv() Config {
	return Config{
		Addr:        envOr("TRUSTBIND_ADDR", ":8080"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("CREDENTIAL_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
			GroupID:      envOr("KAFKA_GROUP_ID", "trustbind-reconciler"),
			ClaimedTopic: envOr("KAFKA_CLAIMED_TOPIC", "credential.claimed"),
			RevokedTopic: envOr("KAFKA_REVOKED_TOPIC", "credential.revoked"),
		},
		Oracle: OracleConfig{
			PrimaryURL:   os.Getenv("ORACLE_PRIMARY_URL"),
			SecondaryURL: os.Getenv("ORACLE_SECONDARY_URL"),
			Timeout:      envDuration("ORACLE_TIMEOUT", 10*time.Second),
		},
		Links: LinksConfig{
			URL:     os.Getenv("LINKS_URL"),
			Timeout: envDuration("LINKS_TIMEOUT", 10*time.Second),
		},
		Ledger: LedgerConfig{
			URL:        os.Getenv("LEDGER_URL"),
			Group:      os.Getenv("LEDGER_GROUP"),
			SignerID:   envOr("LEDGER_SIGNER_ID", "trustbind"),
			SigningKey: os.Getenv("LEDGER_SIGNING_KEY"),
			Timeout:    envDuration("LEDGER_TIMEOUT", 10*time.Second),
		},
		Reconcile: ReconcileConfig{
			Workers:    envInt("RECONCILE_WORKERS", 8),
			QueueSize:  envInt("RECONCILE_QUEUE_SIZE", 64),
			Interval:   envDuration("RECONCILE_INTERVAL", 15*time.Minute),
			MaxElapsed: envDuration("RECONCILE_RETRY_MAX_ELAPSED", 2*time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
