package redis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/originstamp-tools/verify-go/pkg/persistence"
)

// Key layout in Redis
const (
	keyPrefixCommitment = "osverify:commitment:"
	keySetCommitments   = "osverify:commitments:index"
)

const opTimeout = 5 * time.Second

// RedisStore is a commitment cache backed by Redis, suitable when several
// verifier instances should share one cache.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix prepended to all keys
	ttl       time.Duration
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.Store = (*RedisStore)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys, for multi-tenant
	// setups. If empty, keys use the default "osverify:" namespace.
	KeyPrefix string
	// TTL is an optional expiry for cached commitments. Zero means entries
	// never expire; an anchored commitment is immutable, only the
	// confirmation metadata drifts.
	TTL time.Duration
}

// NewRedisStore creates a Redis-backed commitment cache.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	logger.Sugar().Infow("Redis commitment cache initialized", "address", cfg.Address, "db", cfg.DB)

	return &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

// SaveCommitment persists a fetched commitment under its transaction id.
func (r *RedisStore) SaveCommitment(txid string, commitment *persistence.CachedCommitment) error {
	if commitment == nil {
		return fmt.Errorf("cannot save nil CachedCommitment")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("commitment store is closed")
	}

	data, err := persistence.MarshalCachedCommitment(commitment)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.commitmentKey(txid), data, r.ttl)
	pipe.SAdd(ctx, r.indexKey(), txid)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save commitment for %s: %w", txid, err)
	}

	return nil
}

// LoadCommitment retrieves a cached commitment, nil when absent.
func (r *RedisStore) LoadCommitment(txid string) (*persistence.CachedCommitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.commitmentKey(txid)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load commitment for %s: %w", txid, err)
	}

	return persistence.UnmarshalCachedCommitment(data)
}

// DeleteCommitment removes a cached commitment. Idempotent.
func (r *RedisStore) DeleteCommitment(txid string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("commitment store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.commitmentKey(txid))
	pipe.SRem(ctx, r.indexKey(), txid)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete commitment for %s: %w", txid, err)
	}

	return nil
}

// ListTxids returns all cached transaction ids sorted ascending.
// Redis has no native prefix iteration, so membership is tracked in an
// index set alongside the entries.
func (r *RedisStore) ListTxids() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	txids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cached commitments: %w", err)
	}

	sort.Strings(txids)
	return txids, nil
}

// Close shuts down the Redis connection. Idempotent.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	return r.client.Close()
}

// HealthCheck pings the Redis server.
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("commitment store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *RedisStore) commitmentKey(txid string) string {
	return r.keyPrefix + keyPrefixCommitment + txid
}

func (r *RedisStore) indexKey() string {
	return r.keyPrefix + keySetCommitments
}
