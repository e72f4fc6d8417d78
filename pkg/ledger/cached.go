package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/originstamp-tools/verify-go/pkg/persistence"
)

// CachedClient wraps a Client with a persistence.Store so repeated lookups of
// the same transaction are served locally. Negative results are never cached:
// a transaction absent today may confirm later.
type CachedClient struct {
	inner  Client
	store  persistence.Store
	maxAge time.Duration
	logger *zap.Logger
}

var _ Client = (*CachedClient)(nil)

// CachedClientConfig holds the configuration for a CachedClient.
type CachedClientConfig struct {
	// Client performs the actual lookups on cache misses. Required.
	Client Client

	// Store holds cached commitments. Required.
	Store persistence.Store

	// MaxAge discards cache entries older than this; zero means entries
	// never expire.
	MaxAge time.Duration

	// Logger is optional; a no-op logger is used when nil.
	Logger *zap.Logger
}

// NewCachedClient creates a caching wrapper around a ledger client.
func NewCachedClient(cfg *CachedClientConfig) (*CachedClient, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("inner client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("commitment store is required")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &CachedClient{
		inner:  cfg.Client,
		store:  cfg.Store,
		maxAge: cfg.MaxAge,
		logger: log,
	}, nil
}

// Lookup returns the cached commitment when present, falling back to the
// inner client. Cache failures are logged and degrade to a plain lookup; a
// broken cache must never fail a verification the ledger could answer.
func (c *CachedClient) Lookup(ctx context.Context, txid string) (*Commitment, error) {
	cached, err := c.store.LoadCommitment(txid)
	if err != nil {
		c.logger.Sugar().Warnw("Commitment cache read failed", "txid", txid, "error", err)
	}
	if cached != nil && !cached.IsStale(c.maxAge) {
		c.logger.Sugar().Debugw("Commitment served from cache", "txid", txid)
		return &Commitment{
			RootHash:      cached.RootHash,
			Confirmations: cached.Confirmations,
			CommittedAt:   time.Unix(cached.CommittedAt, 0).UTC(),
		}, nil
	}

	commitment, err := c.inner.Lookup(ctx, txid)
	if err != nil {
		return nil, err
	}

	entry := &persistence.CachedCommitment{
		Txid:          txid,
		RootHash:      commitment.RootHash,
		Confirmations: commitment.Confirmations,
		CommittedAt:   commitment.CommittedAt.Unix(),
		FetchedAt:     time.Now().Unix(),
	}
	if err := c.store.SaveCommitment(txid, entry); err != nil {
		c.logger.Sugar().Warnw("Commitment cache write failed", "txid", txid, "error", err)
	}

	return commitment, nil
}
