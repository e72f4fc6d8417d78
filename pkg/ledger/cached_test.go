package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/originstamp-tools/verify-go/pkg/persistence/memory"
)

// stubClient is a Client returning a fixed answer and counting calls
type stubClient struct {
	commitment *Commitment
	err        error
	calls      int
}

func (s *stubClient) Lookup(ctx context.Context, txid string) (*Commitment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.commitment, nil
}

func TestCachedClientServesFromCache(t *testing.T) {
	committed := time.Date(2024, 2, 10, 12, 30, 0, 0, time.UTC)
	inner := &stubClient{commitment: &Commitment{
		RootHash:      "aabb",
		Confirmations: 829000,
		CommittedAt:   committed,
	}}

	store := memory.NewMemoryStore()
	defer func() { _ = store.Close() }()

	client, err := NewCachedClient(&CachedClientConfig{Client: inner, Store: store})
	require.NoError(t, err)

	first, err := client.Lookup(context.Background(), testTxid)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	second, err := client.Lookup(context.Background(), testTxid)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second lookup must be served from cache")

	assert.Equal(t, first.RootHash, second.RootHash)
	assert.Equal(t, first.Confirmations, second.Confirmations)
	assert.True(t, first.CommittedAt.Equal(second.CommittedAt))
}

func TestCachedClientDoesNotCacheNotFound(t *testing.T) {
	inner := &stubClient{err: ErrReferenceNotFound}

	store := memory.NewMemoryStore()
	defer func() { _ = store.Close() }()

	client, err := NewCachedClient(&CachedClientConfig{Client: inner, Store: store})
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), testTxid)
	require.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = client.Lookup(context.Background(), testTxid)
	require.ErrorIs(t, err, ErrReferenceNotFound)
	assert.Equal(t, 2, inner.calls, "negative results must not be cached")

	txids, err := store.ListTxids()
	require.NoError(t, err)
	assert.Empty(t, txids)
}

func TestCachedClientStaleEntryRefetched(t *testing.T) {
	inner := &stubClient{commitment: &Commitment{RootHash: "aabb"}}

	store := memory.NewMemoryStore()
	defer func() { _ = store.Close() }()

	// Entries go stale immediately with a tiny MaxAge
	client, err := NewCachedClient(&CachedClientConfig{
		Client: inner,
		Store:  store,
		MaxAge: time.Nanosecond,
	})
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), testTxid)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = client.Lookup(context.Background(), testTxid)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "stale entries must be refetched")
}

func TestNewCachedClientValidation(t *testing.T) {
	store := memory.NewMemoryStore()
	defer func() { _ = store.Close() }()

	_, err := NewCachedClient(nil)
	require.Error(t, err)

	_, err = NewCachedClient(&CachedClientConfig{Store: store})
	require.Error(t, err)

	_, err = NewCachedClient(&CachedClientConfig{Client: &stubClient{}})
	require.Error(t, err)
}
