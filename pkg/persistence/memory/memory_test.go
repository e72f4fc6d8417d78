package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/originstamp-tools/verify-go/pkg/persistence"
)

func sampleCommitment(txid string) *persistence.CachedCommitment {
	return &persistence.CachedCommitment{
		Txid:          txid,
		RootHash:      "aabbccdd",
		Confirmations: 829000,
		CommittedAt:   1707568200,
		FetchedAt:     1707570000,
	}
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()

	err := ms.SaveCommitment("tx1", sampleCommitment("tx1"))
	require.NoError(t, err)

	loaded, err := ms.LoadCommitment("tx1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sampleCommitment("tx1"), loaded)
}

func TestMemoryStore_Load_NotFound(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()

	loaded, err := ms.LoadCommitment("missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_SaveNil(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()

	require.Error(t, ms.SaveCommitment("tx1", nil))
}

// TestMemoryStore_CopiesOnLoad verifies mutating a loaded entry does not
// affect the stored one.
func TestMemoryStore_CopiesOnLoad(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()

	require.NoError(t, ms.SaveCommitment("tx1", sampleCommitment("tx1")))

	loaded, err := ms.LoadCommitment("tx1")
	require.NoError(t, err)
	loaded.RootHash = "mutated"

	reloaded, err := ms.LoadCommitment("tx1")
	require.NoError(t, err)
	assert.Equal(t, "aabbccdd", reloaded.RootHash)
}

func TestMemoryStore_Delete(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()

	require.NoError(t, ms.SaveCommitment("tx1", sampleCommitment("tx1")))
	require.NoError(t, ms.DeleteCommitment("tx1"))

	loaded, err := ms.LoadCommitment("tx1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Idempotent
	require.NoError(t, ms.DeleteCommitment("tx1"))
}

func TestMemoryStore_ListTxids(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()

	txids, err := ms.ListTxids()
	require.NoError(t, err)
	assert.Empty(t, txids)

	for _, txid := range []string{"c", "a", "b"} {
		require.NoError(t, ms.SaveCommitment(txid, sampleCommitment(txid)))
	}

	txids, err = ms.ListTxids()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, txids)
}

func TestMemoryStore_Closed(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.HealthCheck())

	require.NoError(t, ms.Close())
	require.NoError(t, ms.Close()) // Idempotent

	require.Error(t, ms.HealthCheck())
	require.Error(t, ms.SaveCommitment("tx1", sampleCommitment("tx1")))

	_, err := ms.LoadCommitment("tx1")
	require.Error(t, err)

	_, err = ms.ListTxids()
	require.Error(t, err)

	require.Error(t, ms.DeleteCommitment("tx1"))
}
