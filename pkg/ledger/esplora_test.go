package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxid = "8b77203cfa8d7a1b3e9342278b8d2bc81dcbcdbcd45f4566aa8f6a78d6a82926"

// newTestClient creates an EsploraClient against a test server with the rate
// limiter effectively disabled.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*EsploraClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewEsploraClient(&EsploraConfig{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)

	return client, server
}

func TestEsploraClientLookup(t *testing.T) {
	blockTime := time.Date(2024, 2, 10, 12, 30, 0, 0, time.UTC)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/"+testTxid, r.URL.Path)

		// Uppercase payload: the client must normalize to lowercase
		fmt.Fprintf(w, `{
			"txid": %q,
			"vout": [{"scriptpubkey_asm": "OP_RETURN OP_PUSHBYTES_32 ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789"}],
			"status": {"confirmed": true, "block_height": 829000, "block_time": %d}
		}`, testTxid, blockTime.Unix())
	})

	commitment, err := client.Lookup(context.Background(), testTxid)
	require.NoError(t, err)
	require.NotNil(t, commitment)

	assert.Equal(t, "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789", commitment.RootHash)
	assert.Equal(t, int64(829000), commitment.Confirmations)
	assert.Equal(t, blockTime, commitment.CommittedAt)
}

func TestEsploraClientNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Transaction not found", http.StatusNotFound)
	})

	commitment, err := client.Lookup(context.Background(), testTxid)
	assert.Nil(t, commitment)
	require.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestEsploraClientServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	commitment, err := client.Lookup(context.Background(), testTxid)
	assert.Nil(t, commitment)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestEsploraClientBadPayloads(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"no outputs", `{"vout": [], "status": {}}`},
		{"first output not op_return", `{"vout": [{"scriptpubkey_asm": "OP_DUP OP_HASH160 abc"}], "status": {}}`},
		{"op_return without payload", `{"vout": [{"scriptpubkey_asm": "OP_RETURN"}], "status": {}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			})

			commitment, err := client.Lookup(context.Background(), testTxid)
			assert.Nil(t, commitment)

			var unavailable *UnavailableError
			require.ErrorAs(t, err, &unavailable)
		})
	}
}

func TestEsploraClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close() // nothing listening anymore

	client, err := NewEsploraClient(&EsploraConfig{BaseURL: url, RequestsPerSecond: 1000})
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), testTxid)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestNewEsploraClientDefaults(t *testing.T) {
	client, err := NewEsploraClient(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)

	// Trailing slashes are trimmed so path joining stays predictable
	client, err = NewEsploraClient(&EsploraConfig{BaseURL: "https://example.com/api/"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api", client.baseURL)
}

func TestEsploraClientCanceledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Lookup(ctx, testTxid)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}
