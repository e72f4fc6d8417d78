package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Blockstream esplora instance. Any
	// esplora-compatible API can be substituted through EsploraConfig.
	DefaultBaseURL = "https://blockstream.info/api"

	defaultRequestTimeout    = 30 * time.Second
	defaultRequestsPerSecond = 1.0
)

// EsploraConfig holds the configuration for an EsploraClient.
type EsploraConfig struct {
	// BaseURL is the API root, e.g. "https://blockstream.info/api".
	// Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// RequestsPerSecond limits outgoing API calls. The public esplora
	// instance asks users to keep request volume reasonable. Defaults to 1.
	RequestsPerSecond float64

	// Logger is optional; a no-op logger is used when nil.
	Logger *zap.Logger
}

// EsploraClient fetches transaction commitments from an esplora-compatible
// Bitcoin API. The timestamp anchor is the OP_RETURN payload of the
// transaction's first output.
type EsploraClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ Client = (*EsploraClient)(nil)

// NewEsploraClient creates a ledger client against an esplora-compatible API.
func NewEsploraClient(cfg *EsploraConfig) (*EsploraClient, error) {
	if cfg == nil {
		cfg = &EsploraConfig{}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &EsploraClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     log,
	}, nil
}

// txResponse is the subset of the esplora transaction payload we consume.
type txResponse struct {
	Txid   string   `json:"txid"`
	Vout   []txVout `json:"vout"`
	Status txStatus `json:"status"`
}

type txVout struct {
	ScriptpubkeyAsm string `json:"scriptpubkey_asm"`
}

type txStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

// Lookup fetches the commitment anchored by the given transaction.
// Returns ErrReferenceNotFound when the chain has no such transaction and
// *UnavailableError for transport or service failures.
func (c *EsploraClient) Lookup(ctx context.Context, txid string) (*Commitment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &UnavailableError{Err: err}
	}

	url := c.baseURL + "/tx/" + strings.TrimSpace(txid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "building request")}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "querying blockchain API")}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrReferenceNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UnavailableError{Err: errors.Errorf("blockchain API returned status %d", resp.StatusCode)}
	}

	var payload txResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "decoding transaction payload")}
	}

	opReturn, err := opReturnValue(payload.Vout)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}

	commitment := &Commitment{
		// Comparison downstream is case-sensitive; normalize here.
		RootHash:      strings.ToLower(opReturn),
		Confirmations: payload.Status.BlockHeight,
		CommittedAt:   time.Unix(payload.Status.BlockTime, 0).UTC(),
	}

	c.logger.Sugar().Debugw("Fetched on-chain commitment",
		"txid", txid,
		"root_hash", commitment.RootHash,
		"block_height", payload.Status.BlockHeight,
	)

	return commitment, nil
}

// opReturnValue extracts the OP_RETURN payload from a transaction's first
// output. Esplora renders the script as "OP_RETURN OP_PUSHBYTES_32 <hex>";
// the payload is the third token.
func opReturnValue(vout []txVout) (string, error) {
	if len(vout) == 0 {
		return "", errors.New("transaction has no outputs")
	}
	parts := strings.Fields(vout[0].ScriptpubkeyAsm)
	if len(parts) < 3 || parts[0] != "OP_RETURN" {
		return "", errors.Errorf("first output is not an OP_RETURN script: %q", vout[0].ScriptpubkeyAsm)
	}
	return parts[2], nil
}
