package fund

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// TokenApproval instructs the bridge collaborator to approve spending
// of the bridged token before the execute call runs.
type TokenApproval struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// ExecuteDescriptor describes the contract call the bridge collaborator
// performs on the destination chain once funds have landed.
type ExecuteDescriptor struct {
	ContractAddress string          `json:"contractAddress"`
	ContractABI     json.RawMessage `json:"contractAbi"`
	FunctionName    string          `json:"functionName"`
	FunctionParams  []any           `json:"functionParams"`
	TokenApproval   TokenApproval   `json:"tokenApproval"`
}

// BridgeRequest is the single bridge-and-execute request the pledge
// flow issues. Amount is a string-encoded integer in the token's
// smallest unit.
type BridgeRequest struct {
	Token                 string            `json:"token"`
	Amount                string            `json:"amount"`
	ToChainID             int64             `json:"toChainId"`
	Execute               ExecuteDescriptor `json:"execute"`
	WaitForReceipt        bool              `json:"waitForReceipt"`
	RequiredConfirmations uint64            `json:"requiredConfirmations"`
}

// BridgeResult is what the collaborator resolves with. Either field may
// be empty; callers fall back from hash to explorer URL.
type BridgeResult struct {
	ExecuteTransactionHash string `json:"executeTransactionHash,omitempty"`
	ExecuteExplorerURL     string `json:"executeExplorerUrl,omitempty"`
}

// TransactionID returns the best available identifier for display.
func (r *BridgeResult) TransactionID() string {
	if r == nil {
		return ""
	}
	if r.ExecuteTransactionHash != "" {
		return r.ExecuteTransactionHash
	}
	return r.ExecuteExplorerURL
}

// TokenBalance is one token's balance on one chain.
type TokenBalance struct {
	Symbol   string  `json:"symbol"`
	Balance  string  `json:"balance"`
	Decimals int     `json:"decimals"`
	USDValue float64 `json:"usd_value,omitempty"`
}

// UnifiedBalance groups an address's balances by chain.
type UnifiedBalance struct {
	ChainID   int64                   `json:"chain_id"`
	ChainName string                  `json:"chain_name"`
	Balances  map[string]TokenBalance `json:"balances"`
}

// Bridger is the capability interface over the external bridging
// collaborator. The orchestration logic is written against it so tests
// run with a fake and no real network or wallet.
type Bridger interface {
	Initialize(ctx context.Context) error
	Initialized() bool
	GetUnifiedBalances(ctx context.Context, address string) ([]UnifiedBalance, error)
	BridgeAndExecute(ctx context.Context, req BridgeRequest) (*BridgeResult, error)
}

// BridgeConfig configures the HTTP-backed bridge client.
type BridgeConfig struct {
	BaseURL string
	APIKey  string
	Network string // "mainnet" or "testnet"
}

// bridgeClient talks to the external bridge service over HTTP. It
// initializes lazily on first use, mirroring the SDK's bind-on-connect
// behavior.
type bridgeClient struct {
	cfg        BridgeConfig
	httpClient *http.Client

	mu          sync.Mutex
	initialized bool
}

// NewBridgeClient returns an HTTP-backed Bridger.
func NewBridgeClient(cfg BridgeConfig) Bridger {
	if cfg.Network == "" {
		cfg.Network = "testnet"
	}
	return &bridgeClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (b *bridgeClient) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}

	body, err := json.Marshal(map[string]string{"network": b.cfg.Network})
	if err != nil {
		return fmt.Errorf("failed to marshal init request: %w", err)
	}
	if err := b.post(ctx, "/v1/initialize", body, nil); err != nil {
		return fmt.Errorf("bridge initialization failed: %w", err)
	}
	b.initialized = true
	return nil
}

func (b *bridgeClient) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

func (b *bridgeClient) GetUnifiedBalances(ctx context.Context, address string) ([]UnifiedBalance, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.cfg.BaseURL+"/v1/balances?address="+address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build balances request: %w", err)
	}
	b.setHeaders(req)

	res, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("balances request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("balances request returned status %d", res.StatusCode)
	}

	var out []UnifiedBalance
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode balances response: %w", err)
	}
	return out, nil
}

func (b *bridgeClient) BridgeAndExecute(ctx context.Context, req BridgeRequest) (*BridgeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bridge request: %w", err)
	}

	var result BridgeResult
	if err := b.post(ctx, "/v1/bridge-and-execute", body, &result); err != nil {
		return nil, err
	}
	if result.TransactionID() == "" {
		return nil, fmt.Errorf("bridge resolved without a transaction identifier")
	}
	return &result, nil
}

func (b *bridgeClient) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	b.setHeaders(req)

	res, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		// The collaborator returns its failure reason in the body; pass
		// it through so the UI can show it verbatim.
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(msg, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s", e.Error)
		}
		return fmt.Errorf("bridge request returned status %d", res.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bridge response: %w", err)
	}
	return nil
}

func (b *bridgeClient) setHeaders(req *http.Request) {
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}
}
