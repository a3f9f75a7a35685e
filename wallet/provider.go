package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProviderConfig configures the HTTP-backed wallet provider client.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
}

type httpProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

// NewHTTPProvider returns a Provider that talks to the embedded-wallet
// service over HTTP.
func NewHTTPProvider(cfg ProviderConfig) Provider {
	return &httpProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *httpProvider) Connect(ctx context.Context, subject string) (*Session, error) {
	return p.postSession(ctx, "/v1/sessions", map[string]any{"subject": subject})
}

func (p *httpProvider) Disconnect(ctx context.Context, subject string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.cfg.BaseURL+"/v1/sessions/"+subject, nil)
	if err != nil {
		return fmt.Errorf("failed to build disconnect request: %w", err)
	}
	p.setHeaders(req)

	res, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("disconnect request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		return providerError(res)
	}
	return nil
}

func (p *httpProvider) LinkWallet(ctx context.Context, subject, address string) (*Session, error) {
	return p.postSession(ctx, "/v1/sessions/"+subject+"/wallet", map[string]any{"address": address})
}

func (p *httpProvider) SwitchChain(ctx context.Context, subject string, chainID int64) (*Session, error) {
	return p.postSession(ctx, "/v1/sessions/"+subject+"/chain", map[string]any{"chain_id": chainID})
}

func (p *httpProvider) GetSession(ctx context.Context, subject string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/v1/sessions/"+subject, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	p.setHeaders(req)

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, providerError(res)
	}

	var sess Session
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	return &sess, nil
}

func (p *httpProvider) postSession(ctx context.Context, path string, payload map[string]any) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.setHeaders(req)

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet provider request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, providerError(res)
	}

	var sess Session
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	return &sess, nil
}

func (p *httpProvider) setHeaders(req *http.Request) {
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
}

func providerError(res *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(msg, &e) == nil && e.Error != "" {
		return fmt.Errorf("wallet provider: %s", e.Error)
	}
	return fmt.Errorf("wallet provider returned status %d", res.StatusCode)
}
