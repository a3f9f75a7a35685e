// Package wallet adapts the external embedded-wallet service. All key
// material lives with the provider; this package only tracks sessions.
package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexusfund/nexusfund/evm"
)

// Session is one authenticated wallet session. Address is empty until
// the provider has linked a wallet.
type Session struct {
	Subject     string    `json:"subject"`
	Address     string    `json:"address,omitempty"`
	ChainID     int64     `json:"chain_id"`
	Email       string    `json:"email,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Connected reports whether the session has a linked wallet address.
func (s *Session) Connected() bool {
	return s != nil && s.Address != ""
}

// Provider is the pass-through interface to the embedded-wallet
// service. Implementations never hold private keys.
type Provider interface {
	Connect(ctx context.Context, subject string) (*Session, error)
	Disconnect(ctx context.Context, subject string) error
	LinkWallet(ctx context.Context, subject, address string) (*Session, error)
	SwitchChain(ctx context.Context, subject string, chainID int64) (*Session, error)
	GetSession(ctx context.Context, subject string) (*Session, error)
}

// Manager fronts a Provider with an in-memory session table, one
// active session per subject. It is handed to the HTTP layer at
// construction; there is no package-level instance.
type Manager struct {
	provider Provider

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager over the given provider.
func NewManager(p Provider) *Manager {
	return &Manager{provider: p, sessions: make(map[string]*Session)}
}

// Connect opens (or refreshes) the subject's session.
func (m *Manager) Connect(ctx context.Context, subject string) (*Session, error) {
	sess, err := m.provider.Connect(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("wallet connect failed: %w", err)
	}
	if sess.ChainID == 0 {
		sess.ChainID = evm.HomeChainID
	}
	m.store(sess)
	return sess, nil
}

// Disconnect ends the subject's session. Unknown subjects are a no-op
// against the local table but still reported to the provider.
func (m *Manager) Disconnect(ctx context.Context, subject string) error {
	if err := m.provider.Disconnect(ctx, subject); err != nil {
		return fmt.Errorf("wallet disconnect failed: %w", err)
	}
	m.mu.Lock()
	delete(m.sessions, subject)
	m.mu.Unlock()
	return nil
}

// LinkWallet attaches an address to the subject's session.
func (m *Manager) LinkWallet(ctx context.Context, subject, address string) (*Session, error) {
	if address == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	sess, err := m.provider.LinkWallet(ctx, subject, address)
	if err != nil {
		return nil, fmt.Errorf("wallet link failed: %w", err)
	}
	m.store(sess)
	return sess, nil
}

// SwitchChain moves the session to another supported chain. Unknown
// chain IDs are rejected before the provider is called.
func (m *Manager) SwitchChain(ctx context.Context, subject string, chainID int64) (*Session, error) {
	if _, ok := evm.GetChainInfo(chainID); !ok {
		return nil, fmt.Errorf("unsupported chain id %d", chainID)
	}
	sess, err := m.provider.SwitchChain(ctx, subject, chainID)
	if err != nil {
		return nil, fmt.Errorf("chain switch failed: %w", err)
	}
	m.store(sess)
	return sess, nil
}

// Session returns the subject's session, consulting the local table
// first and falling back to the provider.
func (m *Manager) Session(ctx context.Context, subject string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[subject]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}
	sess, err := m.provider.GetSession(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("wallet session lookup failed: %w", err)
	}
	m.store(sess)
	return sess, nil
}

func (m *Manager) store(sess *Session) {
	if sess == nil || sess.Subject == "" {
		return
	}
	m.mu.Lock()
	m.sessions[sess.Subject] = sess
	m.mu.Unlock()
}
