package wallet

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/events"
)

// Manager holds the connected wallet account.
type Manager struct {
	provider Provider
	bus      *events.Bus
	logger   *zap.Logger

	mu      sync.RWMutex
	account *Account
}

// NewManager creates a Manager. bus may be nil.
func NewManager(provider Provider, bus *events.Bus, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		provider: provider,
		bus:      bus,
		logger:   logger,
	}
}

// Connect requests accounts and the chain id, records the first account and
// publishes WalletConnected.
func (m *Manager) Connect(ctx context.Context) (Account, error) {
	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return Account{}, ErrNoAccounts
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("chain id: %w", err)
	}

	acct := Account{Address: accounts[0], ChainID: chainID}

	m.mu.Lock()
	m.account = &acct
	m.mu.Unlock()

	m.logger.Info("wallet connected",
		zap.String("account", acct.Address),
		zap.String("chain_id", acct.ChainID),
	)
	m.bus.Publish(events.WalletConnected{Account: acct.Address, ChainID: acct.ChainID})

	return acct, nil
}

// Account returns the connected account.
func (m *Manager) Account() (Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.account == nil {
		return Account{}, false
	}
	return *m.account, true
}

// SignMessage signs message with the connected account.
func (m *Manager) SignMessage(ctx context.Context, message string) (string, error) {
	acct, ok := m.Account()
	if !ok {
		return "", ErrNotConnected
	}
	return m.provider.SignMessage(ctx, acct.Address, message)
}

// SendTransaction sends tx from the connected account.
func (m *Manager) SendTransaction(ctx context.Context, tx Transaction) (string, error) {
	acct, ok := m.Account()
	if !ok {
		return "", ErrNotConnected
	}
	tx.From = acct.Address
	return m.provider.SendTransaction(ctx, tx)
}
