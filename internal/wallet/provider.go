package wallet

import (
	"context"
	"errors"
)

// Errors
var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrNoAccounts   = errors.New("wallet returned no accounts")
)

// Provider is an injected wallet capability.
type Provider interface {
	// RequestAccounts asks the wallet to expose its accounts.
	RequestAccounts(ctx context.Context) ([]string, error)

	// ChainID returns the hex chain id (e.g., "0x1").
	ChainID(ctx context.Context) (string, error)

	// SignMessage asks the wallet to sign message with account.
	SignMessage(ctx context.Context, account, message string) (string, error)

	// SendTransaction asks the wallet to sign and broadcast tx.
	// Returns the transaction hash.
	SendTransaction(ctx context.Context, tx Transaction) (string, error)
}

// Transaction is an unsigned transaction request. Quantities are 0x-prefixed hex.
type Transaction struct {
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
	Gas   string `json:"gas,omitempty"`
}

// Account is the connected wallet identity.
type Account struct {
	Address string `json:"address"`
	ChainID string `json:"chain_id"`
}
