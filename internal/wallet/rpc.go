package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RPCError is a JSON-RPC error object returned by the wallet.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// UserRejected reports whether the user declined the request (EIP-1193 code 4001).
func (e *RPCError) UserRejected() bool {
	return e.Code == 4001
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCProvider forwards Provider calls to a JSON-RPC endpoint.
type RPCProvider struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
	nextID     atomic.Int64
}

// NewRPCProvider creates a provider for the JSON-RPC endpoint at url.
func NewRPCProvider(url string, timeout time.Duration, logger *zap.Logger) *RPCProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCProvider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// RequestAccounts calls eth_requestAccounts.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, "eth_requestAccounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID calls eth_chainId.
func (p *RPCProvider) ChainID(ctx context.Context) (string, error) {
	var id string
	if err := p.call(ctx, "eth_chainId", nil, &id); err != nil {
		return "", err
	}
	return id, nil
}

// SignMessage calls personal_sign with the hex-encoded message.
func (p *RPCProvider) SignMessage(ctx context.Context, account, message string) (string, error) {
	var sig string
	data := "0x" + hex.EncodeToString([]byte(message))
	if err := p.call(ctx, "personal_sign", []any{data, account}, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

// SendTransaction calls eth_sendTransaction.
func (p *RPCProvider) SendTransaction(ctx context.Context, tx Transaction) (string, error) {
	var hash string
	if err := p.call(ctx, "eth_sendTransaction", []any{tx}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (p *RPCProvider) call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}
	id := p.nextID.Add(1)

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: http status %d", method, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if out.Error != nil {
		p.logger.Debug("wallet rpc error",
			zap.String("method", method),
			zap.Int("code", out.Error.Code),
		)
		return out.Error
	}
	if out.ID != id {
		return fmt.Errorf("%s: response id %d does not match request id %d", method, out.ID, id)
	}

	if err := json.Unmarshal(out.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
