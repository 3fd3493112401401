package controller

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/forwards-feed/internal/events"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/market"
	"github.com/rickgao/forwards-feed/internal/wallet"
)

type fakeFeed struct {
	state    *market.State
	selected []string
	err      error
}

func (f *fakeFeed) SelectSymbol(_ context.Context, symbol string) error {
	if f.err != nil {
		return f.err
	}
	f.selected = append(f.selected, symbol)
	_, err := f.state.SetSymbol(symbol)
	return err
}

func (f *fakeFeed) Snapshot() feed.Snapshot {
	return feed.Snapshot{Status: feed.StatusLive, Symbol: f.state.Symbol()}
}

type fakeWallet struct {
	acct wallet.Account
	err  error
}

func (w fakeWallet) Connect(context.Context) (wallet.Account, error) {
	return w.acct, w.err
}

func (w fakeWallet) SignMessage(context.Context, string) (string, error) {
	return "", w.err
}

func (w fakeWallet) SendTransaction(context.Context, wallet.Transaction) (string, error) {
	return "", w.err
}

// stubProvider answers like an injected EIP-1193 wallet.
type stubProvider struct {
	signed []string
	sent   []wallet.Transaction
}

func (p *stubProvider) RequestAccounts(context.Context) ([]string, error) {
	return []string{"0xabc"}, nil
}

func (p *stubProvider) ChainID(context.Context) (string, error) { return "0x1", nil }

func (p *stubProvider) SignMessage(_ context.Context, account, message string) (string, error) {
	p.signed = append(p.signed, account+":"+message)
	return "0xsig", nil
}

func (p *stubProvider) SendTransaction(_ context.Context, tx wallet.Transaction) (string, error) {
	p.sent = append(p.sent, tx)
	return "0xhash", nil
}

func newTestController(t *testing.T, deps Deps) (*Controller, *fakeFeed, *market.State) {
	t.Helper()
	state, err := market.NewState(market.Snapshot{
		Symbol:     "BTC-USD",
		Timeframe:  "1m",
		MarginMode: market.MarginCross,
		Leverage:   10,
	}, []string{"1m", "5m", "1h"}, nil)
	require.NoError(t, err)

	ff := &fakeFeed{state: state}
	deps.Feed = ff
	deps.Market = state
	return New(deps, nil), ff, state
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestController_Symbol(t *testing.T) {
	c, ff, state := newTestController(t, Deps{})
	h := c.Handler()

	rec := do(t, h, http.MethodPost, "/symbol", `{"symbol":"eth-usd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap market.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "ETH-USD", snap.Symbol)
	assert.Equal(t, []string{"eth-usd"}, ff.selected)
	assert.Equal(t, "ETH-USD", state.Symbol())
}

func TestController_SymbolErrors(t *testing.T) {
	c, ff, _ := newTestController(t, Deps{})
	h := c.Handler()

	rec := do(t, h, http.MethodPost, "/symbol", `{"symbol":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/symbol", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")

	ff.err = feed.ErrStopped
	rec = do(t, h, http.MethodPost, "/symbol", `{"symbol":"SOL-USD"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/symbol", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestController_MarketControls(t *testing.T) {
	c, _, state := newTestController(t, Deps{})
	h := c.Handler()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"timeframe", "/timeframe", `{"timeframe":"5m"}`, http.StatusOK},
		{"unknown timeframe", "/timeframe", `{"timeframe":"2m"}`, http.StatusBadRequest},
		{"margin", "/margin", `{"mode":"isolated"}`, http.StatusOK},
		{"bad margin", "/margin", `{"mode":"portfolio"}`, http.StatusBadRequest},
		{"leverage", "/leverage", `{"leverage":25}`, http.StatusOK},
		{"leverage out of range", "/leverage", `{"leverage":500}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	snap := state.Snapshot()
	assert.Equal(t, "5m", snap.Timeframe)
	assert.Equal(t, market.MarginIsolated, snap.MarginMode)
	assert.Equal(t, 25, snap.Leverage)

	rec := do(t, h, http.MethodGet, "/market", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"5m"`)
}

func TestController_WalletConnect(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		c, _, _ := newTestController(t, Deps{Wallet: fakeWallet{acct: wallet.Account{Address: "0xabc", ChainID: "0x1"}}})
		rec := do(t, c.Handler(), http.MethodPost, "/wallet/connect", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var acct wallet.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
		assert.Equal(t, wallet.Account{Address: "0xabc", ChainID: "0x1"}, acct)
	})

	t.Run("rejected", func(t *testing.T) {
		err := &wallet.RPCError{Code: 4001, Message: "User rejected the request."}
		c, _, _ := newTestController(t, Deps{Wallet: fakeWallet{err: err}})
		rec := do(t, c.Handler(), http.MethodPost, "/wallet/connect", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		c, _, _ := newTestController(t, Deps{Wallet: fakeWallet{err: errors.New("connection refused")}})
		rec := do(t, c.Handler(), http.MethodPost, "/wallet/connect", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("no provider", func(t *testing.T) {
		c, _, _ := newTestController(t, Deps{})
		rec := do(t, c.Handler(), http.MethodPost, "/wallet/connect", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestController_WalletSignAndSend(t *testing.T) {
	provider := &stubProvider{}
	c, _, _ := newTestController(t, Deps{Wallet: wallet.NewManager(provider, nil, nil)})
	h := c.Handler()

	rec := do(t, h, http.MethodPost, "/wallet/sign", `{"message":"hello"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "signing needs a connected wallet")

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/wallet/connect", "").Code)

	rec = do(t, h, http.MethodPost, "/wallet/sign", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sig signResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, "0xsig", sig.Signature)
	assert.Equal(t, []string{"0xabc:hello"}, provider.signed)

	rec = do(t, h, http.MethodPost, "/wallet/send", `{"from":"0xspoof","to":"0xdef","value":"0x10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sent sendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	assert.Equal(t, "0xhash", sent.Hash)
	require.Len(t, provider.sent, 1)
	assert.Equal(t, wallet.Transaction{From: "0xabc", To: "0xdef", Value: "0x10"}, provider.sent[0])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/wallet/sign", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/wallet/send", `{"value":"0x1"}`).Code)
}

func TestController_WalletSignWithoutProvider(t *testing.T) {
	c, _, _ := newTestController(t, Deps{})
	rec := do(t, c.Handler(), http.MethodPost, "/wallet/sign", `{"message":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestController_DebugFeed(t *testing.T) {
	c, _, _ := newTestController(t, Deps{})
	rec := do(t, c.Handler(), http.MethodGet, "/debug/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap feed.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, feed.StatusLive, snap.Status)
	assert.Equal(t, "BTC-USD", snap.Symbol)
}

func TestController_Events(t *testing.T) {
	c, _, _ := newTestController(t, Deps{})
	c.limit = 2

	bus := events.NewBus()
	ch, unsub := bus.Subscribe(16)
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Watch(ctx, ch)

	at := time.UnixMilli(1700000000000)
	bus.Publish(events.StatusChanged{Status: "live"})
	for _, msg := range []string{"first", "second", "third"} {
		bus.Publish(events.Notification{Level: events.LevelWarning, Source: "orderbook", Message: msg, At: at})
	}

	require.Eventually(t, func() bool {
		r := c.Recent()
		return len(r) == 2 && r[1].Message == "third"
	}, time.Second, 5*time.Millisecond)

	rec := do(t, c.Handler(), http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count         int                    `json:"count"`
		Notifications []notificationResponse `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "second", body.Notifications[0].Message)
	assert.Equal(t, int64(1700000000000), body.Notifications[1].At)
}

func TestController_Healthz(t *testing.T) {
	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c, _, _ := newTestController(t, Deps{Health: health})
	rec := do(t, c.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c, _, _ = newTestController(t, Deps{})
	rec = do(t, c.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
