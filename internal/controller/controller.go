package controller

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/events"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/logging"
	"github.com/rickgao/forwards-feed/internal/market"
	"github.com/rickgao/forwards-feed/internal/wallet"
)

// DefaultRecentEvents is how many notifications GET /events keeps.
const DefaultRecentEvents = 50

// FeedService is the part of feed.Client the controller drives.
type FeedService interface {
	SelectSymbol(ctx context.Context, symbol string) error
	Snapshot() feed.Snapshot
}

// MarketState is the part of market.State the controller drives.
type MarketState interface {
	Snapshot() market.Snapshot
	SetTimeframe(tf string) error
	SetMarginMode(mode string) error
	SetLeverage(leverage int) error
}

// WalletService is the part of wallet.Manager the controller drives.
type WalletService interface {
	Connect(ctx context.Context) (wallet.Account, error)
	SignMessage(ctx context.Context, message string) (string, error)
	SendTransaction(ctx context.Context, tx wallet.Transaction) (string, error)
}

// Deps are the injected services. Wallet and Health may be nil.
type Deps struct {
	Feed   FeedService
	Market MarketState
	Wallet WalletService
	Health http.Handler
}

// Controller serves the HTTP surface.
type Controller struct {
	deps   Deps
	logger *zap.Logger

	mu     sync.Mutex
	recent []events.Notification
	limit  int
}

// New creates a Controller.
func New(deps Deps, logger *zap.Logger) *Controller {
	logger = logging.OrNop(logger)
	return &Controller{
		deps:   deps,
		logger: logger.With(zap.String("component", "controller")),
		limit:  DefaultRecentEvents,
	}
}

// Handler returns the routes.
func (c *Controller) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /symbol", c.handleSymbol)
	mux.HandleFunc("POST /timeframe", c.handleTimeframe)
	mux.HandleFunc("POST /margin", c.handleMargin)
	mux.HandleFunc("POST /leverage", c.handleLeverage)
	mux.HandleFunc("POST /wallet/connect", c.handleWalletConnect)
	mux.HandleFunc("POST /wallet/sign", c.handleWalletSign)
	mux.HandleFunc("POST /wallet/send", c.handleWalletSend)
	mux.HandleFunc("GET /market", c.handleMarket)
	mux.HandleFunc("GET /debug/feed", c.handleDebugFeed)
	mux.HandleFunc("GET /events", c.handleEvents)
	if c.deps.Health != nil {
		mux.Handle("GET /healthz", c.deps.Health)
	}

	return mux
}

// Watch records notifications from ch until ctx is done or ch closes.
func (c *Controller) Watch(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if n, ok := ev.(events.Notification); ok {
				c.record(n)
			}
		}
	}
}

// Recent returns the retained notifications, oldest first.
func (c *Controller) Recent() []events.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Notification(nil), c.recent...)
}

func (c *Controller) record(n events.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent = append(c.recent, n)
	if over := len(c.recent) - c.limit; over > 0 {
		c.recent = append(c.recent[:0], c.recent[over:]...)
	}
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

type timeframeRequest struct {
	Timeframe string `json:"timeframe"`
}

type marginRequest struct {
	Mode string `json:"mode"`
}

type leverageRequest struct {
	Leverage int `json:"leverage"`
}

type signRequest struct {
	Message string `json:"message"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

type sendResponse struct {
	Hash string `json:"hash"`
}

type notificationResponse struct {
	Level   events.Level `json:"level"`
	Source  string       `json:"source"`
	Message string       `json:"message"`
	At      int64        `json:"at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Controller) handleSymbol(w http.ResponseWriter, r *http.Request) {
	var req symbolRequest
	if !c.decode(w, r, &req) {
		return
	}
	if err := c.deps.Feed.SelectSymbol(r.Context(), req.Symbol); err != nil {
		c.fail(w, statusFor(err), err)
		return
	}
	c.writeJSON(w, http.StatusOK, c.deps.Market.Snapshot())
}

func (c *Controller) handleTimeframe(w http.ResponseWriter, r *http.Request) {
	var req timeframeRequest
	if !c.decode(w, r, &req) {
		return
	}
	c.apply(w, c.deps.Market.SetTimeframe(req.Timeframe))
}

func (c *Controller) handleMargin(w http.ResponseWriter, r *http.Request) {
	var req marginRequest
	if !c.decode(w, r, &req) {
		return
	}
	c.apply(w, c.deps.Market.SetMarginMode(req.Mode))
}

func (c *Controller) handleLeverage(w http.ResponseWriter, r *http.Request) {
	var req leverageRequest
	if !c.decode(w, r, &req) {
		return
	}
	c.apply(w, c.deps.Market.SetLeverage(req.Leverage))
}

func (c *Controller) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	if !c.walletConfigured(w) {
		return
	}
	acct, err := c.deps.Wallet.Connect(r.Context())
	if err != nil {
		c.fail(w, statusFor(err), err)
		return
	}
	c.writeJSON(w, http.StatusOK, acct)
}

func (c *Controller) handleWalletSign(w http.ResponseWriter, r *http.Request) {
	if !c.walletConfigured(w) {
		return
	}
	var req signRequest
	if !c.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		c.fail(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	sig, err := c.deps.Wallet.SignMessage(r.Context(), req.Message)
	if err != nil {
		c.fail(w, statusFor(err), err)
		return
	}
	c.writeJSON(w, http.StatusOK, signResponse{Signature: sig})
}

// handleWalletSend forwards a transaction request. The sender is always the
// connected account.
func (c *Controller) handleWalletSend(w http.ResponseWriter, r *http.Request) {
	if !c.walletConfigured(w) {
		return
	}
	var tx wallet.Transaction
	if !c.decode(w, r, &tx) {
		return
	}
	if tx.To == "" {
		c.fail(w, http.StatusBadRequest, errors.New("to is required"))
		return
	}
	hash, err := c.deps.Wallet.SendTransaction(r.Context(), tx)
	if err != nil {
		c.fail(w, statusFor(err), err)
		return
	}
	c.writeJSON(w, http.StatusOK, sendResponse{Hash: hash})
}

func (c *Controller) walletConfigured(w http.ResponseWriter) bool {
	if c.deps.Wallet == nil {
		c.fail(w, http.StatusServiceUnavailable, errors.New("no wallet provider configured"))
		return false
	}
	return true
}

func (c *Controller) handleMarket(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, c.deps.Market.Snapshot())
}

func (c *Controller) handleDebugFeed(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, c.deps.Feed.Snapshot())
}

func (c *Controller) handleEvents(w http.ResponseWriter, r *http.Request) {
	recent := c.Recent()
	out := make([]notificationResponse, len(recent))
	for i, n := range recent {
		out[i] = notificationResponse{
			Level:   n.Level,
			Source:  n.Source,
			Message: n.Message,
			At:      n.At.UnixMilli(),
		}
	}
	c.writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(out),
		"notifications": out,
	})
}

func (c *Controller) apply(w http.ResponseWriter, err error) {
	if err != nil {
		c.fail(w, statusFor(err), err)
		return
	}
	c.writeJSON(w, http.StatusOK, c.deps.Market.Snapshot())
}

func (c *Controller) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		c.fail(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return false
	}
	return true
}

func (c *Controller) fail(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		c.logger.Warn("request failed", zap.Int("status", code), zap.Error(err))
	}
	c.writeJSON(w, code, errorResponse{Error: err.Error()})
}

func (c *Controller) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.Debug("write response", zap.Error(err))
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var rpcErr *wallet.RPCError
	switch {
	case errors.Is(err, market.ErrEmptySymbol),
		errors.Is(err, market.ErrUnknownTimeframe),
		errors.Is(err, market.ErrMarginMode),
		errors.Is(err, market.ErrLeverageRange):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrStopped),
		errors.Is(err, wallet.ErrNotConnected):
		return http.StatusConflict
	case errors.As(err, &rpcErr) && rpcErr.UserRejected():
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
