package observability

import (
	"context"
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rickgao/forwards-feed/internal/events"
)

// FeedService is the gRPC health service name that tracks the feed.
const FeedService = "forwards.feed"

// statusLive mirrors feed.StatusLive without importing the feed package.
const statusLive = "live"

// HealthChecker manages health checks for both gRPC and HTTP. The process
// is healthy while it is ready and the feed is live.
type HealthChecker struct {
	grpcHealth *health.Server
	logger     *zap.Logger

	mu         sync.RWMutex
	ready      bool
	feedStatus string
	symbol     string
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HealthChecker{
		grpcHealth: health.NewServer(),
		logger:     logger,
		ready:      true,
		feedStatus: "disconnected",
	}
	h.grpcHealth.SetServingStatus(FeedService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

// RegisterGRPC registers the health service with the gRPC server
func (h *HealthChecker) RegisterGRPC(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.grpcHealth)
	h.grpcHealth.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
}

// SetFeedStatus records the feed connection state.
func (h *HealthChecker) SetFeedStatus(status, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.feedStatus != status {
		h.logger.Debug("feed status changed",
			zap.String("from", h.feedStatus),
			zap.String("to", status),
			zap.String("symbol", symbol),
		)
	}
	h.feedStatus = status
	h.symbol = symbol

	if !h.ready {
		return
	}
	serving := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if status == statusLive {
		serving = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.grpcHealth.SetServingStatus(FeedService, serving)
}

// Watch follows StatusChanged events until ctx is done or ch is closed.
func (h *HealthChecker) Watch(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if sc, ok := ev.(events.StatusChanged); ok {
				h.SetFeedStatus(sc.Status, sc.Symbol)
			}
		}
	}
}

// Healthy reports whether the process is ready and the feed is live.
func (h *HealthChecker) Healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready && h.feedStatus == statusLive
}

// Shutdown marks every service as not serving.
func (h *HealthChecker) Shutdown() {
	h.mu.Lock()
	h.ready = false
	h.mu.Unlock()

	h.grpcHealth.Shutdown()
}

type healthResponse struct {
	Status string `json:"status"`
	Feed   string `json:"feed"`
	Symbol string `json:"symbol,omitempty"`
}

// ServeHTTP answers /healthz: 200 while healthy, 503 otherwise.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := healthResponse{Feed: h.feedStatus, Symbol: h.symbol}
	healthy := h.ready && h.feedStatus == statusLive
	h.mu.RUnlock()

	code := http.StatusOK
	resp.Status = "OK"
	if !healthy {
		code = http.StatusServiceUnavailable
		resp.Status = "NOT_READY"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
