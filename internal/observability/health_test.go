package observability

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rickgao/forwards-feed/internal/events"
)

func getHealthz(t *testing.T, h *HealthChecker) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthChecker_HTTP(t *testing.T) {
	h := NewHealthChecker(nil)

	code, body := getHealthz(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "disconnected", body.Feed)

	h.SetFeedStatus("live", "BTC-USD")
	code, body = getHealthz(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthResponse{Status: "OK", Feed: "live", Symbol: "BTC-USD"}, body)

	h.SetFeedStatus("reconnecting", "BTC-USD")
	code, _ = getHealthz(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	h.SetFeedStatus("live", "BTC-USD")
	h.Shutdown()
	assert.False(t, h.Healthy())
}

func TestHealthChecker_Watch(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe(8)
	defer unsub()

	h := NewHealthChecker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Watch(ctx, ch)

	bus.Publish(events.SymbolChanged{Old: "BTC-USD", New: "ETH-USD"})
	bus.Publish(events.StatusChanged{SessionID: "s1", Symbol: "ETH-USD", Status: "live"})

	assert.Eventually(t, h.Healthy, time.Second, 5*time.Millisecond)
}

func TestHealthChecker_GRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	h := NewHealthChecker(nil)
	h.RegisterGRPC(srv)
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: FeedService})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)

	h.SetFeedStatus("live", "BTC-USD")
	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: FeedService})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}
