package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantKind    Kind
		wantSymbol  string
		wantPayload string
	}{
		{
			name:        "ticker with payload symbol",
			data:        `{"type":"ticker","payload":{"symbol":"ETH-USD","price":"3500.12"}}`,
			wantKind:    KindTicker,
			wantSymbol:  "ETH-USD",
			wantPayload: `{"symbol":"ETH-USD","price":"3500.12"}`,
		},
		{
			name:        "envelope symbol wins",
			data:        `{"type":"orderbook","symbol":"BTC-USD","payload":{"market":"ETH-USD","bids":[]}}`,
			wantKind:    KindOrderBook,
			wantSymbol:  "BTC-USD",
			wantPayload: `{"market":"ETH-USD","bids":[]}`,
		},
		{
			name:        "payload market key",
			data:        `{"type":"positions","payload":{"market":"BTC-USD","positions":[]}}`,
			wantKind:    KindPositions,
			wantSymbol:  "BTC-USD",
			wantPayload: `{"market":"BTC-USD","positions":[]}`,
		},
		{
			name:        "short s key",
			data:        `{"type":"ticker","payload":{"s":"BTC-USD","p":1}}`,
			wantKind:    KindTicker,
			wantSymbol:  "BTC-USD",
			wantPayload: `{"s":"BTC-USD","p":1}`,
		},
		{
			name:        "array payload has no symbol",
			data:        `{"type":"history","payload":[{"id":"1"}]}`,
			wantKind:    KindHistory,
			wantPayload: `[{"id":"1"}]`,
		},
		{
			name:        "data key instead of payload",
			data:        `{"type":"rfq","data":[]}`,
			wantKind:    KindRFQ,
			wantPayload: `[]`,
		},
		{
			name:        "flat frame is its own payload",
			data:        `{"type":"ticker","symbol":"BTC-USD","last":"100"}`,
			wantKind:    KindTicker,
			wantSymbol:  "BTC-USD",
			wantPayload: `{"type":"ticker","symbol":"BTC-USD","last":"100"}`,
		},
		{
			name:        "type is case-insensitive",
			data:        `{"type":"OrderBook","payload":{}}`,
			wantKind:    KindOrderBook,
			wantPayload: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Parse([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, env.Kind)
			assert.Equal(t, tt.wantSymbol, env.Symbol)
			assert.JSONEq(t, tt.wantPayload, string(env.Payload))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.ErrorContains(t, err, "decode frame")

	_, err = Parse([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingKind)

	_, err = Parse([]byte(`{"type":"trade","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPayloadSymbol(t *testing.T) {
	assert.Equal(t, "BTC-USD", PayloadSymbol([]byte(`{"pair":"BTC-USD"}`)))
	assert.Equal(t, "BTC-USD", PayloadSymbol([]byte(` {"symbol":"BTC-USD","market":"ETH-USD"}`)))
	assert.Equal(t, "", PayloadSymbol([]byte(`{"symbol":42}`)))
	assert.Equal(t, "", PayloadSymbol([]byte(`[1,2]`)))
	assert.Equal(t, "", PayloadSymbol(nil))
}

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, Kind("trade").Valid())
}

func TestRouter_RouteCountsOutcomes(t *testing.T) {
	r := New(nil)
	now := time.Now()

	env, ok := r.Route([]byte(`{"type":"ticker","payload":{"price":1}}`), now)
	require.True(t, ok)
	assert.Equal(t, now, env.ReceivedAt)

	_, ok = r.Route([]byte(`garbage`), now)
	assert.False(t, ok)

	_, ok = r.Route([]byte(`{"type":"heartbeat"}`), now)
	assert.False(t, ok)

	assert.Equal(t, Stats{
		MessagesReceived: 3,
		MessagesRouted:   1,
		ParseErrors:      1,
		UnknownMessages:  1,
	}, r.Stats())
}
