package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_AliasesAgree(t *testing.T) {
	values := []any{3500.12, "3500.12", " 3500.12 "}

	for _, v := range values {
		var got []float64
		for _, key := range priceKeys {
			p, ok := Price(map[string]any{key: v})
			require.True(t, ok, "key %s value %v", key, v)
			got = append(got, p)
		}
		assert.Equal(t, []float64{3500.12, 3500.12, 3500.12}, got)
	}
}

func TestPrice_Precedence(t *testing.T) {
	p, ok := Price(map[string]any{"last": 3.0, "p": 2.0, "price": 1.0})
	require.True(t, ok)
	assert.Equal(t, 1.0, p)

	p, ok = Price(map[string]any{"last": 3.0, "p": 2.0})
	require.True(t, ok)
	assert.Equal(t, 2.0, p)

	p, ok = Price(map[string]any{"price": "n/a", "last": 3.0})
	require.True(t, ok, "unparseable price falls through")
	assert.Equal(t, 3.0, p)

	_, ok = Price(map[string]any{"bid": 1.0})
	assert.False(t, ok)
}

func TestTick(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name    string
		payload string
		want    int64
		symbol  string
		price   float64
	}{
		{"string price, no time", `{"price":"3500.12"}`, now.UnixMilli(), "BTC-USD", 3500.12},
		{"payload symbol", `{"symbol":"ETH-USD","p":1.5}`, now.UnixMilli(), "ETH-USD", 1.5},
		{"ms timestamp", `{"last":2,"ts":1700000001234}`, 1700000001234, "BTC-USD", 2},
		{"seconds timestamp", `{"last":2,"timestamp":1700000001}`, 1700000001000, "BTC-USD", 2},
		{"rfc3339 time", `{"price":2,"time":"2023-11-14T22:13:21Z"}`, 1700000001000, "BTC-USD", 2},
		{"nested ticker", `{"data":{"price":7}}`, now.UnixMilli(), "BTC-USD", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick, err := Tick([]byte(tt.payload), "BTC-USD", now)
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, tick.Symbol)
			assert.Equal(t, tt.want, tick.Timestamp)
			assert.Equal(t, tt.price, tick.Price)
		})
	}
}

func TestTick_Errors(t *testing.T) {
	now := time.Now()

	_, err := Tick([]byte(`{"volume":1}`), "BTC-USD", now)
	assert.ErrorIs(t, err, ErrNoPrice)

	_, err = Tick([]byte(`[1,2]`), "BTC-USD", now)
	assert.ErrorIs(t, err, ErrUnrecognizedShape)

	_, err = Tick([]byte(`{`), "BTC-USD", now)
	assert.ErrorContains(t, err, "decode payload")
}
