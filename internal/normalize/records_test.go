package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/forwards-feed/internal/model"
)

func TestPositions(t *testing.T) {
	payload := `{"positions":[
		{"symbol":"BTC-USD","side":"long","qty":"0.5","entryPrice":"42000","mark":42100.5,"unrealized_pnl":"50.25","leverage":10,"margin":"2100"},
		{"pair":"ETH-USD","amount":2},
		"not an object"
	]}`

	got, err := Positions([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.Position{
		Market:     "BTC-USD",
		Side:       "long",
		Size:       0.5,
		EntryPrice: 42000,
		MarkPrice:  42100.5,
		PnL:        50.25,
		Leverage:   10,
		Margin:     2100,
	}, got[0])

	assert.Equal(t, model.Position{
		Market: "ETH-USD",
		Side:   model.Placeholder,
		Size:   2,
	}, got[1])
}

func TestPositions_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"bare list", `[{"market":"BTC-USD"}]`, 1},
		{"data wrapper", `{"data":[{"market":"BTC-USD"},{"market":"ETH-USD"}]}`, 2},
		{"data then positions", `{"data":{"positions":[{"market":"BTC-USD"}]}}`, 1},
		{"empty list", `{"positions":[]}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Positions([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
			assert.NotNil(t, got)
		})
	}

	_, err := Positions([]byte(`{"error":"unauthorized"}`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)

	_, err = Positions([]byte(`"x"`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestHistory(t *testing.T) {
	payload := `[
		{"order_id":123,"market":"BTC-USD","side":"sell","fill_price":"41000.5","quantity":"0.2","fees":"1.1","state":"filled","ts":1700000000},
		{"id":"abc","price":"bad","created_at":"2023-11-14T22:13:20Z"}
	]`

	got, err := History([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.HistoryEntry{
		ID:        "123",
		Market:    "BTC-USD",
		Side:      "sell",
		Price:     41000.5,
		Size:      0.2,
		Fee:       1.1,
		Status:    "filled",
		Timestamp: 1700000000000,
	}, got[0])

	assert.Equal(t, model.HistoryEntry{
		ID:        "abc",
		Market:    model.Placeholder,
		Side:      model.Placeholder,
		Status:    model.Placeholder,
		Timestamp: 1700000000000,
	}, got[1])
}

func TestQuotes(t *testing.T) {
	payload := `{"quotes":[{"quoteId":"q1","symbol":"BTC-USD","side":"buy","price":"42010","size":1,"dealer":"0xabc","expiresAt":1700000005000}]}`

	got, err := Quotes([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, model.Quote{
		ID:        "q1",
		Market:    "BTC-USD",
		Side:      "buy",
		Price:     42010,
		Size:      1,
		Maker:     "0xabc",
		ExpiresAt: 1700000005000,
	}, got[0])
}

func TestCanonical_Defaults(t *testing.T) {
	out := canonical(map[string]any{"market": "  ", "size": "1e3"}, positionFields)

	assert.Equal(t, model.Placeholder, out["market"])
	assert.Equal(t, 1000.0, out["size"])
	assert.Equal(t, 0.0, out["pnl"])
}
