package normalize

import (
	"fmt"
	"time"

	"github.com/rickgao/forwards-feed/internal/model"
)

// priceKeys in precedence order.
var priceKeys = []string{"price", "p", "last"}

var (
	tickSymbolKeys = []string{"symbol", "market", "pair", "s"}
	tickTimeKeys   = []string{"timestamp", "ts", "time", "t", "E"}
	tickNestKeys   = []string{"ticker", "data"}
)

// Price extracts the price from a decoded ticker object, preferring price,
// then p, then last. Numeric strings are accepted.
func Price(obj map[string]any) (float64, bool) {
	for _, k := range priceKeys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// Tick normalizes a ticker payload. symbol is used when the payload names
// none; now stamps payloads without a timestamp.
func Tick(payload []byte, symbol string, now time.Time) (model.Tick, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return model.Tick{}, err
	}

	price, ok := Price(obj)
	if !ok {
		for _, k := range tickNestKeys {
			if nested, isObj := obj[k].(map[string]any); isObj {
				if price, ok = Price(nested); ok {
					obj = nested
					break
				}
			}
		}
	}
	if !ok {
		return model.Tick{}, fmt.Errorf("%w: keys %v", ErrNoPrice, priceKeys)
	}

	tick := model.Tick{
		Symbol:    symbol,
		Timestamp: now.UnixMilli(),
		Price:     price,
	}
	if v, ok := lookup(obj, tickSymbolKeys...); ok {
		if s, ok := toText(v); ok {
			tick.Symbol = s
		}
	}
	if v, ok := lookup(obj, tickTimeKeys...); ok {
		if ms, ok := toMillis(v); ok {
			tick.Timestamp = ms
		}
	}
	return tick, nil
}
