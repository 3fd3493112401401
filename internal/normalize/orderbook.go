package normalize

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/forwards-feed/internal/model"
)

// DefaultReferencePrice centres a synthetic book when no tick has been seen.
const DefaultReferencePrice = 100.0

// DefaultSyntheticDepth is the number of levels per side in a synthetic book.
const DefaultSyntheticDepth = 12

var (
	bidKeys   = []string{"bids", "b"}
	askKeys   = []string{"asks", "a"}
	bookNests = []string{"orderbook", "book", "data"}

	levelPriceKeys = []string{"price", "p", "px"}
	levelSizeKeys  = []string{"size", "s", "sz", "qty", "quantity", "amount"}
	levelTotalKeys = []string{"total"}
)

// OrderBook normalizes an orderbook payload. Levels may be [price, size]
// tuples (an optional third element is the total) or objects. Missing totals
// are price * size. Level order is preserved. Running OrderBook on its own
// JSON output yields the same levels.
//
// Payloads without bids or asks, or with a malformed level, return
// ErrUnrecognizedShape. updatedAt stamps the result.
func OrderBook(payload []byte, symbol string, updatedAt time.Time) (model.OrderBook, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return model.OrderBook{}, err
	}

	book, ok := findBook(obj)
	if !ok {
		return model.OrderBook{}, fmt.Errorf("%w: no bids or asks", ErrUnrecognizedShape)
	}

	out := model.OrderBook{
		Symbol:    symbol,
		UpdatedAt: updatedAt.UnixMilli(),
	}
	if v, ok := lookup(book, tickSymbolKeys...); ok {
		if s, ok := toText(v); ok {
			out.Symbol = s
		}
	}
	if v, ok := lookup(book, "synthetic"); ok {
		out.Synthetic, _ = v.(bool)
	}

	if out.Bids, err = side(book, bidKeys); err != nil {
		return model.OrderBook{}, fmt.Errorf("bids: %w", err)
	}
	if out.Asks, err = side(book, askKeys); err != nil {
		return model.OrderBook{}, fmt.Errorf("asks: %w", err)
	}
	return out, nil
}

func findBook(obj map[string]any) (map[string]any, bool) {
	if hasSide(obj) {
		return obj, true
	}
	for _, k := range bookNests {
		if nested, ok := obj[k].(map[string]any); ok && hasSide(nested) {
			return nested, true
		}
	}
	return nil, false
}

func hasSide(obj map[string]any) bool {
	_, bids := lookup(obj, bidKeys...)
	_, asks := lookup(obj, askKeys...)
	return bids || asks
}

func side(book map[string]any, keys []string) ([]model.OrderBookLevel, error) {
	v, ok := lookup(book, keys...)
	if !ok {
		return []model.OrderBookLevel{}, nil
	}
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: side is %T", ErrUnrecognizedShape, v)
	}

	levels := make([]model.OrderBookLevel, 0, len(rows))
	for i, row := range rows {
		lvl, err := level(row)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

func level(row any) (model.OrderBookLevel, error) {
	var price, size, total any

	switch r := row.(type) {
	case []any:
		if len(r) < 2 {
			return model.OrderBookLevel{}, fmt.Errorf("%w: tuple of %d", ErrUnrecognizedShape, len(r))
		}
		price, size = r[0], r[1]
		if len(r) > 2 {
			total = r[2]
		}
	case map[string]any:
		var ok bool
		if price, ok = lookup(r, levelPriceKeys...); !ok {
			return model.OrderBookLevel{}, fmt.Errorf("%w: level without price", ErrUnrecognizedShape)
		}
		if size, ok = lookup(r, levelSizeKeys...); !ok {
			return model.OrderBookLevel{}, fmt.Errorf("%w: level without size", ErrUnrecognizedShape)
		}
		total, _ = lookup(r, levelTotalKeys...)
	default:
		return model.OrderBookLevel{}, fmt.Errorf("%w: level is %T", ErrUnrecognizedShape, row)
	}

	p, err := toDecimal(price)
	if err != nil {
		return model.OrderBookLevel{}, fmt.Errorf("price: %w", err)
	}
	s, err := toDecimal(size)
	if err != nil {
		return model.OrderBookLevel{}, fmt.Errorf("size: %w", err)
	}

	lvl := model.OrderBookLevel{
		Price: p.String(),
		Size:  s.String(),
	}
	if t, err := toDecimal(total); total != nil && err == nil {
		lvl.Total = t.String()
	} else {
		lvl.Total = p.Mul(s).String()
	}
	return lvl, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	text, ok := toText(v)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %v is not a number", ErrUnrecognizedShape, v)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrUnrecognizedShape, text)
	}
	return d, nil
}

// Synthetic generates a placeholder book of depth levels per side around ref.
// Bids descend and asks ascend away from ref, so both sides are ordered by
// proximity to mid. The result is flagged Synthetic and must never be
// mistaken for live data. A non-positive ref uses DefaultReferencePrice.
func Synthetic(symbol string, ref float64, depth int, rng *rand.Rand, updatedAt time.Time) model.OrderBook {
	if ref <= 0 {
		ref = DefaultReferencePrice
	}
	if depth <= 0 {
		depth = DefaultSyntheticDepth
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(updatedAt.UnixNano()), 0))
	}

	mid := decimal.NewFromFloat(ref)
	step := mid.Mul(decimal.RequireFromString("0.0005"))
	minStep := decimal.RequireFromString("0.01")
	if step.LessThan(minStep) {
		step = minStep
	}

	book := model.OrderBook{
		Symbol:    symbol,
		Bids:      make([]model.OrderBookLevel, 0, depth),
		Asks:      make([]model.OrderBookLevel, 0, depth),
		Synthetic: true,
		UpdatedAt: updatedAt.UnixMilli(),
	}

	for i := 1; i <= depth; i++ {
		offset := step.Mul(decimal.NewFromInt(int64(i)))
		if bid := mid.Sub(offset); bid.IsPositive() {
			book.Bids = append(book.Bids, syntheticLevel(bid, rng))
		}
		book.Asks = append(book.Asks, syntheticLevel(mid.Add(offset), rng))
	}
	return book
}

func syntheticLevel(price decimal.Decimal, rng *rand.Rand) model.OrderBookLevel {
	price = price.Round(2)
	size := decimal.NewFromFloat(0.05 + rng.Float64()*4.95).Round(4)
	return model.OrderBookLevel{
		Price: price.String(),
		Size:  size.String(),
		Total: price.Mul(size).Round(2).String(),
	}
}
