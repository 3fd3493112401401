package normalize

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/rickgao/forwards-feed/internal/model"
)

type fieldKind int

const (
	textField fieldKind = iota
	numberField
	millisField
)

// field maps upstream spellings onto one canonical key.
type field struct {
	name    string
	kind    fieldKind
	aliases []string
}

var (
	marketAliases = []string{"market", "symbol", "pair", "instrument"}
	sideAliases   = []string{"side", "direction"}
	sizeAliases   = []string{"size", "qty", "quantity", "amount"}
)

var positionFields = []field{
	{"market", textField, marketAliases},
	{"side", textField, sideAliases},
	{"size", numberField, sizeAliases},
	{"entry_price", numberField, []string{"entry_price", "entryPrice", "entry", "avg_price", "avgPrice"}},
	{"mark_price", numberField, []string{"mark_price", "markPrice", "mark"}},
	{"pnl", numberField, []string{"pnl", "unrealized_pnl", "unrealizedPnl", "upnl"}},
	{"leverage", numberField, []string{"leverage", "lev"}},
	{"margin", numberField, []string{"margin", "collateral"}},
}

var historyFields = []field{
	{"id", textField, []string{"id", "order_id", "orderId", "tx", "hash"}},
	{"market", textField, marketAliases},
	{"side", textField, sideAliases},
	{"price", numberField, []string{"price", "p", "fill_price", "avg_price"}},
	{"size", numberField, sizeAliases},
	{"fee", numberField, []string{"fee", "fees"}},
	{"status", textField, []string{"status", "state"}},
	{"timestamp", millisField, []string{"timestamp", "ts", "time", "created_at", "createdAt"}},
}

var quoteFields = []field{
	{"id", textField, []string{"id", "quote_id", "quoteId", "rfq_id"}},
	{"market", textField, marketAliases},
	{"side", textField, sideAliases},
	{"price", numberField, []string{"price", "p", "quote_price"}},
	{"size", numberField, sizeAliases},
	{"maker", textField, []string{"maker", "dealer", "counterparty", "from"}},
	{"expires_at", millisField, []string{"expires_at", "expiresAt", "expiry", "valid_until", "deadline"}},
}

// listKeys are wrapper keys that may hold a record list.
var listKeys = []string{"data", "items", "result", "results"}

// Positions normalizes a positions payload: a list, or an object wrapping one
// under positions, data, items, result or results.
func Positions(payload []byte) ([]model.Position, error) {
	return records[model.Position](payload, "positions", positionFields)
}

// History normalizes an order history payload.
func History(payload []byte) ([]model.HistoryEntry, error) {
	return records[model.HistoryEntry](payload, "history", historyFields)
}

// Quotes normalizes an RFQ payload.
func Quotes(payload []byte) ([]model.Quote, error) {
	return records[model.Quote](payload, "quotes", quoteFields)
}

func records[T any](payload []byte, own string, fields []field) ([]T, error) {
	v, err := decodeAny(payload)
	if err != nil {
		return nil, err
	}

	items, ok := findList(v, append([]string{own}, listKeys...))
	if !ok {
		return nil, fmt.Errorf("%w: expected a %s list", ErrUnrecognizedShape, own)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var rec T
		if err := mapstructure.Decode(canonical(obj, fields), &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", own, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// findList returns the list at v, or under one of keys, descending through
// at most two nested wrapper objects.
func findList(v any, keys []string) ([]any, bool) {
	return findListDepth(v, keys, 2)
}

func findListDepth(v any, keys []string, depth int) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if depth == 0 {
			return nil, false
		}
		for _, k := range keys {
			if inner, ok := t[k]; ok && inner != nil {
				if list, ok := findListDepth(inner, keys, depth-1); ok {
					return list, true
				}
			}
		}
	}
	return nil, false
}

// canonical builds the canonical map for fields. Missing or unparseable text
// becomes model.Placeholder and numbers become 0.
func canonical(obj map[string]any, fields []field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, present := lookup(obj, f.aliases...)

		switch f.kind {
		case textField:
			s, ok := toText(v)
			if !present || !ok {
				s = model.Placeholder
			}
			out[f.name] = s
		case numberField:
			n, ok := toFloat(v)
			if !present || !ok {
				n = 0
			}
			out[f.name] = n
		case millisField:
			ms, ok := toMillis(v)
			if !present || !ok {
				ms = 0
			}
			out[f.name] = ms
		}
	}
	return out
}
