package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Errors
var (
	ErrUnrecognizedShape = errors.New("unrecognized payload shape")
	ErrNoPrice           = errors.New("payload has no price")
)

// secondsCutoff separates second and millisecond epoch timestamps.
const secondsCutoff = 1e12

func decodeAny(payload []byte) (any, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

func decodeObject(payload []byte) (map[string]any, error) {
	v, err := decodeAny(payload)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrUnrecognizedShape, v)
	}
	return obj, nil
}

// lookup returns the first present, non-nil value among keys.
func lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toFloat coerces JSON numbers and numeric strings. NaN and Inf are rejected.
func toFloat(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toText coerces scalars to a trimmed string.
func toText(v any) (string, bool) {
	switch v.(type) {
	case map[string]any, []any:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// toMillis coerces epoch seconds, epoch milliseconds or an RFC 3339 string
// into milliseconds since epoch.
func toMillis(v any) (int64, bool) {
	if f, ok := toFloat(v); ok {
		if f <= 0 {
			return 0, false
		}
		if f < secondsCutoff {
			return int64(f * 1000), true
		}
		return int64(f), true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}
