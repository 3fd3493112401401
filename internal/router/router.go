package router

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Parse decodes a single frame. A frame without a payload or data key is
// treated as its own payload.
func Parse(data []byte) (Envelope, error) {
	var frame wireFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}

	if frame.Type == "" {
		return Envelope{}, ErrMissingKind
	}

	kind := Kind(strings.ToLower(frame.Type))
	if !kind.Valid() {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, frame.Type)
	}

	payload := frame.Payload
	if isEmpty(payload) {
		payload = frame.Data
	}
	if isEmpty(payload) {
		payload = json.RawMessage(data)
	}

	symbol := frame.Symbol
	if symbol == "" {
		symbol = frame.Market
	}
	if symbol == "" {
		symbol = PayloadSymbol(payload)
	}

	return Envelope{
		Kind:    kind,
		Symbol:  symbol,
		Payload: payload,
	}, nil
}

// PayloadSymbol returns the symbol named by a JSON object payload, or "" for
// arrays, scalars and objects without a symbol key.
func PayloadSymbol(payload json.RawMessage) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return ""
	}

	for _, key := range symbolKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Router parses frames, logs and counts failures.
type Router struct {
	logger *zap.Logger

	received        atomic.Int64
	routed          atomic.Int64
	parseErrors     atomic.Int64
	unknownMessages atomic.Int64
}

// New creates a Router. A nil logger discards output.
func New(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{logger: logger}
}

// Route parses data received at receivedAt. Returns false if the frame was
// dropped; the reason has already been logged.
func (r *Router) Route(data []byte, receivedAt time.Time) (Envelope, bool) {
	r.received.Add(1)

	env, err := Parse(data)
	if err != nil {
		if isUnknown(err) {
			r.unknownMessages.Add(1)
			r.logger.Debug("unknown message type", zap.Error(err))
		} else {
			r.parseErrors.Add(1)
			r.logger.Warn("failed to parse message",
				zap.Error(err),
				zap.Int("size", len(data)),
			)
		}
		return Envelope{}, false
	}

	env.ReceivedAt = receivedAt
	r.routed.Add(1)
	return env, true
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	return Stats{
		MessagesReceived: r.received.Load(),
		MessagesRouted:   r.routed.Load(),
		ParseErrors:      r.parseErrors.Load(),
		UnknownMessages:  r.unknownMessages.Load(),
	}
}

func isUnknown(err error) bool {
	return errors.Is(err, ErrUnknownKind) || errors.Is(err, ErrMissingKind)
}
