package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/connection"
	"github.com/rickgao/forwards-feed/internal/events"
	"github.com/rickgao/forwards-feed/internal/market"
	"github.com/rickgao/forwards-feed/internal/poller"
	"github.com/rickgao/forwards-feed/internal/router"
)

// session is one WebSocket connection and/or polling timer scoped to a
// single symbol. Its id tags every message it delivers.
type session struct {
	id     string
	symbol string
	ctx    context.Context
	cancel context.CancelFunc
	poller *poller.Poller
}

// wait blocks until the session's poller has exited. Nil-safe.
func (s *session) wait(ctx context.Context) error {
	if s == nil || s.poller == nil {
		return nil
	}
	return s.poller.Stop(ctx)
}

// runSocket keeps one WebSocket connection open for s, redialing after the
// configured fixed delay until s is torn down or replaced.
func (c *Client) runSocket(s *session, logger *zap.Logger) {
	defer c.wg.Done()

	url := market.ResolveURL(c.cfg.WS, s.symbol, c.cfg.SymbolSeparator)
	delay := backoff.NewConstantBackOff(c.cfg.ReconnectDelay)

	for {
		err := c.connectOnce(s, url, logger)
		if s.ctx.Err() != nil || err == errAbandoned {
			return
		}

		logger.Warn("websocket disconnected", zap.Error(err))
		c.notify(events.LevelWarning, "websocket", fmt.Sprintf("%s feed disconnected, reconnecting", s.symbol))
		if !c.setStatus(s, StatusReconnecting) {
			return
		}

		wait := delay.NextBackOff()
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(wait):
		}

		// The symbol may have changed while we waited.
		if !c.setStatus(s, StatusConnecting) {
			logger.Debug("session replaced, abandoning reconnect")
			return
		}
	}
}

// connectOnce dials url and pumps messages until the connection fails or s
// is torn down. The session goes Live when the first frame is applied.
func (c *Client) connectOnce(s *session, url string, logger *zap.Logger) error {
	cfg := c.socketCfg
	cfg.URL = url
	conn := c.dial(cfg, logger)

	c.beginLoading()
	err := conn.Connect(s.ctx)
	c.endLoading()
	if err != nil {
		conn.Close()
		return err
	}
	defer conn.Close()

	if !c.isActive(s) {
		return errAbandoned
	}
	logger.Info("websocket connected", zap.String("url", url))

	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case msg := <-conn.Messages():
			c.deliver(s.id, msg)
		case err := <-conn.Errors():
			c.drain(s.id, conn)
			return err
		}
	}
}

// drain delivers messages buffered before the connection failed.
func (c *Client) drain(sessionID string, conn connection.Client) {
	for {
		select {
		case msg := <-conn.Messages():
			c.deliver(sessionID, msg)
		default:
			return
		}
	}
}

func (c *Client) deliver(sessionID string, msg connection.TimestampedMessage) {
	env, ok := c.router.Route(msg.Data, msg.ReceivedAt)
	if !ok {
		return
	}
	c.dispatch(sessionID, env)
}

// sessionHandler routes poll results for one session.
type sessionHandler struct {
	c *Client
	s *session
}

func (h sessionHandler) HandleResponse(ep poller.Endpoint, body []byte) {
	h.c.dispatch(h.s.id, router.Envelope{
		Kind:       router.Kind(ep.Name),
		Symbol:     router.PayloadSymbol(body),
		Payload:    body,
		ReceivedAt: h.c.now(),
	})
}

func (h sessionHandler) HandleError(ep poller.Endpoint, err error) {
	if !h.c.isActive(h.s) {
		return
	}
	h.c.notify(events.LevelWarning, ep.Name, fmt.Sprintf("failed to refresh %s: %v", ep.Name, err))
}
