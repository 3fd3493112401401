package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rickgao/forwards-feed/internal/model"
)

func TestConsole_Lines(t *testing.T) {
	var buf bytes.Buffer
	c := newConsole(&buf, 16)

	c.Reset("BTC-USD")
	c.RenderTick(model.Tick{Symbol: "BTC-USD", Timestamp: 1700000000000, Price: 42000.5}, make([]model.Tick, 3))
	c.RenderOrderBook(model.OrderBook{
		Symbol:    "BTC-USD",
		Bids:      []model.OrderBookLevel{{Price: "41999", Size: "2"}},
		Asks:      []model.OrderBookLevel{},
		Synthetic: true,
	})
	c.RenderQuotes([]model.Quote{{ID: "q1", Market: "BTC-USD", Side: "buy", Price: 42000, Size: 1}})
	c.close()

	assert.Equal(t, ""+
		"----- BTC-USD -----\n"+
		"tick  BTC-USD 22:13:20.000 price=42000.50 window=3\n"+
		"book  BTC-USD bid=41999x2 ask=- levels=1/0 (synthetic)\n"+
		"rfq   n=1\n"+
		"  q1 BTC-USD buy price=42000 size=1\n",
		buf.String())
}

func TestConsole_DropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	c := &console{out: &buf, lines: make(chan string, 1), done: make(chan struct{})}

	c.RenderHistory(nil)
	c.RenderHistory(nil)
	assert.Len(t, c.lines, 1)
}
