package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/model"
)

// console prints one line per update. Lines are queued and written by run
// so the feed never waits on the terminal.
type console struct {
	out   io.Writer
	lines chan string
	done  chan struct{}
}

func newConsole(out io.Writer, buffer int) *console {
	c := &console{
		out:   out,
		lines: make(chan string, buffer),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

var _ feed.Renderer = (*console)(nil)

func (c *console) RenderTick(tick model.Tick, window []model.Tick) {
	c.emit("tick  %s %s price=%.2f window=%d", tick.Symbol, stamp(tick.Timestamp), tick.Price, len(window))
}

func (c *console) RenderOrderBook(book model.OrderBook) {
	tag := ""
	if book.Synthetic {
		tag = " (synthetic)"
	}
	c.emit("book  %s bid=%s ask=%s levels=%d/%d%s",
		book.Symbol, top(book.Bids), top(book.Asks), len(book.Bids), len(book.Asks), tag)
}

func (c *console) RenderPositions(positions []model.Position) {
	c.emit("positions n=%d", len(positions))
	for _, p := range positions {
		c.emit("  %s %s size=%g entry=%g mark=%g pnl=%g", p.Market, p.Side, p.Size, p.EntryPrice, p.MarkPrice, p.PnL)
	}
}

func (c *console) RenderHistory(entries []model.HistoryEntry) {
	c.emit("history n=%d", len(entries))
}

func (c *console) RenderQuotes(quotes []model.Quote) {
	c.emit("rfq   n=%d", len(quotes))
	for _, q := range quotes {
		c.emit("  %s %s %s price=%g size=%g", q.ID, q.Market, q.Side, q.Price, q.Size)
	}
}

func (c *console) Reset(symbol string) {
	c.emit("----- %s -----", symbol)
}

// close flushes queued lines.
func (c *console) close() {
	close(c.lines)
	<-c.done
}

func (c *console) emit(format string, args ...any) {
	select {
	case c.lines <- fmt.Sprintf(format, args...):
	default:
	}
}

func (c *console) run() {
	defer close(c.done)
	for line := range c.lines {
		fmt.Fprintln(c.out, line)
	}
}

func top(levels []model.OrderBookLevel) string {
	if len(levels) == 0 {
		return "-"
	}
	return levels[0].Price + "x" + levels[0].Size
}

func stamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("15:04:05.000")
}
