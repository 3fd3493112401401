package feed

import "github.com/rickgao/forwards-feed/internal/model"

// DefaultChartWindow is the number of ticks retained for the chart.
const DefaultChartWindow = 240

// TickWindow is a fixed-capacity ring of the most recent ticks. It is not
// safe for concurrent use.
type TickWindow struct {
	buf   []model.Tick
	start int
	n     int
}

// NewTickWindow creates a window holding at most capacity ticks.
func NewTickWindow(capacity int) *TickWindow {
	if capacity <= 0 {
		capacity = DefaultChartWindow
	}
	return &TickWindow{buf: make([]model.Tick, capacity)}
}

// Push appends t, evicting the oldest tick when full.
func (w *TickWindow) Push(t model.Tick) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = t
		w.n++
		return
	}
	w.buf[w.start] = t
	w.start = (w.start + 1) % len(w.buf)
}

// Ticks returns a copy of the window, oldest first.
func (w *TickWindow) Ticks() []model.Tick {
	out := make([]model.Tick, w.n)
	for i := range w.n {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Last returns the newest tick.
func (w *TickWindow) Last() (model.Tick, bool) {
	if w.n == 0 {
		return model.Tick{}, false
	}
	return w.buf[(w.start+w.n-1)%len(w.buf)], true
}

// Cap returns the window capacity.
func (w *TickWindow) Cap() int { return len(w.buf) }

// Reset empties the window.
func (w *TickWindow) Reset() {
	w.start, w.n = 0, 0
}
