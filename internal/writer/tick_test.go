package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]model.Tick
	seen    map[model.Tick]bool
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[model.Tick]bool)}
}

func (s *fakeStore) InsertTicks(_ context.Context, ticks []model.Tick) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, append([]model.Tick(nil), ticks...))
	n := 0
	for _, t := range ticks {
		if !s.seen[t] {
			s.seen[t] = true
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) all() []model.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Tick
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func (s *fakeStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func tick(ts int64) model.Tick {
	return model.Tick{Symbol: "BTC-USD", Timestamp: ts, Price: float64(42000 + ts)}
}

func stop(t *testing.T, w *TickWriter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func TestTickWriter_FlushOnBatchSize(t *testing.T) {
	store := newFakeStore()
	w := NewTickWriter(WriterConfig{BatchSize: 3, FlushInterval: time.Hour, BufferSize: 16}, store, nil)
	require.NoError(t, w.Start(context.Background()))
	defer stop(t, w)

	for i := int64(1); i <= 3; i++ {
		w.RenderTick(tick(i), nil)
	}

	require.Eventually(t, func() bool { return store.batchCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []model.Tick{tick(1), tick(2), tick(3)}, store.all())
	assert.Equal(t, int64(3), w.Stats().Inserts)
}

func TestTickWriter_FlushOnInterval(t *testing.T) {
	store := newFakeStore()
	w := NewTickWriter(WriterConfig{BatchSize: 100, FlushInterval: 20 * time.Millisecond, BufferSize: 16}, store, nil)
	require.NoError(t, w.Start(context.Background()))
	defer stop(t, w)

	w.RenderTick(tick(1), nil)

	require.Eventually(t, func() bool { return len(store.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), w.Stats().Flushes)
}

func TestTickWriter_StopFlushesRemainder(t *testing.T) {
	store := newFakeStore()
	w := NewTickWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 16}, store, nil)
	require.NoError(t, w.Start(context.Background()))

	w.RenderTick(tick(1), nil)
	w.RenderTick(tick(2), nil)
	stop(t, w)

	assert.Equal(t, []model.Tick{tick(1), tick(2)}, store.all())
}

func TestTickWriter_Conflicts(t *testing.T) {
	store := newFakeStore()
	w := NewTickWriter(WriterConfig{BatchSize: 2, FlushInterval: time.Hour, BufferSize: 16}, store, nil)
	require.NoError(t, w.Start(context.Background()))
	defer stop(t, w)

	w.RenderTick(tick(1), nil)
	w.RenderTick(tick(1), nil)

	require.Eventually(t, func() bool { return w.Stats().Flushes == 1 }, time.Second, 5*time.Millisecond)
	stats := w.Stats()
	assert.Equal(t, int64(1), stats.Inserts)
	assert.Equal(t, int64(1), stats.Conflicts)
}

func TestTickWriter_InsertError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")
	w := NewTickWriter(WriterConfig{BatchSize: 1, FlushInterval: time.Hour, BufferSize: 16}, store, nil)
	require.NoError(t, w.Start(context.Background()))
	defer stop(t, w)

	w.RenderTick(tick(1), nil)

	require.Eventually(t, func() bool { return w.Stats().Errors == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, w.Stats().Inserts)
}

// gatedStore blocks each insert until released and fails if the insert's
// context was cancelled meanwhile.
type gatedStore struct {
	*fakeStore
	started chan struct{}
	release chan struct{}
}

func (s *gatedStore) InsertTicks(ctx context.Context, ticks []model.Tick) (int, error) {
	s.started <- struct{}{}
	<-s.release
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.fakeStore.InsertTicks(ctx, ticks)
}

func TestTickWriter_InsertInFlightSurvivesStop(t *testing.T) {
	store := &gatedStore{fakeStore: newFakeStore(), started: make(chan struct{}, 1), release: make(chan struct{})}
	w := NewTickWriter(WriterConfig{BatchSize: 1, FlushInterval: time.Hour, BufferSize: 16}, store, nil)
	require.NoError(t, w.Start(context.Background()))

	w.RenderTick(tick(1), nil)
	<-store.started

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		stopped <- w.Stop(ctx)
	}()

	// Stop cancels the writer before the insert finishes.
	require.Eventually(t, func() bool { return w.ctx.Err() != nil }, time.Second, time.Millisecond)
	close(store.release)

	require.NoError(t, <-stopped)
	assert.Equal(t, []model.Tick{tick(1)}, store.all())
	assert.Zero(t, w.Stats().Errors)
	assert.Equal(t, int64(1), w.Stats().Inserts)
}

func TestTickWriter_DropsWhenQueueFull(t *testing.T) {
	store := newFakeStore()
	// Not started: nothing consumes the queue.
	w := NewTickWriter(WriterConfig{BatchSize: 10, FlushInterval: time.Hour, BufferSize: 2}, store, nil)

	for i := int64(1); i <= 5; i++ {
		w.RenderTick(tick(i), nil)
	}

	assert.Equal(t, int64(3), w.Stats().Dropped)
}

func TestTickWriter_IgnoresOtherKinds(t *testing.T) {
	store := newFakeStore()
	w := NewTickWriter(WriterConfig{BatchSize: 1, FlushInterval: time.Hour, BufferSize: 4}, store, nil)

	w.RenderOrderBook(model.OrderBook{Symbol: "BTC-USD"})
	w.RenderPositions(nil)
	w.Reset("ETH-USD")

	assert.Zero(t, len(w.input))
}

func TestDefaultWriterConfig(t *testing.T) {
	cfg := DefaultWriterConfig()

	assert.Equal(t, config.DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, config.DefaultFlushInterval, cfg.FlushInterval)
	assert.Equal(t, config.DefaultBufferSize, cfg.BufferSize)
}

func TestWriterConfigFrom(t *testing.T) {
	cfg := WriterConfigFrom(config.ArchiveConfig{BatchSize: 50})

	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, config.DefaultFlushInterval, cfg.FlushInterval)
}
