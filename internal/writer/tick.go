package writer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/database"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/logging"
	"github.com/rickgao/forwards-feed/internal/model"
)

// flushTimeout bounds one store insert. Inserts run detached from the
// writer's lifecycle; Stop waits for them.
const flushTimeout = 10 * time.Second

// WriterConfig controls batching.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultWriterConfig returns the archive defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     config.DefaultBatchSize,
		FlushInterval: config.DefaultFlushInterval,
		BufferSize:    config.DefaultBufferSize,
	}
}

// WriterConfigFrom converts the archive section of the config.
func WriterConfigFrom(cfg config.ArchiveConfig) WriterConfig {
	out := DefaultWriterConfig()
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	if cfg.FlushInterval > 0 {
		out.FlushInterval = cfg.FlushInterval
	}
	if cfg.BufferSize > 0 {
		out.BufferSize = cfg.BufferSize
	}
	return out
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Dropped   int64
}

// TickWriter batches ticks into a TickStore.
type TickWriter struct {
	feed.NopRenderer

	cfg    WriterConfig
	logger *zap.Logger
	store  database.TickStore

	// Input from the feed
	input chan model.Tick

	// Batching
	batch       []model.Tick
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewTickWriter creates a new TickWriter.
func NewTickWriter(cfg WriterConfig, store database.TickStore, logger *zap.Logger) *TickWriter {
	logger = logging.OrNop(logger)
	def := DefaultWriterConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	return &TickWriter{
		cfg:    cfg,
		store:  store,
		logger: logger.With(zap.String("component", "tick_writer")),
		input:  make(chan model.Tick, cfg.BufferSize),
		batch:  make([]model.Tick, 0, cfg.BatchSize),
	}
}

// RenderTick enqueues the tick without blocking.
func (w *TickWriter) RenderTick(tick model.Tick, _ []model.Tick) {
	select {
	case w.input <- tick:
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
	}
}

// Start begins consuming ticks and writing to the store.
func (w *TickWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("tick writer started",
		zap.Int("batch_size", w.cfg.BatchSize),
		zap.Duration("flush_interval", w.cfg.FlushInterval),
	)
	return nil
}

// Stop flushes queued ticks. The store is left open.
func (w *TickWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping tick writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("tick writer stopped")
	case <-ctx.Done():
		w.logger.Warn("tick writer stop timed out")
		return ctx.Err()
	}

	// Anything still queued goes into the final flush.
	w.drain()
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *TickWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input queue and accumulates batches.
func (w *TickWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case tick := <-w.input:
			w.handleTick(tick)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *TickWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flushDetached()
		}
	}
}

func (w *TickWriter) drain() {
	for {
		select {
		case tick := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, tick)
			w.batchMu.Unlock()
		default:
			return
		}
	}
}

// handleTick adds a tick to the batch.
func (w *TickWriter) handleTick(tick model.Tick) {
	w.batchMu.Lock()
	w.batch = append(w.batch, tick)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flushDetached()
	}
}

// flushDetached flushes with a context that survives Stop's cancellation.
func (w *TickWriter) flushDetached() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), flushTimeout)
	defer cancel()
	w.flush(ctx)
}

// flush writes the current batch to the store.
func (w *TickWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]model.Tick, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	inserted, err := w.store.InsertTicks(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", zap.Error(err), zap.Int("count", len(batch)))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	conflicts := len(batch) - inserted
	w.batchMu.Lock()
	w.metrics.Inserts += int64(inserted)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed ticks",
		zap.Int("count", len(batch)),
		zap.Int("conflicts", conflicts),
		zap.Duration("duration", time.Since(start)),
	)
}
