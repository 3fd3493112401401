package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/logging"
	"github.com/rickgao/forwards-feed/internal/model"
)

// Producer is the subset of *kgo.Client the publisher uses.
type Producer interface {
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// NewKafkaClient creates a producer client for cfg.
func NewKafkaClient(cfg config.StreamConfig) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.LeaderAck()),
		kgo.DisableIdempotentWrite(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return client, nil
}

// Stats counts produce outcomes.
type Stats struct {
	Produced int64
	Errors   int64
}

// TickPublisher produces ticks without blocking the feed.
type TickPublisher struct {
	feed.NopRenderer

	producer Producer
	topic    string
	logger   *zap.Logger
	ctx      context.Context

	produced atomic.Int64
	errors   atomic.Int64
}

// NewTickPublisher creates a publisher for topic. An empty topic uses the default.
func NewTickPublisher(producer Producer, topic string, logger *zap.Logger) *TickPublisher {
	logger = logging.OrNop(logger)
	if topic == "" {
		topic = config.DefaultStreamTopic
	}
	logger = logger.With(zap.String("component", "tick_publisher"), zap.String("topic", topic))
	logger.Info("tick publisher initialized")
	return &TickPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// RenderTick produces tick keyed by its symbol.
func (p *TickPublisher) RenderTick(tick model.Tick, _ []model.Tick) {
	data, err := json.Marshal(tick)
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("failed to encode tick", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(tick.Symbol),
		Value: data,
	}
	p.producer.TryProduce(p.ctx, record, p.onProduced)
}

func (p *TickPublisher) onProduced(r *kgo.Record, err error) {
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("failed to produce tick", zap.ByteString("symbol", r.Key), zap.Error(err))
		return
	}
	p.produced.Add(1)
}

// Stats returns produce counters.
func (p *TickPublisher) Stats() Stats {
	return Stats{Produced: p.produced.Load(), Errors: p.errors.Load()}
}

// Close flushes buffered records and closes the producer.
func (p *TickPublisher) Close(ctx context.Context) error {
	err := p.producer.Flush(ctx)
	p.producer.Close()
	stats := p.Stats()
	p.logger.Info("tick publisher closed",
		zap.Int64("produced", stats.Produced),
		zap.Int64("errors", stats.Errors),
	)
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
