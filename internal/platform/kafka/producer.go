// Package kafka wraps the franz-go producer used for the analytics event
// pipeline. The wrapper carries the bounded readiness gate the funnel
// requires: events are dropped, with a logged warning, when the pipeline
// never became ready — tracking is never allowed to block or fail a page.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"funnelgate/internal/platform/config"
)

// ReadyInterval and ReadyAttempts bound the readiness poll: one check every
// 100ms, ten attempts, then give up for the lifetime of the process.
const (
	ReadyInterval = 100 * time.Millisecond
	ReadyAttempts = 10
)

// Producer publishes analytics events to a single topic.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	ready  atomic.Bool
}

// NewProducer builds a producer for the configured brokers. Returns
// (nil, nil) when no brokers are configured; the analytics publisher treats
// a nil producer as "pipeline absent" and only archives events.
func NewProducer(cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	return &Producer{client: client, topic: cfg.Topic, logger: logger}, nil
}

// EnsureTopic creates the event topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(p.client)
	_, err := adm.CreateTopic(ctx, partitions, replicas, nil, p.topic)
	if err != nil && strings.Contains(err.Error(), "TOPIC_ALREADY_EXISTS") {
		return nil
	}
	return err
}

// WaitReady polls broker connectivity on a fixed interval with a fixed
// attempt budget. It returns true as soon as a ping succeeds; after the
// last attempt it logs a warning and returns false. Safe to call once at
// startup; Publish consults the recorded outcome afterwards.
func (p *Producer) WaitReady(ctx context.Context, interval time.Duration, attempts int) bool {
	for i := 0; i < attempts; i++ {
		if err := p.client.Ping(ctx); err == nil {
			p.ready.Store(true)
			return true
		}
		select {
		case <-ctx.Done():
			p.logger.WarnContext(ctx, "analytics pipeline readiness poll cancelled")
			return false
		case <-time.After(interval):
		}
	}
	p.logger.Warn("analytics pipeline not ready after retries",
		"attempts", attempts,
		"interval_ms", interval.Milliseconds(),
	)
	return false
}

// Ready reports whether the readiness poll ever succeeded.
func (p *Producer) Ready() bool {
	return p.ready.Load()
}

// Publish sends one event record, keyed for per-session ordering. Delivery
// is asynchronous and best-effort; failures are logged, never returned.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	if !p.ready.Load() {
		return fmt.Errorf("pipeline not ready")
	}
	record := &kgo.Record{Key: []byte(key), Value: value}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("event publish failed", "topic", p.topic, "error", err)
		}
	})
	return nil
}

// Close flushes outstanding records and releases the client.
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
