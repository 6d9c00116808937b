// Package analytics builds tracking payloads and publishes funnel events.
// The pipeline is strictly best-effort: a missing broker, an unready
// producer or a failed archive write is logged and absorbed — tracking can
// never degrade the page.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"funnelgate/internal/platform/metrics"
)

// Event names emitted by the funnel.
const (
	EventPageView          = "page_view"
	EventQuizStart         = "quiz_start"
	EventPartialQuizSubmit = "partial_quiz_submit"
	EventButtonClick       = "button_click"
)

// Event is one tracked occurrence, archived as emitted.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	SessionID string         `json:"session_id"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink is the event pipeline (Kafka in production). Ready reflects the
// bounded readiness poll taken at startup.
type Sink interface {
	Ready() bool
	Publish(ctx context.Context, key string, value []byte) error
}

// Archive persists events for offline replay.
type Archive interface {
	Append(ctx context.Context, event Event) error
}

// Publisher fans one event out to the sink and the archive. Either
// dependency may be nil; absence only narrows where events land.
type Publisher struct {
	sink    Sink
	archive Archive
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewPublisher(sink Sink, archive Archive, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{sink: sink, archive: archive, logger: logger, metrics: m}
}

// Emit publishes one named event. The record key is the session id so a
// visitor's events stay ordered through the pipeline. Never returns an
// error; every failure mode is logged and counted.
func (p *Publisher) Emit(ctx context.Context, name, sessionID string, payload map[string]any) {
	event := Event{
		ID:        uuid.NewString(),
		Name:      name,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	if p.archive != nil {
		if err := p.archive.Append(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "event archive write failed", "event", name, "error", err)
		}
	}

	if p.sink == nil {
		return
	}
	if !p.sink.Ready() {
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		p.logger.WarnContext(ctx, "event dropped, pipeline not ready", "event", name)
		return
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		p.logger.WarnContext(ctx, "event marshal failed", "event", name, "error", err)
		return
	}
	if err := p.sink.Publish(ctx, sessionID, encoded); err != nil {
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		p.logger.WarnContext(ctx, "event publish failed", "event", name, "error", err)
		return
	}
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(name).Inc()
	}
}
