package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/event"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
)

// LogPublisher implements port.EventPublisher by writing events to the log.
// It stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new log-only event publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event's envelope. High risk and degraded events are
// logged at Info, the rest at Debug.
func (p *LogPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	for _, evt := range evts {
		env, err := events.NewEnvelope(evt)
		if err != nil {
			return fmt.Errorf("failed to wrap event %s: %w", evt.EventType(), err)
		}
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", evt.EventType(), err)
		}

		level := slog.LevelDebug
		if evt.EventType() != event.EventTypePredictionCompleted {
			level = slog.LevelInfo
		}
		p.logger.Log(ctx, level, "domain event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID().String()),
			slog.String("payload", string(payload)),
		)
	}
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
