package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/port"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/service"
)

const tracerName = "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/usecase"

// PredictChurn is the use case for scoring one customer record.
type PredictChurn struct {
	reconciler *service.InferenceReconciler
	repo       port.PredictionRepository
	publisher  port.EventPublisher
	metrics    port.PredictionMetrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewPredictChurn creates a new PredictChurn use case.
func NewPredictChurn(
	reconciler *service.InferenceReconciler,
	repo port.PredictionRepository,
	publisher port.EventPublisher,
	metrics port.PredictionMetrics,
	logger *slog.Logger,
) *PredictChurn {
	return &PredictChurn{
		reconciler: reconciler,
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Execute scores the record and records the prediction. The returned response
// is always usable: scoring failures produce the fallback outcome, and
// persistence or publishing failures are logged without affecting it.
func (uc *PredictChurn) Execute(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error) {
	source := req.Source
	if source == "" {
		source = model.SourceREST
	}

	ctx, span := uc.tracer.Start(ctx, "PredictChurn.Execute",
		trace.WithAttributes(attribute.String("churn.source", source)))
	defer span.End()

	// 1. Score the record through the reconciler.
	start := time.Now()
	eval := uc.reconciler.Evaluate(ctx, model.RawCustomerRecord(req.Features))
	if abandoned(ctx, eval.Err) {
		span.RecordError(eval.Err)
		return dto.PredictionResponse{}, fmt.Errorf("prediction abandoned: %w", ctx.Err())
	}
	uc.metrics.RecordPrediction(ctx, source, eval.Outcome, time.Since(start))

	span.SetAttributes(
		attribute.String("churn.risk_level", eval.Outcome.Tier.String()),
		attribute.Bool("churn.fallback", eval.Outcome.Fallback),
	)
	if eval.Err != nil {
		span.RecordError(eval.Err)
	}

	// 2. Create the prediction aggregate.
	var features map[string]any
	if eval.Record != nil {
		features = eval.Record.Map()
	}
	prediction, err := model.NewPrediction(req.CustomerID, source, uc.reconciler.ModelVersion(), eval.Outcome, features)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to create prediction: %w", err)
	}

	// 3. Persist the prediction.
	if err := uc.repo.Save(ctx, prediction); err != nil {
		uc.metrics.RecordSideEffectFailure(ctx, "save")
		uc.logger.Error("failed to save prediction",
			"prediction_id", prediction.ID(),
			"error", err,
		)
	}

	// 4. Publish domain events.
	events := prediction.DomainEvents()
	if len(events) > 0 {
		if err := uc.publisher.Publish(ctx, events...); err != nil {
			uc.metrics.RecordSideEffectFailure(ctx, "publish")
			uc.logger.Error("failed to publish prediction events",
				"prediction_id", prediction.ID(),
				"error", err,
			)
		}
	}

	return dto.FromModel(prediction), nil
}

// abandoned reports whether a fallback was caused by the caller going away
// rather than by the record or the model. Such outcomes are not recorded, so
// a redelivered request is not stored twice.
func abandoned(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
