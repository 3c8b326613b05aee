package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/port"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
)

// probabilitySumTolerance bounds how far p(stay)+p(churn) may drift from 1.
const probabilitySumTolerance = 1e-6

// Evaluation is the full result of scoring one raw record.
type Evaluation struct {
	Outcome valueobject.PredictionOutcome

	// Record is the reconciled row that was scored; nil if reconciliation failed.
	Record *model.ReconciledRecord

	// Err is the cause of a fallback outcome.
	Err error
}

// InferenceReconciler turns arbitrary customer records into predictions from
// a fixed-schema model. It never returns an error to its caller: any failure
// yields the fallback outcome. Safe for concurrent use.
type InferenceReconciler struct {
	schema  *model.FeatureSchema
	model   port.ChurnModel
	timeout time.Duration
	logger  *slog.Logger
}

// ReconcilerOption configures an InferenceReconciler.
type ReconcilerOption func(*InferenceReconciler)

// WithTimeout bounds each transform+infer call. Zero disables the bound.
func WithTimeout(d time.Duration) ReconcilerOption {
	return func(r *InferenceReconciler) { r.timeout = d }
}

// NewInferenceReconciler creates the reconciler from a loaded schema and model.
func NewInferenceReconciler(
	schema *model.FeatureSchema,
	churnModel port.ChurnModel,
	logger *slog.Logger,
	opts ...ReconcilerOption,
) (*InferenceReconciler, error) {
	if schema == nil {
		return nil, fmt.Errorf("feature schema is required")
	}
	if churnModel == nil {
		return nil, fmt.Errorf("churn model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &InferenceReconciler{
		schema: schema,
		model:  churnModel,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Schema returns the schema records are reconciled against.
func (r *InferenceReconciler) Schema() *model.FeatureSchema {
	return r.schema
}

// ModelVersion returns the version of the loaded model bundle.
func (r *InferenceReconciler) ModelVersion() string {
	return r.model.Version()
}

// Predict scores raw and returns the outcome, falling back to
// (stay, 0.5, 0.5) on any failure.
func (r *InferenceReconciler) Predict(ctx context.Context, raw model.RawCustomerRecord) valueobject.PredictionOutcome {
	return r.Evaluate(ctx, raw).Outcome
}

// Evaluate is Predict with the reconciled record and failure cause attached.
func (r *InferenceReconciler) Evaluate(ctx context.Context, raw model.RawCustomerRecord) Evaluation {
	record, err := model.Reconcile(r.schema, raw)
	if err != nil {
		return r.fallback(valueobject.StageReconcile, err, nil)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var features []float64
	err = guard(ctx, func() error {
		var terr error
		features, terr = r.model.Transform(ctx, record)
		return terr
	})
	if err != nil {
		var te *model.TransformError
		if !errors.As(err, &te) {
			err = &model.TransformError{Err: err}
		}
		return r.fallback(valueobject.StageTransform, err, &record)
	}

	var (
		label int
		probs []float64
	)
	err = guard(ctx, func() error {
		var ierr error
		label, probs, ierr = r.model.Infer(ctx, features)
		return ierr
	})
	if err == nil {
		err = validateInference(label, probs)
	}
	if err != nil {
		var ie *model.ModelInferenceError
		if !errors.As(err, &ie) {
			err = &model.ModelInferenceError{Err: err}
		}
		return r.fallback(valueobject.StageInfer, err, &record)
	}

	churnLabel, _ := valueobject.ChurnLabelFromInt(label)
	return Evaluation{
		Outcome: valueobject.NewPredictionOutcome(churnLabel, probs[0], probs[1]),
		Record:  &record,
	}
}

func (r *InferenceReconciler) fallback(stage valueobject.FallbackStage, err error, record *model.ReconciledRecord) Evaluation {
	attrs := []any{"stage", string(stage), "error", err}
	var rerr *model.ReconciliationError
	if errors.As(err, &rerr) {
		attrs = append(attrs, "fields", rerr.FieldNames())
	}
	r.logger.Warn("prediction failed, returning fallback outcome", attrs...)

	return Evaluation{
		Outcome: valueobject.FallbackOutcome(stage),
		Record:  record,
		Err:     err,
	}
}

func validateInference(label int, probs []float64) error {
	if _, err := valueobject.ChurnLabelFromInt(label); err != nil {
		return err
	}
	if len(probs) != 2 {
		return fmt.Errorf("expected 2 class probabilities, got %d", len(probs))
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("class %d probability %v outside [0, 1]", i, p)
		}
	}
	if math.Abs(probs[0]+probs[1]-1) > probabilitySumTolerance {
		return fmt.Errorf("class probabilities sum to %v", probs[0]+probs[1])
	}
	return nil
}

// guard runs fn, converting a panic into an error and abandoning fn once ctx
// is done. An abandoned fn keeps running but its results are discarded.
func guard(ctx context.Context, fn func() error) error {
	if ctx.Done() == nil {
		return call(fn)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- call(fn) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func call(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
