package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/service"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
)

// --- Mock implementations ---

type mockPredictionRepository struct {
	saved            []*model.Prediction
	saveFunc         func(ctx context.Context, p *model.Prediction) error
	findByIDFunc     func(ctx context.Context, id uuid.UUID) (*model.Prediction, error)
	findByCustomerFn func(ctx context.Context, customerID string, limit, offset int) ([]*model.Prediction, error)
}

func (m *mockPredictionRepository) Save(ctx context.Context, p *model.Prediction) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, p)
	}
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockPredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Prediction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrPredictionNotFound
}

func (m *mockPredictionRepository) FindByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*model.Prediction, error) {
	if m.findByCustomerFn != nil {
		return m.findByCustomerFn(ctx, customerID, limit, offset)
	}
	return nil, nil
}

func (m *mockPredictionRepository) Ping(_ context.Context) error { return nil }

type mockEventPublisher struct {
	published   []events.DomainEvent
	publishFunc func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.published = append(m.published, evts...)
	return nil
}

type mockMetrics struct {
	mu          sync.Mutex
	predictions []valueobject.PredictionOutcome
	failures    []string
}

func (m *mockMetrics) RecordPrediction(_ context.Context, _ string, o valueobject.PredictionOutcome, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, o)
}

func (m *mockMetrics) RecordSideEffectFailure(_ context.Context, op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, op)
}

type fixedModel struct {
	pChurn float64
}

func (m fixedModel) Transform(_ context.Context, r model.ReconciledRecord) ([]float64, error) {
	return r.Numerical(), nil
}

func (m fixedModel) Infer(_ context.Context, _ []float64) (int, []float64, error) {
	label := 0
	if m.pChurn > 0.5 {
		label = 1
	}
	return label, []float64{1 - m.pChurn, m.pChurn}, nil
}

func (m fixedModel) Version() string { return "2024.1" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(t *testing.T, pChurn float64) *service.InferenceReconciler {
	t.Helper()
	schema, err := model.NewFeatureSchema([]string{"Tenure", "Complain"}, []string{"Gender"})
	require.NoError(t, err)
	r, err := service.NewInferenceReconciler(schema, fixedModel{pChurn: pChurn}, discardLogger())
	require.NoError(t, err)
	return r
}
