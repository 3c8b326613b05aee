package messaging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/messaging"
)

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pub := messaging.NewLogPublisher(logger)

	p, err := model.NewPrediction("CUST-1", model.SourceForm, "v1",
		valueobject.FallbackOutcome(valueobject.StageReconcile), nil)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), p.DomainEvents()...))

	out := buf.String()
	assert.Contains(t, out, "churn.prediction.degraded")
	assert.NotContains(t, out, "event_type=churn.prediction.completed")
	assert.Contains(t, out, p.ID().String())
	assert.NoError(t, pub.Close())
}
