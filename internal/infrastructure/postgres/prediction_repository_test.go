//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/postgres"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/testutil"
)

func setupRepo(t *testing.T) *postgres.PredictionRepository {
	t.Helper()
	ctx := context.Background()

	pc := testutil.StartPostgres(ctx, t, postgres.Migrations, postgres.MigrationsDir)
	return postgres.NewPredictionRepository(pc.Pool)
}

func TestPredictionRepository(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	high, err := model.NewPrediction(testutil.TestCustomerID, model.SourceREST, "logreg-2024.05",
		valueobject.NewPredictionOutcome(valueobject.LabelChurn, 0.2, 0.8), testutil.DemoCustomer())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, high))

	t.Run("round trips a prediction", func(t *testing.T) {
		got, err := repo.FindByID(ctx, high.ID())
		require.NoError(t, err)

		assert.Equal(t, high.ID(), got.ID())
		assert.Equal(t, testutil.TestCustomerID, got.CustomerID())
		assert.Equal(t, model.SourceREST, got.Source())
		assert.Equal(t, "logreg-2024.05", got.ModelVersion())
		assert.Equal(t, valueobject.LabelChurn, got.Outcome().Label)
		assert.InDelta(t, 0.8, got.Outcome().ChurnProbability, 1e-12)
		assert.True(t, valueobject.RiskTierHigh.Equal(got.Outcome().Tier))
		assert.Equal(t, "Married", got.Features()["MaritalStatus"])
		assert.WithinDuration(t, high.CreatedAt(), got.CreatedAt(), time.Millisecond)
	})

	t.Run("saving twice is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.Save(ctx, high))
	})

	t.Run("persists fallbacks and anonymous requests", func(t *testing.T) {
		fb, err := model.NewPrediction("", model.SourceKafka, "logreg-2024.05",
			valueobject.FallbackOutcome(valueobject.StageInfer), nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, fb))

		got, err := repo.FindByID(ctx, fb.ID())
		require.NoError(t, err)
		assert.Empty(t, got.CustomerID())
		assert.True(t, got.Outcome().Fallback)
		assert.Equal(t, valueobject.StageInfer, got.Outcome().FallbackStage)
		assert.Nil(t, got.Features())
	})

	t.Run("lists a customer's predictions newest first", func(t *testing.T) {
		low, err := model.NewPrediction(testutil.TestCustomerID, model.SourceGRPC, "logreg-2024.05",
			valueobject.NewPredictionOutcome(valueobject.LabelStay, 0.9, 0.1), nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, low))

		list, err := repo.FindByCustomerID(ctx, testutil.TestCustomerID, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, low.ID(), list[0].ID())
		assert.Equal(t, high.ID(), list[1].ID())

		page, err := repo.FindByCustomerID(ctx, testutil.TestCustomerID, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, high.ID(), page[0].ID())

		none, err := repo.FindByCustomerID(ctx, testutil.TestOtherCustomerID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrPredictionNotFound)
	})
}
