//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/event"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/kafka"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
	pkgkafka "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/kafka"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/testutil"
)

func TestPublisher_AgainstBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc := testutil.StartKafka(ctx, t, "churn.events")

	producer, err := pkgkafka.NewProducer(pkgkafka.Config{Brokers: kc.Brokers})
	require.NoError(t, err)
	pub := kafka.NewPublisher(producer, "churn.events", discardLogger())
	defer pub.Close()

	p, err := model.NewPrediction(testutil.TestCustomerID, model.SourceKafka, "v1",
		valueobject.FallbackOutcome(valueobject.StageTransform), nil)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, p.DomainEvents()...))

	reader := kafkago.NewReader(kafkago.ReaderConfig{Brokers: kc.Brokers, Topic: "churn.events"})
	defer reader.Close()

	var types []string
	for i := 0; i < 2; i++ {
		m, err := reader.ReadMessage(ctx)
		require.NoError(t, err)

		var env events.Envelope
		require.NoError(t, json.Unmarshal(m.Value, &env))
		assert.Equal(t, p.ID(), env.AggregateID)
		types = append(types, env.Type)
	}
	assert.Equal(t, []string{event.EventTypePredictionCompleted, event.EventTypePredictionDegraded}, types)
}
