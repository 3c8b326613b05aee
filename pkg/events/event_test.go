package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
)

type scored struct {
	events.BaseEvent
	Score float64 `json:"score"`
}

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := events.NewBaseEvent("thing.scored", aggregateID, "Thing")
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "thing.scored", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "Thing", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ events.DomainEvent = events.BaseEvent{}
	var _ events.DomainEvent = scored{}
}

func TestNewEnvelope(t *testing.T) {
	evt := scored{BaseEvent: events.NewBaseEvent("thing.scored", uuid.New(), "Thing"), Score: 0.25}

	env, err := events.NewEnvelope(evt)
	require.NoError(t, err)

	assert.Equal(t, evt.EventID(), env.ID)
	assert.Equal(t, "thing.scored", env.Type)
	assert.Equal(t, evt.AggregateID(), env.AggregateID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, 0.25, payload["score"])
}

func TestEventCollector(t *testing.T) {
	var c events.EventCollector
	assert.Empty(t, c.Pending())

	c.Record(events.NewBaseEvent("a", uuid.New(), "Thing"))
	c.Record(events.NewBaseEvent("b", uuid.New(), "Thing"))
	assert.Len(t, c.Pending(), 2)

	drained := c.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].EventType())
	assert.Empty(t, c.Drain())
}
