package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
)

// PredictionRepository defines the persistence port for the prediction audit log.
type PredictionRepository interface {
	// Save persists a prediction.
	Save(ctx context.Context, prediction *model.Prediction) error

	// FindByID retrieves a prediction by its unique identifier.
	// It returns model.ErrPredictionNotFound when none exists.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prediction, error)

	// FindByCustomerID retrieves the most recent predictions for a customer, newest first.
	FindByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*model.Prediction, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
