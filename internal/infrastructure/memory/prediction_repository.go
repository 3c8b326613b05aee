package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

// DefaultCapacity bounds the store when none is configured.
const DefaultCapacity = 10000

// PredictionRepository keeps the most recent predictions in process memory.
// It is used when no database is configured. The oldest prediction is
// evicted once capacity is reached.
type PredictionRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*model.Prediction
	order    []uuid.UUID
	capacity int
}

// NewPredictionRepository creates an empty store holding at most capacity predictions.
func NewPredictionRepository(capacity int) *PredictionRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &PredictionRepository{
		byID:     make(map[uuid.UUID]*model.Prediction),
		capacity: capacity,
	}
}

func (r *PredictionRepository) Save(_ context.Context, p *model.Prediction) error {
	if p == nil {
		return fmt.Errorf("prediction is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID()]; ok {
		return nil
	}
	if len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
	}
	r.byID[p.ID()] = p
	r.order = append(r.order, p.ID())
	return nil
}

func (r *PredictionRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrPredictionNotFound, id)
	}
	return p, nil
}

func (r *PredictionRepository) FindByCustomerID(_ context.Context, customerID string, limit, offset int) ([]*model.Prediction, error) {
	r.mu.RLock()
	var matches []*model.Prediction
	for _, id := range r.order {
		if p := r.byID[id]; p.CustomerID() == customerID {
			matches = append(matches, p)
		}
	}
	r.mu.RUnlock()

	// Newest first; insertion order breaks ties between equal timestamps.
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt().After(matches[j].CreatedAt())
	})

	if offset >= len(matches) {
		return nil, nil
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *PredictionRepository) Ping(context.Context) error { return nil }

// Len reports how many predictions are held.
func (r *PredictionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
