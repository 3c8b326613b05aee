package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	pgpkg "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/postgres"
)

const selectPrediction = `
	SELECT id, customer_id, source, model_version,
		predicted_label, churn_probability, confidence, risk_tier,
		fallback, fallback_stage, features, created_at
	FROM churn_predictions
`

// PredictionRepository implements port.PredictionRepository using PostgreSQL.
type PredictionRepository struct {
	pool *pgxpool.Pool
	db   pgpkg.Querier
}

// NewPredictionRepository creates a new PostgreSQL-backed prediction repository.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool, db: pool}
}

// Save inserts a prediction. Predictions are immutable, so saving the same
// ID twice is a no-op.
func (r *PredictionRepository) Save(ctx context.Context, p *model.Prediction) error {
	var features []byte
	if f := p.Features(); f != nil {
		var err error
		features, err = json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal features: %w", err)
		}
	}

	var customerID *string
	if p.CustomerID() != "" {
		id := p.CustomerID()
		customerID = &id
	}

	o := p.Outcome()
	_, err := r.db.Exec(ctx, `
		INSERT INTO churn_predictions (
			id, customer_id, source, model_version,
			predicted_label, churn_probability, confidence, risk_tier,
			fallback, fallback_stage, features, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`,
		p.ID(),
		customerID,
		p.Source(),
		p.ModelVersion(),
		o.Label.Int(),
		o.ChurnProbability,
		o.Confidence,
		o.Tier.String(),
		o.Fallback,
		string(o.FallbackStage),
		features,
		p.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// FindByID retrieves a prediction by its unique identifier.
func (r *PredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Prediction, error) {
	p, err := scanPrediction(r.db.QueryRow(ctx, selectPrediction+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", model.ErrPredictionNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// FindByCustomerID retrieves a customer's predictions, newest first.
func (r *PredictionRepository) FindByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*model.Prediction, error) {
	rows, err := r.db.Query(ctx,
		selectPrediction+` WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	return predictions, nil
}

// Ping checks database connectivity.
func (r *PredictionRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func scanPrediction(row pgx.Row) (*model.Prediction, error) {
	var (
		id            uuid.UUID
		customerID    *string
		source        string
		modelVersion  string
		label         int
		pChurn        float64
		confidence    float64
		tierStr       string
		fallback      bool
		stageStr      string
		featuresJSON  []byte
		createdAt     time.Time
		featuresValue map[string]any
	)

	err := row.Scan(
		&id, &customerID, &source, &modelVersion,
		&label, &pChurn, &confidence, &tierStr,
		&fallback, &stageStr, &featuresJSON, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	churnLabel, err := valueobject.ChurnLabelFromInt(label)
	if err != nil {
		return nil, fmt.Errorf("failed to parse label: %w", err)
	}
	tier, err := valueobject.RiskTierFromString(tierStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse risk tier: %w", err)
	}
	stage, err := valueobject.FallbackStageFromString(stageStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback stage: %w", err)
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &featuresValue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal features: %w", err)
		}
	}

	var customer string
	if customerID != nil {
		customer = *customerID
	}

	outcome := valueobject.PredictionOutcome{
		Label:            churnLabel,
		ChurnProbability: pChurn,
		Confidence:       confidence,
		Tier:             tier,
		Fallback:         fallback,
		FallbackStage:    stage,
	}
	return model.ReconstructPrediction(id, customer, source, modelVersion, outcome, featuresValue, createdAt), nil
}
