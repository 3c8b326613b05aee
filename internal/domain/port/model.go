package port

import (
	"context"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

// ChurnModel is the fitted preprocessing transform plus classifier, treated
// as a black box. Implementations must be safe for concurrent use.
type ChurnModel interface {
	// Transform turns a reconciled record into the classifier's feature vector.
	Transform(ctx context.Context, record model.ReconciledRecord) ([]float64, error)

	// Infer returns the predicted label (0 stay, 1 churn) and the class
	// probabilities ordered [stay, churn].
	Infer(ctx context.Context, features []float64) (label int, probabilities []float64, err error)

	// Version identifies the loaded bundle.
	Version() string
}
