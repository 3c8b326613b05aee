package usecase

import (
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/service"
)

// DescribeSchema reports the input fields the loaded model accepts.
type DescribeSchema struct {
	reconciler   *service.InferenceReconciler
	featureNames []string
}

// NewDescribeSchema creates a new DescribeSchema use case. featureNames are
// the transformed feature names of the model and may be nil.
func NewDescribeSchema(reconciler *service.InferenceReconciler, featureNames []string) *DescribeSchema {
	return &DescribeSchema{reconciler: reconciler, featureNames: featureNames}
}

// Execute returns the schema description.
func (uc *DescribeSchema) Execute() dto.SchemaResponse {
	return dto.FromSchema(uc.reconciler.Schema(), uc.reconciler.ModelVersion(), uc.featureNames)
}
