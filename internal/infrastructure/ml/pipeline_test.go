package ml_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/service"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/ml"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/testutil"
)

var (
	numericalCols   = testutil.NumericalColumns
	categoricalCols = testutil.CategoricalColumns
)

func demoCustomer() model.RawCustomerRecord {
	return model.RawCustomerRecord(testutil.DemoCustomer())
}

func churnSchema(t *testing.T) *model.FeatureSchema {
	t.Helper()
	s, err := model.NewFeatureSchema(numericalCols, categoricalCols)
	require.NoError(t, err)
	return s
}

func loadPipeline(t *testing.T) *ml.Pipeline {
	t.Helper()
	f, err := os.Open("../../../configs/churn_model.json")
	require.NoError(t, err)
	defer f.Close()

	bundle, err := ml.DecodeBundle(f)
	require.NoError(t, err)

	p, err := ml.NewPipeline(churnSchema(t), bundle)
	require.NoError(t, err)
	return p
}

func newReconciler(t *testing.T, m *ml.Pipeline) *service.InferenceReconciler {
	t.Helper()
	r, err := service.NewInferenceReconciler(churnSchema(t), m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func TestPipeline_DemoCustomerEndToEnd(t *testing.T) {
	p := loadPipeline(t)
	r := newReconciler(t, p)

	o := r.Predict(context.Background(), demoCustomer())

	assert.False(t, o.Fallback)
	assert.Equal(t, valueobject.LabelStay, o.Label)
	assert.Greater(t, o.ChurnProbability, 0.40)
	assert.Less(t, o.ChurnProbability, 0.50)
	assert.InDelta(t, 1-o.ChurnProbability, o.Confidence, 1e-12)
	assert.True(t, valueobject.RiskTierMedium.Equal(o.Tier))
	assert.Equal(t, "logreg-2024.05", p.Version())
}

func TestPipeline_InferReturnsProbabilityPair(t *testing.T) {
	p := loadPipeline(t)
	record, err := model.Reconcile(churnSchema(t), demoCustomer())
	require.NoError(t, err)

	x, err := p.Transform(context.Background(), record)
	require.NoError(t, err)
	assert.Len(t, x, len(p.FeatureNames()))

	label, probs, err := p.Infer(context.Background(), x)
	require.NoError(t, err)
	require.Len(t, probs, 2)
	testutil.AssertProbabilityPair(t, probs[0], probs[1])
	assert.Equal(t, 0, label)
}

func TestPipeline_EmptyRecordUsesDefaults(t *testing.T) {
	r := newReconciler(t, loadPipeline(t))

	o := r.Predict(context.Background(), model.RawCustomerRecord{})

	assert.False(t, o.Fallback)
	assert.True(t, valueobject.RiskTierLow.Equal(o.Tier))
}

func TestPipeline_MissingFieldSubsetsNeverFallBack(t *testing.T) {
	r := newReconciler(t, loadPipeline(t))
	full := demoCustomer()
	cols := append(append([]string(nil), numericalCols...), categoricalCols...)

	for drop := 0; drop < len(cols); drop++ {
		raw := model.RawCustomerRecord{}
		for i, c := range cols {
			if i%(drop+1) != 0 {
				raw[c] = full[c]
			}
		}
		o := r.Predict(context.Background(), raw)
		assert.False(t, o.Fallback)
		assert.GreaterOrEqual(t, o.ChurnProbability, 0.0)
		assert.LessOrEqual(t, o.ChurnProbability, 1.0)
	}
}

func TestPipeline_UncoercibleFieldFallsBack(t *testing.T) {
	r := newReconciler(t, loadPipeline(t))
	raw := demoCustomer()
	raw["Tenure"] = "abc"

	o := r.Predict(context.Background(), raw)

	assert.True(t, o.Fallback)
	assert.Equal(t, 0.5, o.ChurnProbability)
	assert.True(t, valueobject.RiskTierMedium.Equal(o.Tier))
}

func TestPipeline_UnknownCategoryIsIgnored(t *testing.T) {
	p := loadPipeline(t)
	rec, err := model.Reconcile(churnSchema(t), model.RawCustomerRecord{"Gender": "Other"})
	require.NoError(t, err)

	v, err := p.Transform(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, v, 34)

	names := p.FeatureNames()
	for i, name := range names {
		if strings.HasPrefix(name, "cat__") {
			assert.Zero(t, v[i], name)
		}
	}
}

func TestPipeline_TransformOneHotPositions(t *testing.T) {
	p := loadPipeline(t)
	rec, err := model.Reconcile(churnSchema(t), demoCustomer())
	require.NoError(t, err)

	v, err := p.Transform(context.Background(), rec)
	require.NoError(t, err)

	names := p.FeatureNames()
	hot := map[string]bool{}
	for i, name := range names {
		if strings.HasPrefix(name, "cat__") && v[i] == 1 {
			hot[name] = true
		}
	}
	assert.Equal(t, map[string]bool{
		"cat__PreferredLoginDevice_Phone":      true,
		"cat__PreferredPaymentMode_Debit Card": true,
		"cat__Gender_Male":                     true,
		"cat__PreferedOrderCat_Fashion":        true,
		"cat__MaritalStatus_Married":           true,
	}, hot)
	assert.InDelta(t, (9.0-10.19)/8.56, v[0], 1e-12)
}

func TestPipeline_InferRejectsWrongWidth(t *testing.T) {
	p := loadPipeline(t)

	_, _, err := p.Infer(context.Background(), []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestPipeline_HonoursCancelledContext(t *testing.T) {
	p := loadPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Infer(ctx, make([]float64, 34))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Categories(t *testing.T) {
	cats := loadPipeline(t).Categories()

	assert.Len(t, cats, 5)
	assert.Equal(t, []string{"Female", "Male"}, cats["Gender"])
	assert.Equal(t, []string{"Divorced", "Married", "Single"}, cats["MaritalStatus"])

	cats["Gender"][0] = "changed"
	assert.Equal(t, "Female", loadPipeline(t).Categories()["Gender"][0])
}
