package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

func TestReconcile_Defaults(t *testing.T) {
	s := churnSchema(t)

	rec, err := model.Reconcile(s, model.RawCustomerRecord{})
	require.NoError(t, err)

	assert.Equal(t, s.Len(), rec.Len())
	assert.Equal(t, []float64{0, 0, 0}, rec.Numerical())
	assert.Equal(t, []string{"missing", "missing"}, rec.Categorical())
}

func TestReconcile_NilCountsAsAbsent(t *testing.T) {
	s := churnSchema(t)

	rec, err := model.Reconcile(s, model.RawCustomerRecord{"Tenure": nil, "Gender": nil})
	require.NoError(t, err)

	v, _ := rec.Value("Tenure")
	assert.Equal(t, 0.0, v)
	v, _ = rec.Value("Gender")
	assert.Equal(t, "missing", v)
}

func TestReconcile_CoercesNumericals(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{"float64", 4.5, 4.5},
		{"int", 7, 7},
		{"int64", int64(-3), -3},
		{"uint8", uint8(2), 2},
		{"float32", float32(0.5), 0.5},
		{"numeric string", "12.25", 12.25},
		{"padded numeric string", "  3 ", 3},
		{"json number", json.Number("159.93"), 159.93},
		{"true", true, 1},
		{"false", false, 0},
	}

	s := churnSchema(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := model.Reconcile(s, model.RawCustomerRecord{"CashbackAmount": tt.value})
			require.NoError(t, err)
			v, ok := rec.Value("CashbackAmount")
			require.True(t, ok)
			assert.InDelta(t, tt.expected, v, 1e-9)
		})
	}
}

func TestReconcile_RejectsUncoercibleNumericals(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"word", "abc"},
		{"empty string", ""},
		{"NaN", math.NaN()},
		{"infinity", math.Inf(1)},
		{"NaN string", "NaN"},
		{"slice", []any{1, 2}},
		{"object", map[string]any{"v": 1}},
	}

	s := churnSchema(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Reconcile(s, model.RawCustomerRecord{"Tenure": tt.value})
			require.Error(t, err)

			var rerr *model.ReconciliationError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, []string{"Tenure"}, rerr.FieldNames())

			var ferr *model.FieldCoercionError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, model.KindNumerical, ferr.Kind)
		})
	}
}

func TestReconcile_Categoricals(t *testing.T) {
	s := churnSchema(t)

	rec, err := model.Reconcile(s, model.RawCustomerRecord{"Gender": "Female", "MaritalStatus": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Female", "2"}, rec.Categorical())

	_, err = model.Reconcile(s, model.RawCustomerRecord{"Gender": []string{"Female"}})
	var rerr *model.ReconciliationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, model.KindCategorical, rerr.Fields[0].Kind)
}

func TestReconcile_ReportsEveryFailedFieldInCanonicalOrder(t *testing.T) {
	s := churnSchema(t)

	_, err := model.Reconcile(s, model.RawCustomerRecord{
		"MaritalStatus":  map[string]any{},
		"CashbackAmount": "lots",
		"Tenure":         "x",
	})

	var rerr *model.ReconciliationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"Tenure", "CashbackAmount", "MaritalStatus"}, rerr.FieldNames())
	assert.Contains(t, rerr.Error(), "3 field(s)")
}

func TestReconcile_DropsExtrasAndKeepsOrder(t *testing.T) {
	s := churnSchema(t)

	rec, err := model.Reconcile(s, model.RawCustomerRecord{
		"MaritalStatus":  "Single",
		"Extra":          "ignored",
		"CashbackAmount": 120.0,
		"Tenure":         3,
	})
	require.NoError(t, err)

	assert.Equal(t, []any{3.0, 0.0, 120.0, "missing", "Single"}, rec.Values())
	_, ok := rec.Value("Extra")
	assert.False(t, ok)
	assert.NotContains(t, rec.Map(), "Extra")
}

func TestReconcile_IsIdempotent(t *testing.T) {
	s := churnSchema(t)
	raw := model.RawCustomerRecord{"Tenure": "5", "Gender": "Male"}

	first, err := model.Reconcile(s, raw)
	require.NoError(t, err)
	second, err := model.Reconcile(s, raw)
	require.NoError(t, err)

	assert.Equal(t, first.Key(), second.Key())
	assert.Equal(t, first.Values(), second.Values())
}

func TestRecordBuilder_LaterSetOverridesFailure(t *testing.T) {
	s := churnSchema(t)

	rec, err := model.NewRecordBuilder(s).
		Set("Tenure", "bad").
		Set("Tenure", 9).
		Set("NotAColumn", "x").
		Build()
	require.NoError(t, err)

	v, _ := rec.Value("Tenure")
	assert.Equal(t, 9.0, v)
}

func TestReconciledRecord_KeyDistinguishesValues(t *testing.T) {
	s := churnSchema(t)

	a, err := model.Reconcile(s, model.RawCustomerRecord{"Gender": "Male"})
	require.NoError(t, err)
	b, err := model.Reconcile(s, model.RawCustomerRecord{"Gender": "Female"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Key(), b.Key())
}
