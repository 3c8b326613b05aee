package ml

import (
	"encoding/json"
	"fmt"
	"io"
)

// Bundle is the exported form of a fitted preprocessing transform and classifier.
type Bundle struct {
	Version      string           `json:"version"`
	Preprocessor PreprocessorSpec `json:"preprocessor"`
	Model        ClassifierSpec   `json:"model"`
}

// PreprocessorSpec holds the fitted parameters of the column transformer:
// a standard scaler over the numerical columns and a one-hot encoder over the
// categorical columns, in schema order.
type PreprocessorSpec struct {
	Numerical   ScalerSpec  `json:"numerical"`
	Categorical EncoderSpec `json:"categorical"`
}

// ScalerSpec holds per-column mean and scale. Both empty means passthrough.
type ScalerSpec struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// EncoderSpec holds the known categories per column.
type EncoderSpec struct {
	Categories    [][]string `json:"categories"`
	HandleUnknown string     `json:"handle_unknown"`
}

// Classifier types a bundle may carry.
const (
	TypeLogisticRegression = "logistic_regression"
	TypeDecisionTree       = "decision_tree"
	TypeRandomForest       = "random_forest"
)

// ClassifierSpec holds the fitted parameters of a binary classifier.
type ClassifierSpec struct {
	Type      string     `json:"type"`
	Coef      []float64  `json:"coef,omitempty"`
	Intercept float64    `json:"intercept,omitempty"`
	Trees     []TreeSpec `json:"trees,omitempty"`
}

// TreeSpec is a fitted tree in flat array form. Nodes are ordered so that
// children always follow their parent.
type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is one tree node. A node with Left == -1 is a leaf whose Value
// holds the per-class weights [stay, churn].
type NodeSpec struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

// DecodeBundle reads a JSON bundle.
func DecodeBundle(r io.Reader) (Bundle, error) {
	var b Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("decode model bundle: %w", err)
	}
	return b, nil
}
