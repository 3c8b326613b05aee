package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSchema is wrapped by every schema validation failure.
	ErrInvalidSchema = errors.New("invalid feature schema")

	// ErrPredictionNotFound is returned by repositories when no prediction matches.
	ErrPredictionNotFound = errors.New("prediction not found")
)

// SchemaLoadError reports that a startup artifact could not be loaded.
// It is fatal: the service must not serve without a schema and a model.
type SchemaLoadError struct {
	Artifact string
	Source   string
	Err      error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Artifact, e.Source, e.Err)
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }

// FieldCoercionError reports a present field whose value cannot be converted
// to the kind its column requires.
type FieldCoercionError struct {
	Field string
	Kind  ColumnKind
	Value any
	Err   error
}

func (e *FieldCoercionError) Error() string {
	return fmt.Sprintf("field %q (%s): cannot use %#v: %v", e.Field, e.Kind, e.Value, e.Err)
}

func (e *FieldCoercionError) Unwrap() error { return e.Err }

// ReconciliationError aggregates every field that failed coercion in one record.
type ReconciliationError struct {
	Fields []*FieldCoercionError
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile record: %d field(s) failed: %s",
		len(e.Fields), strings.Join(e.FieldNames(), ", "))
}

// FieldNames lists the offending fields in canonical column order.
func (e *ReconciliationError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

func (e *ReconciliationError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}

// TransformError reports a failure of the fitted preprocessing transform.
type TransformError struct {
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform record: %v", e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// ModelInferenceError reports a failure of the classifier, including outputs
// that violate the label or probability contract.
type ModelInferenceError struct {
	Err error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference: %v", e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }
