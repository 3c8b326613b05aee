package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultNumerical fills an absent numerical column.
	DefaultNumerical = 0.0

	// MissingCategory fills an absent categorical column.
	MissingCategory = "missing"
)

// RawCustomerRecord is an inference request as received: named fields that
// may be absent, extra, or of the wrong type. A nil value counts as absent.
type RawCustomerRecord map[string]any

// ReconciledRecord is a single row matching a FeatureSchema exactly.
type ReconciledRecord struct {
	schema      *FeatureSchema
	numerical   []float64
	categorical []string
}

// Schema returns the schema the record was reconciled against.
func (r ReconciledRecord) Schema() *FeatureSchema {
	return r.schema
}

// Numerical returns the numerical values in schema order.
func (r ReconciledRecord) Numerical() []float64 {
	return append([]float64(nil), r.numerical...)
}

// Categorical returns the categorical values in schema order.
func (r ReconciledRecord) Categorical() []string {
	return append([]string(nil), r.categorical...)
}

// Len returns the number of columns.
func (r ReconciledRecord) Len() int {
	return len(r.numerical) + len(r.categorical)
}

// Values returns every value in canonical column order.
func (r ReconciledRecord) Values() []any {
	out := make([]any, 0, r.Len())
	for _, v := range r.numerical {
		out = append(out, v)
	}
	for _, v := range r.categorical {
		out = append(out, v)
	}
	return out
}

// Value returns the value of a named column.
func (r ReconciledRecord) Value(name string) (any, bool) {
	if r.schema == nil {
		return nil, false
	}
	pos, ok := r.schema.position[name]
	if !ok {
		return nil, false
	}
	if pos < len(r.numerical) {
		return r.numerical[pos], true
	}
	return r.categorical[pos-len(r.numerical)], true
}

// Map returns the record keyed by column name.
func (r ReconciledRecord) Map() map[string]any {
	out := make(map[string]any, r.Len())
	if r.schema == nil {
		return out
	}
	for i, name := range r.schema.numerical {
		out[name] = r.numerical[i]
	}
	for i, name := range r.schema.categorical {
		out[name] = r.categorical[i]
	}
	return out
}

// Key returns a canonical string that is equal for equal records.
func (r ReconciledRecord) Key() string {
	var b strings.Builder
	for _, v := range r.numerical {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte(0x1f)
	}
	for _, v := range r.categorical {
		b.WriteString(strconv.Quote(v))
		b.WriteByte(0x1f)
	}
	return b.String()
}

// RecordBuilder assembles a ReconciledRecord field by field. Every column
// starts at its default; Set overrides it. Unknown names are ignored.
type RecordBuilder struct {
	schema      *FeatureSchema
	numerical   []float64
	categorical []string
	failed      map[string]*FieldCoercionError
}

// NewRecordBuilder returns a builder with every column at its default.
func NewRecordBuilder(schema *FeatureSchema) *RecordBuilder {
	b := &RecordBuilder{
		schema:      schema,
		numerical:   make([]float64, len(schema.numerical)),
		categorical: make([]string, len(schema.categorical)),
		failed:      make(map[string]*FieldCoercionError),
	}
	for i := range b.numerical {
		b.numerical[i] = DefaultNumerical
	}
	for i := range b.categorical {
		b.categorical[i] = MissingCategory
	}
	return b
}

// Set coerces value into the named column. A nil value leaves the default.
func (b *RecordBuilder) Set(name string, value any) *RecordBuilder {
	pos, ok := b.schema.position[name]
	if !ok || value == nil {
		return b
	}
	delete(b.failed, name)

	if pos < len(b.numerical) {
		f, err := coerceNumerical(value)
		if err != nil {
			b.failed[name] = &FieldCoercionError{Field: name, Kind: KindNumerical, Value: value, Err: err}
			return b
		}
		b.numerical[pos] = f
		return b
	}

	s, err := coerceCategorical(value)
	if err != nil {
		b.failed[name] = &FieldCoercionError{Field: name, Kind: KindCategorical, Value: value, Err: err}
		return b
	}
	b.categorical[pos-len(b.numerical)] = s
	return b
}

// SetAll applies every schema column present in raw. Extra fields are dropped.
func (b *RecordBuilder) SetAll(raw RawCustomerRecord) *RecordBuilder {
	for _, name := range b.schema.Columns() {
		if v, ok := raw[name]; ok {
			b.Set(name, v)
		}
	}
	return b
}

// Build returns the record, or a *ReconciliationError listing every field
// that could not be coerced, in canonical order.
func (b *RecordBuilder) Build() (ReconciledRecord, error) {
	if len(b.failed) > 0 {
		rerr := &ReconciliationError{}
		for _, name := range b.schema.Columns() {
			if fe, ok := b.failed[name]; ok {
				rerr.Fields = append(rerr.Fields, fe)
			}
		}
		return ReconciledRecord{}, rerr
	}
	return ReconciledRecord{
		schema:      b.schema,
		numerical:   append([]float64(nil), b.numerical...),
		categorical: append([]string(nil), b.categorical...),
	}, nil
}

// Reconcile maps a raw record onto schema: absent columns get defaults,
// present ones are coerced, extras are dropped.
func Reconcile(schema *FeatureSchema, raw RawCustomerRecord) (ReconciledRecord, error) {
	return NewRecordBuilder(schema).SetAll(raw).Build()
}

var errNotFinite = errors.New("value is not finite")

func coerceNumerical(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %w", err)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %w", err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func coerceCategorical(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T", value)
	}
}
