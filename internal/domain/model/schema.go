package model

import (
	"fmt"
	"strings"
)

// ColumnKind distinguishes numerical from categorical columns.
type ColumnKind int

const (
	KindNumerical ColumnKind = iota + 1
	KindCategorical
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumerical:
		return "numerical"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// FeatureSchema is the ordered column layout the model was trained on.
// It is immutable after construction and safe for concurrent use.
type FeatureSchema struct {
	numerical   []string
	categorical []string
	position    map[string]int
}

// NewFeatureSchema validates and freezes a column layout. The canonical order
// is the numerical columns followed by the categorical columns.
func NewFeatureSchema(numerical, categorical []string) (*FeatureSchema, error) {
	if len(numerical) == 0 {
		return nil, fmt.Errorf("%w: no numerical columns", ErrInvalidSchema)
	}
	if len(categorical) == 0 {
		return nil, fmt.Errorf("%w: no categorical columns", ErrInvalidSchema)
	}

	s := &FeatureSchema{
		numerical:   append([]string(nil), numerical...),
		categorical: append([]string(nil), categorical...),
		position:    make(map[string]int, len(numerical)+len(categorical)),
	}
	for i, name := range s.Columns() {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrInvalidSchema, i)
		}
		if _, dup := s.position[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, name)
		}
		s.position[name] = i
	}
	return s, nil
}

// Columns returns every column name in canonical order.
func (s *FeatureSchema) Columns() []string {
	cols := make([]string, 0, len(s.numerical)+len(s.categorical))
	cols = append(cols, s.numerical...)
	return append(cols, s.categorical...)
}

// NumericalColumns returns the numerical column names in order.
func (s *FeatureSchema) NumericalColumns() []string {
	return append([]string(nil), s.numerical...)
}

// CategoricalColumns returns the categorical column names in order.
func (s *FeatureSchema) CategoricalColumns() []string {
	return append([]string(nil), s.categorical...)
}

// Len returns the total number of columns.
func (s *FeatureSchema) Len() int {
	return len(s.numerical) + len(s.categorical)
}

// Kind reports the kind of the named column and whether it exists.
func (s *FeatureSchema) Kind(name string) (ColumnKind, bool) {
	pos, ok := s.position[name]
	if !ok {
		return 0, false
	}
	if pos < len(s.numerical) {
		return KindNumerical, true
	}
	return KindCategorical, true
}
