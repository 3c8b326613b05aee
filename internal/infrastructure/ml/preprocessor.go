package ml

import (
	"fmt"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

const (
	unknownIgnore = "ignore"
	unknownError  = "error"
)

// Preprocessor applies the fitted column transform to a reconciled record.
type Preprocessor struct {
	mean          []float64
	scale         []float64
	categories    [][]string
	catColumns    []string
	index         []map[string]int
	handleUnknown string
	width         int
	featureNames  []string
}

// NewPreprocessor validates spec against schema.
func NewPreprocessor(schema *model.FeatureSchema, spec PreprocessorSpec) (*Preprocessor, error) {
	numerical := schema.NumericalColumns()
	categorical := schema.CategoricalColumns()

	p := &Preprocessor{handleUnknown: spec.Categorical.HandleUnknown, catColumns: categorical}
	if p.handleUnknown == "" {
		p.handleUnknown = unknownIgnore
	}
	if p.handleUnknown != unknownIgnore && p.handleUnknown != unknownError {
		return nil, fmt.Errorf("unsupported handle_unknown %q", p.handleUnknown)
	}

	scaled := len(spec.Numerical.Mean) > 0 || len(spec.Numerical.Scale) > 0
	if scaled {
		if len(spec.Numerical.Mean) != len(numerical) || len(spec.Numerical.Scale) != len(numerical) {
			return nil, fmt.Errorf("scaler has %d means and %d scales for %d numerical columns",
				len(spec.Numerical.Mean), len(spec.Numerical.Scale), len(numerical))
		}
		p.mean = append([]float64(nil), spec.Numerical.Mean...)
		p.scale = make([]float64, len(numerical))
		for i, s := range spec.Numerical.Scale {
			if s == 0 {
				s = 1
			}
			p.scale[i] = s
		}
	}
	for _, name := range numerical {
		p.featureNames = append(p.featureNames, "num__"+name)
	}

	if len(spec.Categorical.Categories) != len(categorical) {
		return nil, fmt.Errorf("encoder has %d category lists for %d categorical columns",
			len(spec.Categorical.Categories), len(categorical))
	}
	p.width = len(numerical)
	for i, cats := range spec.Categorical.Categories {
		if len(cats) == 0 {
			return nil, fmt.Errorf("no categories for column %q", categorical[i])
		}
		idx := make(map[string]int, len(cats))
		for j, c := range cats {
			if _, dup := idx[c]; dup {
				return nil, fmt.Errorf("duplicate category %q for column %q", c, categorical[i])
			}
			idx[c] = j
			p.featureNames = append(p.featureNames, "cat__"+categorical[i]+"_"+c)
		}
		p.categories = append(p.categories, append([]string(nil), cats...))
		p.index = append(p.index, idx)
		p.width += len(cats)
	}
	return p, nil
}

// Width is the length of every transformed vector.
func (p *Preprocessor) Width() int {
	return p.width
}

// FeatureNames names each output position.
func (p *Preprocessor) FeatureNames() []string {
	return append([]string(nil), p.featureNames...)
}

// Categories maps each categorical column to its fitted categories.
func (p *Preprocessor) Categories() map[string][]string {
	out := make(map[string][]string, len(p.catColumns))
	for i, col := range p.catColumns {
		out[col] = append([]string(nil), p.categories[i]...)
	}
	return out
}

// Transform returns the scaled numerical values followed by one one-hot
// block per categorical column. Unknown categories encode as all zeros, or
// fail when the encoder was fitted with handle_unknown=error.
func (p *Preprocessor) Transform(record model.ReconciledRecord) ([]float64, error) {
	numerical := record.Numerical()
	categorical := record.Categorical()
	if len(categorical) != len(p.index) {
		return nil, fmt.Errorf("record has %d categorical values, encoder expects %d", len(categorical), len(p.index))
	}
	if p.mean != nil && len(numerical) != len(p.mean) {
		return nil, fmt.Errorf("record has %d numerical values, scaler expects %d", len(numerical), len(p.mean))
	}

	out := make([]float64, p.width)
	for i, v := range numerical {
		if p.mean != nil {
			v = (v - p.mean[i]) / p.scale[i]
		}
		out[i] = v
	}

	offset := len(numerical)
	names := record.Schema().CategoricalColumns()
	for i, v := range categorical {
		if j, ok := p.index[i][v]; ok {
			out[offset+j] = 1
		} else if p.handleUnknown == unknownError {
			return nil, fmt.Errorf("unknown category %q for column %q", v, names[i])
		}
		offset += len(p.categories[i])
	}
	return out, nil
}
