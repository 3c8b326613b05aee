package valueobject

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// FallbackProbability is the churn probability and confidence reported when
// no real prediction could be made.
const FallbackProbability = 0.5

// FallbackStage names the pipeline step that failed when an outcome is a fallback.
type FallbackStage string

const (
	StageNone      FallbackStage = ""
	StageReconcile FallbackStage = "reconcile"
	StageTransform FallbackStage = "transform"
	StageInfer     FallbackStage = "infer"
)

// FallbackStageFromString reconstructs a stage from storage.
func FallbackStageFromString(s string) (FallbackStage, error) {
	switch FallbackStage(s) {
	case StageNone, StageReconcile, StageTransform, StageInfer:
		return FallbackStage(s), nil
	default:
		return StageNone, fmt.Errorf("invalid fallback stage: %s", s)
	}
}

// PredictionOutcome is the result of one inference request.
type PredictionOutcome struct {
	Label            ChurnLabel
	ChurnProbability float64
	Confidence       float64
	Tier             RiskTier
	Fallback         bool
	FallbackStage    FallbackStage
}

// NewPredictionOutcome builds an outcome from the classifier label and the
// class probabilities for stay and churn.
func NewPredictionOutcome(label ChurnLabel, pStay, pChurn float64) PredictionOutcome {
	return PredictionOutcome{
		Label:            label,
		ChurnProbability: pChurn,
		Confidence:       math.Max(pStay, pChurn),
		Tier:             RiskTierFromProbability(pChurn),
	}
}

// FallbackOutcome is the degraded answer returned when stage failed:
// label stay with probability and confidence 0.5, which always tiers as medium.
func FallbackOutcome(stage FallbackStage) PredictionOutcome {
	return PredictionOutcome{
		Label:            LabelStay,
		ChurnProbability: FallbackProbability,
		Confidence:       FallbackProbability,
		Tier:             RiskTierFromProbability(FallbackProbability),
		Fallback:         true,
		FallbackStage:    stage,
	}
}

// Recommendations returns the retention actions for the outcome's tier.
func (o PredictionOutcome) Recommendations() []string {
	return o.Tier.Recommendations()
}

// percentDigits is enough fractional digits to write p*100 exactly for any
// product that can round to a non-zero tenth.
const percentDigits = 64

// FormatPercent renders a probability the way the front-ends display it,
// with one decimal place, e.g. 0.4321 -> "43.2%". The float product is
// rounded half to even on its exact binary value, so 0.0625 is "6.2%".
func FormatPercent(p float64) string {
	scaled := p * 100
	exact, err := decimal.NewFromString(strconv.FormatFloat(scaled, 'f', percentDigits, 64))
	if err != nil {
		// NaN and infinities have no decimal form.
		return strconv.FormatFloat(scaled, 'f', 1, 64) + "%"
	}
	return exact.RoundBank(1).StringFixed(1) + "%"
}
