package valueobject

import "fmt"

const (
	// HighRiskThreshold is the churn probability above which a customer is high risk.
	HighRiskThreshold = 0.70

	// MediumRiskThreshold is the churn probability above which a customer is medium risk.
	MediumRiskThreshold = 0.40
)

// RiskTier is an immutable value object representing the churn risk classification.
type RiskTier struct {
	value string
}

var (
	RiskTierLow    = RiskTier{value: "low"}
	RiskTierMedium = RiskTier{value: "medium"}
	RiskTierHigh   = RiskTier{value: "high"}
)

var recommendations = map[string][]string{
	"high": {
		"Send 20% discount coupon",
		"Contact via priority customer support",
		"Launch personalized retention campaign",
	},
	"medium": {
		"Award loyalty points bonus",
		"Send birthday discount voucher",
	},
	"low": {
		"Normal engagement",
	},
}

// RiskTierFromString reconstructs a RiskTier from its string representation.
func RiskTierFromString(s string) (RiskTier, error) {
	switch s {
	case "low":
		return RiskTierLow, nil
	case "medium":
		return RiskTierMedium, nil
	case "high":
		return RiskTierHigh, nil
	default:
		return RiskTier{}, fmt.Errorf("invalid risk tier: %s", s)
	}
}

// RiskTierFromProbability maps a churn probability to a tier. Both boundaries
// are strict: exactly 0.70 is medium and exactly 0.40 is low.
func RiskTierFromProbability(p float64) RiskTier {
	switch {
	case p > HighRiskThreshold:
		return RiskTierHigh
	case p > MediumRiskThreshold:
		return RiskTierMedium
	default:
		return RiskTierLow
	}
}

// String returns the string representation.
func (r RiskTier) String() string {
	return r.value
}

// Recommendations returns the canned retention actions for this tier.
func (r RiskTier) Recommendations() []string {
	recs := recommendations[r.value]
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// IsZero returns true if the RiskTier has not been set.
func (r RiskTier) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskTier.
func (r RiskTier) Equal(other RiskTier) bool {
	return r.value == other.value
}
