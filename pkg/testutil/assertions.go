package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertProbabilityPair checks that pStay and pChurn are valid class
// probabilities summing to one.
func AssertProbabilityPair(t *testing.T, pStay, pChurn float64) {
	t.Helper()
	assert.GreaterOrEqual(t, pStay, 0.0)
	assert.LessOrEqual(t, pStay, 1.0)
	assert.GreaterOrEqual(t, pChurn, 0.0)
	assert.LessOrEqual(t, pChurn, 1.0)
	assert.InDelta(t, 1.0, pStay+pChurn, 1e-6)
}
