package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreditFromRelativeError_FullCreditBand(t *testing.T) {
	assert.Equal(t, 100.0, CreditFromRelativeError(0))
	assert.Equal(t, 100.0, CreditFromRelativeError(0.02))
	assert.Less(t, CreditFromRelativeError(0.021), 100.0)
}

func TestCreditFromRelativeError_DecayShape(t *testing.T) {
	// credit halves every 8% of error past the band: ~50 at 10% error.
	assert.InDelta(t, 50.0, CreditFromRelativeError(0.10), 0.01)
	assert.InDelta(t, 25.0, CreditFromRelativeError(0.18), 0.01)
	assert.Less(t, CreditFromRelativeError(0.50), 2.0)
}

func TestCreditFromRelativeError_Monotone(t *testing.T) {
	prev := math.Inf(1)
	for e := 0.0; e <= 2.0; e += 0.01 {
		credit := CreditFromRelativeError(e)
		assert.LessOrEqual(t, credit, prev, "credit must not increase with error (e=%.2f)", e)
		prev = credit
	}
}

func TestCreditFromRelativeError_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, CreditFromRelativeError(math.NaN()))
	assert.Equal(t, 0.0, CreditFromRelativeError(-1))
	assert.Equal(t, 0.0, CreditFromRelativeError(math.Inf(1)))
}

func TestRelativeError(t *testing.T) {
	assert.InDelta(t, 0.1, RelativeError(110, 100), 1e-9)
	assert.InDelta(t, 0.1, RelativeError(-110, -100), 1e-9)
	assert.True(t, math.IsInf(RelativeError(math.NaN(), 100), 1))
	// Near-zero expectation uses the denominator floor instead of exploding.
	assert.False(t, math.IsInf(RelativeError(1, 0), 1))
}

func TestCoverageCredit(t *testing.T) {
	assert.Equal(t, 100.0, CoverageCredit(3, 3))
	assert.InDelta(t, 66.67, CoverageCredit(2, 3), 0.01)
	assert.Equal(t, 0.0, CoverageCredit(0, 3))
	assert.Equal(t, 100.0, CoverageCredit(5, 3)) // capped
	assert.Equal(t, 100.0, CoverageCredit(0, 0)) // nothing expected
}
