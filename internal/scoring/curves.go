package scoring

import (
	"math"
)

// Relative-error credit curve parameters. Full credit inside the tight
// band, then exponential decay: credit halves every HalvingStep of
// additional relative error. Monotone non-increasing in error by
// construction.
const (
	FullCreditBand = 0.02 // relative error with full credit
	HalvingStep    = 0.08 // additional error that halves the credit
)

// RelativeError computes |actual-expected| / max(|expected|, floor). The
// floor keeps near-zero expectations from exploding the ratio.
func RelativeError(actual, expected float64) float64 {
	if math.IsNaN(actual) || math.IsInf(actual, 0) {
		return math.Inf(1)
	}
	denom := math.Abs(expected)
	if denom < 1e-9 {
		denom = 1e-9
	}
	return math.Abs(actual-expected) / denom
}

// CreditFromRelativeError maps a relative error to a score in [0,100].
// error <= FullCreditBand scores 100; beyond it the credit decays
// exponentially (about 50 at 10% error, under 2 at 50%).
func CreditFromRelativeError(relErr float64) float64 {
	if math.IsNaN(relErr) || relErr < 0 {
		return 0
	}
	if relErr <= FullCreditBand {
		return 100
	}
	credit := 100 * math.Exp(-math.Ln2*(relErr-FullCreditBand)/HalvingStep)
	if credit < 0 {
		return 0
	}
	return credit
}

// CreditFromValue scores an extracted numeric against its expected value.
func CreditFromValue(actual, expected float64) float64 {
	return CreditFromRelativeError(RelativeError(actual, expected))
}

// CoverageCredit scores how many expected items appear among found items,
// linearly: all present scores 100.
func CoverageCredit(found, expected int) float64 {
	if expected <= 0 {
		return 100
	}
	if found < 0 {
		found = 0
	}
	if found > expected {
		found = expected
	}
	return 100 * float64(found) / float64(expected)
}
