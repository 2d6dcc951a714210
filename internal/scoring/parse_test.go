package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalysis = `# Analysis: NVDA

## Thesis

Datacenter demand remains strong. Revenue of $20.5B beat consensus, and EPS of 3.25
against the 3.10 estimate is a clear beat.

## Greeks

delta: 0.64, gamma: 0.018, theta: -0.02, vega: 0.37, rho: 0.53

## Risk

Maybe the margin trajectory softens; volatility around guidance is the main exposure.
`

func TestParseSubmission_Sections(t *testing.T) {
	parsed := ParseSubmission(sampleAnalysis)

	assert.Contains(t, parsed.Sections, "thesis")
	assert.Contains(t, parsed.Sections, "risk")
	assert.Contains(t, parsed.Sections["thesis"], "Datacenter demand")
}

func TestParseSubmission_Claims(t *testing.T) {
	parsed := ParseSubmission(sampleAnalysis)
	require.NotEmpty(t, parsed.Claims)

	var hedged *Claim
	for i := range parsed.Claims {
		if parsed.Claims[i].HasHedging {
			hedged = &parsed.Claims[i]
		}
	}
	require.NotNil(t, hedged, "the risk paragraph hedges with 'maybe'")
	assert.Equal(t, "risk", hedged.Section)
}

func TestParseSubmission_Fields(t *testing.T) {
	parsed := ParseSubmission(sampleAnalysis)

	assert.InDelta(t, 0.64, parsed.Fields["delta"], 1e-9)
	assert.InDelta(t, -0.02, parsed.Fields["theta"], 1e-9)
	assert.InDelta(t, 0.37, parsed.Fields["vega"], 1e-9)
}

func TestParseSubmission_Recommendation(t *testing.T) {
	parsed := ParseSubmission(sampleAnalysis)
	assert.Equal(t, "beat", parsed.Recommendation)

	assert.Equal(t, "sell", ParseSubmission("We recommend you sell into strength.").Recommendation)
	assert.Equal(t, "", ParseSubmission("No stance taken.").Recommendation)
}

func TestParseSubmission_EmptyPayload(t *testing.T) {
	parsed := ParseSubmission("   ")
	assert.Empty(t, parsed.Claims)
	assert.Empty(t, parsed.Numbers)
	assert.Empty(t, parsed.Recommendation)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"$20.5B", 20.5e9},
		{"3.25", 3.25},
		{"1,234.5", 1234.5},
		{"-0.42", -0.42},
		{"45.6%", 45.6},
		{"2 million", 2e6},
		{"750K", 750e3},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.raw)
		require.True(t, ok, tc.raw)
		assert.InDelta(t, tc.want, got, 1e-6, tc.raw)
	}

	_, ok := parseNumber("")
	assert.False(t, ok)
}

func TestSectionContaining(t *testing.T) {
	parsed := ParseSubmission(sampleAnalysis)
	assert.Contains(t, parsed.SectionContaining("risk"), "volatility")
	assert.Empty(t, parsed.SectionContaining("nonexistent"))
}

func TestContainsAny(t *testing.T) {
	assert.Equal(t, 2, ContainsAny("Margins and EPS both improved", []string{"margin", "eps", "fcf"}))
	assert.Equal(t, 0, ContainsAny("nothing relevant", []string{"margin"}))
}
