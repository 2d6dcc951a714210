package debate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabbench/domain/core"
	"fabbench/domain/score"
	"fabbench/domain/task"
	"fabbench/internal/scoring"
	"fabbench/ports"
)

// fakeTransport scripts the challenge round trip.
type fakeTransport struct {
	rebuttal string
	err      error
	delay    time.Duration
	lastEnv  ports.ChallengeEnvelope
}

func (f *fakeTransport) SendTask(context.Context, core.AgentID, ports.TaskEnvelope) (ports.SubmissionEnvelope, error) {
	return ports.SubmissionEnvelope{}, errors.New("not used")
}

func (f *fakeTransport) SendChallenge(ctx context.Context, _ core.AgentID, env ports.ChallengeEnvelope) (string, error) {
	f.lastEnv = env
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.rebuttal, f.err
}

const hedgedAnalysis = `## Thesis

Revenue grew 12.5% on datacenter strength, a figure the filings support directly.

The margin trajectory might possibly soften next quarter.
`

func TestSelectWeakestClaim_PrefersHedgedClaims(t *testing.T) {
	parsed := scoring.ParseSubmission(hedgedAnalysis)
	claim := SelectWeakestClaim(parsed)

	assert.Contains(t, claim.Text, "might possibly")
	assert.True(t, claim.HasHedging)
}

func TestSelectWeakestClaim_EmptySubmission(t *testing.T) {
	claim := SelectWeakestClaim(scoring.ParseSubmission(""))
	assert.Empty(t, claim.Text)

	// An empty claim still yields a usable counter-argument.
	counter := BuildCounterArgument(claim, task.GroundTruth{})
	assert.NotEmpty(t, counter)
}

func TestRun_GradesRebuttal(t *testing.T) {
	transport := &fakeTransport{
		rebuttal: "The margin concern is addressed by the 12.5% revenue growth and 67% gross margin " +
			"reported in the latest filing. The trajectory holds because datacenter mix keeps improving. " +
			"Even under softer pricing, operating leverage preserves the thesis.",
	}
	engine := NewEngine(transport, time.Second)

	round := engine.Run(context.Background(), "agent-1", "task-1",
		score.Submission{Analysis: hedgedAnalysis}, task.GroundTruth{})

	assert.False(t, round.TimedOut)
	assert.NotEmpty(t, round.CounterArgument)
	assert.Equal(t, round.CounterArgument, transport.lastEnv.CounterArgument)
	assert.Greater(t, round.Quality, 0.5)
	assert.InDelta(t, score.MultiplierFromQuality(round.Quality), round.Multiplier, 1e-9)
	assert.GreaterOrEqual(t, round.Multiplier, score.MinDebateMultiplier)
	assert.LessOrEqual(t, round.Multiplier, score.MaxDebateMultiplier)
}

func TestRun_TimeoutFloorsMultiplier(t *testing.T) {
	transport := &fakeTransport{rebuttal: "late answer", delay: 200 * time.Millisecond}
	engine := NewEngine(transport, 20*time.Millisecond)

	round := engine.Run(context.Background(), "agent-1", "task-1",
		score.Submission{Analysis: hedgedAnalysis}, task.GroundTruth{})

	assert.True(t, round.TimedOut)
	assert.Equal(t, score.MinDebateMultiplier, round.Multiplier)
	assert.Equal(t, 0.0, round.Quality)
	assert.Empty(t, round.Rebuttal)
}

func TestRun_TransportErrorFloorsMultiplier(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	engine := NewEngine(transport, time.Second)

	round := engine.Run(context.Background(), "agent-1", "task-1",
		score.Submission{Analysis: hedgedAnalysis}, task.GroundTruth{})

	assert.True(t, round.TimedOut)
	assert.Equal(t, score.MinDebateMultiplier, round.Multiplier)
}

func TestRebuttalQuality_Bounds(t *testing.T) {
	claim := scoring.Claim{Text: "margins might soften"}

	assert.Equal(t, 0.0, RebuttalQuality("", claim, "counter"))
	assert.LessOrEqual(t, RebuttalQuality("no", claim, "counter"), 0.2)

	strong := "The margins claim is defended by the 67.2% gross margin print. Mix shift toward " +
		"datacenter supports the margins trajectory. The strongest objection, pricing pressure, is " +
		"offset by contracted backlog."
	q := RebuttalQuality(strong, claim, BuildCounterArgument(claim, task.GroundTruth{}))
	assert.GreaterOrEqual(t, q, 0.8)
	assert.LessOrEqual(t, q, 1.0)
}

func TestBuildCounterArgument_UsesDirection(t *testing.T) {
	claim := scoring.Claim{Text: "the company will beat"}
	counter := BuildCounterArgument(claim, task.GroundTruth{Direction: "beat"})
	require.Contains(t, counter, "the company will beat")
	assert.Contains(t, counter, "opposite")
}
