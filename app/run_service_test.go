package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabbench/adapters/reports"
	"fabbench/domain/core"
	"fabbench/domain/report"
	"fabbench/domain/score"
	"fabbench/domain/task"
	"fabbench/internal/alpha"
	"fabbench/internal/debate"
	"fabbench/internal/rng"
	"fabbench/internal/scoring"
	"fabbench/ports"
)

const stubAnalysis = `## Thesis

Revenue reached $20,500,000,000 this quarter, well ahead of consensus. EPS
came in at 3.25 against the 3.10 estimate, a surprise of 4.8%. Margins held
near record levels on datacenter demand.

## Fundamentals

The growth rate implies continued share gains. Forward guidance of 3.40
supports the trajectory into next quarter.

## Recommendation

Buy. The company is positioned to beat again next quarter.

## Risk

Max loss is bounded; volatility and concentration remain the key exposures.
`

// fakeRunTransport scripts agent behavior per run scenario. Tasks are
// dispatched concurrently, so the counters take the lock.
type fakeRunTransport struct {
	payload   string
	taskDelay time.Duration
	taskErr   error
	rebuttal  string
	cost      score.CostMetrics

	mu             sync.Mutex
	sentTasks      int
	sentChallenges int
}

func (f *fakeRunTransport) SendTask(ctx context.Context, _ core.AgentID, env ports.TaskEnvelope) (ports.SubmissionEnvelope, error) {
	f.mu.Lock()
	f.sentTasks++
	f.mu.Unlock()
	if f.taskDelay > 0 {
		select {
		case <-time.After(f.taskDelay):
		case <-ctx.Done():
			return ports.SubmissionEnvelope{}, ctx.Err()
		}
	}
	if f.taskErr != nil {
		return ports.SubmissionEnvelope{}, f.taskErr
	}
	return ports.SubmissionEnvelope{
		TaskID:  env.TaskID,
		Payload: f.payload,
		ToolTrace: []score.ToolCall{
			{Name: "get_filings", Argument: env.Ticker},
			{Name: "get_estimates", Argument: env.Ticker},
		},
		Cost: f.cost,
	}, nil
}

func (f *fakeRunTransport) SendChallenge(ctx context.Context, _ core.AgentID, _ ports.ChallengeEnvelope) (string, error) {
	f.mu.Lock()
	f.sentChallenges++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.rebuttal, nil
}

func newRunService(t *testing.T, transport ports.AgentTransport, sink ports.ReportSink) *RunService {
	t.Helper()
	providers := defaultProviders(t, 42)
	gen := newGenerateService(t, providers)
	return NewRunService(
		gen,
		transport,
		scoring.NewEngine(scoring.DefaultRoleWeights),
		debate.NewEngine(transport, 2*time.Second),
		alpha.NewAggregator(alpha.DefaultConfig),
		sink,
		rng.NewSource(),
	)
}

func validCost() score.CostMetrics {
	return score.CostMetrics{PromptTokens: 1200, CompletionTokens: 450, ToolCalls: 2, CostUSD: 0.04}
}

func baseRequest() RunRequest {
	return RunRequest{
		AgentID: "agent-under-test",
		Ticker:  "NVDA",
		AsOf:    core.NewSimClock(genAsOf),
		Seed:    42,
		Categories: []task.Category{
			task.CategoryBeatOrMiss,
			task.CategoryTrendAnalysis,
			task.CategoryOptionsPricing,
		},
		TaskTimeout:    5 * time.Second,
		MaxConcurrency: 2,
	}
}

func TestRun_CompletesAndPersistsEveryTask(t *testing.T) {
	transport := &fakeRunTransport{
		payload:  stubAnalysis,
		rebuttal: "The 4.8% surprise is backed by the reported 3.25 EPS against a 3.10 consensus, so the beat stands on the filed figures.",
		cost:     validCost(),
	}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	req := baseRequest()
	req.DebateEnabled = true

	summary, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, len(req.Categories), summary.TasksTotal)
	assert.Equal(t, len(req.Categories), summary.TasksScored)
	assert.Greater(t, summary.MeanAlpha, 0.0)
	assert.InDelta(t, 3*0.04, summary.TotalCostUSD, 1e-9)
	assert.Equal(t, len(req.Categories), transport.sentChallenges)

	persisted, err := sink.ListReports(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, persisted, len(req.Categories))
	for _, r := range persisted {
		assert.Equal(t, report.StatusCompleted, r.Status)
		assert.NotEmpty(t, r.Fingerprint)
		assert.True(t, r.Lookahead.SnapshotClean)
		assert.GreaterOrEqual(t, r.DebateMultiplier, score.MinDebateMultiplier)
		assert.LessOrEqual(t, r.DebateMultiplier, score.MaxDebateMultiplier)
		assert.Greater(t, r.Alpha.CostEfficiency, 0.0)
	}

	stored, err := sink.GetSummary(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, summary.MeanAlpha, stored.MeanAlpha)
}

func TestRun_DebateDisabledKeepsNeutralMultiplier(t *testing.T) {
	transport := &fakeRunTransport{payload: stubAnalysis, cost: validCost()}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	req := baseRequest()
	req.Categories = []task.Category{task.CategoryBeatOrMiss}
	req.DebateEnabled = false

	summary, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, summary.TasksScored)
	assert.Zero(t, transport.sentChallenges)

	persisted, err := sink.ListReports(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 1.0, persisted[0].DebateMultiplier)
	assert.InDelta(t, persisted[0].BaseScore*persisted[0].Alpha.CostEfficiency,
		persisted[0].Alpha.Score, 1e-9)
}

func TestRun_UnresponsiveAgentYieldsTimeoutReports(t *testing.T) {
	transport := &fakeRunTransport{
		payload:   stubAnalysis,
		taskDelay: 500 * time.Millisecond,
		cost:      validCost(),
	}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	req := baseRequest()
	req.Categories = []task.Category{task.CategoryBeatOrMiss, task.CategoryTrendAnalysis}
	req.TaskTimeout = 30 * time.Millisecond

	summary, err := svc.Run(context.Background(), req)
	require.NoError(t, err, "a silent agent still produces a run summary")
	assert.Equal(t, 2, summary.TasksTotal)
	assert.Zero(t, summary.TasksScored)

	persisted, err := sink.ListReports(context.Background(), summary.RunID)
	require.NoError(t, err)
	for _, r := range persisted {
		assert.Equal(t, report.StatusSubmissionTimeout, r.Status)
		assert.NotEmpty(t, r.Reason)
	}
}

func TestRun_EmptyPayloadIsMalformed(t *testing.T) {
	transport := &fakeRunTransport{payload: "   \n", cost: validCost()}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	req := baseRequest()
	req.Categories = []task.Category{task.CategoryBeatOrMiss}

	summary, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, summary.TasksScored)

	persisted, err := sink.ListReports(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, report.StatusMalformed, persisted[0].Status)
}

func TestRun_NegativeCostIsMalformed(t *testing.T) {
	transport := &fakeRunTransport{
		payload: stubAnalysis,
		cost:    score.CostMetrics{PromptTokens: -1},
	}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	req := baseRequest()
	req.Categories = []task.Category{task.CategoryBeatOrMiss}

	summary, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	persisted, err := sink.ListReports(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, report.StatusMalformed, persisted[0].Status)
}

func TestRun_TransportErrorDoesNotAbortRun(t *testing.T) {
	transport := &fakeRunTransport{taskErr: fmt.Errorf("connection refused")}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	req := baseRequest()

	summary, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, len(req.Categories), summary.TasksTotal)
	assert.Zero(t, summary.TasksScored)
}

func TestRun_CancelledContextRecordsRemainingTasks(t *testing.T) {
	transport := &fakeRunTransport{payload: stubAnalysis, cost: validCost()}
	sink := reports.NewMemorySink()
	svc := newRunService(t, transport, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.Run(ctx, baseRequest())
	require.NoError(t, err, "cancellation persists partial results rather than failing")
	assert.Equal(t, 3, summary.TasksTotal)
	assert.Zero(t, summary.TasksScored)
}

func TestRun_RejectsUnknownCategory(t *testing.T) {
	transport := &fakeRunTransport{payload: stubAnalysis, cost: validCost()}
	svc := newRunService(t, transport, reports.NewMemorySink())

	req := baseRequest()
	req.Categories = []task.Category{"astrology"}

	_, err := svc.Run(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestRun_SamplesCategoriesDeterministically(t *testing.T) {
	transport := &fakeRunTransport{payload: stubAnalysis, cost: validCost()}

	runOnce := func() map[task.Category]int {
		sink := reports.NewMemorySink()
		svc := newRunService(t, transport, sink)
		req := baseRequest()
		req.Categories = nil
		req.NumTasks = 5

		summary, err := svc.Run(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, 5, summary.TasksTotal)

		persisted, err := sink.ListReports(context.Background(), summary.RunID)
		require.NoError(t, err)
		counts := make(map[task.Category]int)
		for _, r := range persisted {
			counts[r.Category]++
		}
		return counts
	}

	assert.Equal(t, runOnce(), runOnce(), "seeded sampling replays the same plan")
}
