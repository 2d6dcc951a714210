package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"fabbench/domain/core"
	"fabbench/domain/report"
	"fabbench/domain/score"
	"fabbench/domain/task"
	"fabbench/internal"
	"fabbench/internal/alpha"
	"fabbench/internal/debate"
	"fabbench/internal/scoring"
	"fabbench/ports"
)

// RunService orchestrates a full benchmark run: generate, dispatch, score,
// debate, aggregate, persist. Tasks are evaluated concurrently under a
// weighted semaphore; one task's failure never aborts the run.
type RunService struct {
	generator  *GenerateService
	transport  ports.AgentTransport
	engine     *scoring.Engine
	debates    *debate.Engine
	aggregator *alpha.Aggregator
	sink       ports.ReportSink
	rngPort    ports.RNGPort
	logger     *internal.Logger
}

// RunRequest defines inputs for one benchmark run
type RunRequest struct {
	AgentID        core.AgentID
	Ticker         string
	AsOf           core.SimClock
	Seed           int64
	NumTasks       int
	Categories     []task.Category // empty means sample from the full set
	TaskTimeout    time.Duration
	DebateEnabled  bool
	MaxConcurrency int
}

// NewRunService creates a benchmark run service
func NewRunService(
	generator *GenerateService,
	transport ports.AgentTransport,
	engine *scoring.Engine,
	debates *debate.Engine,
	aggregator *alpha.Aggregator,
	sink ports.ReportSink,
	rngPort ports.RNGPort,
) *RunService {
	return &RunService{
		generator:  generator,
		transport:  transport,
		engine:     engine,
		debates:    debates,
		aggregator: aggregator,
		sink:       sink,
		rngPort:    rngPort,
		logger:     internal.DefaultLogger,
	}
}

// Run evaluates the agent over the planned task set and returns the run
// summary. Cancellation mid-run persists the partial results: finished
// tasks keep their reports and unfinished ones are recorded as cancelled.
func (s *RunService) Run(ctx context.Context, req RunRequest) (*report.RunSummary, error) {
	runID := core.RunID(core.NewID())
	categories, err := s.planCategories(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[Run] %s starting: agent=%s tasks=%d as_of=%s", runID, req.AgentID, len(categories), req.AsOf)

	maxWorkers := int64(req.MaxConcurrency)
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	sem := semaphore.NewWeighted(maxWorkers)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports = make([]report.TaskReport, 0, len(categories))
	)
	collect := func(r report.TaskReport) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
	}

	for i, cat := range categories {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Run cancelled while waiting for a worker slot; record the
			// remaining tasks and stop dispatching.
			for _, rest := range categories[i:] {
				collect(s.cancelledReport(runID, rest, req))
			}
			break
		}
		wg.Add(1)
		go func(cat task.Category, seedOffset int64) {
			defer wg.Done()
			defer sem.Release(1)
			r := s.evaluateTask(ctx, runID, cat, req, seedOffset)
			if err := s.sink.SaveReport(ctx, r); err != nil {
				s.logger.Error("[Run] failed to persist report for task %s: %v", r.TaskID, err)
			}
			collect(r)
		}(cat, int64(i))
	}
	wg.Wait()

	summary := report.Summarize(runID, req.AgentID, reports)
	if err := s.sink.SaveSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to persist run summary: %w", err)
	}
	s.logger.Info("[Run] %s finished: scored=%d/%d mean_alpha=%.2f",
		runID, summary.TasksScored, summary.TasksTotal, summary.MeanAlpha)
	return &summary, nil
}

// planCategories resolves the run's task list. An explicit category list is
// taken as-is after validation; otherwise NumTasks categories are drawn
// deterministically from the full set using the run seed.
func (s *RunService) planCategories(ctx context.Context, req RunRequest) ([]task.Category, error) {
	if len(req.Categories) > 0 {
		for _, c := range req.Categories {
			if !c.Valid() {
				return nil, core.NewConfigError("categories", fmt.Sprintf("unknown category %q", c))
			}
		}
		return req.Categories, nil
	}

	n := req.NumTasks
	if n < 1 {
		n = 1
	}
	all := task.AllCategories()
	stream, err := s.rngPort.SeededStream(ctx, "plan", req.Seed)
	if err != nil {
		return nil, err
	}
	stream.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	out := make([]task.Category, 0, n)
	for len(out) < n {
		out = append(out, all[len(out)%len(all)])
	}
	return out, nil
}

// evaluateTask runs the full pipeline for one category. All task-scoped
// failures are converted into report entries with an explicit status.
func (s *RunService) evaluateTask(ctx context.Context, runID core.RunID, cat task.Category, req RunRequest, seedOffset int64) report.TaskReport {
	gen, err := s.generator.Generate(ctx, GenerateRequest{
		Category: cat,
		Ticker:   req.Ticker,
		AsOf:     req.AsOf,
		Seed:     req.Seed + seedOffset,
	})
	if err != nil {
		s.logger.Warn("[Run] generation failed for category %s: %v", cat, err)
		return report.TaskReport{
			TaskID:   core.TaskID(core.NewID()),
			RunID:    runID,
			Category: cat,
			Ticker:   req.Ticker,
			AsOf:     req.AsOf,
			Status:   report.StatusGenerationFailed,
			Reason:   err.Error(),
		}
	}
	t := gen.Task

	base := report.TaskReport{
		TaskID:      t.ID,
		RunID:       runID,
		Category:    t.Category,
		Difficulty:  t.Difficulty,
		Ticker:      t.Ticker,
		AsOf:        t.AsOf,
		Lookahead:   gen.Lookahead,
		Fingerprint: t.Fingerprint,
	}

	sub, status, reason := s.collectSubmission(ctx, req, t)
	if status != report.StatusCompleted {
		base.Status = status
		base.Reason = reason
		base.Cost = sub.Cost
		return base
	}

	components := s.engine.Score(sub, t.GroundTruth, t.Category, t.Rubric)

	round := score.DebateRound{Multiplier: 1.0}
	if req.DebateEnabled {
		round = s.debates.Run(ctx, req.AgentID, t.ID, sub, t.GroundTruth)
	}

	alphaScore := s.aggregator.Aggregate(components.Total(), round, sub.Cost)

	base.Status = report.StatusCompleted
	base.Components = components
	base.BaseScore = alphaScore.Base
	base.DebateMultiplier = alphaScore.DebateMultiplier
	base.Alpha = alphaScore
	base.Cost = sub.Cost
	return base
}

// collectSubmission dispatches the task and validates the response into a
// scoreable submission.
func (s *RunService) collectSubmission(ctx context.Context, req RunRequest, t task.GeneratedTask) (score.Submission, report.Status, string) {
	taskCtx := ctx
	if req.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, req.TaskTimeout)
		defer cancel()
	}

	env, err := s.transport.SendTask(taskCtx, req.AgentID, ports.TaskEnvelope{
		TaskID:   t.ID,
		Prompt:   t.Prompt,
		Category: string(t.Category),
		Ticker:   t.Ticker,
		Deadline: req.TaskTimeout,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return score.Submission{}, report.StatusSubmissionTimeout, core.ErrSubmissionTimeout.Error()
		}
		if ctx.Err() != nil {
			return score.Submission{}, report.StatusCancelled, ctx.Err().Error()
		}
		return score.Submission{}, report.StatusSubmissionTimeout, err.Error()
	}

	if strings.TrimSpace(env.Payload) == "" {
		return score.Submission{Cost: env.Cost}, report.StatusMalformed, core.ErrMalformedSubmission.Error()
	}
	if err := env.Cost.Validate(); err != nil {
		return score.Submission{}, report.StatusMalformed, fmt.Sprintf("%v: %v", core.ErrMalformedSubmission, err)
	}

	parsed := scoring.ParseSubmission(env.Payload)
	return score.Submission{
		TaskID:         t.ID,
		AgentID:        req.AgentID,
		Analysis:       env.Payload,
		Recommendation: parsed.Recommendation,
		ToolTrace:      env.ToolTrace,
		Cost:           env.Cost,
	}, report.StatusCompleted, ""
}

func (s *RunService) cancelledReport(runID core.RunID, cat task.Category, req RunRequest) report.TaskReport {
	return report.TaskReport{
		TaskID:   core.TaskID(core.NewID()),
		RunID:    runID,
		Category: cat,
		Ticker:   req.Ticker,
		AsOf:     req.AsOf,
		Status:   report.StatusCancelled,
		Reason:   "run cancelled before dispatch",
	}
}
