// Package debate runs the adversarial challenge round: pick the weakest
// claim in a submission, challenge the agent, and grade the rebuttal into
// a score multiplier in [0.8, 1.2].
package debate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fabbench/domain/core"
	"fabbench/domain/score"
	"fabbench/domain/task"
	"fabbench/internal"
	"fabbench/internal/scoring"
	"fabbench/ports"
)

// Engine drives one challenge round per task over the agent transport.
type Engine struct {
	transport ports.AgentTransport
	timeout   time.Duration
	logger    *internal.Logger
}

func NewEngine(transport ports.AgentTransport, timeout time.Duration) *Engine {
	return &Engine{
		transport: transport,
		timeout:   timeout,
		logger:    internal.DefaultLogger,
	}
}

// Run challenges the agent's weakest claim and returns the completed round.
// A timeout or transport failure is not an error: the round completes with
// TimedOut set and the floor multiplier, matching the benchmark rule that
// an undefended submission keeps at most its base score.
func (e *Engine) Run(ctx context.Context, agent core.AgentID, taskID core.TaskID, sub score.Submission, gt task.GroundTruth) score.DebateRound {
	parsed := scoring.ParseSubmission(sub.Analysis)
	claim := SelectWeakestClaim(parsed)
	counter := BuildCounterArgument(claim, gt)

	round := score.DebateRound{
		CounterArgument: counter,
		TargetClaim:     claim.Text,
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rebuttal, err := e.transport.SendChallenge(ctx, agent, ports.ChallengeEnvelope{
		TaskID:          taskID,
		CounterArgument: counter,
		Deadline:        e.timeout,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.logger.Warn("[Debate] rebuttal timed out for task %s", taskID)
		} else {
			e.logger.Warn("[Debate] challenge failed for task %s: %v", taskID, err)
		}
		round.TimedOut = true
		round.Quality = 0
		round.Multiplier = score.MinDebateMultiplier
		return round
	}

	round.Rebuttal = rebuttal
	round.Quality = RebuttalQuality(rebuttal, claim, counter)
	round.Multiplier = score.MultiplierFromQuality(round.Quality)
	return round
}

// SelectWeakestClaim picks the claim most in need of defense: hedged
// language first, then claims stated without quantitative support, then
// the shortest claim. Empty submissions yield an empty claim, which still
// produces a generic challenge.
func SelectWeakestClaim(parsed scoring.ParsedSubmission) scoring.Claim {
	if len(parsed.Claims) == 0 {
		return scoring.Claim{}
	}

	best := parsed.Claims[0]
	bestRank := claimWeakness(best)
	for _, c := range parsed.Claims[1:] {
		if r := claimWeakness(c); r > bestRank {
			best, bestRank = c, r
		}
	}
	return best
}

// claimWeakness ranks how challengeable a claim is. Higher is weaker.
func claimWeakness(c scoring.Claim) int {
	rank := 0
	if c.HasHedging {
		rank += 2
	}
	if !c.HasNumber {
		rank += 1
	}
	return rank
}

// BuildCounterArgument composes the challenge text. When ground truth
// carries a direction or figure, the counter takes the opposite stance.
func BuildCounterArgument(claim scoring.Claim, gt task.GroundTruth) string {
	var b strings.Builder
	if claim.Text != "" {
		fmt.Fprintf(&b, "Your claim %q is not adequately supported. ", claim.Text)
	} else {
		b.WriteString("Your analysis lacks a defensible central claim. ")
	}
	if gt.Direction != "" {
		fmt.Fprintf(&b, "Consensus positioning suggests the opposite of %q; justify your stance with specific evidence. ", gt.Direction)
	}
	b.WriteString("Cite concrete figures and address the strongest objection to your thesis.")
	return b.String()
}

var evidenceRe = regexp.MustCompile(`\d`)

// RebuttalQuality grades a rebuttal into [0,1]: 0.4 for quantitative
// evidence, 0.4 for engaging the specific challenge, 0.2 for structured
// reasoning length.
func RebuttalQuality(rebuttal string, claim scoring.Claim, counter string) float64 {
	text := strings.TrimSpace(rebuttal)
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	q := 0.0
	if evidenceRe.MatchString(text) {
		q += 0.4
	}

	engagement := 0.0
	if claim.Text != "" && overlaps(lower, claim.Text) {
		engagement += 0.2
	}
	if overlaps(lower, counter) {
		engagement += 0.2
	}
	if engagement == 0 && len(text) > 80 {
		// Long rebuttals that restate the thesis still count as partial
		// engagement.
		engagement = 0.1
	}
	q += engagement

	if strings.Count(text, ".") >= 2 && len(text) >= 120 {
		q += 0.2
	}
	return q
}

// overlaps reports whether the rebuttal shares substantive words with the
// reference text.
func overlaps(lowerRebuttal, reference string) bool {
	hits := 0
	for _, word := range strings.Fields(strings.ToLower(reference)) {
		word = strings.Trim(word, `.,;:"'()?!`)
		if len(word) < 5 {
			continue
		}
		if strings.Contains(lowerRebuttal, word) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}
