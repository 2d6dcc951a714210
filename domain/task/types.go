package task

import (
	"encoding/json"
	"fmt"
	"time"

	"fabbench/domain/core"
	"fabbench/domain/market"
)

// SlotSpec declares one data binding a template needs before it can render.
// Required slots abort generation with ErrInsufficientData when empty;
// optional slots simply widen the prompt when data is available.
type SlotSpec struct {
	Name       string
	Kind       market.RecordKind
	MinRecords int
	Lookback   time.Duration // how far before the clock the slot may reach
	Required   bool
}

// DeriveFunc computes the ground truth for a template from its bound
// snapshot. It must be a pure function of the snapshot and the clock.
type DeriveFunc func(snap market.Snapshot, asOf core.SimClock) (GroundTruth, error)

// RenderFunc renders the prompt text from the bound snapshot. Deterministic:
// identical snapshot and seed produce byte-identical prompts. The prompt must
// never disclose facts dated after the clock, including period labels.
type RenderFunc func(snap market.Snapshot, asOf core.SimClock, ticker string) string

// Template is an immutable library entry: one per category, loaded at
// startup into the registry.
type Template struct {
	ID         core.TemplateID
	Category   Category
	Difficulty Difficulty
	Slots      []SlotSpec
	Rubric     Rubric
	Render     RenderFunc
	Derive     DeriveFunc
}

// RequiredSlots returns the slots that must be filled for generation.
func (t Template) RequiredSlots() []SlotSpec {
	var out []SlotSpec
	for _, s := range t.Slots {
		if s.Required {
			out = append(out, s)
		}
	}
	return out
}

// RubricComponent is one graded criterion with its weight.
type RubricComponent struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Rubric is the category grading scheme. Component weights must sum to 1.
type Rubric struct {
	Components []RubricComponent `json:"components"`
	MaxScore   float64           `json:"max_score"`
}

// Validate checks the weight-sum invariant.
func (r Rubric) Validate() error {
	if len(r.Components) == 0 {
		return fmt.Errorf("rubric has no components")
	}
	sum := 0.0
	for _, c := range r.Components {
		if c.Weight < 0 {
			return fmt.Errorf("rubric component %q has negative weight", c.Name)
		}
		sum += c.Weight
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("rubric weights sum to %.4f, want 1.0", sum)
	}
	return nil
}

// StrategyLeg is one leg of an options strategy in the ground truth.
type StrategyLeg struct {
	Type     string  `json:"type"` // "call" | "put"
	Side     string  `json:"side"` // "long" | "short"
	Strike   float64 `json:"strike"`
	Quantity int     `json:"quantity"`
}

// GreekSet holds the option sensitivities expected from the agent.
type GreekSet struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// GroundTruth is the structured expected answer derived at generation time.
// It is owned by its GeneratedTask and never leaves the evaluator side.
type GroundTruth struct {
	Category  Category `json:"category"`
	Numeric   *float64 `json:"numeric,omitempty"`   // e.g. surprise %, fair price
	Formatted string   `json:"formatted,omitempty"` // display form of Numeric
	Direction string   `json:"direction,omitempty"` // beat/miss, buy/sell/hold, up/down
	KeyThemes []string `json:"key_themes,omitempty"`

	Greeks    *GreekSet     `json:"greeks,omitempty"`
	Legs      []StrategyLeg `json:"legs,omitempty"`
	PnL       *float64      `json:"pnl,omitempty"`
	RiskNotes []string      `json:"risk_notes,omitempty"`
}

// CanonicalJSON renders the ground truth deterministically for fingerprinting.
func (g GroundTruth) CanonicalJSON() string {
	// encoding/json marshals struct fields in declaration order, which is
	// stable across runs.
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Sprintf("unmarshalable:%v", err)
	}
	return string(data)
}

// GeneratedTask binds a template to a clock and a frozen snapshot. Created
// once per evaluation item and never mutated afterwards.
type GeneratedTask struct {
	ID          core.TaskID
	TemplateID  core.TemplateID
	Category    Category
	Difficulty  Difficulty
	Ticker      string
	AsOf        core.SimClock
	Seed        int64
	Snapshot    market.Snapshot
	Prompt      string
	GroundTruth GroundTruth
	Rubric      Rubric
	Fingerprint core.TaskFingerprint
}
