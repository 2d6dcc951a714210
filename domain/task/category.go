package task

// Category identifies one of the 18 evaluation task families. The set is
// closed: generators and scorers dispatch on it through the template
// registry, never through conditional chains.
type Category string

const (
	CategoryBeatOrMiss            Category = "beat_or_miss"
	CategoryQuantitativeRetrieval Category = "quantitative_retrieval"
	CategoryQualitativeRetrieval  Category = "qualitative_retrieval"
	CategoryEarningsSurprise      Category = "earnings_surprise"
	CategoryRevenueGrowth         Category = "revenue_growth"
	CategoryMarginAnalysis        Category = "margin_analysis"
	CategoryGuidanceEvaluation    Category = "guidance_evaluation"
	CategoryValuation             Category = "valuation"
	CategorySegmentAnalysis       Category = "segment_analysis"
	CategoryMacroImpact           Category = "macro_impact"
	CategoryRiskAssessment        Category = "risk_assessment"
	CategoryPriceTarget           Category = "price_target"
	CategoryTrendAnalysis         Category = "trend_analysis"
	CategoryPortfolioAllocation   Category = "portfolio_allocation"
	CategoryTradeExecution        Category = "trade_execution"
	CategoryOptionsPricing        Category = "options_pricing"
	CategoryOptionsGreeks         Category = "options_greeks"
	CategoryOptionsStrategy       Category = "options_strategy"
)

// AllCategories lists every category in a fixed order.
func AllCategories() []Category {
	return []Category{
		CategoryBeatOrMiss,
		CategoryQuantitativeRetrieval,
		CategoryQualitativeRetrieval,
		CategoryEarningsSurprise,
		CategoryRevenueGrowth,
		CategoryMarginAnalysis,
		CategoryGuidanceEvaluation,
		CategoryValuation,
		CategorySegmentAnalysis,
		CategoryMacroImpact,
		CategoryRiskAssessment,
		CategoryPriceTarget,
		CategoryTrendAnalysis,
		CategoryPortfolioAllocation,
		CategoryTradeExecution,
		CategoryOptionsPricing,
		CategoryOptionsGreeks,
		CategoryOptionsStrategy,
	}
}

// IsOptions reports whether the category is scored by the options scorer
// (four fixed 25% components) instead of the role-based scorer.
func (c Category) IsOptions() bool {
	switch c {
	case CategoryOptionsPricing, CategoryOptionsGreeks, CategoryOptionsStrategy:
		return true
	}
	return false
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty grades a template
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)
