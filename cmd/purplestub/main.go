// Command purplestub runs a minimal finance agent for local benchmark runs
// and integration testing. It produces a fixed-shape markdown submission
// with a recommendation, a few figures and a risk section, plus a short
// rebuttal to any challenge.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fabbench/domain/score"
	"fabbench/ports"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.Default()
	r.POST("/task", handleTask)
	r.POST("/challenge", handleChallenge)

	fmt.Printf("purplestub listening on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		fmt.Fprintf(os.Stderr, "purplestub: %v\n", err)
		os.Exit(1)
	}
}

func handleTask(c *gin.Context) {
	var env ports.TaskEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis := buildAnalysis(env)
	c.JSON(http.StatusOK, ports.SubmissionEnvelope{
		TaskID:  env.TaskID,
		Payload: analysis,
		ToolTrace: []score.ToolCall{
			{Name: "get_filings", Argument: env.Ticker, DurationMs: 12},
			{Name: "get_estimates", Argument: env.Ticker, DurationMs: 8},
		},
		Cost: score.CostMetrics{
			PromptTokens:     1200,
			CompletionTokens: 450,
			ToolCalls:        2,
			CostUSD:          0.04,
		},
	})
}

func buildAnalysis(env ports.TaskEnvelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis: %s\n\n", env.Ticker)
	b.WriteString("## Thesis\n\n")
	fmt.Fprintf(&b, "Based on the available filings and estimates, %s shows resilient demand. ", env.Ticker)
	b.WriteString("Revenue of $20,500,000,000 and EPS of 3.25 against consensus of 3.10 imply a beat of 4.8%.\n\n")
	b.WriteString("## Recommendation\n\n")
	b.WriteString("Buy. The company is positioned to beat expectations again next quarter.\n\n")
	b.WriteString("## Risk\n\n")
	b.WriteString("Key risks include volatility around guidance, customer concentration, and max loss on ")
	b.WriteString("any options overlay limited to premium paid with breakeven near the strike.\n")
	return b.String()
}

func handleChallenge(c *gin.Context) {
	var env ports.ChallengeEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Simulate thinking time without risking the deadline.
	time.Sleep(50 * time.Millisecond)

	rebuttal := fmt.Sprintf(
		"The challenge (%q) overlooks the reported figures: EPS of 3.25 versus consensus 3.10 is a "+
			"4.8%% beat, and segment revenue supports the thesis. The opposing stance would require "+
			"demand deterioration that no filing in the period shows.",
		truncate(env.CounterArgument, 80))
	c.JSON(http.StatusOK, gin.H{"rebuttal": rebuttal})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
