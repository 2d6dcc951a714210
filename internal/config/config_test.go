package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAgentEndpoint(t *testing.T) {
	t.Helper()
	t.Setenv("AGENT_ENDPOINT", "http://localhost:9000")
}

func TestLoad_Defaults(t *testing.T) {
	setAgentEndpoint(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NVDA", cfg.Run.Ticker)
	assert.Equal(t, 1, cfg.Run.NumTasks)
	assert.Equal(t, int64(42), cfg.Run.Seed)
	assert.Equal(t, 4, cfg.Run.MaxConcurrency)
	assert.True(t, cfg.Run.DebateEnabled)

	assert.Equal(t, "http://localhost:9000", cfg.Agent.Endpoint)
	assert.Equal(t, 300*time.Second, cfg.Agent.TaskTimeout)
	assert.Equal(t, 120*time.Second, cfg.Agent.DebateTimeout)
	assert.Equal(t, 1, cfg.Agent.RequestRetries)

	assert.Equal(t, 0.50, cfg.Scoring.ReferenceCostUSD)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.RecordSource)
	assert.False(t, cfg.Database.SeedRecords)
}

func TestLoad_RecordSource(t *testing.T) {
	setAgentEndpoint(t)

	t.Setenv("RECORD_SOURCE", "postgres")
	_, err := Load()
	assert.Error(t, err, "postgres record source needs a database URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/fabbench")
	t.Setenv("SEED_RECORDS", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.RecordSource)
	assert.True(t, cfg.Database.SeedRecords)

	t.Setenv("RECORD_SOURCE", "csv")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_RequiresAgentEndpoint(t *testing.T) {
	t.Setenv("AGENT_ENDPOINT", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	setAgentEndpoint(t)
	t.Setenv("TICKER", "AMD")
	t.Setenv("NUM_TASKS", "6")
	t.Setenv("SEED", "7")
	t.Setenv("MAX_CONCURRENCY", "2")
	t.Setenv("DEBATE_ENABLED", "false")
	t.Setenv("TASK_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AMD", cfg.Run.Ticker)
	assert.Equal(t, 6, cfg.Run.NumTasks)
	assert.Equal(t, int64(7), cfg.Run.Seed)
	assert.Equal(t, 2, cfg.Run.MaxConcurrency)
	assert.False(t, cfg.Run.DebateEnabled)
	assert.Equal(t, 45*time.Second, cfg.Agent.TaskTimeout)
}

func TestLoad_ParsesAsOf(t *testing.T) {
	setAgentEndpoint(t)

	t.Setenv("AS_OF", "2024-06-14T16:00:00Z")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 14, 16, 0, 0, 0, time.UTC), cfg.Run.AsOf)

	t.Setenv("AS_OF", "2024-06-14")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), cfg.Run.AsOf)
}

func TestLoad_RejectsInvalidRunSettings(t *testing.T) {
	setAgentEndpoint(t)

	t.Setenv("NUM_TASKS", "0")
	_, err := Load()
	assert.Error(t, err)
	t.Setenv("NUM_TASKS", "1")

	t.Setenv("MAX_CONCURRENCY", "0")
	_, err = Load()
	assert.Error(t, err)
	t.Setenv("MAX_CONCURRENCY", "4")

	t.Setenv("THESIS_WEIGHT", "0.9")
	_, err = Load()
	assert.Error(t, err, "role weights must sum to 1")
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	setAgentEndpoint(t)
	t.Setenv("NUM_TASKS", "several")
	t.Setenv("TASK_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Run.NumTasks)
	assert.Equal(t, 300*time.Second, cfg.Agent.TaskTimeout)
}

func TestRoleWeights_AdaptsScoringSection(t *testing.T) {
	setAgentEndpoint(t)
	t.Setenv("THESIS_WEIGHT", "0.5")
	t.Setenv("FUNDAMENTAL_WEIGHT", "0.3")
	t.Setenv("EXECUTION_WEIGHT", "0.2")

	cfg, err := Load()
	require.NoError(t, err)

	w := cfg.RoleWeights()
	assert.Equal(t, 0.5, w.Thesis)
	assert.Equal(t, 0.3, w.Fundamental)
	assert.Equal(t, 0.2, w.Execution)
	assert.True(t, w.Validate())
}

func TestLoadServer_DoesNotRequireAgentEndpoint(t *testing.T) {
	t.Setenv("AGENT_ENDPOINT", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/fabbench")
	t.Setenv("PORT", "9090")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/fabbench", cfg.Database.URL)
	assert.Equal(t, "9090", cfg.Server.Port)
}
