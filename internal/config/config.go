package config

import (
	"os"
	"strconv"
	"time"

	"fabbench/internal/errors"
	"fabbench/internal/scoring"
)

// Config represents the complete benchmark configuration
type Config struct {
	Run      RunConfig `validate:"required"`
	Agent    AgentConfig
	Scoring  ScoringConfig
	Database DatabaseConfig
	Server   ServerConfig
	Paths    PathConfig
}

// RunConfig holds benchmark run settings
type RunConfig struct {
	Ticker         string
	NumTasks       int
	Seed           int64
	AsOf           time.Time
	MaxConcurrency int
	DebateEnabled  bool
}

// AgentConfig holds settings for reaching the agent under evaluation
type AgentConfig struct {
	Endpoint       string `validate:"required"`
	TaskTimeout    time.Duration
	DebateTimeout  time.Duration
	RequestRetries int
}

// ScoringConfig holds scorer weights and cost references
type ScoringConfig struct {
	ThesisWeight      float64
	FundamentalWeight float64
	ExecutionWeight   float64
	ReferenceCostUSD  float64
	ReferenceTokens   float64
}

// DatabaseConfig holds report ledger and record store connection settings.
// RecordSource selects where market records come from: "memory" serves the
// synthetic universe, "postgres" serves the market_records table (optionally
// seeded from the synthetic universe with SeedRecords).
type DatabaseConfig struct {
	URL          string
	SSLMode      string
	RecordSource string
	SeedRecords  bool
}

// ServerConfig holds results API server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths
type PathConfig struct {
	ExcelFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Run:      loadRunConfig(),
		Scoring:  loadScoringConfig(),
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Paths:    loadPathConfig(),
	}

	agentConfig, err := loadAgentConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load agent configuration")
	}
	config.Agent = *agentConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadServer reads only the sections the results API needs. The agent
// endpoint is not required here.
func LoadServer() (*Config, error) {
	return &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
	}, nil
}

func loadRunConfig() RunConfig {
	asOf := time.Now().UTC()
	if raw := os.Getenv("AS_OF"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			asOf = parsed
		} else if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			asOf = parsed
		}
	}
	return RunConfig{
		Ticker:         getEnvOrDefault("TICKER", "NVDA"),
		NumTasks:       getEnvIntOrDefault("NUM_TASKS", 1),
		Seed:           int64(getEnvIntOrDefault("SEED", 42)),
		AsOf:           asOf,
		MaxConcurrency: getEnvIntOrDefault("MAX_CONCURRENCY", 4),
		DebateEnabled:  getEnvBoolOrDefault("DEBATE_ENABLED", true),
	}
}

func loadAgentConfig() (*AgentConfig, error) {
	endpoint := os.Getenv("AGENT_ENDPOINT")
	if endpoint == "" {
		return nil, errors.ConfigInvalid("AGENT_ENDPOINT is required")
	}
	return &AgentConfig{
		Endpoint:       endpoint,
		TaskTimeout:    getEnvDurationOrDefault("TASK_TIMEOUT", 300*time.Second),
		DebateTimeout:  getEnvDurationOrDefault("DEBATE_TIMEOUT", 120*time.Second),
		RequestRetries: getEnvIntOrDefault("AGENT_RETRIES", 1),
	}, nil
}

func loadScoringConfig() ScoringConfig {
	return ScoringConfig{
		ThesisWeight:      getEnvFloatOrDefault("THESIS_WEIGHT", 0.4),
		FundamentalWeight: getEnvFloatOrDefault("FUNDAMENTAL_WEIGHT", 0.4),
		ExecutionWeight:   getEnvFloatOrDefault("EXECUTION_WEIGHT", 0.2),
		ReferenceCostUSD:  getEnvFloatOrDefault("REFERENCE_COST_USD", 0.50),
		ReferenceTokens:   getEnvFloatOrDefault("REFERENCE_TOKENS", 20000),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnvOrDefault("DATABASE_URL", ""),
		SSLMode:      getEnvOrDefault("SSL_MODE", "disable"),
		RecordSource: getEnvOrDefault("RECORD_SOURCE", "memory"),
		SeedRecords:  getEnvBoolOrDefault("SEED_RECORDS", false),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		ExcelFile: getEnvOrDefault("EXCEL_FILE", ""),
	}
}

// RoleWeights adapts the scoring section into the scorer's weight set.
func (c *Config) RoleWeights() scoring.RoleWeights {
	return scoring.RoleWeights{
		Thesis:      c.Scoring.ThesisWeight,
		Fundamental: c.Scoring.FundamentalWeight,
		Execution:   c.Scoring.ExecutionWeight,
	}
}

func validateConfig(config *Config) error {
	if config.Agent.Endpoint == "" {
		return errors.ConfigInvalid("agent endpoint is required")
	}
	if config.Run.NumTasks < 1 {
		return errors.ConfigInvalid("NUM_TASKS must be at least 1")
	}
	if config.Run.MaxConcurrency < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENCY must be at least 1")
	}
	if config.Run.Ticker == "" {
		return errors.ConfigInvalid("ticker is required")
	}
	if !config.RoleWeights().Validate() {
		return errors.ConfigInvalid("role scorer weights must be non-negative and sum to 1")
	}
	if config.Agent.TaskTimeout <= 0 || config.Agent.DebateTimeout <= 0 {
		return errors.ConfigInvalid("timeouts must be positive")
	}
	switch config.Database.RecordSource {
	case "memory":
	case "postgres":
		if config.Database.URL == "" {
			return errors.ConfigInvalid("RECORD_SOURCE=postgres requires DATABASE_URL")
		}
	default:
		return errors.ConfigInvalid("RECORD_SOURCE must be memory or postgres")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
