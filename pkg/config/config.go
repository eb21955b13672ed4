package config

import (
	"fmt"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/analyzer"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RULESCORE_DATABASE_URL
const EnvPrefix = "RULESCORE"

var validOutputFormats = map[string]bool{
	"text": true, "json": true, "csv": true, "markdown": true, "html": true,
}

// Config holds application configuration
type Config struct {
	// Prometheus
	PrometheusURL  string
	PrometheusStep time.Duration
	SamplesWindow  time.Duration

	// Storage
	StorageEnabled bool
	DatabaseURL    string

	// Analysis thresholds
	ExecutionTimeThresholdMs float64
	MemoryThreshold          float64
	CPUThreshold             float64
	EfficiencyTarget         float64
	ErrorRateTolerance       float64
	StableSlope              float64
	TrendAxis                string
	BaselineWindow           int
	MaxInsights              int
	CacheEnabled             bool
	CacheTTL                 time.Duration

	// Per-call defaults
	IncludeTrends       bool
	IncludePredictions  bool
	ConfidenceThreshold float64

	// Output
	OutputFormat string
	Verbose      bool
}

// SetDefaults registers every key with its default on v
func SetDefaults(v *viper.Viper) {
	s := analyzer.DefaultSettings()
	o := analyzer.DefaultOptions()

	v.SetDefault("prometheus_url", "http://localhost:9090")
	v.SetDefault("prometheus_step", time.Minute)
	v.SetDefault("samples_window", 24*time.Hour)

	v.SetDefault("storage_enabled", false)
	v.SetDefault("database_url", "host=localhost port=5432 user=rulescore password=devpassword dbname=rulescore sslmode=disable")

	v.SetDefault("execution_time_threshold_ms", s.ExecutionTimeThresholdMs)
	v.SetDefault("memory_threshold", s.MemoryThreshold)
	v.SetDefault("cpu_threshold", s.CPUThreshold)
	v.SetDefault("efficiency_target", s.EfficiencyTarget)
	v.SetDefault("error_rate_tolerance", s.ErrorRateTolerance)
	v.SetDefault("stable_slope", s.StableSlope)
	v.SetDefault("trend_axis", string(s.TrendAxis))
	v.SetDefault("baseline_window", s.BaselineWindow)
	v.SetDefault("max_insights", s.MaxInsights)
	v.SetDefault("cache_enabled", s.CacheEnabled)
	v.SetDefault("cache_ttl", s.CacheTTL)

	v.SetDefault("include_trends", o.IncludeTrends)
	v.SetDefault("include_predictions", o.IncludePredictions)
	v.SetDefault("confidence_threshold", o.ConfidenceThreshold)

	v.SetDefault("output_format", "text")
	v.SetDefault("verbose", false)
}

// Load reads defaults, an optional config file and RULESCORE_* environment
// overrides into a Config. An empty path skips the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return New(v), nil
}

// New builds a Config from the current values of v
func New(v *viper.Viper) *Config {
	return &Config{
		PrometheusURL:  v.GetString("prometheus_url"),
		PrometheusStep: v.GetDuration("prometheus_step"),
		SamplesWindow:  v.GetDuration("samples_window"),

		StorageEnabled: v.GetBool("storage_enabled"),
		DatabaseURL:    v.GetString("database_url"),

		ExecutionTimeThresholdMs: v.GetFloat64("execution_time_threshold_ms"),
		MemoryThreshold:          v.GetFloat64("memory_threshold"),
		CPUThreshold:             v.GetFloat64("cpu_threshold"),
		EfficiencyTarget:         v.GetFloat64("efficiency_target"),
		ErrorRateTolerance:       v.GetFloat64("error_rate_tolerance"),
		StableSlope:              v.GetFloat64("stable_slope"),
		TrendAxis:                v.GetString("trend_axis"),
		BaselineWindow:           v.GetInt("baseline_window"),
		MaxInsights:              v.GetInt("max_insights"),
		CacheEnabled:             v.GetBool("cache_enabled"),
		CacheTTL:                 v.GetDuration("cache_ttl"),

		IncludeTrends:       v.GetBool("include_trends"),
		IncludePredictions:  v.GetBool("include_predictions"),
		ConfidenceThreshold: v.GetFloat64("confidence_threshold"),

		OutputFormat: v.GetString("output_format"),
		Verbose:      v.GetBool("verbose"),
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("database_url must be set when storage is enabled")
	}
	if c.SamplesWindow <= 0 {
		return fmt.Errorf("samples window must be positive")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be within [0, 1], got %.2f", c.ConfidenceThreshold)
	}
	if c.EfficiencyTarget < 0 || c.EfficiencyTarget > 100 {
		return fmt.Errorf("efficiency target must be within [0, 100], got %.1f", c.EfficiencyTarget)
	}
	if c.ErrorRateTolerance < 0 || c.ErrorRateTolerance > 100 {
		return fmt.Errorf("error rate tolerance must be within [0, 100], got %.1f", c.ErrorRateTolerance)
	}
	if c.StableSlope < 0 {
		return fmt.Errorf("stable slope must not be negative")
	}
	if c.BaselineWindow < 0 {
		return fmt.Errorf("baseline window must not be negative")
	}
	if c.MaxInsights < 1 {
		return fmt.Errorf("max insights must be at least 1")
	}
	switch analyzer.TrendAxis(c.TrendAxis) {
	case analyzer.AxisIndex, analyzer.AxisElapsed:
	default:
		return fmt.Errorf("invalid trend axis: %s (valid: index, elapsed)", c.TrendAxis)
	}
	if !validOutputFormats[c.OutputFormat] {
		return fmt.Errorf("invalid output format: %s (valid: text, json, csv, markdown, html)", c.OutputFormat)
	}
	return nil
}

// AnalyzerSettings converts the configuration into analyzer settings
func (c *Config) AnalyzerSettings() analyzer.Settings {
	s := analyzer.DefaultSettings()
	s.ExecutionTimeThresholdMs = c.ExecutionTimeThresholdMs
	s.MemoryThreshold = c.MemoryThreshold
	s.CPUThreshold = c.CPUThreshold
	s.EfficiencyTarget = c.EfficiencyTarget
	s.ErrorRateTolerance = c.ErrorRateTolerance
	s.StableSlope = c.StableSlope
	s.TrendAxis = analyzer.TrendAxis(c.TrendAxis)
	s.BaselineWindow = c.BaselineWindow
	s.MaxInsights = c.MaxInsights
	s.CacheEnabled = c.CacheEnabled
	s.CacheTTL = c.CacheTTL
	return s
}

// DefaultOptions returns the per-call analysis options
func (c *Config) DefaultOptions() analyzer.Options {
	return analyzer.Options{
		IncludeTrends:       c.IncludeTrends,
		IncludePredictions:  c.IncludePredictions,
		ConfidenceThreshold: c.ConfidenceThreshold,
		UseCache:            c.CacheEnabled,
	}
}
