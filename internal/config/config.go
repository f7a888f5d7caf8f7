// Package config provides configuration management for the analysis engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	MTF      MTFConfig      `mapstructure:"mtf"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig holds detection and scoring parameters.
type AnalysisConfig struct {
	ExtremaWindow       int     `mapstructure:"extrema_window"`
	SwingWindow         int     `mapstructure:"swing_window"`
	ATRPeriod           int     `mapstructure:"atr_period"`
	ToleranceMultiplier float64 `mapstructure:"tolerance_multiplier"`
	MinTouches          int     `mapstructure:"min_touches"`
	MinCandles          int     `mapstructure:"min_candles"`
	MaxProposals        int     `mapstructure:"max_proposals"`
	FetchLimit          int     `mapstructure:"fetch_limit"`
	DedupeTolerance     float64 `mapstructure:"dedupe_tolerance"`

	Weights WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig holds the confidence component weights.
type WeightsConfig struct {
	TouchPoints         float64 `mapstructure:"touch_points"`
	VolumeWeight        float64 `mapstructure:"volume_weight"`
	TimeframeConfluence float64 `mapstructure:"timeframe_confluence"`
	PatternConfirmation float64 `mapstructure:"pattern_confirmation"`
	StatisticalFit      float64 `mapstructure:"statistical_fit"`
}

// MTFConfig holds multi-timeframe analysis configuration.
type MTFConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	CandleLimit  int           `mapstructure:"candle_limit"`
}

// CacheConfig holds candle cache configuration.
type CacheConfig struct {
	Backend  string `mapstructure:"backend"` // "memory", "redis"
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/chart-advisor"
	}
	return filepath.Join(home, ".config", "chart-advisor")
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.extrema_window", 10)
	v.SetDefault("analysis.swing_window", 3)
	v.SetDefault("analysis.atr_period", 14)
	v.SetDefault("analysis.tolerance_multiplier", 0.5)
	v.SetDefault("analysis.min_touches", 2)
	v.SetDefault("analysis.min_candles", 20)
	v.SetDefault("analysis.max_proposals", 5)
	v.SetDefault("analysis.fetch_limit", 200)
	v.SetDefault("analysis.dedupe_tolerance", 0.005)
	v.SetDefault("analysis.weights.touch_points", 0.25)
	v.SetDefault("analysis.weights.volume_weight", 0.20)
	v.SetDefault("analysis.weights.timeframe_confluence", 0.20)
	v.SetDefault("analysis.weights.pattern_confirmation", 0.15)
	v.SetDefault("analysis.weights.statistical_fit", 0.20)
	v.SetDefault("mtf.fetch_timeout", 3*time.Second)
	v.SetDefault("mtf.candle_limit", 100)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(DefaultConfigDir(), "logs", "advisor.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHART_ADVISOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHART_ADVISOR_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("CHART_ADVISOR_REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CHART_ADVISOR_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CHART_ADVISOR_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("CHART_ADVISOR_MAX_PROPOSALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxProposals = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.ExtremaWindow < 1 {
		return fmt.Errorf("extrema_window must be at least 1")
	}
	if c.Analysis.SwingWindow < 1 {
		return fmt.Errorf("swing_window must be at least 1")
	}
	if c.Analysis.ATRPeriod < 1 {
		return fmt.Errorf("atr_period must be at least 1")
	}
	if c.Analysis.ToleranceMultiplier < 0 {
		return fmt.Errorf("tolerance_multiplier must be non-negative")
	}
	if c.Analysis.MinCandles < 2 {
		return fmt.Errorf("min_candles must be at least 2")
	}
	if c.Analysis.MaxProposals < 1 {
		return fmt.Errorf("max_proposals must be at least 1")
	}
	if c.Analysis.DedupeTolerance < 0 {
		return fmt.Errorf("dedupe_tolerance must be non-negative")
	}
	w := c.Analysis.Weights
	for name, v := range map[string]float64{
		"touch_points":         w.TouchPoints,
		"volume_weight":        w.VolumeWeight,
		"timeframe_confluence": w.TimeframeConfluence,
		"pattern_confirmation": w.PatternConfirmation,
		"statistical_fit":      w.StatisticalFit,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("weights.%s must be between 0 and 1", name)
		}
	}
	if c.MTF.FetchTimeout <= 0 {
		return fmt.Errorf("mtf.fetch_timeout must be positive")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("invalid cache backend: %s (must be 'memory' or 'redis')", c.Cache.Backend)
	}
	return nil
}
