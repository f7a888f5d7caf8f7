package config

import (
	"math"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Analysis.ExtremaWindow != 10 {
		t.Errorf("ExtremaWindow = %d, want 10", cfg.Analysis.ExtremaWindow)
	}
	if cfg.Analysis.SwingWindow != 3 {
		t.Errorf("SwingWindow = %d, want 3", cfg.Analysis.SwingWindow)
	}
	if cfg.Analysis.ATRPeriod != 14 {
		t.Errorf("ATRPeriod = %d, want 14", cfg.Analysis.ATRPeriod)
	}
	if cfg.Analysis.MinCandles != 20 {
		t.Errorf("MinCandles = %d, want 20", cfg.Analysis.MinCandles)
	}
	if cfg.Analysis.MaxProposals != 5 {
		t.Errorf("MaxProposals = %d, want 5", cfg.Analysis.MaxProposals)
	}
	if cfg.Analysis.FetchLimit != 200 {
		t.Errorf("FetchLimit = %d, want 200", cfg.Analysis.FetchLimit)
	}
	if cfg.MTF.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout = %v, want 3s", cfg.MTF.FetchTimeout)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Cache.Backend)
	}

	w := cfg.Analysis.Weights
	sum := w.TouchPoints + w.VolumeWeight + w.TimeframeConfluence + w.PatternConfirmation + w.StatisticalFit
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("default weights sum to %v, want 1", sum)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero extrema window", func(c *Config) { c.Analysis.ExtremaWindow = 0 }},
		{"zero swing window", func(c *Config) { c.Analysis.SwingWindow = 0 }},
		{"zero atr period", func(c *Config) { c.Analysis.ATRPeriod = 0 }},
		{"negative tolerance", func(c *Config) { c.Analysis.ToleranceMultiplier = -0.1 }},
		{"min candles below 2", func(c *Config) { c.Analysis.MinCandles = 1 }},
		{"zero max proposals", func(c *Config) { c.Analysis.MaxProposals = 0 }},
		{"negative dedupe tolerance", func(c *Config) { c.Analysis.DedupeTolerance = -0.01 }},
		{"weight above 1", func(c *Config) { c.Analysis.Weights.TouchPoints = 1.5 }},
		{"negative weight", func(c *Config) { c.Analysis.Weights.StatisticalFit = -0.2 }},
		{"zero fetch timeout", func(c *Config) { c.MTF.FetchTimeout = 0 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() accepted an invalid config", tc.name)
		}
	}
}

func TestLoadCreatesTemplateAndAppliesEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHART_ADVISOR_LOG_LEVEL", "debug")
	t.Setenv("CHART_ADVISOR_MAX_PROPOSALS", "9")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() returned %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want env override", cfg.Logging.Level)
	}
	if cfg.Analysis.MaxProposals != 9 {
		t.Errorf("MaxProposals = %d, want env override 9", cfg.Analysis.MaxProposals)
	}

	// A template config.toml should have been written for next time.
	second, err := Load(dir)
	if err != nil {
		t.Fatalf("second Load() returned %v", err)
	}
	if second.Analysis.ExtremaWindow != 10 {
		t.Errorf("template config lost defaults: ExtremaWindow = %d", second.Analysis.ExtremaWindow)
	}
}

func TestLoadRejectsInvalidEnvBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHART_ADVISOR_CACHE_BACKEND", "memcached")

	if _, err := Load(dir); err == nil {
		t.Error("Load() accepted an unknown cache backend")
	}
}
