// Package cli provides the command-line interface for the chart advisor.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chart-advisor/internal/cache"
	"chart-advisor/internal/config"
	"chart-advisor/internal/logging"
	"chart-advisor/internal/marketdata"
	"chart-advisor/internal/proposals"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Provider  marketdata.Provider
	Store     cache.Store
	Generator *proposals.Generator
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Candle source. The simulated provider is deterministic per symbol
	// and interval, which keeps repeated runs comparable.
	app.Provider = marketdata.NewSimulatedProvider(time.Now().UnixNano() / int64(24*time.Hour))

	switch cfg.Cache.Backend {
	case "redis":
		store := cache.NewRedisStore(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
			app.Store = cache.NewMemoryStore()
		} else {
			app.Store = store
			logger.Debug().Str("addr", cfg.Cache.Addr).Msg("Redis cache initialized")
		}
		cancel()
	default:
		app.Store = cache.NewMemoryStore()
		logger.Debug().Msg("In-memory cache initialized")
	}

	app.Generator = proposals.NewGenerator(app.Provider, app.Store, cfg, logger)

	rootCmd := &cobra.Command{
		Use:   "chart-advisor",
		Short: "Chart Advisor - drawing proposal engine for market charts",
		Long: `Chart Advisor analyzes OHLCV candle series and proposes chart drawings:
trendlines, horizontal support/resistance levels, fibonacci retracements,
and chart patterns, each with a confidence score and reasoning.

Use 'chart-advisor help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/chart-advisor)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newProposeCmd(app))
	rootCmd.AddCommand(newMTFCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Chart Advisor v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Analysis Configuration")
	output.Printf("  Extrema Window:   %d\n", cfg.Analysis.ExtremaWindow)
	output.Printf("  Swing Window:     %d\n", cfg.Analysis.SwingWindow)
	output.Printf("  ATR Period:       %d\n", cfg.Analysis.ATRPeriod)
	output.Printf("  Tolerance Mult:   %.2f\n", cfg.Analysis.ToleranceMultiplier)
	output.Printf("  Min Touches:      %d\n", cfg.Analysis.MinTouches)
	output.Printf("  Min Candles:      %d\n", cfg.Analysis.MinCandles)
	output.Printf("  Max Proposals:    %d\n", cfg.Analysis.MaxProposals)
	output.Printf("  Fetch Limit:      %d\n", cfg.Analysis.FetchLimit)
	output.Printf("  Dedupe Tolerance: %.4f\n", cfg.Analysis.DedupeTolerance)
	output.Println()

	output.Bold("Confidence Weights")
	output.Printf("  Touch Points:         %.2f\n", cfg.Analysis.Weights.TouchPoints)
	output.Printf("  Volume Weight:        %.2f\n", cfg.Analysis.Weights.VolumeWeight)
	output.Printf("  Timeframe Confluence: %.2f\n", cfg.Analysis.Weights.TimeframeConfluence)
	output.Printf("  Pattern Confirmation: %.2f\n", cfg.Analysis.Weights.PatternConfirmation)
	output.Printf("  Statistical Fit:      %.2f\n", cfg.Analysis.Weights.StatisticalFit)
	output.Println()

	output.Bold("Multi-Timeframe")
	output.Printf("  Fetch Timeout: %s\n", cfg.MTF.FetchTimeout)
	output.Printf("  Candle Limit:  %d\n", cfg.MTF.CandleLimit)
	output.Println()

	output.Bold("Cache")
	output.Printf("  Backend: %s\n", cfg.Cache.Backend)
	if cfg.Cache.Backend == "redis" {
		output.Printf("  Addr:    %s\n", cfg.Cache.Addr)
		output.Printf("  DB:      %d\n", cfg.Cache.DB)
	}
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:   %s\n", cfg.Logging.Level)
	output.Printf("  Console: %v\n", cfg.Logging.Console)
	output.Printf("  File:    %v\n", cfg.Logging.File)

	return nil
}
