package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/mtf"
	"chart-advisor/internal/marketdata"
	"chart-advisor/internal/models"
	"chart-advisor/internal/proposals"
	"chart-advisor/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Generate drawing proposals for a symbol",
		Long: `Analyze a candle series and propose chart drawings:
- Trendlines fitted through swing points
- Horizontal support/resistance levels
- Fibonacci retracements over the dominant swing
- Chart patterns (triangles, head and shoulders, double tops/bottoms, flags, wedges)

Each proposal carries a confidence score, a priority, and the reasoning
behind it. Higher timeframes are checked for trend confluence.`,
		Example: `  chart-advisor analyze BTCUSDT
  chart-advisor analyze ETHUSDT --interval 4h
  chart-advisor analyze BTCUSDT --type trendline --max 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			interval, _ := cmd.Flags().GetString("interval")
			analysisType, _ := cmd.Flags().GetString("type")
			maxProposals, _ := cmd.Flags().GetInt("max")
			exclude, _ := cmd.Flags().GetStringSlice("exclude")

			req := proposals.Request{
				Symbol:       symbol,
				Interval:     models.Interval(interval),
				Type:         proposals.AnalysisType(analysisType),
				MaxProposals: maxProposals,
				ExcludeIDs:   exclude,
			}

			result, err := app.Generator.Generate(ctx, req)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			if !result.Success {
				output.Warning("No proposals: %s", result.Reason)
				return nil
			}
			renderGroup(output, result.Group)
			return nil
		},
	}

	cmd.Flags().String("interval", "1h", "candle interval (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)")
	cmd.Flags().String("type", "all", "analysis type (trendline, support-resistance, fibonacci, pattern, all)")
	cmd.Flags().Int("max", 0, "maximum proposals to return (0 = config default)")
	cmd.Flags().StringSlice("exclude", nil, "proposal IDs to exclude")

	return cmd
}

func newProposeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose <symbol>",
		Short: "Generate a proposal group and print it as JSON",
		Long: `Run the full analysis and emit the resulting proposal group as JSON,
suitable for piping into downstream tooling.`,
		Example: `  chart-advisor propose BTCUSDT --interval 1d
  chart-advisor propose ETHUSDT | jq '.group.proposals[].reasoning'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			interval, _ := cmd.Flags().GetString("interval")
			analysisType, _ := cmd.Flags().GetString("type")

			result, err := app.Generator.Generate(ctx, proposals.Request{
				Symbol:   symbol,
				Interval: models.Interval(interval),
				Type:     proposals.AnalysisType(analysisType),
			})
			if err != nil {
				return err
			}
			return output.JSON(result)
		},
	}

	cmd.Flags().String("interval", "1h", "candle interval")
	cmd.Flags().String("type", "all", "analysis type")

	return cmd
}

func newMTFCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mtf <symbol>",
		Short: "Multi-timeframe trend confluence for a symbol",
		Example: `  chart-advisor mtf BTCUSDT
  chart-advisor mtf ETHUSDT --interval 15m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalStr, _ := cmd.Flags().GetString("interval")
			interval, err := models.ParseInterval(intervalStr)
			if err != nil {
				output.Error("Invalid interval: %v", err)
				return err
			}

			limit := app.Config.MTF.CandleLimit
			candles, err := app.Provider.Klines(ctx, marketdata.Request{
				Symbol:   symbol,
				Interval: interval,
				Limit:    limit,
			})
			if err != nil {
				output.Error("Failed to fetch candles: %v", err)
				return err
			}

			analyzer := mtf.NewAnalyzer(app.Provider, app.Store, app.Config.MTF.FetchTimeout, limit, app.Logger)
			result := analyzer.Analyze(ctx, symbol, interval, candles)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":     symbol,
					"interval":   interval,
					"baseTrend":  result.BaseTrend,
					"confluence": result.Confluence,
					"checked":    result.Checked,
					"failed":     result.Failed,
					"timeframes": result.Timeframes,
				})
			}

			output.Bold("%s %s", symbol, interval)
			output.Printf("  Base trend: %s\n", trendText(output, result.BaseTrend))
			output.Println()

			table := NewTable(output, "TIMEFRAME", "TREND", "CANDLES")
			for _, t := range result.Timeframes {
				if t.Err != nil {
					table.AddRow(string(t.Interval), output.DimText("unavailable"), "-")
					continue
				}
				table.AddRow(string(t.Interval), trendText(output, t.Trend), fmt.Sprintf("%d", t.Candles))
			}
			table.Render()
			output.Println()
			output.Printf("Confluence: %s (%d checked, %d failed)\n", utils.FormatRatio(result.Confluence), result.Checked, result.Failed)
			return nil
		},
	}

	cmd.Flags().String("interval", "1h", "base candle interval")

	return cmd
}

// renderGroup prints a proposal group in human-readable form.
func renderGroup(output *Output, group *proposals.ProposalGroup) {
	output.Bold("%s", group.Title)
	output.Dim("%s", group.Description)
	output.Println()

	if len(group.Proposals) == 0 {
		output.Warning("No drawings met the confidence bar.")
		return
	}

	table := NewTable(output, "KIND", "DIRECTION", "PRICE", "CONFIDENCE", "PRIORITY", "REASONING")
	for _, p := range group.Proposals {
		table.AddRow(
			string(p.Kind),
			directionText(output, p.Direction),
			utils.FormatPrice(p.ReferencePrice()),
			fmt.Sprintf("%.2f", p.Confidence),
			priorityText(output, p.Priority),
			p.Reasoning,
		)
	}
	table.Render()
	output.Println()

	output.Printf("Market bias: %s   Avg confidence: %.2f\n",
		directionText(output, group.Summary.MarketBias), group.Summary.AverageConfidence)
}

func trendText(output *Output, trend models.TrendDirection) string {
	switch trend {
	case models.TrendUp:
		return output.Green("↑ up")
	case models.TrendDown:
		return output.Red("↓ down")
	default:
		return output.Yellow("→ sideways")
	}
}

func directionText(output *Output, direction analysis.PatternDirection) string {
	switch direction {
	case analysis.PatternBullish:
		return output.Green("bullish")
	case analysis.PatternBearish:
		return output.Red("bearish")
	default:
		return output.Yellow("neutral")
	}
}

func priorityText(output *Output, priority proposals.Priority) string {
	switch priority {
	case proposals.PriorityHigh:
		return output.Green(string(priority))
	case proposals.PriorityMedium:
		return output.Yellow(string(priority))
	default:
		return output.DimText(string(priority))
	}
}
