package proposals

import (
	"fmt"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/analysis/lines"
	"chart-advisor/internal/analysis/scoring"
	"chart-advisor/internal/models"
)

// trendlineProposals converts surviving trendline candidates into
// proposals anchored at their first and last touches.
func (g *Generator) trendlineProposals(sc *seriesContext) []DrawingProposal {
	detected := g.lines.Trendlines(sc.candles)

	var proposals []DrawingProposal
	for _, line := range detected {
		if len(line.Touches) < 2 {
			continue
		}
		direction := analysis.PatternBullish
		slopeWord := "ascending"
		if line.Slope < 0 {
			direction = analysis.PatternBearish
			slopeWord = "descending"
		}

		points := []analysis.TouchPoint{
			line.Touches[0],
			line.Touches[len(line.Touches)-1],
		}

		confidence := g.scorer.Score(scoring.Factors{
			TouchPoints:         scoring.NormalizeTouches(len(line.Touches)),
			VolumeWeight:        sc.volumeFactor(line.Touches),
			TimeframeConfluence: sc.confluence.Confluence,
			PatternConfirmation: sc.patternConfirmation(direction),
			StatisticalFit:      clampUnit(line.RSquared),
		})

		reasoning := fmt.Sprintf("%s trendline with %d touches (R²=%.2f); %d/%d higher timeframes agree with the %s trend",
			slopeWord, len(line.Touches), line.RSquared,
			alignedCount(sc), sc.confluence.Checked, sc.confluence.BaseTrend)

		proposals = append(proposals, DrawingProposal{
			ID:         proposalID(sc.symbol, sc.interval, KindTrendline, line.ValueAt(lastTime(sc.candles))),
			Kind:       KindTrendline,
			Symbol:     sc.symbol,
			Interval:   sc.interval,
			Points:     points,
			Confidence: confidence,
			Priority:   PriorityFor(confidence),
			Direction:  direction,
			Reasoning:  reasoning,
			CreatedAt:  sc.createdAt,
			Line: &LineDetails{
				Price:     line.ValueAt(lastTime(sc.candles)),
				Slope:     line.Slope,
				Intercept: line.Intercept,
				RSquared:  line.RSquared,
				Touches:   len(line.Touches),
			},
		})
	}
	return proposals
}

// horizontalProposals converts clustered levels into horizontal line
// proposals spanning their first and last touches.
func (g *Generator) horizontalProposals(sc *seriesContext) []DrawingProposal {
	detected := g.lines.HorizontalLevels(sc.candles)

	var proposals []DrawingProposal
	for _, line := range detected {
		if len(line.Touches) < 2 {
			continue
		}
		direction := analysis.PatternBullish
		kindWord := "support"
		if line.Kind == analysis.LineResistance {
			direction = analysis.PatternBearish
			kindWord = "resistance"
		}

		points := []analysis.TouchPoint{
			{Time: line.Touches[0].Time, Value: line.Price, Index: line.Touches[0].Index},
			{Time: line.Touches[len(line.Touches)-1].Time, Value: line.Price, Index: line.Touches[len(line.Touches)-1].Index},
		}

		confidence := g.scorer.Score(scoring.Factors{
			TouchPoints:         scoring.NormalizeTouches(len(line.Touches)),
			VolumeWeight:        sc.volumeFactor(line.Touches),
			TimeframeConfluence: sc.confluence.Confluence,
			PatternConfirmation: sc.patternConfirmation(direction),
			StatisticalFit:      clampUnit(line.RSquared),
		})

		reasoning := fmt.Sprintf("%s level at %.4f touched %d times", kindWord, line.Price, len(line.Touches))

		proposals = append(proposals, DrawingProposal{
			ID:         proposalID(sc.symbol, sc.interval, KindHorizontalLine, line.Price),
			Kind:       KindHorizontalLine,
			Symbol:     sc.symbol,
			Interval:   sc.interval,
			Points:     points,
			Confidence: confidence,
			Priority:   PriorityFor(confidence),
			Direction:  direction,
			Reasoning:  reasoning,
			CreatedAt:  sc.createdAt,
			Line: &LineDetails{
				Price:    line.Price,
				RSquared: line.RSquared,
				Touches:  len(line.Touches),
			},
		})
	}
	return proposals
}

// fibonacciProposals anchors a retracement between the window's swing
// extremes when the swing is meaningful.
func (g *Generator) fibonacciProposals(sc *seriesContext) []DrawingProposal {
	high, low := indicators.SwingRange(sc.candles)
	if high.Index < 0 || low.Index < 0 || high.Value <= low.Value {
		return nil
	}
	// A swing smaller than twice the ATR band is noise, not a leg worth
	// anchoring retracements on.
	if tol := g.lines.TouchDetector().Tolerance(sc.candles); high.Value-low.Value < 2*tol {
		return nil
	}

	levels := indicators.FibonacciLevels(high.Value, low.Value)

	direction := analysis.PatternBullish
	legWord := "upswing"
	if high.Time < low.Time {
		direction = analysis.PatternBearish
		legWord = "downswing"
	}

	// Count how often price respected the interior retracement levels.
	touchCount := 0
	for _, lvl := range levels[1 : len(levels)-1] {
		hits := g.lines.TouchDetector().Touches(sc.candles, analysis.DetectedLine{
			Kind:  analysis.LineSupport,
			Price: lvl.Price,
		})
		touchCount += len(hits)
	}

	closes := make([]float64, len(sc.candles))
	times := make([]float64, len(sc.candles))
	for i, c := range sc.candles {
		times[i] = float64(c.Time)
		closes[i] = c.Close
	}
	trendFit := lines.Fit(times, closes)

	confidence := g.scorer.Score(scoring.Factors{
		TouchPoints:         scoring.NormalizeTouches(touchCount / 2),
		VolumeWeight:        sc.volumeFactor([]analysis.TouchPoint{high, low}),
		TimeframeConfluence: sc.confluence.Confluence,
		PatternConfirmation: sc.patternConfirmation(direction),
		StatisticalFit:      clampUnit(trendFit.RSquared),
	})

	reasoning := fmt.Sprintf("fibonacci retracement over %s %.4f→%.4f; %d touches across interior levels",
		legWord, low.Value, high.Value, touchCount)

	return []DrawingProposal{{
		ID:         proposalID(sc.symbol, sc.interval, KindFibonacci, high.Value-low.Value),
		Kind:       KindFibonacci,
		Symbol:     sc.symbol,
		Interval:   sc.interval,
		Points:     []analysis.TouchPoint{high, low},
		Confidence: confidence,
		Priority:   PriorityFor(confidence),
		Direction:  direction,
		Reasoning:  reasoning,
		CreatedAt:  sc.createdAt,
		Fib: &FibDetails{
			Levels:    levels,
			SwingHigh: high,
			SwingLow:  low,
		},
	}}
}

// patternProposals converts detected chart patterns into proposals.
func (g *Generator) patternProposals(sc *seriesContext) []DrawingProposal {
	var proposals []DrawingProposal
	for _, p := range sc.chartPatterns {
		confidence := g.scorer.Score(scoring.Factors{
			TouchPoints:         scoring.NormalizeTouches(len(p.KeyPoints)),
			VolumeWeight:        sc.volumeFactor(p.KeyPoints),
			TimeframeConfluence: sc.confluence.Confluence,
			PatternConfirmation: p.Confidence,
			StatisticalFit:      p.Confidence,
		})

		reasoning := fmt.Sprintf("%s (%s) over candles %d–%d", p.Kind, p.Variant, p.StartIndex, p.EndIndex)
		if p.Target != nil {
			reasoning += fmt.Sprintf("; target %.4f", *p.Target)
		}

		proposals = append(proposals, DrawingProposal{
			ID:         proposalID(sc.symbol, sc.interval, KindPattern, anchorValue(p)),
			Kind:       KindPattern,
			Symbol:     sc.symbol,
			Interval:   sc.interval,
			Points:     p.KeyPoints,
			Confidence: confidence,
			Priority:   PriorityFor(confidence),
			Direction:  p.Direction,
			Reasoning:  reasoning,
			CreatedAt:  sc.createdAt,
			Pattern: &PatternDetails{
				Kind:          p.Kind,
				Variant:       p.Variant,
				Target:        p.Target,
				StopLoss:      p.StopLoss,
				BreakoutLevel: p.BreakoutLevel,
				Direction:     p.Direction,
			},
		})
	}
	return proposals
}

// rayProposals projects breakout rays from chart patterns that define a
// breakout level.
func (g *Generator) rayProposals(sc *seriesContext) []DrawingProposal {
	step := int64(sc.interval.Duration().Seconds())
	last := lastTime(sc.candles)

	var proposals []DrawingProposal
	for _, p := range sc.chartPatterns {
		if p.BreakoutLevel == nil {
			continue
		}
		level := *p.BreakoutLevel
		origin := analysis.TouchPoint{Time: last, Value: level, Index: len(sc.candles) - 1}
		through := analysis.TouchPoint{Time: last + step, Value: level, Index: -1}
		if p.Target != nil {
			through.Value = level + (*p.Target-level)*0.25
		}

		confidence := g.scorer.Score(scoring.Factors{
			TouchPoints:         scoring.NormalizeTouches(len(p.KeyPoints)),
			VolumeWeight:        sc.volumeFactor(p.KeyPoints),
			TimeframeConfluence: sc.confluence.Confluence,
			PatternConfirmation: p.Confidence,
			StatisticalFit:      p.Confidence * 0.8, // a projection, not a fit
		})

		proposals = append(proposals, DrawingProposal{
			ID:         proposalID(sc.symbol, sc.interval, KindRay, level),
			Kind:       KindRay,
			Symbol:     sc.symbol,
			Interval:   sc.interval,
			Points:     []analysis.TouchPoint{origin, through},
			Confidence: confidence,
			Priority:   PriorityFor(confidence),
			Direction:  p.Direction,
			Reasoning:  fmt.Sprintf("breakout ray at %.4f from %s", level, p.Kind),
			CreatedAt:  sc.createdAt,
			Line: &LineDetails{
				Price: level,
			},
		})
	}
	return proposals
}

func anchorValue(p analysis.ChartPattern) float64 {
	if p.BreakoutLevel != nil {
		return *p.BreakoutLevel
	}
	if len(p.KeyPoints) > 0 {
		return p.KeyPoints[len(p.KeyPoints)-1].Value
	}
	return 0
}

func alignedCount(sc *seriesContext) int {
	aligned := 0
	for _, t := range sc.confluence.Timeframes {
		if t.Err == nil && t.Trend == sc.confluence.BaseTrend {
			aligned++
		}
	}
	return aligned
}

func lastTime(candles []models.Candle) int64 {
	if len(candles) == 0 {
		return 0
	}
	return candles[len(candles)-1].Time
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
