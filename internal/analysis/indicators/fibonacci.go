package indicators

import (
	"chart-advisor/internal/analysis"
	"chart-advisor/internal/models"
)

// FibRatios are the standard retracement ratios, shallow to full.
var FibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 1.0}

// FibonacciLevels computes retracement levels between a swing high and a
// swing low. Ratio 0 sits at the swing high, ratio 1 at the swing low.
func FibonacciLevels(swingHigh, swingLow float64) []analysis.FibLevel {
	span := swingHigh - swingLow
	levels := make([]analysis.FibLevel, 0, len(FibRatios))
	for _, r := range FibRatios {
		levels = append(levels, analysis.FibLevel{
			Ratio: r,
			Price: swingHigh - span*r,
		})
	}
	return levels
}

// SwingRange locates the highest high and lowest low of the series and
// returns them as touch points.
func SwingRange(candles []models.Candle) (high, low analysis.TouchPoint) {
	highs := HighPrices(candles)
	lows := LowPrices(candles)
	hi := HighestIndex(highs)
	li := LowestIndex(lows)
	if hi < 0 || li < 0 {
		return analysis.TouchPoint{Index: -1}, analysis.TouchPoint{Index: -1}
	}
	high = analysis.TouchPoint{Time: candles[hi].Time, Value: highs[hi], Index: hi}
	low = analysis.TouchPoint{Time: candles[li].Time, Value: lows[li], Index: li}
	return high, low
}
