package lines

import (
	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/models"
)

// Default touch detection parameters.
const (
	DefaultATRPeriod  = 14
	DefaultMultiplier = 0.5
)

// TouchDetector counts how often price interacted with a line, using a
// volatility-scaled tolerance band.
type TouchDetector struct {
	atrPeriod  int
	multiplier float64
}

// NewTouchDetector creates a touch detector. Non-positive arguments fall
// back to the defaults.
func NewTouchDetector(atrPeriod int, multiplier float64) *TouchDetector {
	if atrPeriod <= 0 {
		atrPeriod = DefaultATRPeriod
	}
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	return &TouchDetector{atrPeriod: atrPeriod, multiplier: multiplier}
}

// Tolerance returns the price band half-width for the series: ATR times
// the configured multiplier. A zero ATR (all candles identical) yields a
// zero tolerance, so only exact intersections count.
func (t *TouchDetector) Tolerance(candles []models.Candle) float64 {
	return indicators.ATRValue(candles, t.atrPeriod) * t.multiplier
}

// Touches returns a touch point for every candle whose [low, high] range,
// widened by the tolerance, contains the line's projected price.
func (t *TouchDetector) Touches(candles []models.Candle, line analysis.DetectedLine) []analysis.TouchPoint {
	tolerance := t.Tolerance(candles)
	var touches []analysis.TouchPoint
	for i, c := range candles {
		projected := line.ValueAt(c.Time)
		if projected >= c.Low-tolerance && projected <= c.High+tolerance {
			// Record the actual contact price, not the raw projection,
			// so refitting over touches reflects where price traded.
			value := projected
			if value > c.High {
				value = c.High
			} else if value < c.Low {
				value = c.Low
			}
			touches = append(touches, analysis.TouchPoint{
				Time:  c.Time,
				Value: value,
				Index: i,
			})
		}
	}
	return touches
}
