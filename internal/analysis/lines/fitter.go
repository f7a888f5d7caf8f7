// Package lines provides least-squares line fitting, touch detection, and
// support/resistance/trendline candidate generation.
package lines

import (
	"chart-advisor/internal/analysis"
)

// FitResult holds the parameters of a fitted line y = Slope*x + Intercept.
type FitResult struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// Fit performs an ordinary least-squares fit over the given samples.
// Fewer than two samples yield a flat line at the mean of y with R² 0.
// A series with zero variance in y fits perfectly and reports R² 1.
func Fit(xs, ys []float64) FitResult {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return FitResult{Slope: 0, Intercept: meanOf(ys), RSquared: 0}
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var ssXY, ssXX, ssYY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		ssXY += dx * dy
		ssXX += dx * dx
		ssYY += dy * dy
	}

	if ssYY == 0 {
		// All y identical: a horizontal line fits exactly.
		return FitResult{Slope: 0, Intercept: meanY, RSquared: 1}
	}
	if ssXX == 0 {
		// All x identical: no line is defined, fall back to the mean.
		return FitResult{Slope: 0, Intercept: meanY, RSquared: 0}
	}

	slope := ssXY / ssXX
	intercept := meanY - slope*meanX

	var ssRes float64
	for i := 0; i < n; i++ {
		resid := ys[i] - (slope*xs[i] + intercept)
		ssRes += resid * resid
	}

	return FitResult{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  1 - ssRes/ssYY,
	}
}

// FitPoints fits a line through touch points, with time as x and price as y.
func FitPoints(points []analysis.TouchPoint) FitResult {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Time)
		ys[i] = p.Value
	}
	return Fit(xs, ys)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
