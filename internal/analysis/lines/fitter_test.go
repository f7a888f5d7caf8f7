package lines

import (
	"math"
	"testing"

	"chart-advisor/internal/analysis"
)

func TestFitPerfectLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{3, 5, 7, 9, 11} // y = 2x + 1

	fit := Fit(xs, ys)
	if math.Abs(fit.Slope-2) > 1e-9 {
		t.Errorf("Slope = %v, want 2", fit.Slope)
	}
	if math.Abs(fit.Intercept-1) > 1e-9 {
		t.Errorf("Intercept = %v, want 1", fit.Intercept)
	}
	if math.Abs(fit.RSquared-1) > 1e-9 {
		t.Errorf("RSquared = %v, want 1", fit.RSquared)
	}
}

func TestFitNoisyLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{2.1, 3.9, 6.2, 7.8, 10.1, 11.9}

	fit := Fit(xs, ys)
	if fit.Slope <= 0 {
		t.Errorf("Slope = %v, want positive", fit.Slope)
	}
	if fit.RSquared < 0.99 || fit.RSquared > 1 {
		t.Errorf("RSquared = %v, want near 1 for an almost-linear series", fit.RSquared)
	}
}

func TestFitFewerThanTwoPoints(t *testing.T) {
	fit := Fit([]float64{5}, []float64{42})
	if fit.Slope != 0 {
		t.Errorf("Slope = %v, want 0 for a single point", fit.Slope)
	}
	if fit.Intercept != 42 {
		t.Errorf("Intercept = %v, want mean of y", fit.Intercept)
	}
	if fit.RSquared != 0 {
		t.Errorf("RSquared = %v, want 0 for a single point", fit.RSquared)
	}

	empty := Fit(nil, nil)
	if empty.Slope != 0 || empty.Intercept != 0 || empty.RSquared != 0 {
		t.Errorf("Fit(nil, nil) = %+v, want zero result", empty)
	}
}

func TestFitZeroVarianceY(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{7, 7, 7, 7}

	fit := Fit(xs, ys)
	if fit.Slope != 0 {
		t.Errorf("Slope = %v, want 0 for constant y", fit.Slope)
	}
	if fit.Intercept != 7 {
		t.Errorf("Intercept = %v, want 7", fit.Intercept)
	}
	if fit.RSquared != 1 {
		t.Errorf("RSquared = %v, want 1: a horizontal line fits constant y exactly", fit.RSquared)
	}
}

func TestFitZeroVarianceX(t *testing.T) {
	xs := []float64{3, 3, 3}
	ys := []float64{1, 2, 3}

	fit := Fit(xs, ys)
	if fit.Slope != 0 {
		t.Errorf("Slope = %v, want 0 for vertical data", fit.Slope)
	}
	if fit.RSquared != 0 {
		t.Errorf("RSquared = %v, want 0 for vertical data", fit.RSquared)
	}
}

func TestFitPoints(t *testing.T) {
	points := []analysis.TouchPoint{
		{Time: 0, Value: 10},
		{Time: 10, Value: 20},
		{Time: 20, Value: 30},
	}
	fit := FitPoints(points)
	if math.Abs(fit.Slope-1) > 1e-9 {
		t.Errorf("Slope = %v, want 1", fit.Slope)
	}
	if math.Abs(fit.Intercept-10) > 1e-9 {
		t.Errorf("Intercept = %v, want 10", fit.Intercept)
	}
}
