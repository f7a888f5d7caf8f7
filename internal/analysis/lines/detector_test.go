package lines

import (
	"math"
	"testing"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/models"
)

// zigzagCandles oscillates between low and high with the given half-period,
// producing clean strict extrema.
func zigzagCandles(n, halfPeriod int, low, high float64) []models.Candle {
	candles := make([]models.Candle, n)
	span := high - low
	for i := range candles {
		phase := i % (2 * halfPeriod)
		var frac float64
		if phase <= halfPeriod {
			frac = float64(phase) / float64(halfPeriod)
		} else {
			frac = float64(2*halfPeriod-phase) / float64(halfPeriod)
		}
		price := low + span*frac
		candles[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   price,
			High:   price + 0.5,
			Low:    price - 0.5,
			Close:  price,
			Volume: 1000,
		}
	}
	return candles
}

func risingCandles(n int, start, step float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		price := start + float64(i)*step
		candles[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   price - step/4,
			High:   price + step/2,
			Low:    price - step/2,
			Close:  price,
			Volume: 1000,
		}
	}
	return candles
}

func TestHorizontalLevelsOnOscillatingSeries(t *testing.T) {
	d := NewDetector(Config{ExtremaWindow: 3, MinTouches: 2})
	candles := zigzagCandles(64, 8, 100, 110)

	levels := d.HorizontalLevels(candles)
	if len(levels) == 0 {
		t.Fatal("expected levels on an oscillating series")
	}

	var foundResistance, foundSupport bool
	for _, level := range levels {
		if level.Kind == analysis.LineResistance && math.Abs(level.Price-110) < 2 {
			foundResistance = true
		}
		if level.Kind == analysis.LineSupport && math.Abs(level.Price-100) < 2 {
			foundSupport = true
		}
		if len(level.Touches) < 2 {
			t.Errorf("level at %.2f kept with only %d touches", level.Price, len(level.Touches))
		}
	}
	if !foundResistance {
		t.Error("no resistance near the oscillation high")
	}
	if !foundSupport {
		t.Error("no support near the oscillation low")
	}
}

func TestHorizontalLevelFallbackOnFlatSeries(t *testing.T) {
	d := NewDetector(Config{ExtremaWindow: 3, MinTouches: 2})
	candles := flatCandles(100, 250)

	levels := d.HorizontalLevels(candles)
	if len(levels) != 1 {
		t.Fatalf("HorizontalLevels() on flat series = %d levels, want 1", len(levels))
	}

	level := levels[0]
	if level.Price != 250 {
		t.Errorf("level price = %v, want the flat close 250", level.Price)
	}
	if len(level.Touches) != 100 {
		t.Errorf("level touches = %d, want every candle", len(level.Touches))
	}
	if level.RSquared != 1 {
		t.Errorf("level RSquared = %v, want 1 for constant touches", level.RSquared)
	}
}

func TestTrendlinesEmptyOnFlatSeries(t *testing.T) {
	d := NewDetector(Config{ExtremaWindow: 3, MinTouches: 2})
	candles := flatCandles(100, 250)

	// Flat closes fit a zero-slope regression, which is not a trendline.
	if trendlines := d.Trendlines(candles); len(trendlines) != 0 {
		t.Errorf("Trendlines() on flat series = %d lines, want 0", len(trendlines))
	}
}

func TestTrendlineRegressionFallbackOnMonotonicSeries(t *testing.T) {
	d := NewDetector(Config{ExtremaWindow: 3, MinTouches: 2})
	candles := risingCandles(50, 100, 1)

	trendlines := d.Trendlines(candles)
	if len(trendlines) != 1 {
		t.Fatalf("Trendlines() on monotonic series = %d lines, want exactly 1", len(trendlines))
	}

	line := trendlines[0]
	if line.Slope <= 0 {
		t.Errorf("Slope = %v, want ascending", line.Slope)
	}
	if line.RSquared < 0.6 {
		t.Errorf("RSquared = %v, want at least 0.6", line.RSquared)
	}
	if len(line.Touches) < 2 {
		t.Errorf("touches = %d, want at least 2", len(line.Touches))
	}
	if !line.Ascending() {
		t.Error("Ascending() = false for a rising line")
	}
}

func TestDetectShortSeriesYieldsNoLines(t *testing.T) {
	d := NewDetector(Config{ExtremaWindow: 3, MinTouches: 2})

	if got := d.Detect(nil); len(got) != 0 {
		t.Errorf("Detect(nil) = %d lines, want 0", len(got))
	}
	// A single candle cannot clear the two-touch minimum anywhere.
	if got := d.Detect(flatCandles(1, 100)); len(got) != 0 {
		t.Errorf("Detect() on one candle = %d lines, want 0", len(got))
	}
}

func TestHighVolumePivotAnchorsLevelCluster(t *testing.T) {
	candles := make([]models.Candle, 19)
	for i := range candles {
		candles[i] = models.Candle{
			Time: int64(i) * 3600, Open: 99, High: 99.5, Low: 98.5, Close: 99, Volume: 100,
		}
	}
	peak := func(i int, high, volume float64) {
		candles[i] = models.Candle{
			Time: int64(i) * 3600, Open: 99, High: high, Low: 98.5, Close: 99.5, Volume: volume,
		}
	}
	peak(4, 100.0, 100)
	peak(9, 100.9, 200)
	peak(14, 101.8, 10000)

	d := NewDetector(Config{ExtremaWindow: 2, MinTouches: 2, ClusterTolerance: 0.01})
	var resistance []analysis.DetectedLine
	for _, line := range d.HorizontalLevels(candles) {
		if line.Kind == analysis.LineResistance {
			resistance = append(resistance, line)
		}
	}

	if len(resistance) != 1 {
		t.Fatalf("resistance levels = %d, want 1", len(resistance))
	}
	// The 101.8 pivot carries the volume, so the cluster forms around it
	// and absorbs 100.9; the distant 100.0 pivot stays out and cannot make
	// the touch minimum on its own.
	if resistance[0].Price <= 101 {
		t.Errorf("level price = %v, want anchored above 101 by the high-volume pivot", resistance[0].Price)
	}
	if len(resistance[0].Touches) < 2 {
		t.Errorf("touches = %d, want at least 2", len(resistance[0].Touches))
	}
}

func TestPruneDropsNearDuplicateLevels(t *testing.T) {
	d := NewDetector(Config{ExtremaWindow: 3, MinTouches: 2, ClusterTolerance: 0.01})
	candles := zigzagCandles(64, 8, 100, 110)

	levels := d.HorizontalLevels(candles)
	for i, a := range levels {
		for _, b := range levels[i+1:] {
			if a.Kind != b.Kind {
				continue
			}
			if a.Price == 0 {
				continue
			}
			if math.Abs(a.Price-b.Price)/a.Price <= 0.01 {
				t.Errorf("near-duplicate %s levels survived: %.4f and %.4f", a.Kind, a.Price, b.Price)
			}
		}
	}
}
