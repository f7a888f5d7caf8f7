package lines

import (
	"testing"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/models"
)

func flatCandles(n int, price float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}
	return candles
}

func TestToleranceZeroOnFlatSeries(t *testing.T) {
	td := NewTouchDetector(14, 0.5)
	candles := flatCandles(30, 100)

	if tol := td.Tolerance(candles); tol != 0 {
		t.Errorf("Tolerance() = %v, want 0 for identical candles", tol)
	}
}

func TestToleranceScalesWithATR(t *testing.T) {
	td := NewTouchDetector(14, 0.5)
	candles := make([]models.Candle, 30)
	for i := range candles {
		candles[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1000,
		}
	}

	// Every true range is 2, so tolerance is 2 * 0.5 = 1.
	if tol := td.Tolerance(candles); tol != 1 {
		t.Errorf("Tolerance() = %v, want 1", tol)
	}
}

func TestTouchesExactOnZeroTolerance(t *testing.T) {
	td := NewTouchDetector(14, 0.5)
	candles := flatCandles(50, 100)

	onLine := analysis.DetectedLine{Kind: analysis.LineSupport, Price: 100}
	if touches := td.Touches(candles, onLine); len(touches) != 50 {
		t.Errorf("Touches() at the flat price = %d, want 50", len(touches))
	}

	offLine := analysis.DetectedLine{Kind: analysis.LineSupport, Price: 100.01}
	if touches := td.Touches(candles, offLine); len(touches) != 0 {
		t.Errorf("Touches() off the flat price = %d, want 0", len(touches))
	}
}

func TestTouchValueClampedToCandleRange(t *testing.T) {
	td := NewTouchDetector(14, 0.5)
	candles := make([]models.Candle, 20)
	for i := range candles {
		candles[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1000,
		}
	}

	// Projects to 101.5 on every candle: within high+tolerance but above
	// the traded range, so the recorded value must clamp to the high.
	line := analysis.DetectedLine{Kind: analysis.LineResistance, Price: 101.5}
	touches := td.Touches(candles, line)
	if len(touches) == 0 {
		t.Fatal("expected touches within tolerance of the highs")
	}
	for _, touch := range touches {
		if touch.Value != 101 {
			t.Errorf("touch value = %v, want clamped to high 101", touch.Value)
		}
	}
}

func TestTouchIndexesMatchCandles(t *testing.T) {
	td := NewTouchDetector(14, 0.5)
	candles := flatCandles(10, 50)

	line := analysis.DetectedLine{Kind: analysis.LineSupport, Price: 50}
	for i, touch := range td.Touches(candles, line) {
		if touch.Index != i {
			t.Errorf("touch %d has Index %d", i, touch.Index)
		}
		if touch.Time != candles[i].Time {
			t.Errorf("touch %d has Time %d, want %d", i, touch.Time, candles[i].Time)
		}
	}
}
