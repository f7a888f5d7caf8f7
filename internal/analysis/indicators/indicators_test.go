package indicators

import (
	"math"
	"testing"

	"chart-advisor/internal/models"
)

func rangedCandles(n int, price, halfRange float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   price,
			High:   price + halfRange,
			Low:    price - halfRange,
			Close:  price,
			Volume: 1000,
		}
	}
	return candles
}

func TestATRValueConstantRange(t *testing.T) {
	candles := rangedCandles(30, 100, 1)

	// Every true range is 2.
	if got := ATRValue(candles, 14); got != 2 {
		t.Errorf("ATRValue() = %v, want 2", got)
	}
}

func TestATRValueZeroCases(t *testing.T) {
	if got := ATRValue(nil, 14); got != 0 {
		t.Errorf("ATRValue(nil) = %v, want 0", got)
	}
	if got := ATRValue(rangedCandles(1, 100, 1), 14); got != 0 {
		t.Errorf("ATRValue() on one candle = %v, want 0", got)
	}
	if got := ATRValue(rangedCandles(30, 100, 1), 0); got != 0 {
		t.Errorf("ATRValue() with zero period = %v, want 0", got)
	}
	// Identical candles trade in a zero range.
	if got := ATRValue(rangedCandles(30, 100, 0), 14); got != 0 {
		t.Errorf("ATRValue() on flat candles = %v, want 0", got)
	}
}

func TestATRValueShortSeriesAveragesAvailable(t *testing.T) {
	// 5 candles but a 14 period: averages the 4 available true ranges.
	candles := rangedCandles(5, 100, 1.5)
	if got := ATRValue(candles, 14); got != 3 {
		t.Errorf("ATRValue() = %v, want 3", got)
	}
}

func TestATRCalculateWilderSeries(t *testing.T) {
	atr := NewATR(3)
	candles := rangedCandles(10, 100, 1)

	series, err := atr.Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate() returned %v", err)
	}
	if len(series) != len(candles) {
		t.Fatalf("series length = %d, want %d", len(series), len(candles))
	}
	// Constant true range: smoothing converges to the true range itself.
	if math.Abs(series[len(series)-1]-2) > 1e-9 {
		t.Errorf("final ATR = %v, want 2", series[len(series)-1])
	}

	if _, err := atr.Calculate(candles[:2]); err == nil {
		t.Error("Calculate() on short series should fail")
	}
}

func TestSMA(t *testing.T) {
	candles := make([]models.Candle, 5)
	closes := []float64{1, 2, 3, 4, 5}
	for i := range candles {
		candles[i] = models.Candle{Time: int64(i), Open: closes[i], High: closes[i], Low: closes[i], Close: closes[i], Volume: 1}
	}

	sma, err := SMA(candles, 3)
	if err != nil {
		t.Fatalf("SMA() returned %v", err)
	}
	want := []float64{0, 0, 2, 3, 4}
	for i := range want {
		if math.Abs(sma[i]-want[i]) > 1e-9 {
			t.Errorf("sma[%d] = %v, want %v", i, sma[i], want[i])
		}
	}
}

func TestFibonacciLevels(t *testing.T) {
	levels := FibonacciLevels(200, 100)
	if len(levels) != len(FibRatios) {
		t.Fatalf("levels = %d, want %d", len(levels), len(FibRatios))
	}
	if levels[0].Price != 200 {
		t.Errorf("ratio 0 price = %v, want the swing high", levels[0].Price)
	}
	if levels[len(levels)-1].Price != 100 {
		t.Errorf("ratio 1 price = %v, want the swing low", levels[len(levels)-1].Price)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Price >= levels[i-1].Price {
			t.Errorf("levels not descending: %v then %v", levels[i-1].Price, levels[i].Price)
		}
	}
	// Golden ratio level.
	if math.Abs(levels[4].Price-138.2) > 1e-9 {
		t.Errorf("0.618 level = %v, want 138.2", levels[4].Price)
	}
}

func TestSwingRange(t *testing.T) {
	candles := rangedCandles(20, 100, 1)
	candles[7].High = 130
	candles[13].Low = 80

	high, low := SwingRange(candles)
	if high.Index != 7 || high.Value != 130 {
		t.Errorf("swing high = %+v, want value 130 at index 7", high)
	}
	if low.Index != 13 || low.Value != 80 {
		t.Errorf("swing low = %+v, want value 80 at index 13", low)
	}

	noHigh, noLow := SwingRange(nil)
	if noHigh.Index != -1 || noLow.Index != -1 {
		t.Error("SwingRange(nil) should report index -1")
	}
}

func TestMeanStatistics(t *testing.T) {
	candles := rangedCandles(4, 100, 1)
	candles[2].Close = 104
	candles[3].Volume = 5000

	if got := MeanClose(candles); got != 101 {
		t.Errorf("MeanClose() = %v, want 101", got)
	}
	if got := MeanVolume(candles); got != 2000 {
		t.Errorf("MeanVolume() = %v, want 2000", got)
	}
}
