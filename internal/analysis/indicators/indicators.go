// Package indicators provides the volatility and volume statistics the
// detection components build on.
package indicators

import (
	"fmt"

	"chart-advisor/internal/models"
)

// ATR calculates the Average True Range series with Wilder smoothing.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

func (a *ATR) Period() int {
	return a.period
}

func (a *ATR) Calculate(candles []models.Candle) ([]float64, error) {
	if a.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < a.period+1 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	result := make([]float64, n)
	tr := make([]float64, n)

	// First TR is just high - low
	tr[0] = candles[0].High - candles[0].Low

	for i := 1; i < n; i++ {
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	// First ATR is SMA of TR
	result[a.period-1] = mean(tr[:a.period])

	// Subsequent ATR using Wilder smoothing
	for i := a.period; i < n; i++ {
		result[i] = (result[i-1]*float64(a.period-1) + tr[i]) / float64(a.period)
	}

	return result, nil
}

// ATRValue returns the mean true range over the most recent period candles.
// When the series is shorter than period+1 candles it averages over whatever
// true ranges are available; fewer than two candles yield zero.
func ATRValue(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < 2 {
		return 0
	}
	n := len(candles)
	count := period
	if n-1 < count {
		count = n - 1
	}
	var total float64
	for i := n - count; i < n; i++ {
		total += trueRange(candles[i], candles[i-1])
	}
	return total / float64(count)
}

// SMA returns the simple moving average series of the closes.
func SMA(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period {
		return nil, ErrInsufficientData
	}
	closes := ClosePrices(candles)
	result := make([]float64, len(candles))
	for i := period - 1; i < len(closes); i++ {
		result[i] = mean(closes[i-period+1 : i+1])
	}
	return result, nil
}

// MeanVolume returns the arithmetic mean volume of the series.
func MeanVolume(candles []models.Candle) float64 {
	return mean(Volumes(candles))
}

// MeanClose returns the arithmetic mean close of the series.
func MeanClose(candles []models.Candle) float64 {
	return mean(ClosePrices(candles))
}

// VolatilityStdDev returns the standard deviation of closes.
func VolatilityStdDev(candles []models.Candle) float64 {
	return stdDev(ClosePrices(candles))
}
