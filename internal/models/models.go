// Package models provides domain models for the chart analysis engine.
package models

import (
	"math"
	"time"

	"chart-advisor/internal/errors"
)

// Candle represents OHLCV data for a single time period.
// Time is the candle open time in unix seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Timestamp returns the candle open time as a time.Time.
func (c Candle) Timestamp() time.Time {
	return time.Unix(c.Time, 0).UTC()
}

// Range returns the full high-low range of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// UpperShadow returns the distance from the body top to the high.
func (c Candle) UpperShadow() float64 {
	return c.High - math.Max(c.Open, c.Close)
}

// LowerShadow returns the distance from the body bottom to the low.
func (c Candle) LowerShadow() float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Validate checks the internal consistency of the candle.
func (c Candle) Validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("candle", v, "non-finite value")
		}
	}
	if c.High < c.Open || c.High < c.Close {
		return errors.NewValidationError("high", c.High, "below open or close")
	}
	if c.Low > c.Open || c.Low > c.Close {
		return errors.NewValidationError("low", c.Low, "above open or close")
	}
	if c.Volume < 0 {
		return errors.NewValidationError("volume", c.Volume, "negative volume")
	}
	return nil
}

// ValidateSeries checks a candle series for per-candle consistency and
// strictly increasing timestamps.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "candle %d", i)
		}
		if i > 0 && c.Time <= candles[i-1].Time {
			return errors.NewValidationError("time", c.Time, "timestamps not strictly increasing")
		}
	}
	return nil
}

// TrendDirection classifies the prevailing direction of a series.
type TrendDirection string

const (
	TrendUp       TrendDirection = "up"
	TrendDown     TrendDirection = "down"
	TrendSideways TrendDirection = "sideways"
)
