package models

import (
	"time"

	"chart-advisor/internal/errors"
)

// Interval represents a candle timeframe.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
	Interval1w:  7 * 24 * time.Hour,
}

// Duration returns the wall-clock span of one candle at this interval.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

// Valid reports whether the interval is one of the supported timeframes.
func (i Interval) Valid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// ParseInterval validates and converts a string to an Interval.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if !iv.Valid() {
		return "", errors.NewValidationError("interval", s, "unsupported timeframe")
	}
	return iv, nil
}
