// Package marketdata defines the candle provider boundary and the kline
// normalization used to cross it.
package marketdata

import (
	"context"

	"chart-advisor/internal/models"
)

// Request describes a historical candle fetch.
type Request struct {
	Symbol   string
	Interval models.Interval
	Limit    int
	// Start and End are unix seconds; zero means unbounded.
	Start int64
	End   int64
}

// Provider supplies historical candles for a symbol and interval.
// Implementations must return candles in ascending time order.
type Provider interface {
	Klines(ctx context.Context, req Request) ([]models.Candle, error)
}
