// Package mtf provides multi-timeframe trend confluence analysis.
package mtf

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/cache"
	"chart-advisor/internal/errors"
	"chart-advisor/internal/marketdata"
	"chart-advisor/internal/models"
)

// higherTimeframes is the fixed hierarchy of confirmation timeframes per
// base interval.
var higherTimeframes = map[models.Interval][]models.Interval{
	models.Interval1m:  {models.Interval5m, models.Interval15m, models.Interval1h},
	models.Interval5m:  {models.Interval15m, models.Interval1h, models.Interval4h},
	models.Interval15m: {models.Interval1h, models.Interval4h, models.Interval1d},
	models.Interval30m: {models.Interval1h, models.Interval4h, models.Interval1d},
	models.Interval1h:  {models.Interval4h, models.Interval1d, models.Interval1w},
	models.Interval4h:  {models.Interval1d, models.Interval1w},
	models.Interval1d:  {models.Interval1w},
	models.Interval1w:  {},
}

// HigherTimeframes returns the confirmation timeframes for a base interval.
func HigherTimeframes(base models.Interval) []models.Interval {
	return higherTimeframes[base]
}

// TimeframeTrend is the trend read on one higher timeframe.
type TimeframeTrend struct {
	Interval models.Interval
	Trend    models.TrendDirection
	Candles  int
	Err      error
}

// Result is the outcome of a confluence analysis.
type Result struct {
	BaseTrend  models.TrendDirection
	Timeframes []TimeframeTrend
	// Confluence is the fraction of successfully fetched higher timeframes
	// whose trend agrees with the base trend. Failed fetches are excluded
	// from the denominator.
	Confluence float64
	Checked    int
	Failed     int
}

// Analyzer fans out higher-timeframe fetches and measures how many agree
// with the base timeframe's trend.
type Analyzer struct {
	provider     marketdata.Provider
	store        cache.Store
	fetchTimeout time.Duration
	candleLimit  int
	logger       zerolog.Logger
}

// NewAnalyzer creates an MTF analyzer. The cache store may be nil.
func NewAnalyzer(provider marketdata.Provider, store cache.Store, fetchTimeout time.Duration, candleLimit int, logger zerolog.Logger) *Analyzer {
	if fetchTimeout <= 0 {
		fetchTimeout = 3 * time.Second
	}
	if candleLimit <= 0 {
		candleLimit = 100
	}
	return &Analyzer{
		provider:     provider,
		store:        store,
		fetchTimeout: fetchTimeout,
		candleLimit:  candleLimit,
		logger:       logger.With().Str("component", "mtf").Logger(),
	}
}

// Analyze classifies the base series trend, fetches every higher timeframe
// concurrently, and computes the confluence ratio. Individual fetch
// failures are logged and excluded, never fatal.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, base models.Interval, candles []models.Candle) *Result {
	result := &Result{
		BaseTrend: Trend(candles),
	}

	higher := higherTimeframes[base]
	if len(higher) == 0 {
		return result
	}

	trends := make([]TimeframeTrend, len(higher))
	var wg sync.WaitGroup
	for i, tf := range higher {
		wg.Add(1)
		go func(i int, tf models.Interval) {
			defer wg.Done()
			trends[i] = a.analyzeTimeframe(ctx, symbol, tf)
		}(i, tf)
	}
	wg.Wait()

	result.Timeframes = trends

	aligned := 0
	ok := 0
	for _, t := range trends {
		if t.Err != nil {
			result.Failed++
			continue
		}
		ok++
		if t.Trend == result.BaseTrend {
			aligned++
		}
	}
	result.Checked = ok
	if ok > 0 {
		result.Confluence = float64(aligned) / float64(ok)
	}
	return result
}

func (a *Analyzer) analyzeTimeframe(ctx context.Context, symbol string, tf models.Interval) TimeframeTrend {
	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	candles, err := a.fetch(fetchCtx, symbol, tf)
	if err != nil {
		a.logger.Warn().
			Str("symbol", symbol).
			Str("interval", string(tf)).
			Err(err).
			Msg("Higher timeframe fetch failed, excluding from confluence")
		return TimeframeTrend{Interval: tf, Err: err}
	}
	if len(candles) == 0 {
		err := errors.NewDataError("klines", symbol, "empty series for "+string(tf), nil)
		a.logger.Warn().Str("symbol", symbol).Str("interval", string(tf)).Msg("Empty higher timeframe series")
		return TimeframeTrend{Interval: tf, Err: err}
	}

	return TimeframeTrend{
		Interval: tf,
		Trend:    Trend(candles),
		Candles:  len(candles),
	}
}

func (a *Analyzer) fetch(ctx context.Context, symbol string, tf models.Interval) ([]models.Candle, error) {
	key := cache.Key(symbol, tf, a.candleLimit)
	if a.store != nil {
		if candles, hit := a.store.Get(ctx, key); hit {
			return candles, nil
		}
	}
	candles, err := a.provider.Klines(ctx, marketdata.Request{
		Symbol:   symbol,
		Interval: tf,
		Limit:    a.candleLimit,
	})
	if err != nil {
		return nil, err
	}
	if a.store != nil && len(candles) > 0 {
		a.store.Set(ctx, key, candles, cache.TTLFor(tf))
	}
	return candles, nil
}

// Trend classifies a series by comparing the mean close of its first
// quarter against its last quarter. Moves within ±2% are sideways.
func Trend(candles []models.Candle) models.TrendDirection {
	n := len(candles)
	if n < 4 {
		return models.TrendSideways
	}
	quarter := n / 4
	first := indicators.MeanClose(candles[:quarter])
	last := indicators.MeanClose(candles[n-quarter:])
	if first == 0 {
		return models.TrendSideways
	}
	change := (last - first) / first
	switch {
	case change > 0.02:
		return models.TrendUp
	case change < -0.02:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}
