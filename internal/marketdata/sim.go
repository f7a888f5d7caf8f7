package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"chart-advisor/internal/errors"
	"chart-advisor/internal/models"
)

// SimulatedProvider generates deterministic candles from a seeded random
// walk. The same symbol, interval, and time window always produce the same
// series, which makes it suitable for development and tests.
type SimulatedProvider struct {
	seed      int64
	basePrice float64
	drift     float64
	vol       float64
	now       func() time.Time
}

// SimOption configures a SimulatedProvider.
type SimOption func(*SimulatedProvider)

// WithClock overrides the provider's notion of now.
func WithClock(now func() time.Time) SimOption {
	return func(p *SimulatedProvider) { p.now = now }
}

// WithBasePrice sets the anchor price of the walk.
func WithBasePrice(price float64) SimOption {
	return func(p *SimulatedProvider) { p.basePrice = price }
}

// NewSimulatedProvider creates a provider seeded with the given value.
func NewSimulatedProvider(seed int64, opts ...SimOption) *SimulatedProvider {
	p := &SimulatedProvider{
		seed:      seed,
		basePrice: 100,
		drift:     0.0002,
		vol:       0.01,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Klines generates candles for the request. Candles are aligned to the
// interval and returned in ascending time order.
func (p *SimulatedProvider) Klines(ctx context.Context, req Request) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Interval.Valid() {
		return nil, errors.ErrInvalidInterval
	}
	if req.Symbol == "" {
		return nil, errors.ErrSymbolNotFound
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 200
	}

	step := int64(req.Interval.Duration().Seconds())
	end := req.End
	if end == 0 {
		end = p.now().Unix()
	}
	end = end - end%step
	start := end - int64(limit)*step
	if req.Start > start {
		start = req.Start - req.Start%step
	}

	rng := rand.New(rand.NewSource(p.deriveSeed(req.Symbol, req.Interval)))
	price := p.basePrice * (0.5 + rng.Float64())

	var candles []models.Candle
	for t := start; t < end; t += step {
		move := price * (p.drift + p.vol*rng.NormFloat64())
		open := price
		close := price + move
		high := math.Max(open, close) * (1 + 0.003*rng.Float64())
		low := math.Min(open, close) * (1 - 0.003*rng.Float64())
		volume := 1000 + 9000*rng.Float64()

		candles = append(candles, models.Candle{
			Time:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
		price = close
	}
	return candles, nil
}

func (p *SimulatedProvider) deriveSeed(symbol string, interval models.Interval) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write([]byte(interval))
	return p.seed ^ int64(h.Sum64())
}
