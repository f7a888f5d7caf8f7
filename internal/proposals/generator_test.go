package proposals

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"chart-advisor/internal/config"
	"chart-advisor/internal/marketdata"
	"chart-advisor/internal/models"
)

// fixedProvider serves the same canned series for every interval, so higher
// timeframes always agree with the base trend.
type fixedProvider struct {
	candles []models.Candle
	err     error
}

func (p *fixedProvider) Klines(ctx context.Context, req marketdata.Request) ([]models.Candle, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.candles, nil
}

func flatSeries(n int, price float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Time: int64(i) * 3600, Open: price, High: price, Low: price, Close: price, Volume: 1000,
		}
	}
	return candles
}

func risingSeries(n int, start, step float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		price := start + float64(i)*step
		candles[i] = models.Candle{
			Time: int64(i) * 3600, Open: price - step/4, High: price + step/2, Low: price - step/2, Close: price, Volume: 1000,
		}
	}
	return candles
}

// oscillatingSeries swings between low and high, producing levels, lines,
// and a meaningful fibonacci leg.
func oscillatingSeries(n, halfPeriod int, low, high float64) []models.Candle {
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
			Time: int64(i) * 3600, Open: price, High: price + 0.5, Low: price - 0.5, Close: price, Volume: 1000,
		}
	}
	return candles
}

func newTestGenerator(candles []models.Candle) *Generator {
	return NewGenerator(&fixedProvider{candles: candles}, nil, config.Default(), zerolog.Nop())
}

func TestGenerateInsufficientData(t *testing.T) {
	g := newTestGenerator(flatSeries(10, 100))

	result, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if result.Success {
		t.Fatal("Success = true with only 10 candles")
	}
	if !strings.Contains(result.Reason, "insufficient data") {
		t.Errorf("Reason = %q, want an insufficient data explanation", result.Reason)
	}
	if result.Group != nil {
		t.Error("Group should be nil on failure")
	}
}

func TestGenerateFlatSeriesHorizontalLevel(t *testing.T) {
	g := newTestGenerator(flatSeries(100, 250))

	result, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.Reason)
	}

	var horizontal *DrawingProposal
	for i, p := range result.Group.Proposals {
		if p.Kind == KindTrendline {
			t.Errorf("flat series produced a trendline proposal: %+v", p)
		}
		if p.Kind == KindHorizontalLine {
			horizontal = &result.Group.Proposals[i]
		}
	}
	if horizontal == nil {
		t.Fatal("no horizontal line proposal on a flat series")
	}
	if horizontal.Confidence <= 0.8 {
		t.Errorf("confidence = %v, want above 0.8: every candle touches the level exactly", horizontal.Confidence)
	}
	if horizontal.Line == nil || horizontal.Line.Price != 250 {
		t.Errorf("line details = %+v, want price 250", horizontal.Line)
	}
	if horizontal.Reasoning == "" {
		t.Error("proposal has no reasoning")
	}
}

func TestGenerateMonotonicSeriesSingleTrendline(t *testing.T) {
	g := newTestGenerator(risingSeries(50, 100, 1))

	result, err := g.Generate(context.Background(), Request{
		Symbol:   "BTCUSDT",
		Interval: models.Interval1h,
		Type:     AnalysisTrendline,
	})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.Reason)
	}

	if len(result.Group.Proposals) != 1 {
		t.Fatalf("proposals = %d, want exactly 1 trendline", len(result.Group.Proposals))
	}
	p := result.Group.Proposals[0]
	if p.Kind != KindTrendline {
		t.Errorf("kind = %v, want trendline", p.Kind)
	}
	if p.Line == nil || p.Line.Slope <= 0 {
		t.Errorf("line = %+v, want ascending slope", p.Line)
	}
	if p.Confidence < 0.5 {
		t.Errorf("confidence = %v, want at least 0.5", p.Confidence)
	}
	if len(p.Points) != 2 {
		t.Errorf("points = %d, want start and end anchors", len(p.Points))
	}
}

func TestGenerateRespectsMaxProposals(t *testing.T) {
	g := newTestGenerator(oscillatingSeries(96, 8, 100, 110))

	unlimited, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if len(unlimited.Group.Proposals) < 2 {
		t.Skipf("oscillating series produced only %d proposals", len(unlimited.Group.Proposals))
	}

	limited, err := g.Generate(context.Background(), Request{
		Symbol:       "BTCUSDT",
		Interval:     models.Interval1h,
		MaxProposals: 1,
	})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if len(limited.Group.Proposals) != 1 {
		t.Errorf("proposals = %d, want 1", len(limited.Group.Proposals))
	}
	// Truncation keeps the strongest candidate.
	if limited.Group.Proposals[0].Confidence != unlimited.Group.Proposals[0].Confidence {
		t.Error("truncation did not keep the highest-confidence proposal")
	}
}

func TestGenerateProposalsSortedByConfidence(t *testing.T) {
	g := newTestGenerator(oscillatingSeries(96, 8, 100, 110))

	result, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	proposals := result.Group.Proposals
	for i := 1; i < len(proposals); i++ {
		if proposals[i].Confidence > proposals[i-1].Confidence {
			t.Errorf("proposals not sorted: %v before %v", proposals[i-1].Confidence, proposals[i].Confidence)
		}
	}
}

func TestGenerateExcludeIDs(t *testing.T) {
	g := newTestGenerator(oscillatingSeries(96, 8, 100, 110))
	req := Request{Symbol: "BTCUSDT", Interval: models.Interval1h}

	first, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if len(first.Group.Proposals) == 0 {
		t.Fatal("no proposals to exclude")
	}
	excluded := first.Group.Proposals[0].ID

	req.ExcludeIDs = []string{excluded}
	second, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	for _, p := range second.Group.Proposals {
		if p.ID == excluded {
			t.Errorf("excluded proposal %s reappeared", excluded)
		}
	}
}

func TestGenerateStableProposalIDs(t *testing.T) {
	g := newTestGenerator(oscillatingSeries(96, 8, 100, 110))
	req := Request{Symbol: "BTCUSDT", Interval: models.Interval1h}

	first, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	second, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}

	if len(first.Group.Proposals) != len(second.Group.Proposals) {
		t.Fatalf("runs differ in size: %d vs %d", len(first.Group.Proposals), len(second.Group.Proposals))
	}
	for i := range first.Group.Proposals {
		if first.Group.Proposals[i].ID != second.Group.Proposals[i].ID {
			t.Errorf("proposal %d ID changed between identical runs", i)
		}
	}
	// Group IDs identify runs, not content.
	if first.Group.ID == second.Group.ID {
		t.Error("group ID should be unique per run")
	}
}

func TestGenerateDedupesNearbyProposals(t *testing.T) {
	g := newTestGenerator(oscillatingSeries(96, 8, 100, 110))

	result, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}

	tolerance := config.Default().Analysis.DedupeTolerance
	proposals := result.Group.Proposals
	for i, a := range proposals {
		for _, b := range proposals[i+1:] {
			if a.Kind != b.Kind {
				continue
			}
			ref := a.ReferencePrice()
			if ref == 0 {
				continue
			}
			diff := b.ReferencePrice() - ref
			if diff < 0 {
				diff = -diff
			}
			if diff/ref <= tolerance {
				t.Errorf("near-duplicate %s proposals at %.4f and %.4f", a.Kind, ref, b.ReferencePrice())
			}
		}
	}
}

func maxLevelPrice(result *Result) float64 {
	best := 0.0
	if result == nil || result.Group == nil {
		return best
	}
	for _, p := range result.Group.Proposals {
		if p.Kind == KindHorizontalLine && p.Line != nil && p.Line.Price > best {
			best = p.Line.Price
		}
	}
	return best
}

func TestGenerateUsesConfiguredExtremaWindow(t *testing.T) {
	// Apexes repeat every 8 candles, so the default window of 10 sees no
	// strict extrema while a narrower window surfaces the 110 resistance.
	series := oscillatingSeries(96, 4, 100, 110)
	req := Request{Symbol: "BTCUSDT", Interval: models.Interval1h, Type: AnalysisSupportResistance}

	wide, err := newTestGenerator(series).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}

	narrowCfg := config.Default()
	narrowCfg.Analysis.ExtremaWindow = 3
	narrow, err := NewGenerator(&fixedProvider{candles: series}, nil, narrowCfg, zerolog.Nop()).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}

	if got := maxLevelPrice(wide); got > 108 {
		t.Errorf("default window found a level at %v; the cycle is shorter than the window", got)
	}
	if got := maxLevelPrice(narrow); got <= 108 {
		t.Errorf("narrow window found no level near the oscillation high, best = %v", got)
	}
}

func TestGenerateRequestValidation(t *testing.T) {
	g := newTestGenerator(flatSeries(100, 100))
	ctx := context.Background()

	cases := []Request{
		{Interval: models.Interval1h},                                          // missing symbol
		{Symbol: "BTCUSDT", Interval: "2m"},                                    // bad interval
		{Symbol: "BTCUSDT", Interval: models.Interval1h, Type: "sentiment"},    // unknown type
		{Symbol: "BTCUSDT", Interval: models.Interval1h, MaxProposals: -1},     // negative max
	}
	for i, req := range cases {
		if _, err := g.Generate(ctx, req); err == nil {
			t.Errorf("case %d: Generate() accepted an invalid request", i)
		}
	}
}

func TestGenerateProviderErrorSurfaces(t *testing.T) {
	g := NewGenerator(&fixedProvider{err: context.DeadlineExceeded}, nil, config.Default(), zerolog.Nop())

	_, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err == nil {
		t.Fatal("fetch failure should return an error")
	}
}

func TestRunDetectorRecoversPanics(t *testing.T) {
	g := newTestGenerator(flatSeries(100, 100))

	done := false
	g.runDetector(zerolog.Nop(), "exploding_detector", "BTCUSDT", func() {
		done = true
		panic("boom")
	})
	if !done {
		t.Error("detector body did not run")
	}
	// Reaching this point proves the panic was contained.
}

func TestGroupSummaryBias(t *testing.T) {
	g := newTestGenerator(risingSeries(50, 100, 1))

	result, err := g.Generate(context.Background(), Request{Symbol: "BTCUSDT", Interval: models.Interval1h})
	if err != nil {
		t.Fatalf("Generate() returned %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.Reason)
	}

	group := result.Group
	if group.Summary.ProposalCount != len(group.Proposals) {
		t.Errorf("ProposalCount = %d, want %d", group.Summary.ProposalCount, len(group.Proposals))
	}
	if group.Status != StatusPending {
		t.Errorf("Status = %v, want pending", group.Status)
	}
	if len(group.Proposals) > 0 && group.Summary.AverageConfidence <= 0 {
		t.Error("AverageConfidence should be positive when proposals exist")
	}
}
