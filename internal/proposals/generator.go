package proposals

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/analysis/lines"
	"chart-advisor/internal/analysis/mtf"
	"chart-advisor/internal/analysis/patterns"
	"chart-advisor/internal/analysis/scoring"
	"chart-advisor/internal/cache"
	"chart-advisor/internal/config"
	"chart-advisor/internal/errors"
	"chart-advisor/internal/logging"
	"chart-advisor/internal/marketdata"
	"chart-advisor/internal/models"
	"chart-advisor/pkg/utils"
)

// Generator orchestrates detection, scoring, and ranking into proposal
// groups.
type Generator struct {
	provider marketdata.Provider
	store    cache.Store
	lines    *lines.Detector
	matcher  *patterns.CandlestickMatcher
	charts   *patterns.ChartDetector
	mtf      *mtf.Analyzer
	scorer   *scoring.ConfidenceScorer
	cfg      config.AnalysisConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewGenerator wires a generator from its collaborators. The cache store
// may be nil.
func NewGenerator(provider marketdata.Provider, store cache.Store, cfg *config.Config, logger zerolog.Logger) *Generator {
	ac := cfg.Analysis
	return &Generator{
		provider: provider,
		store:    store,
		lines: lines.NewDetector(lines.Config{
			ExtremaWindow:       ac.ExtremaWindow,
			ATRPeriod:           ac.ATRPeriod,
			ToleranceMultiplier: ac.ToleranceMultiplier,
			MinTouches:          ac.MinTouches,
		}),
		matcher: patterns.NewCandlestickMatcher(),
		charts:  patterns.NewChartDetector(ac.SwingWindow),
		mtf:     mtf.NewAnalyzer(provider, store, cfg.MTF.FetchTimeout, cfg.MTF.CandleLimit, logger),
		scorer:  scoring.NewConfidenceScorer(scoring.Weights(ac.Weights)),
		cfg:     ac,
		logger:  logger.With().Str("component", "generator").Logger(),
		now:     time.Now,
	}
}

// seriesContext is the shared evidence every builder scores against.
type seriesContext struct {
	symbol        string
	interval      models.Interval
	candles       []models.Candle
	meanVolume    float64
	confluence    *mtf.Result
	candleMatches []analysis.CandleMatch
	chartPatterns []analysis.ChartPattern
	createdAt     time.Time
}

// Generate runs the requested analysis and returns a ranked proposal
// group. Insufficient data yields Success=false with a reason rather
// than an error; request and fetch failures return errors.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	maxProposals := req.MaxProposals
	if maxProposals == 0 {
		maxProposals = g.cfg.MaxProposals
	}

	logger := logging.WithSymbol(g.logger, req.Symbol)

	candles, err := g.fetch(ctx, req)
	if err != nil {
		return nil, errors.NewDataError("klines", req.Symbol, "fetching base series", err)
	}
	if len(candles) < g.cfg.MinCandles {
		reason := fmt.Sprintf("insufficient data: %d candles, need at least %d", len(candles), g.cfg.MinCandles)
		logger.Info().Str("interval", string(req.Interval)).Msg(reason)
		return &Result{Success: false, Reason: reason}, nil
	}

	sc := &seriesContext{
		symbol:     req.Symbol,
		interval:   req.Interval,
		candles:    candles,
		meanVolume: indicators.MeanVolume(candles),
		confluence: g.mtf.Analyze(ctx, req.Symbol, req.Interval, candles),
		createdAt:  g.now().UTC(),
	}

	// Pattern evidence feeds confirmation factors for every proposal
	// kind, so it is collected up front even for line-only requests.
	g.runDetector(logger, "candlestick_matcher", req.Symbol, func() {
		sc.candleMatches = g.matcher.Match(candles)
	})
	g.runDetector(logger, "chart_detector", req.Symbol, func() {
		sc.chartPatterns = g.charts.Detect(candles)
	})

	var candidates []DrawingProposal
	collect := func(name string, build func(*seriesContext) []DrawingProposal) {
		g.runDetector(logger, name, req.Symbol, func() {
			candidates = append(candidates, build(sc)...)
		})
	}

	switch req.Type {
	case AnalysisTrendline:
		collect("trendlines", g.trendlineProposals)
	case AnalysisSupportResistance:
		collect("horizontal_levels", g.horizontalProposals)
	case AnalysisFibonacci:
		collect("fibonacci", g.fibonacciProposals)
	case AnalysisPattern:
		collect("patterns", g.patternProposals)
		collect("rays", g.rayProposals)
	default: // AnalysisAll
		collect("trendlines", g.trendlineProposals)
		collect("horizontal_levels", g.horizontalProposals)
		collect("fibonacci", g.fibonacciProposals)
		collect("patterns", g.patternProposals)
		collect("rays", g.rayProposals)
	}

	candidates = g.exclude(candidates, req.ExcludeIDs)
	candidates = g.dedupe(candidates)
	sortProposals(candidates)
	if len(candidates) > maxProposals {
		candidates = candidates[:maxProposals]
	}

	for _, p := range candidates {
		logging.LogProposal(logger, req.Symbol, string(p.Kind), p.Confidence, p.Reasoning)
	}

	group := g.buildGroup(req, sc, candidates)
	return &Result{Success: true, Group: group}, nil
}

// runDetector isolates a detector: a panic is recovered, logged, and its
// candidates are simply omitted from the run.
func (g *Generator) runDetector(logger zerolog.Logger, name, symbol string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.NewComputationError(name, fmt.Sprintf("recovered: %v", r), nil)
			logging.LogDetectorFailure(logger, name, symbol, err)
		}
	}()
	fn()
}

func (g *Generator) fetch(ctx context.Context, req Request) ([]models.Candle, error) {
	key := cache.Key(req.Symbol, req.Interval, g.cfg.FetchLimit)
	if g.store != nil && req.Since == 0 {
		if candles, hit := g.store.Get(ctx, key); hit {
			return candles, nil
		}
	}
	start := time.Now()
	candles, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() ([]models.Candle, error) {
		return g.provider.Klines(ctx, marketdata.Request{
			Symbol:   req.Symbol,
			Interval: req.Interval,
			Limit:    g.cfg.FetchLimit,
			Start:    req.Since,
		})
	})
	logging.LogFetch(g.logger, req.Symbol, string(req.Interval), len(candles), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if g.store != nil && req.Since == 0 && len(candles) > 0 {
		g.store.Set(ctx, key, candles, cache.TTLFor(req.Interval))
	}
	return candles, nil
}

func (g *Generator) exclude(proposals []DrawingProposal, excludeIDs []string) []DrawingProposal {
	if len(excludeIDs) == 0 {
		return proposals
	}
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	kept := proposals[:0]
	for _, p := range proposals {
		if _, skip := excluded[p.ID]; !skip {
			kept = append(kept, p)
		}
	}
	return kept
}

// dedupe drops proposals of the same kind whose reference prices sit
// within the dedupe tolerance of a higher-confidence survivor.
func (g *Generator) dedupe(proposals []DrawingProposal) []DrawingProposal {
	if len(proposals) <= 1 {
		return proposals
	}
	ordered := make([]DrawingProposal, len(proposals))
	copy(ordered, proposals)
	sortProposals(ordered)

	var kept []DrawingProposal
	for _, p := range ordered {
		duplicate := false
		for _, k := range kept {
			if k.Kind != p.Kind {
				continue
			}
			ref := k.ReferencePrice()
			if ref == 0 {
				continue
			}
			diff := p.ReferencePrice() - ref
			if diff < 0 {
				diff = -diff
			}
			if diff/abs(ref) <= g.cfg.DedupeTolerance {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, p)
		}
	}
	return kept
}

// sortProposals orders by confidence descending; ties go to the earlier
// CreatedAt, then to the ID for determinism.
func sortProposals(proposals []DrawingProposal) {
	sort.SliceStable(proposals, func(i, j int) bool {
		if proposals[i].Confidence != proposals[j].Confidence {
			return proposals[i].Confidence > proposals[j].Confidence
		}
		if !proposals[i].CreatedAt.Equal(proposals[j].CreatedAt) {
			return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
		}
		return proposals[i].ID < proposals[j].ID
	})
}

func (g *Generator) buildGroup(req Request, sc *seriesContext, proposals []DrawingProposal) *ProposalGroup {
	bullish, bearish := 0, 0
	var confidenceSum float64
	for _, p := range proposals {
		confidenceSum += p.Confidence
		switch p.Direction {
		case analysis.PatternBullish:
			bullish++
		case analysis.PatternBearish:
			bearish++
		}
	}

	bias := analysis.PatternNeutral
	if bullish > bearish {
		bias = analysis.PatternBullish
	} else if bearish > bullish {
		bias = analysis.PatternBearish
	}

	avg := 0.0
	if len(proposals) > 0 {
		avg = confidenceSum / float64(len(proposals))
	}

	return &ProposalGroup{
		ID:       uuid.NewString(),
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Title:    fmt.Sprintf("%s %s analysis", req.Symbol, req.Interval),
		Description: fmt.Sprintf("%d drawing proposals from %s analysis of %d candles",
			len(proposals), req.Type, len(sc.candles)),
		Proposals: proposals,
		Summary: GroupSummary{
			MarketBias:        bias,
			AverageConfidence: avg,
			ProposalCount:     len(proposals),
		},
		Status:    StatusPending,
		CreatedAt: sc.createdAt,
	}
}

// patternConfirmation returns the strongest recent pattern evidence
// agreeing with the given direction.
func (sc *seriesContext) patternConfirmation(direction analysis.PatternDirection) float64 {
	recent := len(sc.candles) - 10
	best := 0.0
	for _, m := range sc.candleMatches {
		if m.Index >= recent && m.Direction == direction && m.Strength > best {
			best = m.Strength
		}
	}
	for _, p := range sc.chartPatterns {
		if p.Direction == direction && p.Confidence > best {
			best = p.Confidence
		}
	}
	return best
}

// volumeFactor is the mean volume at the given points relative to the
// series mean, normalized to [0,1].
func (sc *seriesContext) volumeFactor(points []analysis.TouchPoint) float64 {
	if sc.meanVolume == 0 || len(points) == 0 {
		return 0
	}
	var total float64
	counted := 0
	for _, p := range points {
		if p.Index >= 0 && p.Index < len(sc.candles) {
			total += sc.candles[p.Index].Volume
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return scoring.NormalizeVolumeRatio(total / float64(counted) / sc.meanVolume)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
