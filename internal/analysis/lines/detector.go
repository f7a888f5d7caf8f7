package lines

import (
	"math"
	"sort"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/extrema"
	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/models"
)

// Config holds line detection parameters.
type Config struct {
	ExtremaWindow       int     // extrema neighborhood half-width
	ATRPeriod           int     // touch tolerance ATR period
	ToleranceMultiplier float64 // touch tolerance = ATR * multiplier
	MinTouches          int     // touches required to keep a line
	ClusterTolerance    float64 // relative price distance for level clustering
	MaxLines            int     // cap on surviving candidates per kind
}

// DefaultConfig returns the standard detection parameters.
func DefaultConfig() Config {
	return Config{
		ExtremaWindow:       extrema.DefaultWindow,
		ATRPeriod:           DefaultATRPeriod,
		ToleranceMultiplier: DefaultMultiplier,
		MinTouches:          2,
		ClusterTolerance:    0.01,
		MaxLines:            8,
	}
}

// Detector generates horizontal level and trendline candidates from a
// candle series.
type Detector struct {
	cfg     Config
	extrema *extrema.Detector
	touch   *TouchDetector
}

// NewDetector creates a line detector with the given configuration.
// Zero-valued fields fall back to DefaultConfig.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.ExtremaWindow <= 0 {
		cfg.ExtremaWindow = def.ExtremaWindow
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.ToleranceMultiplier <= 0 {
		cfg.ToleranceMultiplier = def.ToleranceMultiplier
	}
	if cfg.MinTouches <= 0 {
		cfg.MinTouches = def.MinTouches
	}
	if cfg.ClusterTolerance <= 0 {
		cfg.ClusterTolerance = def.ClusterTolerance
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = def.MaxLines
	}
	return &Detector{
		cfg:     cfg,
		extrema: extrema.NewDetector(cfg.ExtremaWindow),
		touch:   NewTouchDetector(cfg.ATRPeriod, cfg.ToleranceMultiplier),
	}
}

// TouchDetector exposes the detector's touch counter for reuse.
func (d *Detector) TouchDetector() *TouchDetector {
	return d.touch
}

// Detect returns all surviving horizontal level and trendline candidates.
func (d *Detector) Detect(candles []models.Candle) []analysis.DetectedLine {
	lines := d.HorizontalLevels(candles)
	lines = append(lines, d.Trendlines(candles)...)
	return lines
}

// HorizontalLevels clusters extrema into support and resistance levels and
// verifies each level against the full series. Extrema arrive in volume
// weight order so the highest-conviction pivots seed the clusters.
func (d *Detector) HorizontalLevels(candles []models.Candle) []analysis.DetectedLine {
	if len(candles) == 0 {
		return nil
	}

	var peaks, troughs []extrema.Point
	for _, p := range d.extrema.DetectWeighted(candles) {
		if p.IsPeak {
			peaks = append(peaks, p)
		} else {
			troughs = append(troughs, p)
		}
	}

	var lines []analysis.DetectedLine
	lines = append(lines, d.levelsFromPoints(candles, peaks, analysis.LineResistance)...)
	lines = append(lines, d.levelsFromPoints(candles, troughs, analysis.LineSupport)...)

	// A series with no extrema at all (flat or monotone) can still hold a
	// meaningful level wherever price keeps trading at the same value.
	if len(peaks) == 0 && len(troughs) == 0 {
		level := indicators.MeanClose(candles)
		candidate := analysis.DetectedLine{
			Kind:  analysis.LineSupport,
			Price: level,
		}
		touches := d.touch.Touches(candles, candidate)
		if len(touches) >= d.cfg.MinTouches {
			fit := FitPoints(touches)
			candidate.RSquared = fit.RSquared
			candidate.Touches = touches
			candidate.StartIndex = touches[0].Index
			candidate.EndIndex = touches[len(touches)-1].Index
			lines = append(lines, candidate)
		}
	}

	return d.prune(candles, lines)
}

func (d *Detector) levelsFromPoints(candles []models.Candle, points []extrema.Point, kind analysis.LineKind) []analysis.DetectedLine {
	var lines []analysis.DetectedLine
	for _, cluster := range d.clusterPoints(points) {
		if cluster.touches < d.cfg.MinTouches {
			continue
		}
		line := analysis.DetectedLine{
			Kind:  kind,
			Price: cluster.price,
		}
		touches := d.touch.Touches(candles, line)
		if len(touches) < d.cfg.MinTouches {
			continue
		}
		fit := FitPoints(touches)
		line.RSquared = fit.RSquared
		line.Touches = touches
		line.StartIndex = touches[0].Index
		line.EndIndex = touches[len(touches)-1].Index
		lines = append(lines, line)
	}
	return lines
}

type clusteredLevel struct {
	price    float64
	touches  int
	firstIdx int
	lastIdx  int
}

// clusterPoints groups nearby extrema into single levels using a running
// average within the cluster tolerance. Points are consumed in the order
// given, so callers passing volume-weighted extrema get clusters anchored
// at the strongest pivots.
func (d *Detector) clusterPoints(points []extrema.Point) []clusteredLevel {
	var clusters []clusteredLevel
	for _, p := range points {
		assigned := false
		for i := range clusters {
			c := &clusters[i]
			if c.price != 0 && math.Abs(p.Value-c.price)/c.price <= d.cfg.ClusterTolerance {
				c.touches++
				c.price = (c.price*float64(c.touches-1) + p.Value) / float64(c.touches)
				if p.Index < c.firstIdx {
					c.firstIdx = p.Index
				}
				if p.Index > c.lastIdx {
					c.lastIdx = p.Index
				}
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, clusteredLevel{
				price:    p.Value,
				touches:  1,
				firstIdx: p.Index,
				lastIdx:  p.Index,
			})
		}
	}
	return clusters
}

// Trendlines connects extrema pairwise, verifies touch counts, and refines
// surviving candidates with a least-squares fit over their touch points.
func (d *Detector) Trendlines(candles []models.Candle) []analysis.DetectedLine {
	peaks := d.extrema.Peaks(candles, extrema.FieldHigh)
	troughs := d.extrema.Troughs(candles, extrema.FieldLow)

	var lines []analysis.DetectedLine
	lines = append(lines, d.trendlinesFromPoints(candles, peaks)...)
	lines = append(lines, d.trendlinesFromPoints(candles, troughs)...)

	// With no usable extrema, a strongly directional series still defines a
	// single trendline through its closes.
	if len(lines) == 0 && len(peaks) < 2 && len(troughs) < 2 {
		if line, ok := d.regressionLine(candles); ok {
			lines = append(lines, line)
		}
	}

	return d.prune(candles, lines)
}

func (d *Detector) trendlinesFromPoints(candles []models.Candle, points []extrema.Point) []analysis.DetectedLine {
	if len(points) < 2 {
		return nil
	}

	var lines []analysis.DetectedLine
	for i := 0; i < len(points)-1; i++ {
		for j := i + 1; j < len(points); j++ {
			dt := points[j].Time - points[i].Time
			if dt == 0 {
				continue
			}
			slope := (points[j].Value - points[i].Value) / float64(dt)
			candidate := analysis.DetectedLine{
				Kind:      analysis.LineTrendline,
				Slope:     slope,
				Intercept: points[i].Value - slope*float64(points[i].Time),
			}
			touches := d.touch.Touches(candles, candidate)
			if len(touches) < d.cfg.MinTouches {
				continue
			}
			fit := FitPoints(touches)
			refined := analysis.DetectedLine{
				Kind:      analysis.LineTrendline,
				Slope:     fit.Slope,
				Intercept: fit.Intercept,
				RSquared:  fit.RSquared,
			}
			refined.Touches = d.touch.Touches(candles, refined)
			if len(refined.Touches) < d.cfg.MinTouches {
				continue
			}
			refined.StartIndex = refined.Touches[0].Index
			refined.EndIndex = refined.Touches[len(refined.Touches)-1].Index
			lines = append(lines, refined)
		}
	}
	return lines
}

// regressionLine fits the closes against time and keeps the result only
// when the fit is strong and clearly directional.
func (d *Detector) regressionLine(candles []models.Candle) (analysis.DetectedLine, bool) {
	if len(candles) < d.cfg.MinTouches {
		return analysis.DetectedLine{}, false
	}
	xs := make([]float64, len(candles))
	ys := make([]float64, len(candles))
	for i, c := range candles {
		xs[i] = float64(c.Time)
		ys[i] = c.Close
	}
	fit := Fit(xs, ys)
	if fit.Slope == 0 || fit.RSquared < 0.6 {
		return analysis.DetectedLine{}, false
	}
	line := analysis.DetectedLine{
		Kind:      analysis.LineTrendline,
		Slope:     fit.Slope,
		Intercept: fit.Intercept,
		RSquared:  fit.RSquared,
	}
	line.Touches = d.touch.Touches(candles, line)
	if len(line.Touches) < d.cfg.MinTouches {
		return analysis.DetectedLine{}, false
	}
	line.StartIndex = line.Touches[0].Index
	line.EndIndex = line.Touches[len(line.Touches)-1].Index
	return line, true
}

// prune orders candidates by evidence and drops near-duplicates of
// already-kept lines of the same kind.
func (d *Detector) prune(candles []models.Candle, lines []analysis.DetectedLine) []analysis.DetectedLine {
	if len(lines) <= 1 {
		return lines
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if len(lines[i].Touches) != len(lines[j].Touches) {
			return len(lines[i].Touches) > len(lines[j].Touches)
		}
		return lines[i].RSquared > lines[j].RSquared
	})

	lastTime := candles[len(candles)-1].Time
	var kept []analysis.DetectedLine
	for _, line := range lines {
		duplicate := false
		price := line.ValueAt(lastTime)
		for _, k := range kept {
			if k.Kind != line.Kind {
				continue
			}
			ref := k.ValueAt(lastTime)
			if ref != 0 && math.Abs(price-ref)/math.Abs(ref) <= d.cfg.ClusterTolerance {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, line)
			if len(kept) >= d.cfg.MaxLines {
				break
			}
		}
	}
	return kept
}
