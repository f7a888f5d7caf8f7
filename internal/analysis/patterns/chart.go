package patterns

import (
	"math"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/extrema"
	"chart-advisor/internal/analysis/lines"
	"chart-advisor/internal/models"
)

// ChartDetector detects multi-candle price structures from swing points.
type ChartDetector struct {
	extrema        *extrema.Detector
	priceTolerance float64 // relative tolerance for "equal" swing prices
}

// NewChartDetector creates a chart pattern detector using the given swing
// window for extrema detection.
func NewChartDetector(window int) *ChartDetector {
	return &ChartDetector{
		extrema:        extrema.NewDetector(window),
		priceTolerance: 0.02,
	}
}

func (d *ChartDetector) Name() string {
	return "ChartDetector"
}

// Detect returns all chart patterns found in the series.
func (d *ChartDetector) Detect(candles []models.Candle) []analysis.ChartPattern {
	swings := alternating(d.extrema.Detect(candles))
	if len(swings) < 2 {
		return nil
	}

	var patterns []analysis.ChartPattern
	if p, ok := d.detectTriangle(candles, swings); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.detectWedge(candles, swings); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.detectHeadAndShoulders(candles, swings); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.detectDoubleTop(candles, swings); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.detectDoubleBottom(candles, swings); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.detectFlag(candles); ok {
		patterns = append(patterns, p)
	}
	return patterns
}

// alternating compresses consecutive swings of the same type, keeping the
// more extreme one, so the result strictly alternates peak/trough.
func alternating(points []extrema.Point) []extrema.Point {
	if len(points) == 0 {
		return nil
	}
	result := []extrema.Point{points[0]}
	for _, p := range points[1:] {
		last := &result[len(result)-1]
		if p.IsPeak == last.IsPeak {
			if (p.IsPeak && p.Value > last.Value) || (!p.IsPeak && p.Value < last.Value) {
				*last = p
			}
			continue
		}
		result = append(result, p)
	}
	return result
}

func (d *ChartDetector) pricesEqual(a, b float64) bool {
	if a == 0 {
		return b == 0
	}
	return math.Abs(a-b)/math.Abs(a) <= d.priceTolerance
}

func splitSwings(swings []extrema.Point) (peaks, troughs []extrema.Point) {
	for _, s := range swings {
		if s.IsPeak {
			peaks = append(peaks, s)
		} else {
			troughs = append(troughs, s)
		}
	}
	return peaks, troughs
}

func touchPoints(points []extrema.Point) []analysis.TouchPoint {
	tps := make([]analysis.TouchPoint, len(points))
	for i, p := range points {
		tps[i] = p.TouchPoint()
	}
	return tps
}

func fitSwings(points []extrema.Point) lines.FitResult {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Time)
		ys[i] = p.Value
	}
	return lines.Fit(xs, ys)
}

func ptr(v float64) *float64 { return &v }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// detectTriangle looks for converging fitted lines over at least four
// alternating swings. Variant depends on which boundary is flat.
func (d *ChartDetector) detectTriangle(candles []models.Candle, swings []extrema.Point) (analysis.ChartPattern, bool) {
	if len(swings) < 4 {
		return analysis.ChartPattern{}, false
	}
	window := swings
	if len(window) > 8 {
		window = window[len(window)-8:]
	}
	peaks, troughs := splitSwings(window)
	if len(peaks) < 2 || len(troughs) < 2 {
		return analysis.ChartPattern{}, false
	}

	upper := fitSwings(peaks)
	lower := fitSwings(troughs)

	startT := float64(window[0].Time)
	endT := float64(candles[len(candles)-1].Time)
	widthStart := (upper.Slope*startT + upper.Intercept) - (lower.Slope*startT + lower.Intercept)
	widthEnd := (upper.Slope*endT + upper.Intercept) - (lower.Slope*endT + lower.Intercept)
	if widthStart <= 0 || widthEnd >= widthStart*0.75 {
		return analysis.ChartPattern{}, false
	}
	// A triangle needs the boundaries to actually converge: upper flat or
	// falling against a rising lower, or the mirror of that.
	if upper.Slope > 0 && lower.Slope > 0 && upper.Slope >= lower.Slope {
		return analysis.ChartPattern{}, false
	}
	if upper.Slope < 0 && lower.Slope < 0 && lower.Slope <= upper.Slope {
		return analysis.ChartPattern{}, false
	}

	variant := "symmetric"
	direction := analysis.PatternNeutral
	relFlat := d.priceTolerance / 4
	scale := math.Abs(upper.Intercept + upper.Slope*endT)
	flat := func(slope float64) bool {
		return math.Abs(slope*(endT-startT)) <= scale*relFlat
	}
	switch {
	case flat(upper.Slope) && lower.Slope > 0:
		variant = "ascending"
		direction = analysis.PatternBullish
	case flat(lower.Slope) && upper.Slope < 0:
		variant = "descending"
		direction = analysis.PatternBearish
	}

	upperEnd := upper.Slope*endT + upper.Intercept
	lowerEnd := lower.Slope*endT + lower.Intercept
	breakout := upperEnd
	target := upperEnd + widthStart
	stop := lowerEnd
	if direction == analysis.PatternBearish {
		breakout = lowerEnd
		target = lowerEnd - widthStart
		stop = upperEnd
	}

	confidence := clamp01(0.4 +
		0.3*(1-widthEnd/widthStart) +
		0.15*clamp01(upper.RSquared) +
		0.15*clamp01(lower.RSquared))

	return analysis.ChartPattern{
		Kind:          analysis.PatternTriangle,
		Variant:       variant,
		Direction:     direction,
		KeyPoints:     touchPoints(window),
		StartIndex:    window[0].Index,
		EndIndex:      window[len(window)-1].Index,
		Confidence:    confidence,
		Target:        ptr(target),
		StopLoss:      ptr(stop),
		BreakoutLevel: ptr(breakout),
	}, true
}

// detectWedge looks for converging boundaries that both slope the same
// way. Rising wedges resolve bearish, falling wedges bullish.
func (d *ChartDetector) detectWedge(candles []models.Candle, swings []extrema.Point) (analysis.ChartPattern, bool) {
	if len(swings) < 4 {
		return analysis.ChartPattern{}, false
	}
	window := swings
	if len(window) > 8 {
		window = window[len(window)-8:]
	}
	peaks, troughs := splitSwings(window)
	if len(peaks) < 2 || len(troughs) < 2 {
		return analysis.ChartPattern{}, false
	}

	upper := fitSwings(peaks)
	lower := fitSwings(troughs)

	rising := upper.Slope > 0 && lower.Slope > 0 && lower.Slope > upper.Slope
	falling := upper.Slope < 0 && lower.Slope < 0 && upper.Slope < lower.Slope
	if !rising && !falling {
		return analysis.ChartPattern{}, false
	}

	startT := float64(window[0].Time)
	endT := float64(candles[len(candles)-1].Time)
	widthStart := (upper.Slope*startT + upper.Intercept) - (lower.Slope*startT + lower.Intercept)
	widthEnd := (upper.Slope*endT + upper.Intercept) - (lower.Slope*endT + lower.Intercept)
	if widthStart <= 0 || widthEnd >= widthStart*0.85 {
		return analysis.ChartPattern{}, false
	}

	variant := "rising"
	direction := analysis.PatternBearish
	breakout := lower.Slope*endT + lower.Intercept
	target := breakout - widthStart
	stop := upper.Slope*endT + upper.Intercept
	if falling {
		variant = "falling"
		direction = analysis.PatternBullish
		breakout = upper.Slope*endT + upper.Intercept
		target = breakout + widthStart
		stop = lower.Slope*endT + lower.Intercept
	}

	confidence := clamp01(0.35 +
		0.3*(1-widthEnd/widthStart) +
		0.175*clamp01(upper.RSquared) +
		0.175*clamp01(lower.RSquared))

	return analysis.ChartPattern{
		Kind:          analysis.PatternWedge,
		Variant:       variant,
		Direction:     direction,
		KeyPoints:     touchPoints(window),
		StartIndex:    window[0].Index,
		EndIndex:      window[len(window)-1].Index,
		Confidence:    confidence,
		Target:        ptr(target),
		StopLoss:      ptr(stop),
		BreakoutLevel: ptr(breakout),
	}, true
}

// detectHeadAndShoulders requires three peaks where the middle one is
// strictly highest and the shoulders are near-equal. The neckline runs
// through the two intervening troughs.
func (d *ChartDetector) detectHeadAndShoulders(candles []models.Candle, swings []extrema.Point) (analysis.ChartPattern, bool) {
	// Scan the most recent window of swings for the 5-point shape
	// peak-trough-peak-trough-peak.
	for start := len(swings) - 5; start >= 0; start-- {
		s := swings[start : start+5]
		if !s[0].IsPeak || s[1].IsPeak || !s[2].IsPeak || s[3].IsPeak || !s[4].IsPeak {
			continue
		}
		left, head, right := s[0], s[2], s[4]
		if head.Value <= left.Value || head.Value <= right.Value {
			continue
		}
		if !d.pricesEqual(left.Value, right.Value) {
			continue
		}

		neckline := fitSwings([]extrema.Point{s[1], s[3]})
		endT := float64(candles[len(candles)-1].Time)
		necklineEnd := neckline.Slope*endT + neckline.Intercept
		necklineAtHead := neckline.Slope*float64(head.Time) + neckline.Intercept
		height := head.Value - necklineAtHead
		if height <= 0 {
			continue
		}

		symmetry := 1 - math.Abs(left.Value-right.Value)/head.Value
		confidence := clamp01(0.5 + 0.35*symmetry + 0.15*clamp01(1-math.Abs(s[1].Value-s[3].Value)/head.Value))

		return analysis.ChartPattern{
			Kind:          analysis.PatternHeadAndShoulders,
			Variant:       "standard",
			Direction:     analysis.PatternBearish,
			KeyPoints:     touchPoints(s),
			StartIndex:    s[0].Index,
			EndIndex:      s[4].Index,
			Confidence:    confidence,
			Target:        ptr(necklineEnd - height),
			StopLoss:      ptr(head.Value),
			BreakoutLevel: ptr(necklineEnd),
		}, true
	}
	return analysis.ChartPattern{}, false
}

// detectDoubleTop requires two near-equal peaks separated by a trough.
func (d *ChartDetector) detectDoubleTop(candles []models.Candle, swings []extrema.Point) (analysis.ChartPattern, bool) {
	for start := len(swings) - 3; start >= 0; start-- {
		s := swings[start : start+3]
		if !s[0].IsPeak || s[1].IsPeak || !s[2].IsPeak {
			continue
		}
		first, valley, second := s[0], s[1], s[2]
		if !d.pricesEqual(first.Value, second.Value) {
			continue
		}
		height := (first.Value+second.Value)/2 - valley.Value
		if height <= 0 {
			continue
		}

		confidence := clamp01(0.5 + 0.4*(1-math.Abs(first.Value-second.Value)/first.Value/d.priceTolerance))

		return analysis.ChartPattern{
			Kind:          analysis.PatternDoubleTop,
			Variant:       "standard",
			Direction:     analysis.PatternBearish,
			KeyPoints:     touchPoints(s),
			StartIndex:    first.Index,
			EndIndex:      second.Index,
			Confidence:    confidence,
			Target:        ptr(valley.Value - height),
			StopLoss:      ptr(max(first.Value, second.Value)),
			BreakoutLevel: ptr(valley.Value),
		}, true
	}
	return analysis.ChartPattern{}, false
}

// detectDoubleBottom is the mirror of detectDoubleTop.
func (d *ChartDetector) detectDoubleBottom(candles []models.Candle, swings []extrema.Point) (analysis.ChartPattern, bool) {
	for start := len(swings) - 3; start >= 0; start-- {
		s := swings[start : start+3]
		if s[0].IsPeak || !s[1].IsPeak || s[2].IsPeak {
			continue
		}
		first, crest, second := s[0], s[1], s[2]
		if !d.pricesEqual(first.Value, second.Value) {
			continue
		}
		height := crest.Value - (first.Value+second.Value)/2
		if height <= 0 {
			continue
		}

		confidence := clamp01(0.5 + 0.4*(1-math.Abs(first.Value-second.Value)/first.Value/d.priceTolerance))

		return analysis.ChartPattern{
			Kind:          analysis.PatternDoubleBottom,
			Variant:       "standard",
			Direction:     analysis.PatternBullish,
			KeyPoints:     touchPoints(s),
			StartIndex:    first.Index,
			EndIndex:      second.Index,
			Confidence:    confidence,
			Target:        ptr(crest.Value + height),
			StopLoss:      ptr(min(first.Value, second.Value)),
			BreakoutLevel: ptr(crest.Value),
		}, true
	}
	return analysis.ChartPattern{}, false
}

// detectFlag looks for a sharp pole followed by a short counter-trend
// drift. The flag projects the pole height from the breakout.
func (d *ChartDetector) detectFlag(candles []models.Candle) (analysis.ChartPattern, bool) {
	const poleLen = 5
	const flagLen = 6
	if len(candles) < poleLen+flagLen {
		return analysis.ChartPattern{}, false
	}

	n := len(candles)
	flag := candles[n-flagLen:]
	pole := candles[n-flagLen-poleLen : n-flagLen]

	poleMove := pole[len(pole)-1].Close - pole[0].Open
	var avgRange float64
	for _, c := range candles {
		avgRange += c.Range()
	}
	avgRange /= float64(len(candles))
	if avgRange == 0 || math.Abs(poleMove) < 3*avgRange {
		return analysis.ChartPattern{}, false
	}

	xs := make([]float64, len(flag))
	ys := make([]float64, len(flag))
	for i, c := range flag {
		xs[i] = float64(c.Time)
		ys[i] = c.Close
	}
	drift := lines.Fit(xs, ys)

	// The consolidation must drift gently against the pole.
	driftMove := drift.Slope * (xs[len(xs)-1] - xs[0])
	if poleMove > 0 && (driftMove > 0 || math.Abs(driftMove) > math.Abs(poleMove)*0.5) {
		return analysis.ChartPattern{}, false
	}
	if poleMove < 0 && (driftMove < 0 || math.Abs(driftMove) > math.Abs(poleMove)*0.5) {
		return analysis.ChartPattern{}, false
	}

	direction := analysis.PatternBullish
	variant := "bull"
	if poleMove < 0 {
		direction = analysis.PatternBearish
		variant = "bear"
	}

	breakout := flag[len(flag)-1].Close
	target := breakout + poleMove
	stop := breakout - poleMove*0.5

	keyPoints := []analysis.TouchPoint{
		{Time: pole[0].Time, Value: pole[0].Open, Index: n - flagLen - poleLen},
		{Time: pole[len(pole)-1].Time, Value: pole[len(pole)-1].Close, Index: n - flagLen - 1},
		{Time: flag[len(flag)-1].Time, Value: flag[len(flag)-1].Close, Index: n - 1},
	}

	confidence := clamp01(0.4 + 0.3*clamp01(math.Abs(poleMove)/(5*avgRange)) + 0.3*clamp01(drift.RSquared))

	return analysis.ChartPattern{
		Kind:          analysis.PatternFlag,
		Variant:       variant,
		Direction:     direction,
		KeyPoints:     keyPoints,
		StartIndex:    n - flagLen - poleLen,
		EndIndex:      n - 1,
		Confidence:    confidence,
		Target:        ptr(target),
		StopLoss:      ptr(stop),
		BreakoutLevel: ptr(breakout),
	}, true
}
