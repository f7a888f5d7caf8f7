// Package patterns provides candlestick and chart pattern detection.
package patterns

import (
	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/models"
)

// Candlestick pattern names.
const (
	PatternDoji         = "doji"
	PatternHammer       = "hammer"
	PatternShootingStar = "shooting_star"
	PatternPinBar       = "pin_bar"
	PatternEngulfing    = "engulfing"
	PatternMarubozu     = "marubozu"
	PatternMorningStar  = "morning_star"
	PatternEveningStar  = "evening_star"
)

// CandlestickMatcher detects candlestick patterns in price data.
type CandlestickMatcher struct {
	dojiThreshold      float64 // body size as fraction of range for doji
	longBodyThreshold  float64 // body size as fraction of range for long body
	shadowThreshold    float64 // shadow size as multiple of body for pins
	volumeConfirmRatio float64 // volume ratio for confirmation
}

// NewCandlestickMatcher creates a matcher with the standard thresholds.
func NewCandlestickMatcher() *CandlestickMatcher {
	return &CandlestickMatcher{
		dojiThreshold:      0.1, // body < 10% of range
		longBodyThreshold:  0.6, // body > 60% of range
		shadowThreshold:    2.0, // shadow >= 2x body
		volumeConfirmRatio: 1.5, // volume >= 1.5x average
	}
}

func (m *CandlestickMatcher) Name() string {
	return "CandlestickMatcher"
}

// Match returns every pattern occurrence in the series. Overlapping
// matches are all reported; the caller decides which to act on.
func (m *CandlestickMatcher) Match(candles []models.Candle) []analysis.CandleMatch {
	if len(candles) == 0 {
		return nil
	}

	avgVolume := indicators.MeanVolume(candles)

	var matches []analysis.CandleMatch
	for i := range candles {
		if p, ok := m.matchDoji(candles, i, avgVolume); ok {
			matches = append(matches, p)
		}
		if p, ok := m.matchHammer(candles, i, avgVolume); ok {
			matches = append(matches, p)
		}
		if p, ok := m.matchShootingStar(candles, i, avgVolume); ok {
			matches = append(matches, p)
		}
		if p, ok := m.matchPinBar(candles, i, avgVolume); ok {
			matches = append(matches, p)
		}
		if p, ok := m.matchMarubozu(candles, i, avgVolume); ok {
			matches = append(matches, p)
		}
		if i >= 1 {
			if p, ok := m.matchEngulfing(candles, i, avgVolume); ok {
				matches = append(matches, p)
			}
		}
		if i >= 2 {
			if p, ok := m.matchMorningStar(candles, i, avgVolume); ok {
				matches = append(matches, p)
			}
			if p, ok := m.matchEveningStar(candles, i, avgVolume); ok {
				matches = append(matches, p)
			}
		}
	}
	return matches
}

func (m *CandlestickMatcher) hasVolumeConfirmation(c models.Candle, avgVolume float64) bool {
	if avgVolume == 0 {
		return false
	}
	return c.Volume >= avgVolume*m.volumeConfirmRatio
}

func (m *CandlestickMatcher) strength(base float64, volumeConfirm bool) float64 {
	if volumeConfirm {
		return min(1.0, base*1.2)
	}
	return base
}

// matchDoji: open and close nearly equal relative to the range.
func (m *CandlestickMatcher) matchDoji(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	c := candles[idx]
	rng := c.Range()
	if rng == 0 {
		return analysis.CandleMatch{}, false
	}
	if c.Body()/rng > m.dojiThreshold {
		return analysis.CandleMatch{}, false
	}
	return analysis.CandleMatch{
		Name:      PatternDoji,
		Direction: analysis.PatternNeutral,
		Index:     idx,
		Strength:  m.strength(0.5, m.hasVolumeConfirmation(c, avgVolume)),
	}, true
}

// matchHammer: lower shadow at least twice the body, upper shadow under
// 0.3x the body, closing bullish.
func (m *CandlestickMatcher) matchHammer(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	c := candles[idx]
	if c.Range() == 0 {
		return analysis.CandleMatch{}, false
	}
	body := c.Body()
	if c.LowerShadow() < body*m.shadowThreshold || c.UpperShadow() >= body*0.3 || !c.IsBullish() {
		return analysis.CandleMatch{}, false
	}
	return analysis.CandleMatch{
		Name:      PatternHammer,
		Direction: analysis.PatternBullish,
		Index:     idx,
		Strength:  m.strength(0.7, m.hasVolumeConfirmation(c, avgVolume)),
	}, true
}

// matchShootingStar: upper shadow more than twice the body, lower shadow
// under half the body.
func (m *CandlestickMatcher) matchShootingStar(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	c := candles[idx]
	if c.Range() == 0 {
		return analysis.CandleMatch{}, false
	}
	body := c.Body()
	if c.UpperShadow() <= body*m.shadowThreshold || c.LowerShadow() >= body*0.5 {
		return analysis.CandleMatch{}, false
	}
	return analysis.CandleMatch{
		Name:      PatternShootingStar,
		Direction: analysis.PatternBearish,
		Index:     idx,
		Strength:  m.strength(0.7, m.hasVolumeConfirmation(c, avgVolume)),
	}, true
}

// matchPinBar: lower shadow more than twice the body, upper shadow under
// half the body. The bearish mirror is the shooting star.
func (m *CandlestickMatcher) matchPinBar(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	c := candles[idx]
	if c.Range() == 0 {
		return analysis.CandleMatch{}, false
	}
	body := c.Body()
	if c.LowerShadow() <= body*m.shadowThreshold || c.UpperShadow() >= body*0.5 {
		return analysis.CandleMatch{}, false
	}
	return analysis.CandleMatch{
		Name:      PatternPinBar,
		Direction: analysis.PatternBullish,
		Index:     idx,
		Strength:  m.strength(0.65, m.hasVolumeConfirmation(c, avgVolume)),
	}, true
}

// matchMarubozu: the body covers nearly the entire range.
func (m *CandlestickMatcher) matchMarubozu(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	c := candles[idx]
	rng := c.Range()
	if rng == 0 {
		return analysis.CandleMatch{}, false
	}
	if c.Body()/rng < 0.9 {
		return analysis.CandleMatch{}, false
	}
	direction := analysis.PatternBullish
	if c.IsBearish() {
		direction = analysis.PatternBearish
	}
	return analysis.CandleMatch{
		Name:      PatternMarubozu,
		Direction: direction,
		Index:     idx,
		Strength:  m.strength(0.8, m.hasVolumeConfirmation(c, avgVolume)),
	}, true
}

// matchEngulfing: the current body fully contains the previous body with
// opposite color.
func (m *CandlestickMatcher) matchEngulfing(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	prev := candles[idx-1]
	curr := candles[idx]

	if curr.Body() <= prev.Body() {
		return analysis.CandleMatch{}, false
	}
	volumeConfirm := m.hasVolumeConfirmation(curr, avgVolume)

	if prev.IsBearish() && curr.IsBullish() &&
		curr.Open <= prev.Close && curr.Close >= prev.Open {
		return analysis.CandleMatch{
			Name:      PatternEngulfing,
			Direction: analysis.PatternBullish,
			Index:     idx,
			Strength:  m.strength(0.8, volumeConfirm),
		}, true
	}
	if prev.IsBullish() && curr.IsBearish() &&
		curr.Open >= prev.Close && curr.Close <= prev.Open {
		return analysis.CandleMatch{
			Name:      PatternEngulfing,
			Direction: analysis.PatternBearish,
			Index:     idx,
			Strength:  m.strength(0.8, volumeConfirm),
		}, true
	}
	return analysis.CandleMatch{}, false
}

// matchMorningStar: long bearish, gapped-down star, long bullish close
// above the first candle's midpoint.
func (m *CandlestickMatcher) matchMorningStar(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	first := candles[idx-2]
	second := candles[idx-1]
	third := candles[idx]

	firstRange := first.Range()
	if firstRange == 0 || first.Body()/firstRange < m.longBodyThreshold || !first.IsBearish() {
		return analysis.CandleMatch{}, false
	}
	if secondRange := second.Range(); secondRange > 0 && second.Body()/secondRange > 0.3 {
		return analysis.CandleMatch{}, false
	}
	if max(second.Open, second.Close) >= first.Close {
		return analysis.CandleMatch{}, false
	}
	thirdRange := third.Range()
	if thirdRange == 0 || third.Body()/thirdRange < m.longBodyThreshold || !third.IsBullish() {
		return analysis.CandleMatch{}, false
	}
	if third.Close < (first.Open+first.Close)/2 {
		return analysis.CandleMatch{}, false
	}
	return analysis.CandleMatch{
		Name:      PatternMorningStar,
		Direction: analysis.PatternBullish,
		Index:     idx,
		Strength:  m.strength(0.85, m.hasVolumeConfirmation(third, avgVolume)),
	}, true
}

// matchEveningStar: mirror of the morning star.
func (m *CandlestickMatcher) matchEveningStar(candles []models.Candle, idx int, avgVolume float64) (analysis.CandleMatch, bool) {
	first := candles[idx-2]
	second := candles[idx-1]
	third := candles[idx]

	firstRange := first.Range()
	if firstRange == 0 || first.Body()/firstRange < m.longBodyThreshold || !first.IsBullish() {
		return analysis.CandleMatch{}, false
	}
	if secondRange := second.Range(); secondRange > 0 && second.Body()/secondRange > 0.3 {
		return analysis.CandleMatch{}, false
	}
	if min(second.Open, second.Close) <= first.Close {
		return analysis.CandleMatch{}, false
	}
	thirdRange := third.Range()
	if thirdRange == 0 || third.Body()/thirdRange < m.longBodyThreshold || !third.IsBearish() {
		return analysis.CandleMatch{}, false
	}
	if third.Close > (first.Open+first.Close)/2 {
		return analysis.CandleMatch{}, false
	}
	return analysis.CandleMatch{
		Name:      PatternEveningStar,
		Direction: analysis.PatternBearish,
		Index:     idx,
		Strength:  m.strength(0.85, m.hasVolumeConfirmation(third, avgVolume)),
	}, true
}
