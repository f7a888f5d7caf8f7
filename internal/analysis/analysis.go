// Package analysis provides shared types for extrema detection, line fitting,
// pattern detection, and confidence scoring.
package analysis

// TouchPoint is a (time, price) pair where price interacted with a line or
// where a pattern anchors. Index is the position in the source candle series,
// or -1 when the point is not tied to a specific candle.
type TouchPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Index int     `json:"index"`
}

// LineKind classifies a detected line.
type LineKind string

const (
	LineSupport    LineKind = "support"
	LineResistance LineKind = "resistance"
	LineTrendline  LineKind = "trendline"
)

// DetectedLine is a fitted line candidate with its touch evidence.
// Horizontal lines (support/resistance) carry Price with zero slope;
// trendlines carry Slope/Intercept from an OLS fit over their touch points.
type DetectedLine struct {
	Kind       LineKind
	Price      float64
	Slope      float64
	Intercept  float64
	RSquared   float64
	Touches    []TouchPoint
	StartIndex int
	EndIndex   int
}

// ValueAt returns the line's projected price at the given unix time.
func (l DetectedLine) ValueAt(t int64) float64 {
	if l.Kind != LineTrendline {
		return l.Price
	}
	return l.Slope*float64(t) + l.Intercept
}

// Ascending reports whether a trendline slopes upward.
func (l DetectedLine) Ascending() bool {
	return l.Kind == LineTrendline && l.Slope > 0
}

// PatternDirection represents the expected direction of a pattern.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
	PatternNeutral PatternDirection = "neutral"
)

// CandleMatch represents a single candlestick pattern occurrence.
type CandleMatch struct {
	Name      string
	Direction PatternDirection
	Index     int
	Strength  float64
}

// ChartPattern represents a detected multi-candle price structure.
// Target, StopLoss, and BreakoutLevel are nil when the pattern geometry
// does not define them.
type ChartPattern struct {
	Kind          string
	Variant       string
	Direction     PatternDirection
	KeyPoints     []TouchPoint
	StartIndex    int
	EndIndex      int
	Confidence    float64
	Target        *float64
	StopLoss      *float64
	BreakoutLevel *float64
}

// Chart pattern kinds.
const (
	PatternTriangle         = "triangle"
	PatternHeadAndShoulders = "head_and_shoulders"
	PatternDoubleTop        = "double_top"
	PatternDoubleBottom     = "double_bottom"
	PatternFlag             = "flag"
	PatternWedge            = "wedge"
)

// Level represents a clustered horizontal price level.
type Level struct {
	Price      float64
	Type       LineKind
	TouchCount int
	FirstIndex int
	LastIndex  int
}

// FibLevel is a single fibonacci retracement level.
type FibLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}
