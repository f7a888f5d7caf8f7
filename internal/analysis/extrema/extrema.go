// Package extrema finds local peaks and troughs in a candle series.
package extrema

import (
	"sort"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/analysis/indicators"
	"chart-advisor/internal/models"
)

// DefaultWindow is the neighborhood half-width for strict extrema.
const DefaultWindow = 10

// Field selects which candle price the detector compares.
type Field string

const (
	FieldHigh  Field = "high"
	FieldLow   Field = "low"
	FieldClose Field = "close"
)

// Point is a detected local extremum.
type Point struct {
	Index  int
	Time   int64
	Value  float64
	IsPeak bool
	// Weight is the candle's volume relative to the series mean volume.
	Weight float64
}

// TouchPoint converts the extremum to a line touch point.
func (p Point) TouchPoint() analysis.TouchPoint {
	return analysis.TouchPoint{Time: p.Time, Value: p.Value, Index: p.Index}
}

// Detector finds candles that are strict extrema against every neighbor
// within window candles on each side.
type Detector struct {
	window int
}

// NewDetector creates a detector with the given window. Non-positive
// windows fall back to DefaultWindow.
func NewDetector(window int) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{window: window}
}

// Window returns the configured neighborhood half-width.
func (d *Detector) Window() int {
	return d.window
}

// Peaks returns candles whose field value strictly exceeds every neighbor
// within the window. Series shorter than 2*window+1 yield no extrema.
func (d *Detector) Peaks(candles []models.Candle, field Field) []Point {
	return d.detect(candles, field, true)
}

// Troughs returns candles whose field value is strictly below every
// neighbor within the window.
func (d *Detector) Troughs(candles []models.Candle, field Field) []Point {
	return d.detect(candles, field, false)
}

// Detect returns peaks on highs and troughs on lows, merged and ordered
// by index.
func (d *Detector) Detect(candles []models.Candle) []Point {
	points := append(d.Peaks(candles, FieldHigh), d.Troughs(candles, FieldLow)...)
	sort.Slice(points, func(i, j int) bool { return points[i].Index < points[j].Index })
	return points
}

// DetectWeighted is Detect with points ordered by descending volume weight,
// so high-conviction extrema come first.
func (d *Detector) DetectWeighted(candles []models.Candle) []Point {
	points := d.Detect(candles)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Weight > points[j].Weight })
	return points
}

func (d *Detector) detect(candles []models.Candle, field Field, peak bool) []Point {
	w := d.window
	if len(candles) < 2*w+1 {
		return nil
	}

	values := fieldValues(candles, field)
	meanVol := indicators.MeanVolume(candles)

	var points []Point
	for i := w; i < len(candles)-w; i++ {
		if !isStrictExtremum(values, i, w, peak) {
			continue
		}
		weight := 1.0
		if meanVol > 0 {
			weight = candles[i].Volume / meanVol
		}
		points = append(points, Point{
			Index:  i,
			Time:   candles[i].Time,
			Value:  values[i],
			IsPeak: peak,
			Weight: weight,
		})
	}
	return points
}

func isStrictExtremum(values []float64, i, w int, peak bool) bool {
	for j := i - w; j <= i+w; j++ {
		if j == i {
			continue
		}
		if peak && values[j] >= values[i] {
			return false
		}
		if !peak && values[j] <= values[i] {
			return false
		}
	}
	return true
}

func fieldValues(candles []models.Candle, field Field) []float64 {
	switch field {
	case FieldLow:
		return indicators.LowPrices(candles)
	case FieldClose:
		return indicators.ClosePrices(candles)
	default:
		return indicators.HighPrices(candles)
	}
}
