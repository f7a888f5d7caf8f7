// Package scoring turns detection evidence into a single confidence value.
package scoring

// Weights holds the relative importance of each confidence component.
type Weights struct {
	TouchPoints         float64
	VolumeWeight        float64
	TimeframeConfluence float64
	PatternConfirmation float64
	StatisticalFit      float64
}

// DefaultWeights returns the standard component weights.
func DefaultWeights() Weights {
	return Weights{
		TouchPoints:         0.25,
		VolumeWeight:        0.20,
		TimeframeConfluence: 0.20,
		PatternConfirmation: 0.15,
		StatisticalFit:      0.20,
	}
}

// Factors are the pre-normalized component scores, each expected in [0,1].
// Producers are responsible for normalization; the scorer only clamps the
// weighted sum.
type Factors struct {
	TouchPoints         float64
	VolumeWeight        float64
	TimeframeConfluence float64
	PatternConfirmation float64
	StatisticalFit      float64
}

// ConfidenceScorer computes weighted composite confidence scores.
type ConfidenceScorer struct {
	weights Weights
}

// NewConfidenceScorer creates a scorer with the given weights. A zero
// Weights value falls back to the defaults.
func NewConfidenceScorer(weights Weights) *ConfidenceScorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &ConfidenceScorer{weights: weights}
}

// Score combines the factors into a confidence value clamped to [0,1].
func (s *ConfidenceScorer) Score(f Factors) float64 {
	score := s.weights.TouchPoints*clamp(f.TouchPoints, 0, 1) +
		s.weights.VolumeWeight*clamp(f.VolumeWeight, 0, 1) +
		s.weights.TimeframeConfluence*clamp(f.TimeframeConfluence, 0, 1) +
		s.weights.PatternConfirmation*clamp(f.PatternConfirmation, 0, 1) +
		s.weights.StatisticalFit*clamp(f.StatisticalFit, 0, 1)
	return clamp(score, 0, 1)
}

// Components returns the per-component weighted contributions, useful for
// explaining a score.
func (s *ConfidenceScorer) Components(f Factors) map[string]float64 {
	return map[string]float64{
		"touch_points":         s.weights.TouchPoints * clamp(f.TouchPoints, 0, 1),
		"volume_weight":        s.weights.VolumeWeight * clamp(f.VolumeWeight, 0, 1),
		"timeframe_confluence": s.weights.TimeframeConfluence * clamp(f.TimeframeConfluence, 0, 1),
		"pattern_confirmation": s.weights.PatternConfirmation * clamp(f.PatternConfirmation, 0, 1),
		"statistical_fit":      s.weights.StatisticalFit * clamp(f.StatisticalFit, 0, 1),
	}
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// NormalizeTouches maps a touch count to [0,1]; five or more touches are
// treated as full evidence.
func NormalizeTouches(count int) float64 {
	return clamp(float64(count)/5.0, 0, 1)
}

// NormalizeVolumeRatio maps a volume-at-touch ratio (touch volume over
// series mean volume) to [0,1]; at or above the mean counts as full weight.
func NormalizeVolumeRatio(ratio float64) float64 {
	return clamp(ratio, 0, 1)
}
