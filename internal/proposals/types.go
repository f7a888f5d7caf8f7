// Package proposals turns detection results into ranked, explainable
// drawing proposals.
package proposals

import (
	"fmt"
	"hash/fnv"
	"time"

	"chart-advisor/internal/analysis"
	"chart-advisor/internal/errors"
	"chart-advisor/internal/models"
)

// Kind identifies the drawing a proposal describes.
type Kind string

const (
	KindTrendline      Kind = "trendline"
	KindHorizontalLine Kind = "horizontal_line"
	KindFibonacci      Kind = "fibonacci_retracement"
	KindRay            Kind = "ray"
	KindPattern        Kind = "pattern"
)

// Priority buckets a proposal by confidence.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityFor maps a confidence score to a priority bucket.
func PriorityFor(confidence float64) Priority {
	switch {
	case confidence >= 0.75:
		return PriorityHigh
	case confidence >= 0.5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AnalysisType selects which detectors run.
type AnalysisType string

const (
	AnalysisTrendline         AnalysisType = "trendline"
	AnalysisSupportResistance AnalysisType = "support-resistance"
	AnalysisFibonacci         AnalysisType = "fibonacci"
	AnalysisPattern           AnalysisType = "pattern"
	AnalysisAll               AnalysisType = "all"
)

// ParseAnalysisType validates an analysis type string. Empty means all.
func ParseAnalysisType(s string) (AnalysisType, error) {
	switch AnalysisType(s) {
	case "":
		return AnalysisAll, nil
	case AnalysisTrendline, AnalysisSupportResistance, AnalysisFibonacci, AnalysisPattern, AnalysisAll:
		return AnalysisType(s), nil
	default:
		return "", errors.NewValidationError("type", s, "unknown analysis type")
	}
}

// LineDetails carries the geometry of a line-shaped proposal.
type LineDetails struct {
	Price     float64 `json:"price"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"rSquared"`
	Touches   int     `json:"touches"`
}

// PatternDetails carries the identity and trade levels of a chart pattern.
type PatternDetails struct {
	Kind          string                    `json:"kind"`
	Variant       string                    `json:"variant,omitempty"`
	Target        *float64                  `json:"target,omitempty"`
	StopLoss      *float64                  `json:"stopLoss,omitempty"`
	BreakoutLevel *float64                  `json:"breakoutLevel,omitempty"`
	Direction     analysis.PatternDirection `json:"direction"`
}

// FibDetails carries the retracement levels and anchoring swing.
type FibDetails struct {
	Levels    []analysis.FibLevel `json:"levels"`
	SwingHigh analysis.TouchPoint `json:"swingHigh"`
	SwingLow  analysis.TouchPoint `json:"swingLow"`
}

// DrawingProposal is one suggested chart annotation. Exactly one of the
// detail fields matching the Kind is set.
type DrawingProposal struct {
	ID         string                    `json:"id"`
	Kind       Kind                      `json:"kind"`
	Symbol     string                    `json:"symbol"`
	Interval   models.Interval           `json:"interval"`
	Points     []analysis.TouchPoint     `json:"points"`
	Confidence float64                   `json:"confidence"`
	Priority   Priority                  `json:"priority"`
	Direction  analysis.PatternDirection `json:"direction"`
	Reasoning  string                    `json:"reasoning"`
	CreatedAt  time.Time                 `json:"createdAt"`

	Line    *LineDetails    `json:"line,omitempty"`
	Pattern *PatternDetails `json:"pattern,omitempty"`
	Fib     *FibDetails     `json:"fib,omitempty"`
}

// ReferencePrice is the price used for near-duplicate comparison: the
// proposal's most recent anchor point.
func (p DrawingProposal) ReferencePrice() float64 {
	if len(p.Points) == 0 {
		return 0
	}
	last := p.Points[0]
	for _, pt := range p.Points[1:] {
		if pt.Time > last.Time {
			last = pt
		}
	}
	return last.Value
}

// GroupStatus is the lifecycle state of a proposal group. Transitions
// beyond Pending belong to the external approval store.
type GroupStatus string

const (
	StatusPending  GroupStatus = "pending"
	StatusApproved GroupStatus = "approved"
	StatusRejected GroupStatus = "rejected"
	StatusExpired  GroupStatus = "expired"
)

// GroupSummary aggregates a group for quick display.
type GroupSummary struct {
	MarketBias        analysis.PatternDirection `json:"marketBias"`
	AverageConfidence float64                   `json:"averageConfidence"`
	ProposalCount     int                       `json:"proposalCount"`
}

// ProposalGroup is the ranked set of proposals from one analysis run.
type ProposalGroup struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Interval    models.Interval   `json:"interval"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Proposals   []DrawingProposal `json:"proposals"`
	Summary     GroupSummary      `json:"summary"`
	Status      GroupStatus       `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Request describes one proposal generation run.
type Request struct {
	Symbol       string
	Interval     models.Interval
	Type         AnalysisType
	MaxProposals int
	// Since restricts the analysis window; unix seconds, zero means
	// "most recent candles only".
	Since      int64
	ExcludeIDs []string
}

// Validate checks the request and normalizes its type.
func (r *Request) Validate() error {
	if r.Symbol == "" {
		return errors.NewValidationError("symbol", r.Symbol, "symbol is required")
	}
	if !r.Interval.Valid() {
		return errors.NewValidationError("interval", r.Interval, "unsupported timeframe")
	}
	t, err := ParseAnalysisType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = t
	if r.MaxProposals < 0 {
		return errors.NewValidationError("maxProposals", r.MaxProposals, "must be non-negative")
	}
	return nil
}

// Result is the tagged outcome of a generation run. Reason is set when
// Success is false.
type Result struct {
	Success bool           `json:"success"`
	Reason  string         `json:"reason,omitempty"`
	Group   *ProposalGroup `json:"group,omitempty"`
}

// proposalID derives a stable identifier from the proposal's identity, so
// repeated runs over the same data produce the same IDs and exclusion
// lists carry across calls.
func proposalID(symbol string, interval models.Interval, kind Kind, anchor float64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%.4f", symbol, interval, kind, anchor)
	return fmt.Sprintf("%s-%016x", kind, h.Sum64())
}
