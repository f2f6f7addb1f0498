package analytics

import (
	"math"
	"sort"
)

// MinSampleViews is the per-variant sample floor below which no
// confidence is reported.
const MinSampleViews = 30

// VariantStats is the view/conversion tally for one A/B variant.
type VariantStats struct {
	ID          uint
	Name        string
	Views       int
	Conversions int
}

// Rate returns the variant's conversion rate in percent.
func (v VariantStats) Rate() float64 {
	if v.Views == 0 {
		return 0
	}
	return float64(v.Conversions) / float64(v.Views) * 100
}

// Confidence scores how reliably the leading variant outperforms the
// runner-up, on a 0-99 scale.
//
// This is deliberately a simplified heuristic, not a statistically
// rigorous two-proportion z-test. The dashboard's winner-readiness
// thresholds are tuned against this exact shape, so replacing it with a
// textbook formula is a product change, not a refactor. The engine only
// signals readiness; concluding a test always requires an explicit winner
// declaration.
func Confidence(variants []VariantStats) float64 {
	if len(variants) < 2 {
		return 0
	}

	sorted := make([]VariantStats, len(variants))
	copy(sorted, variants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rate() > sorted[j].Rate()
	})

	best, second := sorted[0], sorted[1]
	if best.Views < MinSampleViews || second.Views < MinSampleViews {
		return 0
	}

	diff := best.Rate() - second.Rate()
	avgViews := float64(best.Views+second.Views) / 2
	confidence := diff * math.Sqrt(avgViews) * 2

	return math.Min(99, math.Max(0, confidence))
}
