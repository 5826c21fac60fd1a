package scoring

// Financial post-processing: coarse advance-rate and yield curves keyed on a
// safety score (0-100, higher is safer).
//
// Each calculator also derives a fine-grained advance and yield per asset;
// those are canonical for per-asset decisions. The step functions here serve
// basket-level figures (snapshot expected yield), where no single asset's
// refinement applies. Keep the split: one payload never carries both.

// AdvanceRateBySimpleStep returns the coarse advance rate for a safety score
func AdvanceRateBySimpleStep(score float64) float64 {
	switch {
	case score >= 85:
		return 0.85
	case score >= 75:
		return 0.80
	case score >= 65:
		return 0.75
	default:
		return 0.70
	}
}

// YieldFromScore derives an annual yield percentage from a safety score.
// Riskier (lower) scores pay more, capped at MaxProjectedYield.
func YieldFromScore(score float64) float64 {
	return min(4.5+(100-score)*0.06, MaxProjectedYield)
}
