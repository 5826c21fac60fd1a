package scoring

import (
	"strings"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// Appraisal-value thresholds for leased luxury goods.
const (
	luxuryValueMidThreshold  = 50_000
	luxuryValueHighThreshold = 500_000
)

const luxuryAlgorithmVersion = "luxury-v1.1"

// LuxuryCalculator scores income from leased luxury goods (watches, vehicles,
// art, jewelry).
//
// Factors (weights sum to 100):
// - Authenticity (25): unverified provenance dominates everything else
// - Liquidity (15): 1-10 resale liquidity score
// - Appreciation (10): historical appreciation rate of the category
// - Condition (15): graded excellent/good/fair
// - Insurance (10): binary modifier, 10 vs 35
// - Utilization (10): heavy lease utilization means wear
// - Appraisal value (15): concentration buckets
type LuxuryCalculator struct{}

// NewLuxuryCalculator creates a new luxury calculator
func NewLuxuryCalculator() *LuxuryCalculator {
	return &LuxuryCalculator{}
}

// Compute scores a leased-luxury-good submission
func (c *LuxuryCalculator) Compute(sub domain.AssetSubmission) domain.RiskAssessment {
	attrs := sub.Attributes

	verified, hasAuthenticity := attrs.Bool("authenticity_verified")
	authenticityScore := 85.0
	if hasAuthenticity && verified {
		authenticityScore = 10.0
	}

	liquidity, hasLiquidity := attrs.Float("liquidity_score")
	liquidityScore := 70.0
	if hasLiquidity {
		liquidityScore = Clamp100((10 - liquidity) * 10)
	}

	appreciation, hasAppreciation := attrs.Float("appreciation_rate_pct")
	appreciationScore := 50.0
	if hasAppreciation {
		appreciationScore = Clamp100(50 - appreciation*5)
	}

	condition, hasCondition := attrs.String("condition_grade")
	conditionScore := conditionGradeScore(condition)

	insured, hasInsurance := attrs.Bool("insurance_coverage")
	insuranceScore := 35.0
	if hasInsurance && insured {
		insuranceScore = 10.0
	}

	utilization, hasUtilization := attrs.Float("utilization_rate_pct")
	utilizationScore := 50.0
	if hasUtilization {
		utilizationScore = Clamp100(utilization)
	}

	appraisal, hasAppraisal := attrs.Float("appraisal_value")
	valueScore := 70.0
	if hasAppraisal {
		valueScore = AmountBucketScore(appraisal, luxuryValueMidThreshold, luxuryValueHighThreshold)
	}

	core := []factor{
		{name: "authenticity", score: authenticityScore, weight: 25, present: hasAuthenticity},
		{name: "liquidity", score: liquidityScore, weight: 15, present: hasLiquidity},
		{name: "appreciation", score: appreciationScore, weight: 10, present: hasAppreciation},
		{name: "condition", score: conditionScore, weight: 15, present: hasCondition},
		{name: "insurance coverage", score: insuranceScore, weight: 10, present: hasInsurance},
		{name: "utilization", score: utilizationScore, weight: 10, present: hasUtilization},
		{name: "appraisal value", score: valueScore, weight: 15, present: hasAppraisal},
	}

	riskScore, descriptions := combine(core)
	safety := 100 - Clamp100(riskScore)

	return finalize(
		sub.Amount,
		riskScore,
		descriptions,
		countPresent(core),
		len(core),
		1+countPresent(core),
		YieldFromScore(safety),
		luxuryAlgorithmVersion,
	)
}

// conditionGradeScore maps a condition grade to risk
func conditionGradeScore(grade string) float64 {
	switch strings.ToLower(strings.TrimSpace(grade)) {
	case "excellent", "mint":
		return 10
	case "good":
		return 35
	case "fair":
		return 65
	case "poor":
		return 85
	default:
		return 60
	}
}
