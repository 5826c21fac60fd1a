package scoring

import "github.com/aquifer-fi/aquifer/internal/domain"

// MRR thresholds: sub-25k MRR businesses are fragile, 250k+ are established.
const (
	saasMRRMidThreshold  = 25_000
	saasMRRHighThreshold = 250_000
)

const saasAlgorithmVersion = "saas-v1.1"

// SaaSCalculator scores recurring-revenue (MRR) streams.
//
// Factors (weights sum to 100):
// - Churn (25): monthly churn rate, 10%+ is terminal
// - Net revenue retention (20): 120%+ NRR is zero risk, 70% is maximal
// - Growth (15): contraction is the risk signal, not slow growth
// - Operating history (15): decays to zero risk at 3+ years
// - MRR size (15): concentration buckets on monthly recurring revenue
// - Jurisdiction (10)
type SaaSCalculator struct{}

// NewSaaSCalculator creates a new SaaS calculator
func NewSaaSCalculator() *SaaSCalculator {
	return &SaaSCalculator{}
}

// Compute scores a SaaS revenue-stream submission
func (c *SaaSCalculator) Compute(sub domain.AssetSubmission) domain.RiskAssessment {
	attrs := sub.Attributes

	churn, hasChurn := attrs.Float("churn_rate_pct")
	churnScore := 70.0
	if hasChurn {
		churnScore = Clamp100(churn * 10)
	}

	nrr, hasNRR := attrs.Float("net_revenue_retention_pct")
	retentionScore := 70.0
	if hasNRR {
		retentionScore = Clamp100((120 - nrr) * 2)
	}

	growth, hasGrowth := attrs.Float("growth_rate_pct")
	growthScore := 50.0
	if hasGrowth {
		growthScore = Clamp100(50 - growth*2.5)
	}

	months, hasMonths := attrs.Float("months_operating")
	historyScore := 90.0
	if hasMonths {
		historyScore = Clamp100(100 - months/36*100)
	}

	mrr, hasMRR := attrs.Float("monthly_recurring_revenue")
	mrrScore := 70.0
	if hasMRR {
		mrrScore = AmountBucketScore(mrr, saasMRRMidThreshold, saasMRRHighThreshold)
	}

	country, hasCountry := attrs.String("country")
	jurisdictionScore := JurisdictionRiskScore(country)

	core := []factor{
		{name: "churn rate", score: churnScore, weight: 25, present: hasChurn},
		{name: "net revenue retention", score: retentionScore, weight: 20, present: hasNRR},
		{name: "revenue growth", score: growthScore, weight: 15, present: hasGrowth},
		{name: "operating history", score: historyScore, weight: 15, present: hasMonths},
		{name: "mrr size", score: mrrScore, weight: 15, present: hasMRR},
		{name: "jurisdiction", score: jurisdictionScore, weight: 10, present: hasCountry},
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
		saasAlgorithmVersion,
	)
}
