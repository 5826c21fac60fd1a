package scoring

import "github.com/aquifer-fi/aquifer/internal/domain"

// Monthly-revenue thresholds for creator streams: these run an order of
// magnitude smaller than SaaS MRR.
const (
	creatorRevenueMidThreshold  = 5_000
	creatorRevenueHighThreshold = 50_000
)

const creatorAlgorithmVersion = "creator-v1.1"

// CreatorCalculator scores creator/platform revenue streams.
//
// Factors (weights sum to 100):
// - Platform diversity (20): single-platform income is deplatforming risk
// - Revenue stability (25): month-over-month volatility of payouts
// - Engagement (15): audience engagement rate
// - Growth (10): audience/revenue trajectory
// - Revenue size (15): concentration buckets on monthly revenue
// - Tenure (15): decays to zero risk at 2+ years of creating
type CreatorCalculator struct{}

// NewCreatorCalculator creates a new creator calculator
func NewCreatorCalculator() *CreatorCalculator {
	return &CreatorCalculator{}
}

// Compute scores a creator revenue-stream submission
func (c *CreatorCalculator) Compute(sub domain.AssetSubmission) domain.RiskAssessment {
	attrs := sub.Attributes

	platforms, hasPlatforms := attrs.Float("platform_count")
	diversityScore := 90.0
	if hasPlatforms {
		diversityScore = platformDiversityScore(int(platforms))
	}

	volatility, hasVolatility := attrs.Float("revenue_volatility_pct")
	stabilityScore := 70.0
	if hasVolatility {
		stabilityScore = Clamp100(volatility * 2)
	}

	engagement, hasEngagement := attrs.Float("engagement_rate_pct")
	engagementScore := 60.0
	if hasEngagement {
		engagementScore = Clamp100(100 - engagement*10)
	}

	growth, hasGrowth := attrs.Float("growth_rate_pct")
	growthScore := 50.0
	if hasGrowth {
		growthScore = Clamp100(50 - growth*2.5)
	}

	revenue, hasRevenue := attrs.Float("monthly_revenue")
	revenueScore := 70.0
	if hasRevenue {
		revenueScore = AmountBucketScore(revenue, creatorRevenueMidThreshold, creatorRevenueHighThreshold)
	}

	months, hasMonths := attrs.Float("months_creating")
	tenureScore := 90.0
	if hasMonths {
		tenureScore = Clamp100(100 - months/24*100)
	}

	core := []factor{
		{name: "platform diversity", score: diversityScore, weight: 20, present: hasPlatforms},
		{name: "revenue stability", score: stabilityScore, weight: 25, present: hasVolatility},
		{name: "audience engagement", score: engagementScore, weight: 15, present: hasEngagement},
		{name: "growth", score: growthScore, weight: 10, present: hasGrowth},
		{name: "revenue size", score: revenueScore, weight: 15, present: hasRevenue},
		{name: "tenure", score: tenureScore, weight: 15, present: hasMonths},
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
		creatorAlgorithmVersion,
	)
}

// platformDiversityScore scores deplatforming risk by distribution channels
func platformDiversityScore(count int) float64 {
	switch {
	case count <= 1:
		return 90
	case count == 2:
		return 65
	case count == 3:
		return 45
	default:
		return 30
	}
}
