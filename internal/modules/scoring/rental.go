package scoring

import (
	"strings"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// Property-value thresholds for rentals.
const (
	rentalValueMidThreshold  = 250_000
	rentalValueHighThreshold = 2_000_000
)

const rentalAlgorithmVersion = "rental-v1.1"

// RentalCalculator scores rental income streams.
//
// Factors (weights sum to 100):
// - Occupancy (25): vacancy is lost income
// - Location (20): graded A/B/C
// - Market trend (15): rising/stable/declining
// - Condition (15): 1-10 property condition score
// - Property value (10): concentration buckets
// - Jurisdiction (15)
type RentalCalculator struct{}

// NewRentalCalculator creates a new rental calculator
func NewRentalCalculator() *RentalCalculator {
	return &RentalCalculator{}
}

// Compute scores a rental income submission
func (c *RentalCalculator) Compute(sub domain.AssetSubmission) domain.RiskAssessment {
	attrs := sub.Attributes

	occupancy, hasOccupancy := attrs.Float("occupancy_rate_pct")
	occupancyScore := 50.0
	if hasOccupancy {
		occupancyScore = Clamp100(100 - occupancy)
	}

	location, hasLocation := attrs.String("location_grade")
	locationScore := locationGradeScore(location)

	trend, hasTrend := attrs.String("market_trend")
	trendScore := marketTrendScore(trend)

	condition, hasCondition := attrs.Float("condition_score")
	conditionScore := 60.0
	if hasCondition {
		conditionScore = Clamp100((10 - condition) * 10)
	}

	propertyValue, hasValue := attrs.Float("property_value")
	valueScore := 70.0
	if hasValue {
		valueScore = AmountBucketScore(propertyValue, rentalValueMidThreshold, rentalValueHighThreshold)
	}

	country, hasCountry := attrs.String("country")
	jurisdictionScore := JurisdictionRiskScore(country)

	core := []factor{
		{name: "occupancy", score: occupancyScore, weight: 25, present: hasOccupancy},
		{name: "location", score: locationScore, weight: 20, present: hasLocation},
		{name: "market trend", score: trendScore, weight: 15, present: hasTrend},
		{name: "property condition", score: conditionScore, weight: 15, present: hasCondition},
		{name: "property value", score: valueScore, weight: 10, present: hasValue},
		{name: "jurisdiction", score: jurisdictionScore, weight: 15, present: hasCountry},
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
		rentalAlgorithmVersion,
	)
}

// locationGradeScore maps an A/B/C location grade to risk
func locationGradeScore(grade string) float64 {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "A":
		return 15
	case "B":
		return 40
	case "C":
		return 70
	default:
		return 50
	}
}

// marketTrendScore scores the local market direction
func marketTrendScore(trend string) float64 {
	switch strings.ToLower(strings.TrimSpace(trend)) {
	case "rising":
		return 20
	case "stable":
		return 40
	case "declining":
		return 80
	default:
		return 50
	}
}
