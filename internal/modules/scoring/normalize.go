// Package scoring provides deterministic risk assessment for cash-flow assets.
//
// Each asset class has its own calculator; all of them share the factor
// normalization helpers in this file and produce the same RiskAssessment shape
// so downstream allocation is class-agnostic.
package scoring

import (
	"math"
	"strings"
)

// Clamp bounds x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Clamp100 bounds x to the common [0, 100] factor range
func Clamp100(x float64) float64 {
	return Clamp(x, 0, 100)
}

// AmountBucketScore scores a monetary amount against class-specific thresholds.
// Larger amounts carry more concentration risk:
// - amount >= highThreshold -> 100
// - amount >= midThreshold  -> 70
// - otherwise a linear ramp clamped to [10, 40]
func AmountBucketScore(amount, midThreshold, highThreshold float64) float64 {
	if amount >= highThreshold {
		return 100
	}
	if amount >= midThreshold {
		return 70
	}
	return Clamp(amount/midThreshold*40, 10, 40)
}

// highRiskJurisdictions are offshore/secrecy jurisdictions that complicate
// collection on a defaulted cash flow.
var highRiskJurisdictions = map[string]bool{
	"cayman islands":         true,
	"british virgin islands": true,
	"panama":                 true,
	"belize":                 true,
	"seychelles":             true,
	"vanuatu":                true,
	"marshall islands":       true,
	"liberia":                true,
}

// mediumRiskJurisdictions are financial hubs with workable but slower
// cross-border enforcement.
var mediumRiskJurisdictions = map[string]bool{
	"singapore":            true,
	"hong kong":            true,
	"united arab emirates": true,
	"malta":                true,
	"luxembourg":           true,
	"mauritius":            true,
	"cyprus":               true,
}

// JurisdictionRiskScore maps a country to a collection-risk score.
// Unlisted countries score 30 (ordinary onshore enforcement); an absent
// country is scored 60 because not knowing the jurisdiction is itself a
// risk signal.
func JurisdictionRiskScore(country string) float64 {
	if country == "" {
		return 60
	}
	key := strings.ToLower(strings.TrimSpace(country))
	if highRiskJurisdictions[key] {
		return 85
	}
	if mediumRiskJurisdictions[key] {
		return 60
	}
	return 30
}

// round2 rounds to 2 decimal places
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
