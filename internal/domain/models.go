// Package domain provides core domain models and types.
package domain

import "fmt"

// AssetClass represents the class of a pending cash-flow asset
type AssetClass string

const (
	// AssetClassInvoice represents an outstanding B2B invoice
	AssetClassInvoice AssetClass = "invoice"
	// AssetClassSaaS represents a recurring-revenue (MRR) stream
	AssetClassSaaS AssetClass = "saas"
	// AssetClassCreator represents a creator/platform revenue stream
	AssetClassCreator AssetClass = "creator"
	// AssetClassRental represents rental income from a property
	AssetClassRental AssetClass = "rental"
	// AssetClassLuxury represents income from a leased luxury good
	AssetClassLuxury AssetClass = "luxury"
)

// AllAssetClasses lists every supported class, in presentation order.
var AllAssetClasses = []AssetClass{
	AssetClassInvoice,
	AssetClassSaaS,
	AssetClassCreator,
	AssetClassRental,
	AssetClassLuxury,
}

// ParseAssetClass validates a raw class tag.
// Unknown tags are rejected with UnknownAssetClassError - there is deliberately
// no fallback class.
func ParseAssetClass(raw string) (AssetClass, error) {
	switch AssetClass(raw) {
	case AssetClassInvoice, AssetClassSaaS, AssetClassCreator, AssetClassRental, AssetClassLuxury:
		return AssetClass(raw), nil
	}
	return "", &UnknownAssetClassError{Class: raw}
}

// Tier represents the risk tier of a basket
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Attributes is the class-specific attribute bag of a submission.
// Values come from JSON, so numbers arrive as float64; the typed getters
// tolerate the common alternates.
type Attributes map[string]any

// Float returns a numeric attribute and whether it was present.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String returns a string attribute and whether it was present and non-empty.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Bool returns a boolean attribute and whether it was present.
func (a Attributes) Bool(key string) (bool, bool) {
	v, ok := a[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// StringSlice returns a list attribute. JSON arrays arrive as []any.
func (a Attributes) StringSlice(key string) ([]string, bool) {
	v, ok := a[key]
	if !ok {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// AssetSubmission describes a pending cash-flow asset to be scored.
// Immutable once created.
type AssetSubmission struct {
	Class      AssetClass `json:"class"`
	Amount     float64    `json:"amount"`
	Attributes Attributes `json:"attributes"`
}

// Validate checks structural validity. Missing optional attributes are fine
// (calculators default them); a missing class or non-positive amount is not.
func (s AssetSubmission) Validate() error {
	if s.Class == "" {
		return fmt.Errorf("%w: missing asset class", ErrInvalidSubmission)
	}
	if _, err := ParseAssetClass(string(s.Class)); err != nil {
		return err
	}
	if s.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %.2f", ErrInvalidSubmission, s.Amount)
	}
	return nil
}

// RiskAssessment is the result of scoring a submission.
// Produced exactly once per submission by a pure function of the submission;
// never mutated afterward. Score is risk (higher = riskier), 0-100.
type RiskAssessment struct {
	Score              int      `json:"score"`
	Confidence         int      `json:"confidence"`
	Factors            []string `json:"factors"`
	EstimatedValue     float64  `json:"estimated_value"`
	RecommendedAdvance float64  `json:"recommended_advance"` // fraction of face value, 2dp
	ProjectedYield     float64  `json:"projected_yield"`     // percent, capped at 9.5
	DataPointsPresent  int      `json:"data_points_present"`
	AlgorithmVersion   string   `json:"algorithm_version"`
}

// SafetyScore returns the presentation-side inversion of the risk score.
func (r RiskAssessment) SafetyScore() int {
	return 100 - r.Score
}
