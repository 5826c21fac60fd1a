// Package baskets provides capacity-bounded risk pool allocation for scored
// assets.
package baskets

import (
	"time"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// Status represents the lifecycle state of a basket. Baskets never reopen:
// once at capacity, further assets of that tier go to a new basket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAtCapacity Status = "at_capacity"
)

// InvestableFraction is the share of a basket's total value opened up for
// investment on each accepted asset.
const InvestableFraction = 0.85

// Basket is a capacity-bounded pool of scored assets of one tier.
//
// BlendedRiskScore is the value-weighted average of member safety scores
// (higher is safer); the tier ceiling caps 100 - BlendedRiskScore. The
// Sum* fields are incrementally maintained aggregates from which the blend
// is derived; the resync job re-derives them from member rows to bound
// floating-point drift.
type Basket struct {
	ID                string      `json:"id"`
	Tier              domain.Tier `json:"tier"`
	Status            Status      `json:"status"`
	MemberAssetIDs    []string    `json:"member_asset_ids"`
	TotalValue        float64     `json:"total_value"`
	AvailableToInvest float64     `json:"available_to_invest"`
	SumValue          float64     `json:"-"`
	SumValueScore     float64     `json:"-"`
	BlendedRiskScore  float64     `json:"blended_risk_score"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// RiskPercentage is the quantity capped by the tier ceiling
func (b *Basket) RiskPercentage() float64 {
	return 100 - b.BlendedRiskScore
}

// IsAtCapacity reports whether the basket stopped accepting assets
func (b *Basket) IsAtCapacity() bool {
	return b.Status == StatusAtCapacity
}

// TierCeiling is the maximum tolerated risk percentage for this basket's tier
func (b *Basket) TierCeiling() float64 {
	return CeilingForTier(b.Tier)
}

// Member is one asset held by a basket, with the amount and safety score it
// was committed with.
type Member struct {
	BasketID string
	AssetID  string
	Amount   float64
	Score    float64 // safety score at commit time
	Position int
	AddedAt  time.Time
}

// Assignment is an append-only ledger entry recording where an asset landed.
// Never deleted or revised.
type Assignment struct {
	AssetID           string      `json:"asset_id"`
	BasketID          string      `json:"basket_id"`
	Tier              domain.Tier `json:"tier"`
	ScoreAtAssignment float64     `json:"score_at_assignment"` // asset safety score
	BlendedAtAssign   float64     `json:"blended_risk_score_at_assignment"`
	CreatedAt         time.Time   `json:"created_at"`
}

// Snapshot is a point-in-time performance record for a basket
type Snapshot struct {
	BasketID      string    `json:"basket_id"`
	TotalValue    float64   `json:"total_value"`
	ExpectedYield float64   `json:"expected_yield"`
	CreatedAt     time.Time `json:"created_at"`
}
