package baskets

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aquifer-fi/aquifer/internal/domain"
	"github.com/aquifer-fi/aquifer/internal/modules/scoring"
)

// SafetyMargin keeps headroom below the hard ceiling: a basket stops being a
// candidate once its risk percentage reaches ceiling - SafetyMargin.
const SafetyMargin = 5.0

// TierForScore maps a safety score to a basket tier
func TierForScore(score float64) domain.Tier {
	switch {
	case score >= 80:
		return domain.TierLow
	case score >= 65:
		return domain.TierMedium
	default:
		return domain.TierHigh
	}
}

// CeilingForTier returns the maximum tolerated risk percentage for a tier
func CeilingForTier(tier domain.Tier) float64 {
	switch tier {
	case domain.TierLow:
		return 30
	case domain.TierMedium:
		return 50
	default:
		return 70
	}
}

// Repository persists baskets, members, assignments and snapshots.
// CommitAssignment must be atomic for the basket update + member insert and
// must report a duplicate asset as domain.ErrAllocationConflict.
type Repository interface {
	LoadOpenBaskets() ([]*Basket, error)
	GetAssignment(assetID string) (*Assignment, error)
	CommitAssignment(b *Basket, m Member, a Assignment) error
	ListBaskets() ([]*Basket, error)
	GetBasket(id string) (*Basket, error)
	ListMembers(basketID string) ([]Member, error)
	UpdateAggregates(b *Basket) error
	AppendSnapshot(s Snapshot) error
}

// Allocator places scored assets into capacity-bounded baskets while keeping
// every basket's risk percentage under its tier ceiling.
//
// All mutation is serialized per tier: candidate selection, the
// simulate-then-commit step and lazy basket creation run under one tier
// mutex, so two concurrent assigns can never jointly breach a ceiling or
// create duplicate baskets for an empty tier. The critical section is pure
// arithmetic plus one repository write.
type Allocator struct {
	repo  Repository
	log   zerolog.Logger
	now   func() time.Time
	newID func() string

	mu   map[domain.Tier]*sync.Mutex
	open map[domain.Tier][]*Basket
}

// NewAllocator creates an allocator and loads current open-basket state
func NewAllocator(repo Repository, log zerolog.Logger) (*Allocator, error) {
	a := &Allocator{
		repo:  repo,
		log:   log.With().Str("service", "allocator").Logger(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
		mu: map[domain.Tier]*sync.Mutex{
			domain.TierLow:    {},
			domain.TierMedium: {},
			domain.TierHigh:   {},
		},
		open: map[domain.Tier][]*Basket{},
	}

	baskets, err := repo.LoadOpenBaskets()
	if err != nil {
		return nil, fmt.Errorf("failed to load open baskets: %w", err)
	}
	for _, b := range baskets {
		a.open[b.Tier] = append(a.open[b.Tier], b)
	}

	return a, nil
}

// Assign places a scored asset into a basket of the matching tier and returns
// the resulting ledger entry.
//
// Idempotent: assetID is the dedup key, so retrying after a persistence
// failure or conflict returns the stored assignment instead of committing
// twice.
func (a *Allocator) Assign(assessment domain.RiskAssessment, amount float64, assetID string) (*Assignment, error) {
	if assetID == "" {
		return nil, fmt.Errorf("%w: missing asset id", domain.ErrInvalidSubmission)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %.2f", domain.ErrInvalidSubmission, amount)
	}

	safety := float64(assessment.SafetyScore())
	tier := TierForScore(safety)
	ceiling := CeilingForTier(tier)

	lock := a.mu[tier]
	lock.Lock()
	defer lock.Unlock()

	// Dedup before any mutation
	if existing, err := a.repo.GetAssignment(assetID); err != nil {
		return nil, &domain.PersistenceError{Op: "lookup assignment", Err: err}
	} else if existing != nil {
		a.log.Debug().Str("asset_id", assetID).Str("basket_id", existing.BasketID).
			Msg("Asset already assigned, returning existing assignment")
		return existing, nil
	}

	// Select an eligible basket: open, of this tier, with headroom below the
	// ceiling, and whose simulated post-addition blend stays under it.
	// Never commit first and correct later.
	target := a.selectBasket(tier, ceiling, safety, amount)
	created := false
	if target == nil {
		target = &Basket{
			ID:        a.newID(),
			Tier:      tier,
			Status:    StatusOpen,
			CreatedAt: a.now(),
		}
		created = true
	}

	updated := *target
	updated.SumValue = target.SumValue + amount
	updated.SumValueScore = target.SumValueScore + amount*safety
	updated.BlendedRiskScore = updated.SumValueScore / updated.SumValue
	updated.TotalValue = target.TotalValue + amount
	updated.AvailableToInvest = target.AvailableToInvest + InvestableFraction*amount
	updated.MemberAssetIDs = append(append([]string{}, target.MemberAssetIDs...), assetID)
	updated.UpdatedAt = a.now()
	if updated.RiskPercentage() >= ceiling-SafetyMargin {
		updated.Status = StatusAtCapacity
	}

	member := Member{
		BasketID: updated.ID,
		AssetID:  assetID,
		Amount:   amount,
		Score:    safety,
		Position: len(target.MemberAssetIDs),
		AddedAt:  updated.UpdatedAt,
	}
	assignment := Assignment{
		AssetID:           assetID,
		BasketID:          updated.ID,
		Tier:              tier,
		ScoreAtAssignment: safety,
		BlendedAtAssign:   updated.BlendedRiskScore,
		CreatedAt:         updated.UpdatedAt,
	}

	// Persist first, mutate memory only on success
	if err := a.repo.CommitAssignment(&updated, member, assignment); err != nil {
		if errors.Is(err, domain.ErrAllocationConflict) {
			// Another writer committed this asset; surface their assignment
			if existing, lookupErr := a.repo.GetAssignment(assetID); lookupErr == nil && existing != nil {
				return existing, nil
			}
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "commit assignment", Err: err}
	}

	a.applyCommit(target, &updated, created)

	if err := a.repo.AppendSnapshot(Snapshot{
		BasketID:      updated.ID,
		TotalValue:    updated.TotalValue,
		ExpectedYield: scoring.YieldFromScore(updated.BlendedRiskScore),
		CreatedAt:     updated.UpdatedAt,
	}); err != nil {
		// Snapshots are observability, not part of the safety invariant
		a.log.Warn().Err(err).Str("basket_id", updated.ID).Msg("Failed to append basket snapshot")
	}

	a.log.Info().
		Str("asset_id", assetID).
		Str("basket_id", updated.ID).
		Str("tier", string(tier)).
		Bool("new_basket", created).
		Float64("blended_score", updated.BlendedRiskScore).
		Float64("risk_pct", updated.RiskPercentage()).
		Msg("Asset assigned to basket")

	return &assignment, nil
}

// selectBasket returns the first open basket of the tier that both has
// headroom now and would stay under the ceiling after adding the asset.
// Returns nil when a new basket is needed. Caller holds the tier lock.
func (a *Allocator) selectBasket(tier domain.Tier, ceiling, safety, amount float64) *Basket {
	for _, b := range a.open[tier] {
		if b.Status != StatusOpen {
			continue
		}
		if b.RiskPercentage() >= ceiling-SafetyMargin {
			continue
		}
		newBlended := (b.BlendedRiskScore*b.SumValue + safety*amount) / (b.SumValue + amount)
		if 100-newBlended > ceiling {
			continue
		}
		return b
	}
	return nil
}

// applyCommit folds a persisted update into the in-memory registry.
// Caller holds the tier lock.
func (a *Allocator) applyCommit(target, updated *Basket, created bool) {
	if created {
		if updated.Status == StatusOpen {
			a.open[updated.Tier] = append(a.open[updated.Tier], updated)
		}
		return
	}

	*target = *updated
	if target.Status != StatusOpen {
		// AtCapacity is terminal, drop it from the open slot
		kept := a.open[target.Tier][:0]
		for _, b := range a.open[target.Tier] {
			if b.ID != target.ID {
				kept = append(kept, b)
			}
		}
		a.open[target.Tier] = kept
	}
}

// Baskets returns all baskets, open and at capacity
func (a *Allocator) Baskets() ([]*Basket, error) {
	baskets, err := a.repo.ListBaskets()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list baskets", Err: err}
	}
	return baskets, nil
}

// Basket returns a single basket by ID, nil when not found
func (a *Allocator) Basket(id string) (*Basket, error) {
	b, err := a.repo.GetBasket(id)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get basket", Err: err}
	}
	return b, nil
}
