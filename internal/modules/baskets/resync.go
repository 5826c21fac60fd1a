package baskets

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DriftTolerance is the blended-score drift (in score units) above which a
// resync is logged as a warning. Commits are bounded-magnitude float64
// additions, so accumulated error should sit far below this at any realistic
// member count; anything above it suggests a bug, not rounding.
const DriftTolerance = 1e-6

// ResyncAggregates re-derives every open basket's aggregates from its member
// rows and persists the corrected values.
//
// The incremental aggregates maintained on each commit accumulate
// floating-point error over time; this full recompute bounds that drift.
// Runs under the tier locks, so it never interleaves with a commit.
func (a *Allocator) ResyncAggregates() error {
	for tier, lock := range a.mu {
		lock.Lock()
		for _, b := range a.open[tier] {
			if err := a.resyncBasket(b); err != nil {
				lock.Unlock()
				return err
			}
		}
		lock.Unlock()
	}
	return nil
}

// resyncBasket recomputes one basket's aggregates from members.
// Caller holds the tier lock.
func (a *Allocator) resyncBasket(b *Basket) error {
	members, err := a.repo.ListMembers(b.ID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	scores := make([]float64, len(members))
	weights := make([]float64, len(members))
	var sumValue float64
	for i, m := range members {
		scores[i] = m.Score
		weights[i] = m.Amount
		sumValue += m.Amount
	}

	blended := stat.Mean(scores, weights)
	drift := math.Abs(blended - b.BlendedRiskScore)

	b.SumValue = sumValue
	b.SumValueScore = blended * sumValue
	b.BlendedRiskScore = blended

	if err := a.repo.UpdateAggregates(b); err != nil {
		return err
	}

	evt := a.log.Debug()
	if drift > DriftTolerance {
		evt = a.log.Warn()
	}
	evt.Str("basket_id", b.ID).
		Int("members", len(members)).
		Float64("drift", drift).
		Msg("Resynced basket aggregates")

	return nil
}
