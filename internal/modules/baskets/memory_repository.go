package baskets

import (
	"sync"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// MemoryRepository is an in-memory Repository used by tests and by callers
// that want a throwaway allocator without a database.
type MemoryRepository struct {
	mu          sync.RWMutex
	baskets     map[string]*Basket
	members     map[string]Member // keyed by asset ID
	assignments map[string]Assignment
	snapshots   []Snapshot

	// FailNextCommit makes the next CommitAssignment fail, for exercising
	// retry semantics in tests.
	FailNextCommit error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		baskets:     make(map[string]*Basket),
		members:     make(map[string]Member),
		assignments: make(map[string]Assignment),
	}
}

// LoadOpenBaskets returns all open baskets
func (r *MemoryRepository) LoadOpenBaskets() ([]*Basket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Basket
	for _, b := range r.baskets {
		if b.Status == StatusOpen {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetAssignment returns the assignment for an asset, nil when none exists
func (r *MemoryRepository) GetAssignment(assetID string) (*Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.assignments[assetID]; ok {
		cp := a
		return &cp, nil
	}
	return nil, nil
}

// CommitAssignment stores the basket update, member and assignment atomically
func (r *MemoryRepository) CommitAssignment(b *Basket, m Member, a Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNextCommit != nil {
		err := r.FailNextCommit
		r.FailNextCommit = nil
		return err
	}
	if _, ok := r.members[m.AssetID]; ok {
		return domain.ErrAllocationConflict
	}

	cp := *b
	r.baskets[b.ID] = &cp
	r.members[m.AssetID] = m
	r.assignments[a.AssetID] = a
	return nil
}

// ListBaskets returns all baskets
func (r *MemoryRepository) ListBaskets() ([]*Basket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Basket
	for _, b := range r.baskets {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

// GetBasket returns one basket by ID, nil when not found
func (r *MemoryRepository) GetBasket(id string) (*Basket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.baskets[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

// ListMembers returns a basket's members in insertion order
func (r *MemoryRepository) ListMembers(basketID string) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Member
	for _, m := range r.members {
		if m.BasketID == basketID {
			out = append(out, m)
		}
	}
	return out, nil
}

// UpdateAggregates persists re-derived aggregates for a basket
func (r *MemoryRepository) UpdateAggregates(b *Basket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.baskets[b.ID]; ok {
		stored.SumValue = b.SumValue
		stored.SumValueScore = b.SumValueScore
		stored.BlendedRiskScore = b.BlendedRiskScore
	}
	return nil
}

// AppendSnapshot records a snapshot
func (r *MemoryRepository) AppendSnapshot(s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots = append(r.snapshots, s)
	return nil
}

// Snapshots returns all recorded snapshots
func (r *MemoryRepository) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}
