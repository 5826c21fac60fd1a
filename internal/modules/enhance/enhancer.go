// Package enhance provides the optional pre-scoring enhancement capability.
//
// Enhancement is an external collaborator, not part of the scoring contract:
// the deterministic calculators must produce the same assessment whether or
// not an enhancer ran. Callers treat every enhancer failure as recoverable
// and fall back to the raw submission.
package enhance

import (
	"context"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// Enhancer pre-processes raw submission attributes before scoring.
// Implementations may fail or time out; callers must proceed with the
// unenhanced input when they do.
type Enhancer interface {
	Enhance(ctx context.Context, class domain.AssetClass, attrs domain.Attributes) (domain.Attributes, error)
}

// Noop is the default enhancer: it returns the input unchanged.
// Keeps the deterministic core free of any hard external dependency.
type Noop struct{}

// NewNoop creates a no-op enhancer
func NewNoop() *Noop {
	return &Noop{}
}

// Enhance returns the attributes unchanged
func (n *Noop) Enhance(_ context.Context, _ domain.AssetClass, attrs domain.Attributes) (domain.Attributes, error) {
	return attrs, nil
}
