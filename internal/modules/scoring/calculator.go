package scoring

import (
	"fmt"
	"math"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// MaxProjectedYield is the hard cap on any projected yield, in percent.
// Product constraint: quoted yields stay single-digit.
const MaxProjectedYield = 9.5

// Calculator computes a RiskAssessment for one asset class.
// Implementations are pure functions of the submission: same input, same
// output, no shared state. Safe for unbounded parallel use.
type Calculator interface {
	Compute(sub domain.AssetSubmission) domain.RiskAssessment
}

// Registry dispatches submissions to the calculator for their class.
// The class set is closed: anything outside it is rejected with
// UnknownAssetClassError, never routed to a default calculator.
type Registry struct {
	calculators map[domain.AssetClass]Calculator
}

// NewRegistry creates a registry with all supported calculators
func NewRegistry() *Registry {
	return &Registry{
		calculators: map[domain.AssetClass]Calculator{
			domain.AssetClassInvoice: NewInvoiceCalculator(),
			domain.AssetClassSaaS:    NewSaaSCalculator(),
			domain.AssetClassCreator: NewCreatorCalculator(),
			domain.AssetClassRental:  NewRentalCalculator(),
			domain.AssetClassLuxury:  NewLuxuryCalculator(),
		},
	}
}

// For returns the calculator for a class
func (r *Registry) For(class domain.AssetClass) (Calculator, error) {
	calc, ok := r.calculators[class]
	if !ok {
		return nil, &domain.UnknownAssetClassError{Class: string(class)}
	}
	return calc, nil
}

// Compute validates the submission and dispatches it to the matching
// calculator.
func (r *Registry) Compute(sub domain.AssetSubmission) (domain.RiskAssessment, error) {
	if err := sub.Validate(); err != nil {
		return domain.RiskAssessment{}, err
	}
	calc, err := r.For(sub.Class)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	return calc.Compute(sub), nil
}

// factor is one weighted risk component. Scores are 0-100 where higher means
// higher risk; weights sum to 100 per calculator.
type factor struct {
	name    string
	score   float64
	weight  float64
	present bool // whether the underlying input field was supplied
}

// combine produces the weighted risk score and the human-readable factor list.
// The combination is sum(score*weight) / sum(weight).
func combine(factors []factor) (float64, []string) {
	var weightedSum, totalWeight float64
	descriptions := make([]string, 0, len(factors))

	for _, f := range factors {
		weightedSum += f.score * f.weight
		totalWeight += f.weight

		suffix := ""
		if !f.present {
			suffix = ", defaulted"
		}
		descriptions = append(descriptions,
			fmt.Sprintf("%s: %.0f/100 (weight %.0f%s)", f.name, f.score, f.weight, suffix))
	}

	if totalWeight == 0 {
		return 0, descriptions
	}
	return weightedSum / totalWeight, descriptions
}

// countPresent counts factors whose input field was supplied. The submission
// amount always counts as one data point on top of this.
func countPresent(factors []factor) int {
	n := 0
	for _, f := range factors {
		if f.present {
			n++
		}
	}
	return n
}

// finalize builds the common RiskAssessment tail shared by every calculator.
//
// Confidence depends only on input completeness, never on the score value.
// fieldsExpected counts the class's core input fields; dataPoints may exceed
// it when optional refinement fields (modifiers, discounts) were supplied too.
func finalize(
	amount float64,
	riskScore float64,
	factors []string,
	fieldsPresent int,
	fieldsExpected int,
	dataPoints int,
	projectedYield float64,
	version string,
) domain.RiskAssessment {
	score := Clamp100(riskScore)

	confidence := Clamp100(40 + float64(fieldsPresent)/float64(fieldsExpected)*60)

	advance := Clamp(0.9*(1-score/100)+0.1*(confidence/100), 0, 1)

	return domain.RiskAssessment{
		Score:              int(math.Round(score)),
		Confidence:         int(math.Round(confidence)),
		Factors:            factors,
		EstimatedValue:     round2(amount * (1 - score/100)),
		RecommendedAdvance: round2(advance),
		ProjectedYield:     round2(Clamp(projectedYield, 0, MaxProjectedYield)),
		DataPointsPresent:  dataPoints,
		AlgorithmVersion:   version,
	}
}
