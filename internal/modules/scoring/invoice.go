package scoring

import (
	"strings"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// Invoice amount thresholds: a six-figure invoice is a concentration risk,
// anything under five figures is routine.
const (
	invoiceAmountMidThreshold  = 10_000
	invoiceAmountHighThreshold = 100_000
)

// invoiceTurnsPerYear annualizes the late-fee incentive on a typical
// net-60 collection cycle.
const invoiceTurnsPerYear = 6

const invoiceAlgorithmVersion = "invoice-v1.2"

// InvoiceCalculator scores outstanding B2B invoices.
//
// Factors (weights sum to 100):
// - Vendor experience (15): years in business, decays to zero risk at 3+ years
// - Client history (20): on-time payment ratio, unproven clients default to 90
// - Jurisdiction (10): collection risk of the client's country
// - Amount (10): concentration buckets
// - Payment terms (10): rush terms signal cash desperation
// - Red flags (15): 20 points each
// - Partial payment allowed (5): binary modifier, 20 vs 40
// - Insurance coverage (15): binary modifier, 10 vs 35
type InvoiceCalculator struct{}

// NewInvoiceCalculator creates a new invoice calculator
func NewInvoiceCalculator() *InvoiceCalculator {
	return &InvoiceCalculator{}
}

// Compute scores an invoice submission
func (c *InvoiceCalculator) Compute(sub domain.AssetSubmission) domain.RiskAssessment {
	attrs := sub.Attributes

	// Vendor experience: risk decays linearly to 0 at 3+ years in business
	years, hasYears := attrs.Float("years_in_business")
	vendorScore := 90.0
	if hasYears {
		vendorScore = Clamp100(100 - (years/3)*100)
	}

	// Client history: on-time ratio when available, otherwise assume unproven
	totalInvoices, hasTotal := attrs.Float("total_invoices")
	onTime, _ := attrs.Float("on_time_payments")
	clientScore := 90.0
	hasHistory := hasTotal && totalInvoices > 0
	if hasHistory {
		clientScore = Clamp100(100 - onTime/totalInvoices*100)
	}

	country, hasCountry := attrs.String("country")
	jurisdictionScore := JurisdictionRiskScore(country)

	amountScore := AmountBucketScore(sub.Amount, invoiceAmountMidThreshold, invoiceAmountHighThreshold)

	terms, hasTerms := attrs.String("payment_terms")
	termsScore := paymentTermsScore(terms)

	redFlags, hasRedFlags := attrs.StringSlice("red_flags")
	redFlagScore := Clamp100(float64(len(redFlags)) * 20)

	core := []factor{
		{name: "vendor experience", score: vendorScore, weight: 15, present: hasYears},
		{name: "client payment history", score: clientScore, weight: 20, present: hasHistory},
		{name: "jurisdiction", score: jurisdictionScore, weight: 10, present: hasCountry},
		{name: "invoice amount", score: amountScore, weight: 10, present: true},
		{name: "payment terms", score: termsScore, weight: 10, present: hasTerms},
		{name: "red flags", score: redFlagScore, weight: 15, present: hasRedFlags},
	}

	// Binary modifiers folded into the same weighted sum
	partialAllowed, hasPartial := attrs.Bool("partial_payment_allowed")
	partialScore := 40.0
	if hasPartial && partialAllowed {
		partialScore = 20.0
	}

	insured, hasInsurance := attrs.Bool("insurance_coverage")
	insuranceScore := 35.0
	if hasInsurance && insured {
		insuranceScore = 10.0
	}

	modifiers := []factor{
		{name: "partial payment allowed", score: partialScore, weight: 5, present: hasPartial},
		{name: "insurance coverage", score: insuranceScore, weight: 15, present: hasInsurance},
	}

	riskScore, descriptions := combine(append(core, modifiers...))

	// Late-fee incentive discount: a contractual late fee improves expected
	// payment behavior, worth at most 10 points
	lateFee, hasLateFee := attrs.Float("late_fee_percentage")
	if hasLateFee && lateFee > 0 {
		riskScore = Clamp100(riskScore - min(lateFee, 10))
	}

	// Annualized yield from expected-payment probability and the late-fee rate
	paymentProbability := 1 - Clamp100(riskScore)/100
	feeRate := 2.0 // default incentive rate when no contractual late fee
	if hasLateFee && lateFee > 0 {
		feeRate = lateFee
	}
	projectedYield := paymentProbability * feeRate * invoiceTurnsPerYear

	dataPoints := 1 + countPresent(core) + countPresent(modifiers)
	if hasLateFee {
		dataPoints++
	}

	return finalize(
		sub.Amount,
		riskScore,
		descriptions,
		countPresent(core),
		len(core),
		dataPoints,
		projectedYield,
		invoiceAlgorithmVersion,
	)
}

// paymentTermsScore scores payment terms categorically. Rush terms read as
// cash desperation, standard net terms as healthy trade credit.
func paymentTermsScore(terms string) float64 {
	switch strings.ToLower(strings.TrimSpace(terms)) {
	case "due on receipt", "rush":
		return 90
	case "net 15", "net 30":
		return 50
	default:
		return 60
	}
}
