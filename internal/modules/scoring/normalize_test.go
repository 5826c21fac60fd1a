package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		lo       float64
		hi       float64
		expected float64
	}{
		{name: "within range", x: 50, lo: 0, hi: 100, expected: 50},
		{name: "below lower bound", x: -10, lo: 0, hi: 100, expected: 0},
		{name: "above upper bound", x: 150, lo: 0, hi: 100, expected: 100},
		{name: "at lower bound", x: 0, lo: 0, hi: 100, expected: 0},
		{name: "at upper bound", x: 100, lo: 0, hi: 100, expected: 100},
		{name: "custom range", x: 5, lo: 10, hi: 40, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clamp(tt.x, tt.lo, tt.hi))
		})
	}
}

func TestAmountBucketScore(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected float64
	}{
		{name: "at high threshold", amount: 100_000, expected: 100},
		{name: "above high threshold", amount: 500_000, expected: 100},
		{name: "at mid threshold", amount: 10_000, expected: 70},
		{name: "between thresholds", amount: 50_000, expected: 70},
		{name: "small amount ramps linearly", amount: 7_500, expected: 30},
		{name: "tiny amount floors at 10", amount: 100, expected: 10},
		{name: "zero floors at 10", amount: 0, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AmountBucketScore(tt.amount, 10_000, 100_000))
		})
	}
}

func TestJurisdictionRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		country  string
		expected float64
	}{
		{name: "high-risk jurisdiction", country: "Cayman Islands", expected: 85},
		{name: "medium-risk jurisdiction", country: "Singapore", expected: 60},
		{name: "unlisted country", country: "United States", expected: 30},
		{name: "absent country", country: "", expected: 60},
		{name: "case insensitive", country: "cayman islands", expected: 85},
		{name: "whitespace tolerated", country: "  Panama  ", expected: 85},
		{name: "unrecognized string", country: "Atlantis", expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, JurisdictionRiskScore(tt.country))
		})
	}
}
