package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssetClass(t *testing.T) {
	for _, class := range AllAssetClasses {
		got, err := ParseAssetClass(string(class))
		require.NoError(t, err)
		assert.Equal(t, class, got)
	}

	_, err := ParseAssetClass("commodity")
	var unknownErr *UnknownAssetClassError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "commodity", unknownErr.Class)
	assert.Contains(t, unknownErr.Error(), "commodity")

	// Case-sensitive on purpose: class tags are canonical wire values
	_, err = ParseAssetClass("Invoice")
	require.Error(t, err)
}

func TestSubmissionValidate(t *testing.T) {
	tests := []struct {
		name    string
		sub     AssetSubmission
		wantErr error
	}{
		{
			name: "valid",
			sub:  AssetSubmission{Class: AssetClassInvoice, Amount: 100},
		},
		{
			name:    "missing class",
			sub:     AssetSubmission{Amount: 100},
			wantErr: ErrInvalidSubmission,
		},
		{
			name:    "zero amount",
			sub:     AssetSubmission{Class: AssetClassSaaS},
			wantErr: ErrInvalidSubmission,
		},
		{
			name:    "negative amount",
			sub:     AssetSubmission{Class: AssetClassRental, Amount: -1},
			wantErr: ErrInvalidSubmission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	t.Run("unknown class", func(t *testing.T) {
		err := AssetSubmission{Class: "bond", Amount: 100}.Validate()
		var unknownErr *UnknownAssetClassError
		assert.ErrorAs(t, err, &unknownErr)
	})
}

func TestAttributesGettersFromJSON(t *testing.T) {
	// Exercise the getters against what json.Unmarshal actually produces
	var attrs Attributes
	require.NoError(t, json.Unmarshal([]byte(`{
		"years_in_business": 5,
		"churn_rate_pct": 2.5,
		"country": "United States",
		"empty": "",
		"insured": true,
		"red_flags": ["late payer", "disputed"]
	}`), &attrs))

	years, ok := attrs.Float("years_in_business")
	require.True(t, ok)
	assert.Equal(t, 5.0, years)

	churn, ok := attrs.Float("churn_rate_pct")
	require.True(t, ok)
	assert.Equal(t, 2.5, churn)

	country, ok := attrs.String("country")
	require.True(t, ok)
	assert.Equal(t, "United States", country)

	// Empty strings count as absent
	_, ok = attrs.String("empty")
	assert.False(t, ok)

	insured, ok := attrs.Bool("insured")
	require.True(t, ok)
	assert.True(t, insured)

	flags, ok := attrs.StringSlice("red_flags")
	require.True(t, ok)
	assert.Equal(t, []string{"late payer", "disputed"}, flags)

	_, ok = attrs.Float("missing")
	assert.False(t, ok)
	_, ok = attrs.Bool("missing")
	assert.False(t, ok)
	_, ok = attrs.StringSlice("missing")
	assert.False(t, ok)
}

func TestAttributesGettersTolerateNativeTypes(t *testing.T) {
	attrs := Attributes{
		"count": 3,
		"big":   int64(9),
		"flags": []string{"a"},
	}

	count, ok := attrs.Float("count")
	require.True(t, ok)
	assert.Equal(t, 3.0, count)

	big, ok := attrs.Float("big")
	require.True(t, ok)
	assert.Equal(t, 9.0, big)

	flags, ok := attrs.StringSlice("flags")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, flags)

	// Wrong types report absent rather than a zero that looks real
	_, ok = Attributes{"count": "three"}.Float("count")
	assert.False(t, ok)
}

func TestSafetyScoreInvertsRisk(t *testing.T) {
	assert.Equal(t, 100, RiskAssessment{Score: 0}.SafetyScore())
	assert.Equal(t, 78, RiskAssessment{Score: 22}.SafetyScore())
	assert.Equal(t, 0, RiskAssessment{Score: 100}.SafetyScore())
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("database is locked")
	err := &PersistenceError{Op: "commit assignment", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "commit assignment")
	assert.Contains(t, err.Error(), "database is locked")
}
