package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateAbbr(t *testing.T) {
	tests := []struct {
		name     string
		fips     int
		expected string
	}{
		{"Alabama", 1, "AL"},
		{"California", 6, "CA"},
		{"District of Columbia", 11, "DC"},
		{"Wyoming", 56, "WY"},
		{"Puerto Rico", 72, "PR"},
		{"unknown code", 99, ""},
		{"zero", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StateAbbr(tt.fips))
		})
	}
}

func TestStateAbbrCoverage(t *testing.T) {
	// 50 states plus DC plus the island territories carried in
	// district-level files.
	assert.Len(t, statePostal, 56)

	seen := make(map[string]bool, len(statePostal))
	for fips, abbr := range statePostal {
		assert.Len(t, abbr, 2, "fips %d", fips)
		assert.False(t, seen[abbr], "duplicate abbreviation %s", abbr)
		seen[abbr] = true
	}
}
