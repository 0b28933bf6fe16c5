package domain

import (
	"math"
)

// RaceComposition is one district's enrollment pivoted wide: one column
// per race category, counts summed over the "Total" sex and "Total"
// grade strata only. A race category with no reported row for the
// district is zero; a reported-but-suppressed count is NaN.
type RaceComposition struct {
	Leaid string `json:"leaid" validate:"required"`
	Fips  int    `json:"fips"`

	White           float64 `json:"white"`
	Black           float64 `json:"black"`
	Hispanic        float64 `json:"hispanic"`
	Asian           float64 `json:"asian"`
	AmericanIndian  float64 `json:"american_indian"`
	PacificIslander float64 `json:"pacific_islander"`
	TwoOrMore       float64 `json:"two_or_more"`
	Unknown         float64 `json:"unknown"`
	Other           float64 `json:"other"`

	// Total is the all-races enrollment reported for the district, not
	// the sum of the category columns.
	Total float64 `json:"total"`
}

// HasCompleteCounts reports whether every enrollment cell is a defined
// number. Districts with a suppressed category survive the pivot but
// are excluded later by the drop-missing step.
func (c RaceComposition) HasCompleteCounts() bool {
	for _, v := range []float64{
		c.White, c.Black, c.Hispanic, c.Asian, c.AmericanIndian,
		c.PacificIslander, c.TwoOrMore, c.Unknown, c.Other, c.Total,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
