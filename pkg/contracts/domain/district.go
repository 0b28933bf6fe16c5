package domain

import (
	"math"
)

// Concentration labels a district's racial composition relative to the
// concentration thresholds. The label set differs by dimension: the
// nonwhite dimension uses {nonwhite, white, NotConcentrated}, the black
// dimension uses {black, white, NotConcentrated}.
type Concentration string

const (
	ConcentrationNonwhite Concentration = "nonwhite"
	ConcentrationBlack    Concentration = "black"
	ConcentrationWhite    Concentration = "white"
	NotConcentrated       Concentration = "NotConcentrated"
)

// LinkedDistrict is one row of the fully linked analysis table:
// enrollment composition joined to adjusted finance and the
// cost-of-living index, with every derived column computed. Rows in a
// finished link result contain no NaN cells; intermediate rows may.
type LinkedDistrict struct {
	Leaid string `json:"leaid" validate:"required"`
	Fips  int    `json:"fips"`

	// Enrollment is the district's total student count.
	Enrollment float64 `json:"enrollment"`

	// Enrollment by race category.
	White           float64 `json:"white"`
	Black           float64 `json:"black"`
	Hispanic        float64 `json:"hispanic"`
	Asian           float64 `json:"asian"`
	AmericanIndian  float64 `json:"american_indian"`
	PacificIslander float64 `json:"pacific_islander"`
	TwoOrMore       float64 `json:"two_or_more"`
	Unknown         float64 `json:"unknown"`
	Other           float64 `json:"other"`

	// RevTotal is the unadjusted total revenue, kept for the
	// revenue >= 0 inclusion filter.
	RevTotal float64 `json:"rev_total"`

	// Adjusted revenue in nominal dollars.
	AdjFed        float64 `json:"adj_fed"`
	AdjState      float64 `json:"adj_state"`
	AdjLocal      float64 `json:"adj_local"`
	AdjStateLocal float64 `json:"adj_state_local"`
	AdjTotal      float64 `json:"adj_total"`

	// COLA is the district's cost-of-living multiplier.
	COLA float64 `json:"cola"`

	// Adjusted revenue scaled to a comparable purchasing-power basis.
	AdjFedCOLA        float64 `json:"adj_fed_cola"`
	AdjStateCOLA      float64 `json:"adj_state_cola"`
	AdjLocalCOLA      float64 `json:"adj_local_cola"`
	AdjStateLocalCOLA float64 `json:"adj_state_local_cola"`
	AdjTotalCOLA      float64 `json:"adj_total_cola"`

	// Per-pupil figures: COLA-scaled revenue divided by enrollment.
	PerPupilFed        float64 `json:"per_pupil_fed"`
	PerPupilState      float64 `json:"per_pupil_state"`
	PerPupilLocal      float64 `json:"per_pupil_local"`
	PerPupilStateLocal float64 `json:"per_pupil_state_local"`
	PerPupilTotal      float64 `json:"per_pupil_total"`

	// Composition percentages of total enrollment. PctNonwhite is the
	// exact complement of PctWhite.
	PctBlack    float64 `json:"pct_black"`
	PctHispanic float64 `json:"pct_hispanic"`
	PctWhite    float64 `json:"pct_white"`
	PctNonwhite float64 `json:"pct_nonwhite"`

	// Concentration labels, one per dimension.
	ConcentrationByNonwhite Concentration `json:"concentration_by_nonwhite"`
	ConcentrationByBlack    Concentration `json:"concentration_by_black"`

	// Equal-width composition bins labelled by upper bound (10..100).
	BinBlack    int `json:"bin_black"`
	BinNonwhite int `json:"bin_nonwhite"`
}

// NumericCells returns every numeric column of the row in a fixed
// order. The linker's drop-missing step scans these for NaN.
func (d *LinkedDistrict) NumericCells() []float64 {
	return []float64{
		d.Enrollment,
		d.White, d.Black, d.Hispanic, d.Asian, d.AmericanIndian,
		d.PacificIslander, d.TwoOrMore, d.Unknown, d.Other,
		d.RevTotal,
		d.AdjFed, d.AdjState, d.AdjLocal, d.AdjStateLocal, d.AdjTotal,
		d.COLA,
		d.AdjFedCOLA, d.AdjStateCOLA, d.AdjLocalCOLA, d.AdjStateLocalCOLA, d.AdjTotalCOLA,
		d.PerPupilFed, d.PerPupilState, d.PerPupilLocal, d.PerPupilStateLocal, d.PerPupilTotal,
		d.PctBlack, d.PctHispanic, d.PctWhite, d.PctNonwhite,
	}
}

// HasMissingValues reports whether any numeric column is NaN.
func (d *LinkedDistrict) HasMissingValues() bool {
	for _, v := range d.NumericCells() {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
