package analysis

import "edequity/pkg/contracts/domain"

// BinDimension selects which demographic share a bin table groups by
type BinDimension string

const (
	BinByBlack    BinDimension = "black"
	BinByNonwhite BinDimension = "nonwhite"
)

// binOf returns the district's bin label on this dimension
func (d BinDimension) binOf(dist domain.LinkedDistrict) int {
	if d == BinByBlack {
		return dist.BinBlack
	}
	return dist.BinNonwhite
}

// ConcentrationDimension selects which concentration categorization a
// comparison uses.
type ConcentrationDimension string

const (
	ConcentrationByBlack    ConcentrationDimension = "black"
	ConcentrationByNonwhite ConcentrationDimension = "nonwhite"
)

// categoryOf returns the district's concentration label on this dimension
func (d ConcentrationDimension) categoryOf(dist domain.LinkedDistrict) domain.Concentration {
	if d == ConcentrationByBlack {
		return dist.ConcentrationByBlack
	}
	return dist.ConcentrationByNonwhite
}

// minorityPole returns the concentrated-minority label for this dimension
func (d ConcentrationDimension) minorityPole() domain.Concentration {
	if d == ConcentrationByBlack {
		return domain.ConcentrationBlack
	}
	return domain.ConcentrationNonwhite
}

// BinRevenue is one row of a revenue-by-bin table: all districts whose
// demographic share falls in the bin, with enrollment-weighted per-pupil
// revenue.
type BinRevenue struct {
	Bin                int     `json:"bin"`
	Districts          int     `json:"districts"`
	Students           float64 `json:"students"`
	PerPupilTotal      float64 `json:"per_pupil_total"`
	PerPupilStateLocal float64 `json:"per_pupil_state_local"`
}

// ComparisonRow is one pole of a concentration comparison
type ComparisonRow struct {
	Label              string  `json:"label"`
	Districts          int     `json:"districts"`
	Students           float64 `json:"students"`
	PerPupilTotal      float64 `json:"per_pupil_total"`
	PerPupilStateLocal float64 `json:"per_pupil_state_local"`
}

// ComparisonTable compares the two concentration poles on a dimension.
// Districts labeled NotConcentrated are excluded.
type ComparisonTable struct {
	Dimension ConcentrationDimension `json:"dimension"`
	Minority  ComparisonRow          `json:"minority"`
	White     ComparisonRow          `json:"white"`

	// PercentDifference is (minority − white) / white × 100 over the
	// weighted per-pupil totals.
	PercentDifference float64 `json:"percent_difference"`
}

// ExposureGap is a national comparison of the per-pupil revenue
// experienced by the average student of a minority group versus the
// average white student.
type ExposureGap struct {
	Comparison        string  `json:"comparison"`
	MinorityPerPupil  float64 `json:"minority_per_pupil"`
	WhitePerPupil     float64 `json:"white_per_pupil"`
	PercentDifference float64 `json:"percent_difference"`
}

// StateGap carries the exposure-weighted per-pupil figures for one state
type StateGap struct {
	Fips             int     `json:"fips"`
	StateAbbr        string  `json:"state_abbr"`
	BlackPerPupil    float64 `json:"black_per_pupil"`
	WhitePerPupil    float64 `json:"white_per_pupil"`
	NonwhitePerPupil float64 `json:"nonwhite_per_pupil"`

	// Gaps are percent differences against the white figure
	BlackWhiteGapPct    float64 `json:"black_white_gap_pct"`
	NonwhiteWhiteGapPct float64 `json:"nonwhite_white_gap_pct"`
}

// SourceBreakdown splits weighted per-pupil revenue by source for one
// concentration category.
type SourceBreakdown struct {
	Category      string  `json:"category"`
	Districts     int     `json:"districts"`
	Students      float64 `json:"students"`
	PerPupilFed   float64 `json:"per_pupil_fed"`
	PerPupilState float64 `json:"per_pupil_state"`
	PerPupilLocal float64 `json:"per_pupil_local"`
}

// ReportSet is the complete output of one analysis pass
type ReportSet struct {
	RevenueByBinBlack    []BinRevenue      `json:"revenue_by_bin_black"`
	RevenueByBinNonwhite []BinRevenue      `json:"revenue_by_bin_nonwhite"`
	ComparisonByBlack    ComparisonTable   `json:"comparison_by_black"`
	ComparisonByNonwhite ComparisonTable   `json:"comparison_by_nonwhite"`
	NationalGaps         []ExposureGap     `json:"national_gaps"`
	StateGaps            []StateGap        `json:"state_gaps"`
	SourcesByBlack       []SourceBreakdown `json:"sources_by_black"`
	SourcesByNonwhite    []SourceBreakdown `json:"sources_by_nonwhite"`
}
