package edudata

import "math"

// Suppression codes used by the provider for numeric fields. Absence of
// data is encoded in-band rather than as JSON null.
const (
	sentinelMissing       = -1
	sentinelNotApplicable = -2
	sentinelSuppressed    = -3
)

// scrubValue maps the provider's suppression codes to NaN. All other
// values pass through unchanged, including true zeros.
func scrubValue(v float64) float64 {
	switch v {
	case sentinelMissing, sentinelNotApplicable, sentinelSuppressed:
		return math.NaN()
	}
	return v
}

// FinanceRow is one district's record from the finance survey. Revenue
// figures are annual totals in dollars.
type FinanceRow struct {
	Leaid                  string  `json:"leaid" csv:"leaid"`
	Fips                   int     `json:"fips" csv:"fips"`
	RevTotal               float64 `json:"rev_total" csv:"rev_total"`
	RevFedTotal            float64 `json:"rev_fed_total" csv:"rev_fed_total"`
	RevStateTotal          float64 `json:"rev_state_total" csv:"rev_state_total"`
	RevLocalTotal          float64 `json:"rev_local_total" csv:"rev_local_total"`
	RevStateCapitalOutlay  float64 `json:"rev_state_capital_outlay" csv:"rev_state_capital_outlay"`
	RevLocalPropertySale   float64 `json:"rev_local_property_sale" csv:"rev_local_property_sale"`
	PaymentsCharterSchools float64 `json:"payments_charter_schools" csv:"payments_charter_schools"`
}

// Scrub replaces suppression codes with NaN in all numeric fields
func (r FinanceRow) Scrub() FinanceRow {
	r.RevTotal = scrubValue(r.RevTotal)
	r.RevFedTotal = scrubValue(r.RevFedTotal)
	r.RevStateTotal = scrubValue(r.RevStateTotal)
	r.RevLocalTotal = scrubValue(r.RevLocalTotal)
	r.RevStateCapitalOutlay = scrubValue(r.RevStateCapitalOutlay)
	r.RevLocalPropertySale = scrubValue(r.RevLocalPropertySale)
	r.PaymentsCharterSchools = scrubValue(r.PaymentsCharterSchools)
	return r
}

// EnrollmentRow is one stratum of the enrollment survey cross-tabulated
// by race. Race, sex and grade arrive as label strings; the aggregate
// strata carry the label "Total".
type EnrollmentRow struct {
	Leaid      string  `json:"leaid" csv:"leaid"`
	Fips       int     `json:"fips" csv:"fips"`
	Race       string  `json:"race" csv:"race"`
	Sex        string  `json:"sex" csv:"sex"`
	Grade      string  `json:"grade" csv:"grade"`
	Enrollment float64 `json:"enrollment" csv:"enrollment"`
}

// Scrub replaces suppression codes with NaN in the enrollment count
func (r EnrollmentRow) Scrub() EnrollmentRow {
	r.Enrollment = scrubValue(r.Enrollment)
	return r
}

// IsTotalStratum reports whether the row is the sex=Total, grade=Total
// aggregate. Only these rows enter the race pivot; finer strata would
// double count.
func (r EnrollmentRow) IsTotalStratum() bool {
	return r.Sex == "Total" && r.Grade == "Total"
}

// DirectoryRow is one district's record from the directory survey
type DirectoryRow struct {
	Leaid      string  `json:"leaid" csv:"leaid"`
	Fips       int     `json:"fips" csv:"fips"`
	LeaName    string  `json:"lea_name" csv:"lea_name"`
	StateAbbr  string  `json:"state_abbr" csv:"state_abbr"`
	Enrollment float64 `json:"enrollment" csv:"enrollment"`
}

// Scrub replaces suppression codes with NaN in the enrollment count
func (r DirectoryRow) Scrub() DirectoryRow {
	r.Enrollment = scrubValue(r.Enrollment)
	return r
}

// CostIndexRow is one district's geographic cost-of-living index. COLA
// is a multiplier centered on 1.0.
type CostIndexRow struct {
	Leaid string  `json:"leaid" csv:"leaid"`
	Fips  int     `json:"fips" csv:"fips"`
	Cola  float64 `json:"cola" csv:"cola"`
}

// Scrub replaces suppression codes with NaN in the index value
func (r CostIndexRow) Scrub() CostIndexRow {
	r.Cola = scrubValue(r.Cola)
	return r
}
