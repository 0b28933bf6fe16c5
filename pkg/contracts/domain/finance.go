package domain

import (
	"math"
)

// AdjustedFinance holds one district's revenue figures after the
// methodology exclusions have been applied: capital outlay removed from
// state revenue, property-sale proceeds removed from local revenue, and
// charter-school payments reallocated out of each source in proportion
// to that source's share of unadjusted total revenue.
//
// The unadjusted totals are carried alongside the adjusted figures
// because downstream filters (total revenue >= 0) and share audits
// operate on the raw values.
type AdjustedFinance struct {
	Leaid string `json:"leaid" validate:"required"`
	Fips  int    `json:"fips"`

	// Unadjusted totals as reported by the finance survey.
	RevTotal      float64 `json:"rev_total"`
	RevFedTotal   float64 `json:"rev_fed_total"`
	RevStateTotal float64 `json:"rev_state_total"`
	RevLocalTotal float64 `json:"rev_local_total"`

	// Source shares of unadjusted total revenue. NaN when RevTotal is zero.
	PctFed   float64 `json:"pct_fed"`
	PctState float64 `json:"pct_state"`
	PctLocal float64 `json:"pct_local"`

	// Adjusted figures.
	AdjFed        float64 `json:"adj_fed"`
	AdjState      float64 `json:"adj_state"`
	AdjLocal      float64 `json:"adj_local"`
	AdjStateLocal float64 `json:"adj_state_local"`
	AdjTotal      float64 `json:"adj_total"`
}

// HasCompleteRevenue reports whether every adjusted figure is a defined
// number. Rows fetched with suppressed or missing source fields carry
// NaN through the adjustment and fail this check.
func (f AdjustedFinance) HasCompleteRevenue() bool {
	for _, v := range []float64{
		f.RevTotal, f.AdjFed, f.AdjState, f.AdjLocal, f.AdjStateLocal, f.AdjTotal,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
