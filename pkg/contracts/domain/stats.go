package domain

// DropStats accounts for every row removed while linking the datasets.
// The counts make sample shrinkage auditable: a run summary showing how
// many districts were lost, and why, ships with every report.
type DropStats struct {
	// MissingFinance counts enrollment rows that found no finance match
	// at the join. Informational: these rows survive to the missing-value
	// sweep, where they are removed and counted under MissingValues.
	MissingFinance int `json:"missing_finance"`

	// MissingCostIndex counts rows removed at the cost index join
	MissingCostIndex int `json:"missing_cost_index"`

	// NonPositiveEnrollment counts rows with zero or negative enrollment
	NonPositiveEnrollment int `json:"non_positive_enrollment"`

	// NegativeRevenue counts rows with defined negative total revenue
	NegativeRevenue int `json:"negative_revenue"`

	// MissingValues counts rows removed by the final NaN sweep
	MissingValues int `json:"missing_values"`

	// Kept is the number of districts in the linked table
	Kept int `json:"kept"`
}

// DroppedTotal returns the number of rows actually removed. MissingFinance
// is excluded: those rows are still present until the missing-value sweep
// counts them.
func (s DropStats) DroppedTotal() int {
	return s.MissingCostIndex + s.NonPositiveEnrollment + s.NegativeRevenue + s.MissingValues
}
