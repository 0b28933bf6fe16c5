package dataprocessing

import (
	"log/slog"
	"math"

	"edequity/internal/edudata"
	"edequity/pkg/contracts/domain"
)

// Adjuster applies the revenue methodology to raw finance rows:
// capital outlay out of state revenue, property-sale proceeds out of
// local revenue, and charter payments reallocated out of each source in
// proportion to its share of unadjusted total revenue.
type Adjuster struct {
	logger *slog.Logger
}

// NewAdjuster creates a revenue adjuster
func NewAdjuster(logger *slog.Logger) *Adjuster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adjuster{logger: logger}
}

// share returns part/total, or NaN when total is zero. Districts with
// zero total revenue get undefined shares and are dropped downstream,
// never divided into infinities.
func share(part, total float64) float64 {
	if total == 0 {
		return math.NaN()
	}
	return part / total
}

// AdjustFinance derives the adjusted revenue figures for one district.
// Pure: NaN inputs propagate, nothing is rejected here.
func (a *Adjuster) AdjustFinance(row edudata.FinanceRow) domain.AdjustedFinance {
	pctFed := share(row.RevFedTotal, row.RevTotal)
	pctState := share(row.RevStateTotal, row.RevTotal)
	pctLocal := share(row.RevLocalTotal, row.RevTotal)

	adjState := row.RevStateTotal - row.RevStateCapitalOutlay
	adjLocal := row.RevLocalTotal - row.RevLocalPropertySale

	adjLocal -= row.PaymentsCharterSchools * pctLocal
	adjState -= row.PaymentsCharterSchools * pctState

	// The federal deduction multiplies the STATE share, not the federal
	// one. The source methodology does this; changing it changes every
	// published figure.
	adjFed := row.RevFedTotal - row.PaymentsCharterSchools*pctState

	return domain.AdjustedFinance{
		Leaid:         row.Leaid,
		Fips:          row.Fips,
		RevTotal:      row.RevTotal,
		RevFedTotal:   row.RevFedTotal,
		RevStateTotal: row.RevStateTotal,
		RevLocalTotal: row.RevLocalTotal,
		PctFed:        pctFed,
		PctState:      pctState,
		PctLocal:      pctLocal,
		AdjFed:        adjFed,
		AdjState:      adjState,
		AdjLocal:      adjLocal,
		AdjStateLocal: adjState + adjLocal,
		AdjTotal:      adjFed + adjState + adjLocal,
	}
}

// AdjustAll adjusts every row, preserving input order
func (a *Adjuster) AdjustAll(rows []edudata.FinanceRow) []domain.AdjustedFinance {
	adjusted := make([]domain.AdjustedFinance, 0, len(rows))

	nanShares := 0
	for _, row := range rows {
		result := a.AdjustFinance(row)
		if math.IsNaN(result.PctFed) || math.IsNaN(result.PctState) || math.IsNaN(result.PctLocal) {
			nanShares++
		}
		adjusted = append(adjusted, result)
	}

	a.logger.Info("finance adjustment complete",
		slog.Int("rows", len(rows)),
		slog.Int("nan_shares", nanShares))
	return adjusted
}
