package dataprocessing

import (
	"log/slog"
	"math"
	"sort"

	"edequity/internal/config"
	"edequity/internal/edudata"
	"edequity/pkg/contracts/domain"
)

// LinkOptions configures the linker's derived columns
type LinkOptions struct {
	// ConcentrationThreshold is the composition percentage at or above
	// which a district counts as concentrated (and at or below whose
	// complement it counts as white on the nonwhite dimension).
	ConcentrationThreshold float64

	// BinWidth is the width of the equal-width composition bins over
	// [0, 100].
	BinWidth float64
}

// LinkResult is the linked analysis table plus its drop accounting
type LinkResult struct {
	Districts []domain.LinkedDistrict
	Drops     domain.DropStats
}

// Linker joins the three derived datasets into the analysis table:
// composition drives, finance joins left, the cost index joins inner.
type Linker struct {
	logger *slog.Logger
	opts   LinkOptions
}

// NewLinker creates a district linker
func NewLinker(logger *slog.Logger, opts LinkOptions) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ConcentrationThreshold <= 0 {
		opts.ConcentrationThreshold = config.DefaultConcentrationThreshold
	}
	if opts.BinWidth <= 0 {
		opts.BinWidth = config.DefaultBinWidth
	}
	return &Linker{logger: logger, opts: opts}
}

// LinkDistricts links compositions to adjusted finance and the cost
// index, applies the inclusion filters, computes every derived column,
// and drops rows with undefined cells. Every drop is counted.
//
// The finance join is deliberately left: a district with enrollment but
// no finance record carries NaN revenue into the drop-missing step and
// is counted there, not silently discarded at the join.
func (l *Linker) LinkDistricts(
	compositions []domain.RaceComposition,
	adjusted []domain.AdjustedFinance,
	costIndex []edudata.CostIndexRow,
) LinkResult {
	financeByLeaid := make(map[string]domain.AdjustedFinance, len(adjusted))
	for _, fin := range adjusted {
		financeByLeaid[fin.Leaid] = fin
	}
	colaByLeaid := make(map[string]float64, len(costIndex))
	for _, row := range costIndex {
		colaByLeaid[row.Leaid] = row.Cola
	}

	var drops domain.DropStats
	linked := make([]domain.LinkedDistrict, 0, len(compositions))

	for _, comp := range compositions {
		fin, hasFinance := financeByLeaid[comp.Leaid]
		if !hasFinance {
			fin = missingFinance(comp.Leaid, comp.Fips)
			drops.MissingFinance++
		}

		cola, hasCola := colaByLeaid[comp.Leaid]
		if !hasCola {
			drops.MissingCostIndex++
			continue
		}

		// Inclusion filters operate on defined values only; NaN cells
		// pass through to the drop-missing step so they are counted as
		// missing, not misfiled under these buckets.
		if !math.IsNaN(comp.Total) && comp.Total <= 0 {
			drops.NonPositiveEnrollment++
			continue
		}
		if !math.IsNaN(fin.RevTotal) && fin.RevTotal < 0 {
			drops.NegativeRevenue++
			continue
		}

		row := l.deriveRow(comp, fin, cola)
		if row.HasMissingValues() {
			drops.MissingValues++
			continue
		}

		row.BinBlack = l.bin(row.PctBlack)
		row.BinNonwhite = l.bin(row.PctNonwhite)
		linked = append(linked, row)
	}

	sort.Slice(linked, func(i, j int) bool {
		return linked[i].Leaid < linked[j].Leaid
	})
	drops.Kept = len(linked)

	l.logger.Info("districts linked",
		slog.Int("compositions", len(compositions)),
		slog.Int("kept", drops.Kept),
		slog.Int("missing_cost_index", drops.MissingCostIndex),
		slog.Int("non_positive_enrollment", drops.NonPositiveEnrollment),
		slog.Int("negative_revenue", drops.NegativeRevenue),
		slog.Int("missing_values", drops.MissingValues),
		slog.Int("missing_finance", drops.MissingFinance))

	return LinkResult{Districts: linked, Drops: drops}
}

// missingFinance builds the NaN finance placeholder for a left-join miss
func missingFinance(leaid string, fips int) domain.AdjustedFinance {
	nan := math.NaN()
	return domain.AdjustedFinance{
		Leaid:         leaid,
		Fips:          fips,
		RevTotal:      nan,
		RevFedTotal:   nan,
		RevStateTotal: nan,
		RevLocalTotal: nan,
		PctFed:        nan,
		PctState:      nan,
		PctLocal:      nan,
		AdjFed:        nan,
		AdjState:      nan,
		AdjLocal:      nan,
		AdjStateLocal: nan,
		AdjTotal:      nan,
	}
}

// deriveRow computes every derived column from the joined fields
func (l *Linker) deriveRow(comp domain.RaceComposition, fin domain.AdjustedFinance, cola float64) domain.LinkedDistrict {
	row := domain.LinkedDistrict{
		Leaid: comp.Leaid,
		Fips:  comp.Fips,

		Enrollment:      comp.Total,
		White:           comp.White,
		Black:           comp.Black,
		Hispanic:        comp.Hispanic,
		Asian:           comp.Asian,
		AmericanIndian:  comp.AmericanIndian,
		PacificIslander: comp.PacificIslander,
		TwoOrMore:       comp.TwoOrMore,
		Unknown:         comp.Unknown,
		Other:           comp.Other,

		RevTotal:      fin.RevTotal,
		AdjFed:        fin.AdjFed,
		AdjState:      fin.AdjState,
		AdjLocal:      fin.AdjLocal,
		AdjStateLocal: fin.AdjStateLocal,
		AdjTotal:      fin.AdjTotal,

		COLA: cola,
	}

	row.AdjFedCOLA = row.AdjFed * cola
	row.AdjStateCOLA = row.AdjState * cola
	row.AdjLocalCOLA = row.AdjLocal * cola
	row.AdjStateLocalCOLA = row.AdjStateLocal * cola
	row.AdjTotalCOLA = row.AdjTotal * cola

	row.PerPupilFed = row.AdjFedCOLA / row.Enrollment
	row.PerPupilState = row.AdjStateCOLA / row.Enrollment
	row.PerPupilLocal = row.AdjLocalCOLA / row.Enrollment
	row.PerPupilStateLocal = row.AdjStateLocalCOLA / row.Enrollment
	row.PerPupilTotal = row.AdjTotalCOLA / row.Enrollment

	row.PctBlack = row.Black / row.Enrollment * 100
	row.PctHispanic = row.Hispanic / row.Enrollment * 100
	row.PctWhite = row.White / row.Enrollment * 100
	// Exact complement, not the sum of the nonwhite categories.
	row.PctNonwhite = 100 - row.PctWhite

	row.ConcentrationByNonwhite = l.concentrationByNonwhite(row.PctNonwhite)
	row.ConcentrationByBlack = l.concentrationByBlack(row.PctBlack, row.PctWhite)
	return row
}

func (l *Linker) concentrationByNonwhite(pctNonwhite float64) domain.Concentration {
	threshold := l.opts.ConcentrationThreshold
	switch {
	case pctNonwhite >= threshold:
		return domain.ConcentrationNonwhite
	case pctNonwhite <= 100-threshold:
		return domain.ConcentrationWhite
	default:
		return domain.NotConcentrated
	}
}

// concentrationByBlack tests pctWhite (not pctBlack's complement) on
// the white side. The asymmetry is the source methodology's.
func (l *Linker) concentrationByBlack(pctBlack, pctWhite float64) domain.Concentration {
	threshold := l.opts.ConcentrationThreshold
	switch {
	case pctBlack >= threshold:
		return domain.ConcentrationBlack
	case pctWhite >= threshold:
		return domain.ConcentrationWhite
	default:
		return domain.NotConcentrated
	}
}

// bin discretizes a composition percentage into equal-width bins
// labeled by upper bound: half-open (lo, hi] with the lowest bin
// closed, so 0 lands in the first bin and each boundary value in the
// bin it closes.
func (l *Linker) bin(pct float64) int {
	idx := math.Ceil(pct / l.opts.BinWidth)
	if idx < 1 {
		idx = 1
	}
	if max := math.Ceil(100 / l.opts.BinWidth); idx > max {
		idx = max
	}
	return int(math.Round(idx * l.opts.BinWidth))
}
