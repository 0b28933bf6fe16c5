package analysis

import (
	"log/slog"
	"sort"

	"edequity/pkg/contracts/domain"
)

// revenueAccum accumulates group totals for weighted per-pupil figures
type revenueAccum struct {
	districts     int
	students      float64
	revTotal      float64
	revStateLocal float64
	revFed        float64
	revState      float64
	revLocal      float64
}

func (a *revenueAccum) add(d domain.LinkedDistrict) {
	a.districts++
	a.students += d.Enrollment
	a.revTotal += d.AdjTotalCOLA
	a.revStateLocal += d.AdjStateLocalCOLA
	a.revFed += d.AdjFedCOLA
	a.revState += d.AdjStateCOLA
	a.revLocal += d.AdjLocalCOLA
}

// weighted divides group revenue by group enrollment. This is the only
// correct aggregation: averaging district-level ratios would weight a
// 100-student district equally with a 100,000-student one.
func weighted(revenue, students float64) float64 {
	if students == 0 {
		return 0
	}
	return revenue / students
}

// percentDifference returns (minority − white) / white × 100
func percentDifference(minority, white float64) float64 {
	if white == 0 {
		return 0
	}
	return (minority - white) / white * 100
}

// RevenueByBin groups districts by their demographic-share bin and
// returns enrollment-weighted per-pupil revenue per bin, ascending.
// Only bins with at least one district appear.
func RevenueByBin(districts []domain.LinkedDistrict, dim BinDimension) []BinRevenue {
	accums := make(map[int]*revenueAccum)
	for _, d := range districts {
		bin := dim.binOf(d)
		a, ok := accums[bin]
		if !ok {
			a = &revenueAccum{}
			accums[bin] = a
		}
		a.add(d)
	}

	bins := make([]int, 0, len(accums))
	for bin := range accums {
		bins = append(bins, bin)
	}
	sort.Ints(bins)

	rows := make([]BinRevenue, 0, len(bins))
	for _, bin := range bins {
		a := accums[bin]
		rows = append(rows, BinRevenue{
			Bin:                bin,
			Districts:          a.districts,
			Students:           a.students,
			PerPupilTotal:      weighted(a.revTotal, a.students),
			PerPupilStateLocal: weighted(a.revStateLocal, a.students),
		})
	}
	return rows
}

// ConcentrationComparison compares the two concentration poles on a
// dimension. NotConcentrated districts are excluded from both rows.
func ConcentrationComparison(districts []domain.LinkedDistrict, dim ConcentrationDimension) ComparisonTable {
	var minority, white revenueAccum
	minorityPole := dim.minorityPole()

	for _, d := range districts {
		switch dim.categoryOf(d) {
		case minorityPole:
			minority.add(d)
		case domain.ConcentrationWhite:
			white.add(d)
		}
	}

	table := ComparisonTable{
		Dimension: dim,
		Minority: ComparisonRow{
			Label:              string(minorityPole),
			Districts:          minority.districts,
			Students:           minority.students,
			PerPupilTotal:      weighted(minority.revTotal, minority.students),
			PerPupilStateLocal: weighted(minority.revStateLocal, minority.students),
		},
		White: ComparisonRow{
			Label:              string(domain.ConcentrationWhite),
			Districts:          white.districts,
			Students:           white.students,
			PerPupilTotal:      weighted(white.revTotal, white.students),
			PerPupilStateLocal: weighted(white.revStateLocal, white.students),
		},
	}
	table.PercentDifference = percentDifference(table.Minority.PerPupilTotal, table.White.PerPupilTotal)
	return table
}

// exposureAccum accumulates exposure-weighted per-pupil revenue: the
// average per-pupil figure experienced by a student of the group, with
// each district's figure weighted by how many of the group's students
// attend it.
type exposureAccum struct {
	weightedRevenue float64
	enrollment      float64
}

func (a *exposureAccum) add(perPupil, groupEnrollment float64) {
	a.weightedRevenue += perPupil * groupEnrollment
	a.enrollment += groupEnrollment
}

func (a *exposureAccum) value() float64 {
	return weighted(a.weightedRevenue, a.enrollment)
}

// NationalGaps computes the national exposure-weighted per-pupil
// revenue for black, white and nonwhite students, returning the
// black-vs-white and nonwhite-vs-white comparisons.
func NationalGaps(districts []domain.LinkedDistrict) []ExposureGap {
	var black, white, nonwhite exposureAccum

	for _, d := range districts {
		black.add(d.PerPupilTotal, d.Black)
		white.add(d.PerPupilTotal, d.White)
		nonwhite.add(d.PerPupilTotal, d.Enrollment-d.White)
	}

	blackPP := black.value()
	whitePP := white.value()
	nonwhitePP := nonwhite.value()

	return []ExposureGap{
		{
			Comparison:        "black_vs_white",
			MinorityPerPupil:  blackPP,
			WhitePerPupil:     whitePP,
			PercentDifference: percentDifference(blackPP, whitePP),
		},
		{
			Comparison:        "nonwhite_vs_white",
			MinorityPerPupil:  nonwhitePP,
			WhitePerPupil:     whitePP,
			PercentDifference: percentDifference(nonwhitePP, whitePP),
		},
	}
}

// StateGaps computes per-state exposure-weighted figures. States where
// any group has zero enrollment are skipped and logged: a gap against an
// empty group is undefined, not zero. Sorted ascending by the
// black/white gap, so the widest shortfalls lead.
func StateGaps(districts []domain.LinkedDistrict, logger *slog.Logger) []StateGap {
	if logger == nil {
		logger = slog.Default()
	}

	type stateAccum struct {
		black, white, nonwhite exposureAccum
	}
	byState := make(map[int]*stateAccum)

	for _, d := range districts {
		a, ok := byState[d.Fips]
		if !ok {
			a = &stateAccum{}
			byState[d.Fips] = a
		}
		a.black.add(d.PerPupilTotal, d.Black)
		a.white.add(d.PerPupilTotal, d.White)
		a.nonwhite.add(d.PerPupilTotal, d.Enrollment-d.White)
	}

	gaps := make([]StateGap, 0, len(byState))
	for fips, a := range byState {
		if a.black.enrollment == 0 || a.white.enrollment == 0 || a.nonwhite.enrollment == 0 {
			logger.Warn("state skipped in gap table: empty demographic group",
				slog.Int("fips", fips),
				slog.String("state", StateAbbr(fips)),
				slog.Float64("black_students", a.black.enrollment),
				slog.Float64("white_students", a.white.enrollment),
				slog.Float64("nonwhite_students", a.nonwhite.enrollment))
			continue
		}

		blackPP := a.black.value()
		whitePP := a.white.value()
		nonwhitePP := a.nonwhite.value()

		gaps = append(gaps, StateGap{
			Fips:                fips,
			StateAbbr:           StateAbbr(fips),
			BlackPerPupil:       blackPP,
			WhitePerPupil:       whitePP,
			NonwhitePerPupil:    nonwhitePP,
			BlackWhiteGapPct:    percentDifference(blackPP, whitePP),
			NonwhiteWhiteGapPct: percentDifference(nonwhitePP, whitePP),
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].BlackWhiteGapPct == gaps[j].BlackWhiteGapPct {
			return gaps[i].Fips < gaps[j].Fips
		}
		return gaps[i].BlackWhiteGapPct < gaps[j].BlackWhiteGapPct
	})
	return gaps
}

// RevenueBySource splits weighted per-pupil revenue by source for each
// concentration category on a dimension, including NotConcentrated.
func RevenueBySource(districts []domain.LinkedDistrict, dim ConcentrationDimension) []SourceBreakdown {
	order := []domain.Concentration{
		dim.minorityPole(),
		domain.ConcentrationWhite,
		domain.NotConcentrated,
	}

	accums := make(map[domain.Concentration]*revenueAccum, len(order))
	for _, cat := range order {
		accums[cat] = &revenueAccum{}
	}

	for _, d := range districts {
		if a, ok := accums[dim.categoryOf(d)]; ok {
			a.add(d)
		}
	}

	rows := make([]SourceBreakdown, 0, len(order))
	for _, cat := range order {
		a := accums[cat]
		rows = append(rows, SourceBreakdown{
			Category:      string(cat),
			Districts:     a.districts,
			Students:      a.students,
			PerPupilFed:   weighted(a.revFed, a.students),
			PerPupilState: weighted(a.revState, a.students),
			PerPupilLocal: weighted(a.revLocal, a.students),
		})
	}
	return rows
}

// BuildReports runs every aggregation over the linked table
func BuildReports(districts []domain.LinkedDistrict, logger *slog.Logger) ReportSet {
	if logger == nil {
		logger = slog.Default()
	}

	set := ReportSet{
		RevenueByBinBlack:    RevenueByBin(districts, BinByBlack),
		RevenueByBinNonwhite: RevenueByBin(districts, BinByNonwhite),
		ComparisonByBlack:    ConcentrationComparison(districts, ConcentrationByBlack),
		ComparisonByNonwhite: ConcentrationComparison(districts, ConcentrationByNonwhite),
		NationalGaps:         NationalGaps(districts),
		StateGaps:            StateGaps(districts, logger),
		SourcesByBlack:       RevenueBySource(districts, ConcentrationByBlack),
		SourcesByNonwhite:    RevenueBySource(districts, ConcentrationByNonwhite),
	}

	logger.Info("summary reports built",
		slog.Int("districts", len(districts)),
		slog.Int("bin_rows_black", len(set.RevenueByBinBlack)),
		slog.Int("bin_rows_nonwhite", len(set.RevenueByBinNonwhite)),
		slog.Int("state_gap_rows", len(set.StateGaps)))

	return set
}
