package analysis

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edequity/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// district builds a minimal linked row for aggregation tests
func district(leaid string, fips int, enrollment, revTotal float64) domain.LinkedDistrict {
	return domain.LinkedDistrict{
		Leaid:             leaid,
		Fips:              fips,
		Enrollment:        enrollment,
		AdjTotalCOLA:      revTotal,
		AdjStateLocalCOLA: revTotal * 0.9,
		AdjFedCOLA:        revTotal * 0.1,
		AdjStateCOLA:      revTotal * 0.5,
		AdjLocalCOLA:      revTotal * 0.4,
		PerPupilTotal:     revTotal / enrollment,
	}
}

// TestWeightedPerPupil verifies groups are aggregated as total revenue
// over total enrollment, not as a mean of district-level ratios.
func TestWeightedPerPupil(t *testing.T) {
	small := district("0100001", 1, 100, 2_000_000) // $20,000 per pupil
	large := district("0100002", 1, 900, 9_000_000) // $10,000 per pupil
	small.BinBlack = 10
	large.BinBlack = 10

	rows := RevenueByBin([]domain.LinkedDistrict{small, large}, BinByBlack)
	require.Len(t, rows, 1)

	// 11,000,000 / 1,000 students
	assert.InDelta(t, 11_000.0, rows[0].PerPupilTotal, 0.001)
	// The naive mean of ratios would give 15,000
	assert.Greater(t, math.Abs(rows[0].PerPupilTotal-15_000.0), 1_000.0)
	assert.Equal(t, 2, rows[0].Districts)
	assert.InDelta(t, 1_000.0, rows[0].Students, 0.001)
}

func TestPercentDifference(t *testing.T) {
	tests := []struct {
		name     string
		minority float64
		white    float64
		expected float64
	}{
		{"minority below white", 9_000, 10_000, -10},
		{"minority above white", 11_000, 10_000, 10},
		{"equal", 10_000, 10_000, 0},
		{"zero white guard", 10_000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, percentDifference(tt.minority, tt.white), 0.0001)
		})
	}
}

func TestRevenueByBin(t *testing.T) {
	d1 := district("0100001", 1, 100, 1_000_000)
	d1.BinBlack = 10
	d2 := district("0100002", 1, 200, 2_400_000)
	d2.BinBlack = 50
	d3 := district("0100003", 1, 300, 3_000_000)
	d3.BinBlack = 50

	rows := RevenueByBin([]domain.LinkedDistrict{d3, d1, d2}, BinByBlack)
	require.Len(t, rows, 2, "only observed bins should appear")

	assert.Equal(t, 10, rows[0].Bin)
	assert.Equal(t, 1, rows[0].Districts)
	assert.InDelta(t, 10_000.0, rows[0].PerPupilTotal, 0.001)

	assert.Equal(t, 50, rows[1].Bin)
	assert.Equal(t, 2, rows[1].Districts)
	assert.InDelta(t, 5_400_000.0/500.0, rows[1].PerPupilTotal, 0.001)
	assert.InDelta(t, 0.9*5_400_000.0/500.0, rows[1].PerPupilStateLocal, 0.001)
}

func TestRevenueByBinDimensions(t *testing.T) {
	d := district("0100001", 1, 100, 1_000_000)
	d.BinBlack = 20
	d.BinNonwhite = 80

	byBlack := RevenueByBin([]domain.LinkedDistrict{d}, BinByBlack)
	byNonwhite := RevenueByBin([]domain.LinkedDistrict{d}, BinByNonwhite)

	require.Len(t, byBlack, 1)
	require.Len(t, byNonwhite, 1)
	assert.Equal(t, 20, byBlack[0].Bin)
	assert.Equal(t, 80, byNonwhite[0].Bin)
}

func TestConcentrationComparison(t *testing.T) {
	concentrated := district("0100001", 1, 1_000, 9_000_000)
	concentrated.ConcentrationByBlack = domain.ConcentrationBlack
	whiteSide := district("0100002", 1, 500, 5_500_000)
	whiteSide.ConcentrationByBlack = domain.ConcentrationWhite
	middle := district("0100003", 1, 10_000, 500_000_000)
	middle.ConcentrationByBlack = domain.NotConcentrated

	table := ConcentrationComparison(
		[]domain.LinkedDistrict{concentrated, whiteSide, middle}, ConcentrationByBlack)

	assert.Equal(t, ConcentrationByBlack, table.Dimension)
	assert.Equal(t, "black", table.Minority.Label)
	assert.Equal(t, "white", table.White.Label)

	// NotConcentrated must not leak into either pole
	assert.Equal(t, 1, table.Minority.Districts)
	assert.Equal(t, 1, table.White.Districts)

	assert.InDelta(t, 9_000.0, table.Minority.PerPupilTotal, 0.001)
	assert.InDelta(t, 11_000.0, table.White.PerPupilTotal, 0.001)
	assert.InDelta(t, -18.1818, table.PercentDifference, 0.001)
}

func TestConcentrationComparisonNonwhitePole(t *testing.T) {
	d := district("0100001", 1, 100, 1_000_000)
	d.ConcentrationByNonwhite = domain.ConcentrationNonwhite

	table := ConcentrationComparison([]domain.LinkedDistrict{d}, ConcentrationByNonwhite)
	assert.Equal(t, "nonwhite", table.Minority.Label)
	assert.Equal(t, 1, table.Minority.Districts)
	assert.Equal(t, 0, table.White.Districts)
	assert.Zero(t, table.White.PerPupilTotal)
	assert.Zero(t, table.PercentDifference, "empty white pole must not divide by zero")
}

// TestNationalGaps verifies exposure weighting: each district's
// per-pupil figure counts once per student of the group enrolled there.
func TestNationalGaps(t *testing.T) {
	// Poor district: mostly black enrollment, $8,000 per pupil.
	poor := district("0100001", 1, 1_000, 8_000_000)
	poor.Black = 800
	poor.White = 200

	// Rich district: mostly white enrollment, $14,000 per pupil.
	rich := district("0100002", 1, 1_000, 14_000_000)
	rich.Black = 100
	rich.White = 900

	gaps := NationalGaps([]domain.LinkedDistrict{poor, rich})
	require.Len(t, gaps, 2)

	blackWhite := gaps[0]
	assert.Equal(t, "black_vs_white", blackWhite.Comparison)
	// (800×8000 + 100×14000) / 900
	assert.InDelta(t, 7_800_000.0/900.0, blackWhite.MinorityPerPupil, 0.001)
	// (200×8000 + 900×14000) / 1100
	assert.InDelta(t, 14_200_000.0/1_100.0, blackWhite.WhitePerPupil, 0.001)
	assert.Less(t, blackWhite.PercentDifference, 0.0)

	nonwhiteWhite := gaps[1]
	assert.Equal(t, "nonwhite_vs_white", nonwhiteWhite.Comparison)
	// Nonwhite enrollment is the complement of white, not the sum of
	// named categories: 800 and 100 here.
	assert.InDelta(t, 7_800_000.0/900.0, nonwhiteWhite.MinorityPerPupil, 0.001)
}

func TestStateGaps(t *testing.T) {
	// Alabama: wide gap.
	alPoor := district("0100001", 1, 1_000, 8_000_000)
	alPoor.Black = 900
	alPoor.White = 100
	alRich := district("0100002", 1, 1_000, 14_000_000)
	alRich.Black = 100
	alRich.White = 900

	// Alaska: no gap, both groups in the same district.
	ak := district("0200001", 2, 1_000, 10_000_000)
	ak.Black = 500
	ak.White = 500

	// Arizona: zero black enrollment, must be skipped.
	az := district("0400001", 4, 1_000, 10_000_000)
	az.Black = 0
	az.White = 400

	gaps := StateGaps([]domain.LinkedDistrict{ak, alPoor, alRich, az}, discardLogger())
	require.Len(t, gaps, 2, "state with an empty group must be skipped")

	// Ascending by gap: Alabama's shortfall sorts first.
	assert.Equal(t, "AL", gaps[0].StateAbbr)
	assert.Equal(t, 1, gaps[0].Fips)
	assert.Less(t, gaps[0].BlackWhiteGapPct, 0.0)

	assert.Equal(t, "AK", gaps[1].StateAbbr)
	assert.InDelta(t, 0.0, gaps[1].BlackWhiteGapPct, 0.0001)
}

func TestStateGapsTieBreak(t *testing.T) {
	mk := func(leaid string, fips int) domain.LinkedDistrict {
		d := district(leaid, fips, 1_000, 10_000_000)
		d.Black = 500
		d.White = 500
		return d
	}

	gaps := StateGaps([]domain.LinkedDistrict{mk("0600001", 6), mk("0100001", 1)}, discardLogger())
	require.Len(t, gaps, 2)
	assert.Equal(t, 1, gaps[0].Fips, "equal gaps order by FIPS")
	assert.Equal(t, 6, gaps[1].Fips)
}

func TestRevenueBySource(t *testing.T) {
	concentrated := district("0100001", 1, 1_000, 10_000_000)
	concentrated.ConcentrationByBlack = domain.ConcentrationBlack
	whiteSide := district("0100002", 1, 2_000, 24_000_000)
	whiteSide.ConcentrationByBlack = domain.ConcentrationWhite
	middle := district("0100003", 1, 4_000, 40_000_000)
	middle.ConcentrationByBlack = domain.NotConcentrated

	rows := RevenueBySource(
		[]domain.LinkedDistrict{middle, whiteSide, concentrated}, ConcentrationByBlack)
	require.Len(t, rows, 3)

	assert.Equal(t, "black", rows[0].Category)
	assert.Equal(t, "white", rows[1].Category)
	assert.Equal(t, "NotConcentrated", rows[2].Category)

	// Source split follows the fixture's 10/50/40 proportions.
	assert.InDelta(t, 1_000.0, rows[0].PerPupilFed, 0.001)
	assert.InDelta(t, 5_000.0, rows[0].PerPupilState, 0.001)
	assert.InDelta(t, 4_000.0, rows[0].PerPupilLocal, 0.001)

	assert.Equal(t, 1, rows[0].Districts)
	assert.Equal(t, 1, rows[1].Districts)
	assert.Equal(t, 1, rows[2].Districts)
}

func TestBuildReports(t *testing.T) {
	d1 := district("0100001", 1, 1_000, 9_000_000)
	d1.Black = 800
	d1.White = 200
	d1.BinBlack = 80
	d1.BinNonwhite = 80
	d1.ConcentrationByBlack = domain.ConcentrationBlack
	d1.ConcentrationByNonwhite = domain.ConcentrationNonwhite

	d2 := district("0100002", 1, 1_000, 12_000_000)
	d2.Black = 100
	d2.White = 900
	d2.BinBlack = 10
	d2.BinNonwhite = 10
	d2.ConcentrationByBlack = domain.ConcentrationWhite
	d2.ConcentrationByNonwhite = domain.ConcentrationWhite

	set := BuildReports([]domain.LinkedDistrict{d1, d2}, discardLogger())

	assert.Len(t, set.RevenueByBinBlack, 2)
	assert.Len(t, set.RevenueByBinNonwhite, 2)
	assert.Len(t, set.NationalGaps, 2)
	assert.Len(t, set.StateGaps, 1)
	assert.Len(t, set.SourcesByBlack, 3)
	assert.Len(t, set.SourcesByNonwhite, 3)
	assert.Equal(t, 1, set.ComparisonByBlack.Minority.Districts)
	assert.Equal(t, 1, set.ComparisonByNonwhite.White.Districts)
}

func TestBuildReportsEmpty(t *testing.T) {
	set := BuildReports(nil, discardLogger())

	assert.Empty(t, set.RevenueByBinBlack)
	assert.Empty(t, set.StateGaps)
	require.Len(t, set.NationalGaps, 2)
	assert.Zero(t, set.NationalGaps[0].MinorityPerPupil)
	assert.Zero(t, set.NationalGaps[0].PercentDifference)
}
