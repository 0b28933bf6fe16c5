// Package dataprocessing derives the analysis table from the raw
// survey datasets.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Adjuster: Applies the revenue methodology to raw finance rows
// 2. Reshaper: Pivots long-format enrollment by race into one row per district
// 3. Linker: Joins compositions, adjusted finance and the cost index
// into the linked district table with every derived column
//
// # Usage
//
// Adjust finance rows:
//
//	adjuster := dataprocessing.NewAdjuster(logger)
//	adjusted := adjuster.AdjustAll(financeRows)
//
// Pivot enrollment:
//
//	reshaper := dataprocessing.NewReshaper(logger)
//	compositions := reshaper.ReshapeEnrollment(enrollmentRows)
//
// Link everything:
//
//	linker := dataprocessing.NewLinker(logger, dataprocessing.LinkOptions{
//		ConcentrationThreshold: 75,
//		BinWidth:               10,
//	})
//	result := linker.LinkDistricts(compositions, adjusted, costIndexRows)
//
// # Data Flow
//
//	FinanceRows → Adjuster → AdjustedFinance ┐
//	EnrollmentRows → Reshaper → RaceComposition ┤→ Linker → LinkedDistrict + DropStats
//	CostIndexRows ┘
//
// # Missing Data
//
// Suppressed survey values arrive as NaN and propagate arithmetically
// through adjustment and pivoting. The linker's drop-missing step is
// the single place rows with undefined cells leave the pipeline, and
// every drop is counted in DropStats.
package dataprocessing
