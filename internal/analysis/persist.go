package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"edequity/pkg/contracts/domain"
)

// SaveRevenueByBin saves a revenue-by-bin table to a CSV file
func SaveRevenueByBin(rows []BinRevenue, outputPath string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no bin rows to save")
	}

	header := []string{"Bin", "Districts", "Students", "PerPupil_Total", "PerPupil_StateLocal"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			strconv.Itoa(row.Bin),
			strconv.Itoa(row.Districts),
			formatFloat(row.Students, 0),
			formatFloat(row.PerPupilTotal, 2),
			formatFloat(row.PerPupilStateLocal, 2),
		})
	}
	return writeCSV(outputPath, header, records)
}

// SaveComparison saves a concentration comparison table to a CSV file
func SaveComparison(table ComparisonTable, outputPath string) error {
	header := []string{"Category", "Districts", "Students", "PerPupil_Total", "PerPupil_StateLocal", "PercentDifference"}
	records := [][]string{
		{
			table.Minority.Label,
			strconv.Itoa(table.Minority.Districts),
			formatFloat(table.Minority.Students, 0),
			formatFloat(table.Minority.PerPupilTotal, 2),
			formatFloat(table.Minority.PerPupilStateLocal, 2),
			formatFloat(table.PercentDifference, 2),
		},
		{
			table.White.Label,
			strconv.Itoa(table.White.Districts),
			formatFloat(table.White.Students, 0),
			formatFloat(table.White.PerPupilTotal, 2),
			formatFloat(table.White.PerPupilStateLocal, 2),
			"",
		},
	}
	return writeCSV(outputPath, header, records)
}

// SaveNationalGaps saves the national exposure gap table to a CSV file
func SaveNationalGaps(gaps []ExposureGap, outputPath string) error {
	if len(gaps) == 0 {
		return fmt.Errorf("no gap rows to save")
	}

	header := []string{"Comparison", "Minority_PerPupil", "White_PerPupil", "PercentDifference"}
	records := make([][]string, 0, len(gaps))
	for _, gap := range gaps {
		records = append(records, []string{
			gap.Comparison,
			formatFloat(gap.MinorityPerPupil, 2),
			formatFloat(gap.WhitePerPupil, 2),
			formatFloat(gap.PercentDifference, 2),
		})
	}
	return writeCSV(outputPath, header, records)
}

// SaveStateGaps saves the per-state gap table to a CSV file
func SaveStateGaps(gaps []StateGap, outputPath string) error {
	if len(gaps) == 0 {
		return fmt.Errorf("no state rows to save")
	}

	header := []string{
		"FIPS", "State", "Black_PerPupil", "White_PerPupil", "Nonwhite_PerPupil",
		"BlackWhite_Gap_Pct", "NonwhiteWhite_Gap_Pct",
	}
	records := make([][]string, 0, len(gaps))
	for _, gap := range gaps {
		records = append(records, []string{
			strconv.Itoa(gap.Fips),
			gap.StateAbbr,
			formatFloat(gap.BlackPerPupil, 2),
			formatFloat(gap.WhitePerPupil, 2),
			formatFloat(gap.NonwhitePerPupil, 2),
			formatFloat(gap.BlackWhiteGapPct, 2),
			formatFloat(gap.NonwhiteWhiteGapPct, 2),
		})
	}
	return writeCSV(outputPath, header, records)
}

// SaveSourceBreakdown saves a revenue-by-source table to a CSV file
func SaveSourceBreakdown(rows []SourceBreakdown, outputPath string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no source rows to save")
	}

	header := []string{"Category", "Districts", "Students", "PerPupil_Federal", "PerPupil_State", "PerPupil_Local"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Category,
			strconv.Itoa(row.Districts),
			formatFloat(row.Students, 0),
			formatFloat(row.PerPupilFed, 2),
			formatFloat(row.PerPupilState, 2),
			formatFloat(row.PerPupilLocal, 2),
		})
	}
	return writeCSV(outputPath, header, records)
}

// writeCSV writes one table with its header
func writeCSV(outputPath string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record %d: %w", i, err)
		}
	}
	return writer.Error()
}

// formatFloat formats a float64 value for CSV output with specified precision
func formatFloat(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// SaveReportSetJSON saves the complete report set to a JSON file with
// run metadata.
func SaveReportSetJSON(set ReportSet, year, districts int, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"generated_at": time.Now().Format(time.RFC3339),
			"year":         year,
			"districts":    districts,
		},
		"reports": set,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// SummaryInfo carries run context into the narrative summary
type SummaryInfo struct {
	Year      int
	Districts int
	Drops     domain.DropStats
}

// SaveSummaryReport creates a plain-text summary of the analysis
func SaveSummaryReport(set ReportSet, info SummaryInfo, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "School District Revenue Equity - Summary Report\n")
	fmt.Fprintf(file, "================================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(file, "DATASET OVERVIEW\n")
	fmt.Fprintf(file, "----------------\n")
	fmt.Fprintf(file, "School Year: %d\n", info.Year)
	fmt.Fprintf(file, "Districts Linked: %d\n\n", info.Districts)

	fmt.Fprintf(file, "DROP ACCOUNTING\n")
	fmt.Fprintf(file, "---------------\n")
	fmt.Fprintf(file, "Missing Cost Index: %d\n", info.Drops.MissingCostIndex)
	fmt.Fprintf(file, "Non-Positive Enrollment: %d\n", info.Drops.NonPositiveEnrollment)
	fmt.Fprintf(file, "Negative Revenue: %d\n", info.Drops.NegativeRevenue)
	fmt.Fprintf(file, "Missing Values: %d (of which %d had no finance match)\n",
		info.Drops.MissingValues, info.Drops.MissingFinance)
	fmt.Fprintf(file, "Total Dropped: %d\n", info.Drops.DroppedTotal())
	fmt.Fprintf(file, "Kept: %d\n\n", info.Drops.Kept)

	fmt.Fprintf(file, "NATIONAL EXPOSURE GAPS (per-pupil, cost-adjusted)\n")
	fmt.Fprintf(file, "-------------------------------------------------\n")
	for _, gap := range set.NationalGaps {
		fmt.Fprintf(file, "%s: minority $%.2f vs white $%.2f (%+.2f%%)\n",
			gap.Comparison, gap.MinorityPerPupil, gap.WhitePerPupil, gap.PercentDifference)
	}
	fmt.Fprintf(file, "\n")

	fmt.Fprintf(file, "CONCENTRATED DISTRICTS (>= threshold share)\n")
	fmt.Fprintf(file, "-------------------------------------------\n")
	writeComparison(file, set.ComparisonByBlack)
	writeComparison(file, set.ComparisonByNonwhite)
	fmt.Fprintf(file, "\n")

	if n := len(set.StateGaps); n > 0 {
		fmt.Fprintf(file, "WIDEST BLACK/WHITE STATE GAPS\n")
		fmt.Fprintf(file, "-----------------------------\n")
		for i, gap := range set.StateGaps[:minInt(5, n)] {
			fmt.Fprintf(file, "%2d. %s: %+.2f%% (black $%.2f vs white $%.2f)\n",
				i+1, gap.StateAbbr, gap.BlackWhiteGapPct, gap.BlackPerPupil, gap.WhitePerPupil)
		}
		fmt.Fprintf(file, "\n")

		fmt.Fprintf(file, "NARROWEST BLACK/WHITE STATE GAPS\n")
		fmt.Fprintf(file, "--------------------------------\n")
		top := set.StateGaps[maxInt(0, n-5):]
		for i := len(top) - 1; i >= 0; i-- {
			gap := top[i]
			fmt.Fprintf(file, "%2d. %s: %+.2f%% (black $%.2f vs white $%.2f)\n",
				len(top)-i, gap.StateAbbr, gap.BlackWhiteGapPct, gap.BlackPerPupil, gap.WhitePerPupil)
		}
	}

	return nil
}

func writeComparison(file *os.File, table ComparisonTable) {
	fmt.Fprintf(file, "By %s: %s $%.2f (%d districts, %.0f students) vs white $%.2f (%d districts, %.0f students), gap %+.2f%%\n",
		table.Dimension,
		table.Minority.Label, table.Minority.PerPupilTotal, table.Minority.Districts, table.Minority.Students,
		table.White.PerPupilTotal, table.White.Districts, table.White.Students,
		table.PercentDifference)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
