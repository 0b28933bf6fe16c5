package exporter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"edequity/internal/analysis"
	"edequity/internal/config"
)

// Sheet names in workbook order
const (
	sheetOverview       = "Overview"
	sheetNationalGaps   = "National Gaps"
	sheetStateGaps      = "State Gaps"
	sheetBinBlack       = "Revenue by Bin (Black)"
	sheetBinNonwhite    = "Revenue by Bin (Nonwhite)"
	sheetConcentration  = "Concentration"
	sheetSourceBlack    = "Sources (Black)"
	sheetSourceNonwhite = "Sources (Nonwhite)"
)

// ExcelReporter writes the complete report set into a single workbook,
// one sheet per summary table, with charts on the headline tables.
type ExcelReporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewExcelReporter creates an Excel reporter
func NewExcelReporter(paths *config.Paths, logger *slog.Logger) *ExcelReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelReporter{
		paths:  paths,
		logger: logger,
	}
}

// WriteWorkbook builds the equity workbook and returns the path written
func (r *ExcelReporter) WriteWorkbook(set analysis.ReportSet, info analysis.SummaryInfo) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the overview page.
	if err := f.SetSheetName("Sheet1", sheetOverview); err != nil {
		return "", fmt.Errorf("rename default sheet: %w", err)
	}
	if err := r.writeOverview(f, info); err != nil {
		return "", err
	}

	if err := r.writeNationalGaps(f, set.NationalGaps); err != nil {
		return "", err
	}
	if err := r.writeStateGaps(f, set.StateGaps); err != nil {
		return "", err
	}
	if err := r.writeBinSheet(f, sheetBinBlack, "black", set.RevenueByBinBlack); err != nil {
		return "", err
	}
	if err := r.writeBinSheet(f, sheetBinNonwhite, "nonwhite", set.RevenueByBinNonwhite); err != nil {
		return "", err
	}
	if err := r.writeConcentration(f, set.ComparisonByBlack, set.ComparisonByNonwhite); err != nil {
		return "", err
	}
	if err := r.writeSources(f, sheetSourceBlack, set.SourcesByBlack); err != nil {
		return "", err
	}
	if err := r.writeSources(f, sheetSourceNonwhite, set.SourcesByNonwhite); err != nil {
		return "", err
	}

	path := r.paths.EquityWorkbook
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	r.logger.Info("equity workbook written",
		slog.String("path", path),
		slog.Int("state_rows", len(set.StateGaps)))
	return path, nil
}

// newSheet creates a sheet and writes its bold header row
func (r *ExcelReporter) newSheet(f *excelize.File, sheet string, headers []string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return r.writeHeader(f, sheet, headers)
}

func (r *ExcelReporter) writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell %d on %s: %w", i, sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write header on %s: %w", sheet, err)
		}
	}

	styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, styleID)
}

// setRow writes one record of typed cells starting at column A
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell %d,%d on %s: %w", i, row, sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("write cell %s on %s: %w", cell, sheet, err)
		}
	}
	return nil
}

func (r *ExcelReporter) writeOverview(f *excelize.File, info analysis.SummaryInfo) error {
	rows := [][]interface{}{
		{"School District Revenue Equity Report"},
		{},
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{"School Year", info.Year},
		{"Districts Linked", info.Districts},
		{},
		{"Drop Accounting"},
		{"Missing Cost Index", info.Drops.MissingCostIndex},
		{"Non-Positive Enrollment", info.Drops.NonPositiveEnrollment},
		{"Negative Revenue", info.Drops.NegativeRevenue},
		{"Missing Values", info.Drops.MissingValues},
		{"Total Dropped", info.Drops.DroppedTotal()},
	}
	for i, row := range rows {
		if err := setRow(f, sheetOverview, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeNationalGaps(f *excelize.File, gaps []analysis.ExposureGap) error {
	headers := []string{"Comparison", "Minority Per-Pupil", "White Per-Pupil", "Gap %"}
	if err := r.newSheet(f, sheetNationalGaps, headers); err != nil {
		return err
	}
	for i, gap := range gaps {
		row := []interface{}{gap.Comparison, gap.MinorityPerPupil, gap.WhitePerPupil, gap.PercentDifference}
		if err := setRow(f, sheetNationalGaps, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeStateGaps(f *excelize.File, gaps []analysis.StateGap) error {
	headers := []string{"FIPS", "State", "Black Per-Pupil", "White Per-Pupil", "Nonwhite Per-Pupil", "Black/White Gap %", "Nonwhite/White Gap %"}
	if err := r.newSheet(f, sheetStateGaps, headers); err != nil {
		return err
	}
	for i, gap := range gaps {
		row := []interface{}{
			gap.Fips, gap.StateAbbr,
			gap.BlackPerPupil, gap.WhitePerPupil, gap.NonwhitePerPupil,
			gap.BlackWhiteGapPct, gap.NonwhiteWhiteGapPct,
		}
		if err := setRow(f, sheetStateGaps, i+2, row); err != nil {
			return err
		}
	}

	if len(gaps) == 0 {
		return nil
	}
	lastRow := len(gaps) + 1
	chart := &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$F$1", sheetStateGaps),
			Categories: fmt.Sprintf("'%s'!$B$2:$B$%d", sheetStateGaps, lastRow),
			Values:     fmt.Sprintf("'%s'!$F$2:$F$%d", sheetStateGaps, lastRow),
		}},
		Title:     []excelize.RichTextRun{{Text: "Black/white per-pupil revenue gap by state"}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 640},
	}
	if err := f.AddChart(sheetStateGaps, "I2", chart); err != nil {
		return fmt.Errorf("state gap chart: %w", err)
	}
	return nil
}

func (r *ExcelReporter) writeBinSheet(f *excelize.File, sheet, dimension string, rows []analysis.BinRevenue) error {
	headers := []string{"Bin", "Districts", "Students", "Per-Pupil Total", "Per-Pupil State+Local"}
	if err := r.newSheet(f, sheet, headers); err != nil {
		return err
	}
	for i, bin := range rows {
		row := []interface{}{bin.Bin, bin.Districts, bin.Students, bin.PerPupilTotal, bin.PerPupilStateLocal}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(rows) == 0 {
		return nil
	}
	lastRow := len(rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$D$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, lastRow),
			Values:     fmt.Sprintf("'%s'!$D$2:$D$%d", sheet, lastRow),
		}},
		Title:     []excelize.RichTextRun{{Text: fmt.Sprintf("Per-pupil revenue by %% %s enrollment", dimension)}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 560, Height: 360},
	}
	if err := f.AddChart(sheet, "H2", chart); err != nil {
		return fmt.Errorf("bin chart on %s: %w", sheet, err)
	}
	return nil
}

func (r *ExcelReporter) writeConcentration(f *excelize.File, byBlack, byNonwhite analysis.ComparisonTable) error {
	headers := []string{"Dimension", "Category", "Districts", "Students", "Per-Pupil Total", "Per-Pupil State+Local", "Gap %"}
	if err := r.newSheet(f, sheetConcentration, headers); err != nil {
		return err
	}

	rows := [][]interface{}{
		comparisonRow(byBlack, byBlack.Minority, byBlack.PercentDifference),
		comparisonRow(byBlack, byBlack.White, 0),
		comparisonRow(byNonwhite, byNonwhite.Minority, byNonwhite.PercentDifference),
		comparisonRow(byNonwhite, byNonwhite.White, 0),
	}
	for i, row := range rows {
		if err := setRow(f, sheetConcentration, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func comparisonRow(table analysis.ComparisonTable, side analysis.ComparisonRow, gap float64) []interface{} {
	return []interface{}{
		string(table.Dimension), side.Label, side.Districts, side.Students,
		side.PerPupilTotal, side.PerPupilStateLocal, gap,
	}
}

func (r *ExcelReporter) writeSources(f *excelize.File, sheet string, rows []analysis.SourceBreakdown) error {
	headers := []string{"Category", "Districts", "Students", "Per-Pupil Federal", "Per-Pupil State", "Per-Pupil Local"}
	if err := r.newSheet(f, sheet, headers); err != nil {
		return err
	}
	for i, src := range rows {
		row := []interface{}{src.Category, src.Districts, src.Students, src.PerPupilFed, src.PerPupilState, src.PerPupilLocal}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}
