package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"edequity/internal/analysis"
	"edequity/internal/config"
)

// SheetsPublisher mirrors the summary tables into a Google Sheets
// spreadsheet, one tab per table. Publishing is optional and only
// attempted when a spreadsheet ID and credentials file are configured.
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewSheetsPublisher creates a publisher authenticated with a service
// account credentials file.
func NewSheetsPublisher(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*SheetsPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("sheets publishing requires both spreadsheet_id and credentials_file")
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsPublisher{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// tab is one spreadsheet tab worth of values, header row first
type tab struct {
	name   string
	values [][]interface{}
}

// Publish replaces each report tab's contents with the current tables
func (p *SheetsPublisher) Publish(ctx context.Context, set analysis.ReportSet) error {
	tabs := buildTabs(set)

	existing, err := p.existingTabs(ctx)
	if err != nil {
		return err
	}

	for _, t := range tabs {
		if !existing[t.name] {
			if err := p.addTab(ctx, t.name); err != nil {
				return err
			}
		}

		if _, err := p.service.Spreadsheets.Values.Clear(
			p.spreadsheetID, t.name, &sheets.ClearValuesRequest{},
		).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear tab %s: %w", t.name, err)
		}

		valueRange := &sheets.ValueRange{Values: t.values}
		if _, err := p.service.Spreadsheets.Values.Update(
			p.spreadsheetID, t.name+"!A1", valueRange,
		).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update tab %s: %w", t.name, err)
		}

		p.logger.Debug("sheet tab published",
			slog.String("tab", t.name),
			slog.Int("rows", len(t.values)))
	}

	p.logger.Info("report set published to google sheets",
		slog.String("spreadsheet_id", p.spreadsheetID),
		slog.Int("tabs", len(tabs)))
	return nil
}

func (p *SheetsPublisher) existingTabs(ctx context.Context) (map[string]bool, error) {
	spreadsheet, err := p.service.Spreadsheets.Get(p.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", p.spreadsheetID, err)
	}

	titles := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles[sheet.Properties.Title] = true
		}
	}
	return titles, nil
}

func (p *SheetsPublisher) addTab(ctx context.Context, name string) error {
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := p.service.Spreadsheets.BatchUpdate(p.spreadsheetID, request).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", name, err)
	}
	return nil
}

// buildTabs flattens the report set into spreadsheet values. Tab layout
// matches the workbook sheets so the two artifacts stay comparable.
func buildTabs(set analysis.ReportSet) []tab {
	gaps := tab{name: sheetNationalGaps, values: [][]interface{}{
		{"Comparison", "Minority Per-Pupil", "White Per-Pupil", "Gap %"},
	}}
	for _, gap := range set.NationalGaps {
		gaps.values = append(gaps.values,
			[]interface{}{gap.Comparison, gap.MinorityPerPupil, gap.WhitePerPupil, gap.PercentDifference})
	}

	states := tab{name: sheetStateGaps, values: [][]interface{}{
		{"FIPS", "State", "Black Per-Pupil", "White Per-Pupil", "Nonwhite Per-Pupil", "Black/White Gap %", "Nonwhite/White Gap %"},
	}}
	for _, gap := range set.StateGaps {
		states.values = append(states.values, []interface{}{
			gap.Fips, gap.StateAbbr,
			gap.BlackPerPupil, gap.WhitePerPupil, gap.NonwhitePerPupil,
			gap.BlackWhiteGapPct, gap.NonwhiteWhiteGapPct,
		})
	}

	concentration := tab{name: sheetConcentration, values: [][]interface{}{
		{"Dimension", "Category", "Districts", "Students", "Per-Pupil Total", "Per-Pupil State+Local", "Gap %"},
		comparisonRow(set.ComparisonByBlack, set.ComparisonByBlack.Minority, set.ComparisonByBlack.PercentDifference),
		comparisonRow(set.ComparisonByBlack, set.ComparisonByBlack.White, 0),
		comparisonRow(set.ComparisonByNonwhite, set.ComparisonByNonwhite.Minority, set.ComparisonByNonwhite.PercentDifference),
		comparisonRow(set.ComparisonByNonwhite, set.ComparisonByNonwhite.White, 0),
	}}

	tabs := []tab{gaps, states, concentration}
	tabs = append(tabs, binTab(sheetBinBlack, set.RevenueByBinBlack))
	tabs = append(tabs, binTab(sheetBinNonwhite, set.RevenueByBinNonwhite))
	tabs = append(tabs, sourceTab(sheetSourceBlack, set.SourcesByBlack))
	tabs = append(tabs, sourceTab(sheetSourceNonwhite, set.SourcesByNonwhite))
	return tabs
}

func binTab(name string, rows []analysis.BinRevenue) tab {
	t := tab{name: name, values: [][]interface{}{
		{"Bin", "Districts", "Students", "Per-Pupil Total", "Per-Pupil State+Local"},
	}}
	for _, bin := range rows {
		t.values = append(t.values,
			[]interface{}{bin.Bin, bin.Districts, bin.Students, bin.PerPupilTotal, bin.PerPupilStateLocal})
	}
	return t
}

func sourceTab(name string, rows []analysis.SourceBreakdown) tab {
	t := tab{name: name, values: [][]interface{}{
		{"Category", "Districts", "Students", "Per-Pupil Federal", "Per-Pupil State", "Per-Pupil Local"},
	}}
	for _, src := range rows {
		t.values = append(t.values,
			[]interface{}{src.Category, src.Districts, src.Students, src.PerPupilFed, src.PerPupilState, src.PerPupilLocal})
	}
	return t
}
