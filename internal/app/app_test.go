package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edequity/internal/config"
	"edequity/internal/edudata"
	"edequity/internal/exporter"
	"edequity/internal/operations"
	"edequity/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testApplication builds an application by hand, without the global
// logger and telemetry side effects of NewApplication.
func testApplication(t *testing.T) *Application {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	cfg := config.Default()
	cfg.Export.Excel = false

	logger := testLogger()
	return &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
		Cache:  edudata.NewCache(paths, logger),
	}
}

// reportDistrict builds a linked row with internally consistent group
// counts. Hispanic enrollment is zero, so the nonwhite count equals the
// black count.
func reportDistrict(leaid string, fips int, black, white, perPupil float64) domain.LinkedDistrict {
	enrollment := black + white
	pctBlack := black / enrollment * 100
	bin := int(pctBlack)
	if bin%10 != 0 {
		bin = bin - bin%10 + 10
	}

	return domain.LinkedDistrict{
		Leaid:      leaid,
		Fips:       fips,
		Enrollment: enrollment,
		White:      white,
		Black:      black,

		RevTotal:      perPupil * enrollment,
		AdjTotal:      perPupil * enrollment,
		AdjTotalCOLA:  perPupil * enrollment,
		COLA:          1,
		AdjFedCOLA:    perPupil * enrollment * 0.1,
		AdjStateCOLA:  perPupil * enrollment * 0.45,
		AdjLocalCOLA:  perPupil * enrollment * 0.45,

		PerPupilFed:        perPupil * 0.1,
		PerPupilState:      perPupil * 0.45,
		PerPupilLocal:      perPupil * 0.45,
		PerPupilStateLocal: perPupil * 0.9,
		PerPupilTotal:      perPupil,

		PctBlack:    pctBlack,
		PctWhite:    100 - pctBlack,
		PctNonwhite: pctBlack,

		ConcentrationByNonwhite: domain.NotConcentrated,
		ConcentrationByBlack:    domain.NotConcentrated,
		BinBlack:                bin,
		BinNonwhite:             bin,
	}
}

func TestApplicationYear(t *testing.T) {
	a := testApplication(t)

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"configured year by default", Options{}, config.DefaultAnalysisYear},
		{"override wins", Options{Year: 2016}, 2016},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.year(tt.opts))
		})
	}
}

func TestApplicationLinkOptions(t *testing.T) {
	a := testApplication(t)
	a.Config.Analysis.ConcentrationThreshold = 80
	a.Config.Analysis.BinWidth = 25

	opts := a.linkOptions()
	assert.Equal(t, 80.0, opts.ConcentrationThreshold)
	assert.Equal(t, 25.0, opts.BinWidth)
}

func TestSheetsPublisherDisabled(t *testing.T) {
	a := testApplication(t)

	publisher, err := a.sheetsPublisher(context.Background())
	require.NoError(t, err)
	assert.Nil(t, publisher)
}

func TestSheetsPublisherBadCredentials(t *testing.T) {
	a := testApplication(t)
	a.Config.Export.Sheets = config.SheetsConfig{
		SpreadsheetID:   "sheet-id",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	}

	_, err := a.sheetsPublisher(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets publisher")
}

func TestRunReportMissingLinkedTable(t *testing.T) {
	a := testApplication(t)

	_, err := a.RunReport(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the pipeline first")
}

func TestRunReportFromLinkedTable(t *testing.T) {
	a := testApplication(t)

	exp := exporter.NewDistrictExporter(a.Paths)
	require.NoError(t, exp.ExportLinkedDistricts([]domain.LinkedDistrict{
		reportDistrict("0100005", 1, 300, 700, 12000),
		reportDistrict("0600001", 6, 100, 900, 9000),
	}))

	state, err := a.RunReport(context.Background(), Options{})
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, operations.RunStatusCompleted, state.GetStatus())
	assert.Equal(t, config.DefaultAnalysisYear, state.Year)
	assert.Len(t, state.Linked, 2)
	assert.Len(t, state.Reports.NationalGaps, 2)
	assert.Len(t, state.Reports.StateGaps, 2)

	// Occupied bins differ, so the bin tables carry one row each.
	assert.Len(t, state.Reports.RevenueByBinBlack, 2)

	for _, path := range []string{
		a.Paths.LinkedDistrictsCSV,
		a.Paths.DistrictDetailCSV,
		a.Paths.RunSummaryJSON,
		a.Paths.EquitySummary,
		a.Paths.GetReportPath("equity_reports.json"),
		a.Paths.GetTablePath("national_gaps.csv"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected artifact %s", path)
	}

	// Excel export is off.
	_, err = os.Stat(a.Paths.EquityWorkbook)
	assert.True(t, os.IsNotExist(err))

	// Drop accounting belongs to the linking run, not a report re-run.
	assert.Equal(t, 0, state.Drops.DroppedTotal())
}

func TestRunReportPropagatesStageFailure(t *testing.T) {
	a := testApplication(t)

	// A linked table with a valid header but no rows loads fine and
	// then fails aggregation validation.
	exp := exporter.NewDistrictExporter(a.Paths)
	require.NoError(t, exp.ExportLinkedDistricts(nil))

	_, err := a.RunReport(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run")
}
