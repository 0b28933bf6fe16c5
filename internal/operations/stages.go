package operations

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"edequity/internal/analysis"
	"edequity/internal/config"
	"edequity/internal/dataprocessing"
	"edequity/internal/edudata"
	"edequity/internal/exporter"
	"edequity/internal/infrastructure"
)

// Stage IDs used by the standard pipeline
const (
	StageIDFetch     = "fetch"
	StageIDDerive    = "derive"
	StageIDLink      = "link"
	StageIDAggregate = "aggregate"
	StageIDExport    = "export"
)

// DatasetFetcher fetches the raw datasets from the education
// statistics API. *edudata.Client satisfies it.
type DatasetFetcher interface {
	FetchFinance(ctx context.Context, year int) ([]edudata.FinanceRow, error)
	FetchEnrollmentByRace(ctx context.Context, year int) ([]edudata.EnrollmentRow, error)
	FetchDirectory(ctx context.Context, year int) ([]edudata.DirectoryRow, error)
	FetchCostIndex(ctx context.Context, year int) ([]edudata.CostIndexRow, error)
}

// ReportPublisher pushes the aggregated reports to an external
// destination. *exporter.SheetsPublisher satisfies it.
type ReportPublisher interface {
	Publish(ctx context.Context, set analysis.ReportSet) error
}

func updateProgress(state *RunState, stageID string, progress float64, message string) {
	if st := state.GetStage(stageID); st != nil {
		st.UpdateProgress(progress, message)
	}
}

// FetchStage acquires the four raw datasets, preferring the local
// cache unless a refresh is requested. Every fetched dataset is
// written back to the cache.
type FetchStage struct {
	BaseStage
	client  DatasetFetcher
	cache   *edudata.Cache
	refresh bool
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewFetchStage creates the dataset acquisition stage
func NewFetchStage(client DatasetFetcher, cache *edudata.Cache, refresh bool, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *FetchStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStage{
		BaseStage: NewBaseStage(StageIDFetch, "Fetch datasets"),
		client:    client,
		cache:     cache,
		refresh:   refresh,
		metrics:   metrics,
		logger:    logger,
	}
}

// Validate checks that the stage has a client, a cache, and a year
func (s *FetchStage) Validate(state *RunState) error {
	if s.client == nil {
		return fmt.Errorf("fetch stage requires a dataset client")
	}
	if s.cache == nil {
		return fmt.Errorf("fetch stage requires a dataset cache")
	}
	if state.Year <= 0 {
		return fmt.Errorf("fetch stage requires a school year, got %d", state.Year)
	}
	return nil
}

// loadOrFetch returns the cached dataset when present and fresh
// enough, otherwise fetches from the API and caches the result. A
// cache write failure does not fail the stage; the data is already in
// hand.
func loadOrFetch[T any](
	ctx context.Context,
	s *FetchStage,
	year int,
	stem string,
	load func(int) ([]T, error),
	fetch func(context.Context, int) ([]T, error),
	save func(int, []T) error,
) ([]T, error) {
	if !s.refresh && s.cache.Has(stem, year) {
		rows, err := load(year)
		if err == nil {
			infrastructure.RecordCacheAccess(ctx, s.metrics, stem, true)
			s.logger.InfoContext(ctx, "dataset loaded from cache",
				slog.String("dataset", stem),
				slog.Int("year", year),
				slog.Int("rows", len(rows)))
			return rows, nil
		}
		s.logger.WarnContext(ctx, "cache load failed, refetching",
			slog.String("dataset", stem),
			slog.Int("year", year),
			slog.String("error", err.Error()))
	}

	infrastructure.RecordCacheAccess(ctx, s.metrics, stem, false)
	rows, err := fetch(ctx, year)
	if err != nil {
		return nil, err
	}
	if err := save(year, rows); err != nil {
		s.logger.WarnContext(ctx, "failed to cache dataset",
			slog.String("dataset", stem),
			slog.Int("year", year),
			slog.String("error", err.Error()))
	}
	return rows, nil
}

// Execute acquires all four datasets into the run state
func (s *FetchStage) Execute(ctx context.Context, state *RunState) error {
	finance, err := loadOrFetch(ctx, s, state.Year, config.CacheStemFinance,
		s.cache.LoadFinance, s.client.FetchFinance, s.cache.SaveFinance)
	if err != nil {
		return fmt.Errorf("finance dataset: %w", err)
	}
	state.Finance = finance
	updateProgress(state, s.ID(), 25, "finance dataset ready")

	enrollment, err := loadOrFetch(ctx, s, state.Year, config.CacheStemEnrollment,
		s.cache.LoadEnrollment, s.client.FetchEnrollmentByRace, s.cache.SaveEnrollment)
	if err != nil {
		return fmt.Errorf("enrollment dataset: %w", err)
	}
	state.Enrollment = enrollment
	updateProgress(state, s.ID(), 50, "enrollment dataset ready")

	directory, err := loadOrFetch(ctx, s, state.Year, config.CacheStemDirectory,
		s.cache.LoadDirectory, s.client.FetchDirectory, s.cache.SaveDirectory)
	if err != nil {
		return fmt.Errorf("directory dataset: %w", err)
	}
	state.Directory = directory
	updateProgress(state, s.ID(), 75, "directory dataset ready")

	costIndex, err := loadOrFetch(ctx, s, state.Year, config.CacheStemCostIndex,
		s.cache.LoadCostIndex, s.client.FetchCostIndex, s.cache.SaveCostIndex)
	if err != nil {
		return fmt.Errorf("cost index dataset: %w", err)
	}
	state.CostIndex = costIndex
	updateProgress(state, s.ID(), 100, "all datasets ready")

	return nil
}

// DeriveStage turns the raw finance rows into adjusted revenue and
// the raw enrollment rows into per-district race compositions. The
// two derivations are independent and run concurrently.
type DeriveStage struct {
	BaseStage
	adjuster *dataprocessing.Adjuster
	reshaper *dataprocessing.Reshaper
}

// NewDeriveStage creates the derivation stage
func NewDeriveStage(logger *slog.Logger) *DeriveStage {
	return &DeriveStage{
		BaseStage: NewBaseStage(StageIDDerive, "Derive adjusted finance and compositions"),
		adjuster:  dataprocessing.NewAdjuster(logger),
		reshaper:  dataprocessing.NewReshaper(logger),
	}
}

// Validate checks that the raw datasets are present
func (s *DeriveStage) Validate(state *RunState) error {
	if len(state.Finance) == 0 {
		return fmt.Errorf("derive stage requires finance rows")
	}
	if len(state.Enrollment) == 0 {
		return fmt.Errorf("derive stage requires enrollment rows")
	}
	return nil
}

// Execute runs both derivations and stores the results
func (s *DeriveStage) Execute(ctx context.Context, state *RunState) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		state.Adjusted = s.adjuster.AdjustAll(state.Finance)
		return nil
	})
	g.Go(func() error {
		state.Compositions = s.reshaper.ReshapeEnrollment(state.Enrollment)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	updateProgress(state, s.ID(), 100, "derived tables ready")
	return nil
}

// LinkStage joins the derived tables into the analysis table and
// records the drop accounting.
type LinkStage struct {
	BaseStage
	linker  *dataprocessing.Linker
	metrics *infrastructure.PipelineMetrics
}

// NewLinkStage creates the linking stage
func NewLinkStage(opts dataprocessing.LinkOptions, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *LinkStage {
	return &LinkStage{
		BaseStage: NewBaseStage(StageIDLink, "Link districts"),
		linker:    dataprocessing.NewLinker(logger, opts),
		metrics:   metrics,
	}
}

// Validate checks that the derived tables and the cost index are present
func (s *LinkStage) Validate(state *RunState) error {
	if len(state.Compositions) == 0 {
		return fmt.Errorf("link stage requires race compositions")
	}
	if len(state.Adjusted) == 0 {
		return fmt.Errorf("link stage requires adjusted finance rows")
	}
	if len(state.CostIndex) == 0 {
		return fmt.Errorf("link stage requires cost index rows")
	}
	return nil
}

// Execute links the tables and fails when nothing survives
func (s *LinkStage) Execute(ctx context.Context, state *RunState) error {
	result := s.linker.LinkDistricts(state.Compositions, state.Adjusted, state.CostIndex)
	state.Linked = result.Districts
	state.Drops = result.Drops

	infrastructure.RecordRowsDropped(ctx, s.metrics, "missing_cost_index", int64(result.Drops.MissingCostIndex))
	infrastructure.RecordRowsDropped(ctx, s.metrics, "non_positive_enrollment", int64(result.Drops.NonPositiveEnrollment))
	infrastructure.RecordRowsDropped(ctx, s.metrics, "negative_revenue", int64(result.Drops.NegativeRevenue))
	infrastructure.RecordRowsDropped(ctx, s.metrics, "missing_values", int64(result.Drops.MissingValues))

	if len(result.Districts) == 0 {
		return fmt.Errorf("no districts survived linking: %d dropped", result.Drops.DroppedTotal())
	}
	updateProgress(state, s.ID(), 100, fmt.Sprintf("%d districts linked", len(result.Districts)))
	return nil
}

// AggregateStage computes the full report set from the linked table
type AggregateStage struct {
	BaseStage
	logger *slog.Logger
}

// NewAggregateStage creates the aggregation stage
func NewAggregateStage(logger *slog.Logger) *AggregateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateStage{
		BaseStage: NewBaseStage(StageIDAggregate, "Aggregate equity reports"),
		logger:    logger,
	}
}

// Validate checks that the linked table is present
func (s *AggregateStage) Validate(state *RunState) error {
	if len(state.Linked) == 0 {
		return fmt.Errorf("aggregate stage requires linked districts")
	}
	return nil
}

// Execute builds the report set
func (s *AggregateStage) Execute(ctx context.Context, state *RunState) error {
	state.Reports = analysis.BuildReports(state.Linked, s.logger)
	updateProgress(state, s.ID(), 100, "reports aggregated")
	return nil
}

// ExportStage writes every artifact of the run: the linked table and
// district detail CSVs, the per-report summary tables, the JSON report
// set, the plain-text summary, and optionally the Excel workbook and a
// Google Sheets spreadsheet.
type ExportStage struct {
	BaseStage
	paths     *config.Paths
	excel     *exporter.ExcelReporter
	publisher ReportPublisher
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewExportStage creates the export stage. A nil publisher disables
// spreadsheet publishing; excelEnabled gates the workbook.
func NewExportStage(paths *config.Paths, excelEnabled bool, publisher ReportPublisher, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ExportStage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, "Export artifacts"),
		paths:     paths,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
	if excelEnabled {
		s.excel = exporter.NewExcelReporter(paths, logger)
	}
	return s
}

// Validate checks that the linked table and the reports are present
func (s *ExportStage) Validate(state *RunState) error {
	if s.paths == nil {
		return fmt.Errorf("export stage requires configured paths")
	}
	if len(state.Linked) == 0 {
		return fmt.Errorf("export stage requires linked districts")
	}
	if len(state.Reports.NationalGaps) == 0 {
		return fmt.Errorf("export stage requires aggregated reports")
	}
	return nil
}

// Execute writes all artifacts. Summary tables with no rows are
// skipped with a warning; everything else is fatal.
func (s *ExportStage) Execute(ctx context.Context, state *RunState) error {
	exp := exporter.NewDistrictExporter(s.paths)

	if err := exp.ExportLinkedDistricts(state.Linked); err != nil {
		return fmt.Errorf("linked districts: %w", err)
	}
	state.AddArtifact(s.paths.LinkedDistrictsCSV)
	infrastructure.RecordExportArtifact(ctx, s.metrics, "csv")

	directory := make(map[string]exporter.DirectoryEntry, len(state.Directory))
	for _, row := range state.Directory {
		directory[row.Leaid] = exporter.DirectoryEntry{LeaName: row.LeaName, StateAbbr: row.StateAbbr}
	}
	if err := exp.ExportDistrictDetail(state.Linked, directory); err != nil {
		return fmt.Errorf("district detail: %w", err)
	}
	state.AddArtifact(s.paths.DistrictDetailCSV)
	infrastructure.RecordExportArtifact(ctx, s.metrics, "csv")
	updateProgress(state, s.ID(), 30, "linked tables written")

	if err := s.writeTables(ctx, state); err != nil {
		return err
	}
	updateProgress(state, s.ID(), 55, "summary tables written")

	reportsJSON := s.paths.GetReportPath("equity_reports.json")
	if err := analysis.SaveReportSetJSON(state.Reports, state.Year, len(state.Linked), reportsJSON); err != nil {
		return fmt.Errorf("report set JSON: %w", err)
	}
	state.AddArtifact(reportsJSON)
	infrastructure.RecordExportArtifact(ctx, s.metrics, "json")

	info := analysis.SummaryInfo{Year: state.Year, Districts: len(state.Linked), Drops: state.Drops}
	if err := analysis.SaveSummaryReport(state.Reports, info, s.paths.EquitySummary); err != nil {
		return fmt.Errorf("summary report: %w", err)
	}
	state.AddArtifact(s.paths.EquitySummary)
	infrastructure.RecordExportArtifact(ctx, s.metrics, "text")
	updateProgress(state, s.ID(), 75, "reports written")

	if s.excel != nil {
		path, err := s.excel.WriteWorkbook(state.Reports, info)
		if err != nil {
			return fmt.Errorf("workbook: %w", err)
		}
		state.AddArtifact(path)
		infrastructure.RecordExportArtifact(ctx, s.metrics, "xlsx")
	}

	// Publish failures do not fail the run; every local artifact is
	// already on disk at this point.
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, state.Reports); err != nil {
			s.logger.WarnContext(ctx, "spreadsheet publish failed",
				slog.String("error", err.Error()))
		} else {
			infrastructure.RecordExportArtifact(ctx, s.metrics, "sheets")
		}
	}

	updateProgress(state, s.ID(), 100, "all artifacts written")
	return nil
}

// writeTables persists each aggregated table as its own CSV under the
// tables directory
func (s *ExportStage) writeTables(ctx context.Context, state *RunState) error {
	set := state.Reports
	tables := []struct {
		name string
		rows int
		save func(string) error
	}{
		{"revenue_by_bin_black.csv", len(set.RevenueByBinBlack),
			func(p string) error { return analysis.SaveRevenueByBin(set.RevenueByBinBlack, p) }},
		{"revenue_by_bin_nonwhite.csv", len(set.RevenueByBinNonwhite),
			func(p string) error { return analysis.SaveRevenueByBin(set.RevenueByBinNonwhite, p) }},
		{"comparison_by_black.csv", 2,
			func(p string) error { return analysis.SaveComparison(set.ComparisonByBlack, p) }},
		{"comparison_by_nonwhite.csv", 2,
			func(p string) error { return analysis.SaveComparison(set.ComparisonByNonwhite, p) }},
		{"national_gaps.csv", len(set.NationalGaps),
			func(p string) error { return analysis.SaveNationalGaps(set.NationalGaps, p) }},
		{"state_gaps.csv", len(set.StateGaps),
			func(p string) error { return analysis.SaveStateGaps(set.StateGaps, p) }},
		{"sources_by_black.csv", len(set.SourcesByBlack),
			func(p string) error { return analysis.SaveSourceBreakdown(set.SourcesByBlack, p) }},
		{"sources_by_nonwhite.csv", len(set.SourcesByNonwhite),
			func(p string) error { return analysis.SaveSourceBreakdown(set.SourcesByNonwhite, p) }},
	}

	for _, table := range tables {
		if table.rows == 0 {
			s.logger.WarnContext(ctx, "summary table skipped, no rows",
				slog.String("table", table.name))
			continue
		}
		path := s.paths.GetTablePath(table.name)
		if err := table.save(path); err != nil {
			return fmt.Errorf("table %s: %w", table.name, err)
		}
		state.AddArtifact(path)
		infrastructure.RecordExportArtifact(ctx, s.metrics, "csv")
	}
	return nil
}
