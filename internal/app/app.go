package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"edequity/internal/config"
	"edequity/internal/dataprocessing"
	"edequity/internal/edudata"
	"edequity/internal/exporter"
	"edequity/internal/infrastructure"
	"edequity/internal/operations"
	handlers "edequity/internal/transport/http"
)

// shutdownTimeout bounds graceful shutdown of the debug listener and
// the telemetry providers.
const shutdownTimeout = 10 * time.Second

// Application wires configuration, telemetry, the dataset client and
// cache, and the optional debug listener into one unit shared by the
// command-line entry points.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Client        *edudata.Client
	Cache         *edudata.Cache
	DebugServer   *handlers.DebugServer
}

// Options adjusts a single run. Zero values defer to configuration.
type Options struct {
	// Year overrides the configured school year when non-zero.
	Year int

	// Refresh forces dataset downloads even when cached snapshots
	// exist.
	Refresh bool
}

// NewApplication loads configuration and initializes every shared
// component. The returned application owns the telemetry providers and
// must be shut down with Shutdown.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	paths, err := config.NewPathsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize paths: %w", err)
	}

	// A relative log file resolves next to the executable, matching
	// the rest of the layout.
	if cfg.Logging.FilePath != "" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.ExecutableDir, cfg.Logging.FilePath)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting edequity",
		slog.String("version", config.AppVersion),
		slog.Int("year", cfg.Analysis.Year),
		slog.String("vintage", cfg.API.Vintage))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	var metrics *infrastructure.PipelineMetrics
	if providers.Meter != nil {
		metrics, err = infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
	}

	client := edudata.NewClient(edudata.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Vintage: cfg.API.Vintage,
		Timeout: cfg.API.Timeout,
		RPS:     cfg.API.RateLimit.RPS,
		Burst:   cfg.API.RateLimit.Burst,
	}, logger).WithMetrics(metrics)

	cache := edudata.NewCache(paths, logger)

	var debugServer *handlers.DebugServer
	if cfg.Debug.Listen != "" {
		var metricsHandler http.Handler
		if providers.PrometheusHTTP != nil {
			metricsHandler = providers.PrometheusHTTP
		}
		debugServer = handlers.NewDebugServer(cfg.Debug.Listen, metricsHandler, paths, logger)
	}

	return &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Client:        client,
		Cache:         cache,
		DebugServer:   debugServer,
	}, nil
}

// RunPipeline executes the full analytical pipeline: fetch, derive,
// link, aggregate, export. The returned state carries the run summary
// even when the run failed.
func (a *Application) RunPipeline(ctx context.Context, opts Options) (*operations.RunState, error) {
	publisher, err := a.sheetsPublisher(ctx)
	if err != nil {
		return nil, err
	}

	stages := []operations.Stage{
		operations.NewFetchStage(a.Client, a.Cache, opts.Refresh, a.Metrics, a.Logger),
		operations.NewDeriveStage(a.Logger),
		operations.NewLinkStage(a.linkOptions(), a.Metrics, a.Logger),
		operations.NewAggregateStage(a.Logger),
		operations.NewExportStage(a.Paths, a.Config.Export.Excel, publisher, a.Metrics, a.Logger),
	}

	return a.run(ctx, stages, opts)
}

// RunFetch downloads the configured year's datasets into the local
// cache without running any analysis.
func (a *Application) RunFetch(ctx context.Context, opts Options) (*operations.RunState, error) {
	stages := []operations.Stage{
		operations.NewFetchStage(a.Client, a.Cache, opts.Refresh, a.Metrics, a.Logger),
	}
	return a.run(ctx, stages, opts)
}

// RunReport rebuilds the aggregate reports from a previously exported
// linked table, skipping acquisition and linking entirely. Drop
// accounting belongs to the linking run and is not reproduced here.
func (a *Application) RunReport(ctx context.Context, opts Options) (*operations.RunState, error) {
	if _, err := os.Stat(a.Paths.LinkedDistrictsCSV); os.IsNotExist(err) {
		return nil, fmt.Errorf("linked table %s not found: run the pipeline first",
			a.Paths.LinkedDistrictsCSV)
	}

	linked, err := exporter.ReadLinkedDistricts(a.Paths.LinkedDistrictsCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked table: %w", err)
	}

	publisher, err := a.sheetsPublisher(ctx)
	if err != nil {
		return nil, err
	}

	state := operations.NewRunState(a.year(opts))
	state.Linked = linked

	// The district detail export joins directory names when the
	// snapshot is still cached; without it the detail file keeps empty
	// name cells.
	if a.Cache.Has(config.CacheStemDirectory, state.Year) {
		directory, err := a.Cache.LoadDirectory(state.Year)
		if err != nil {
			a.Logger.WarnContext(ctx, "directory snapshot unreadable, detail export will lack names",
				slog.Int("year", state.Year),
				slog.String("error", err.Error()))
		} else {
			state.Directory = directory
		}
	}

	stages := []operations.Stage{
		operations.NewAggregateStage(a.Logger),
		operations.NewExportStage(a.Paths, a.Config.Export.Excel, publisher, a.Metrics, a.Logger),
	}

	runner := operations.NewRunner(stages, a.Paths, a.Metrics, a.Logger)
	if err := runner.Run(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

// StartDebugServer starts the debug listener when one is configured
func (a *Application) StartDebugServer() {
	if a.DebugServer != nil {
		a.DebugServer.Start()
	}
}

// Shutdown stops the debug listener, flushes telemetry, and closes the
// log file.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if a.DebugServer != nil {
		if err := a.DebugServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Debug server shutdown error",
				slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Telemetry shutdown error",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.Error("Log file close error", slog.String("error", err.Error()))
	}

	return nil
}

// run executes the given stages against a fresh run state
func (a *Application) run(ctx context.Context, stages []operations.Stage, opts Options) (*operations.RunState, error) {
	runner := operations.NewRunner(stages, a.Paths, a.Metrics, a.Logger)
	state := operations.NewRunState(a.year(opts))
	if err := runner.Run(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

// year resolves the school year for a run
func (a *Application) year(opts Options) int {
	if opts.Year != 0 {
		return opts.Year
	}
	return a.Config.Analysis.Year
}

// linkOptions builds the linker tunables from configuration
func (a *Application) linkOptions() dataprocessing.LinkOptions {
	return dataprocessing.LinkOptions{
		ConcentrationThreshold: a.Config.Analysis.ConcentrationThreshold,
		BinWidth:               a.Config.Analysis.BinWidth,
	}
}

// sheetsPublisher builds the Google Sheets publisher when configured.
// A misconfigured publisher fails the run up front rather than after
// the pipeline has done its work.
func (a *Application) sheetsPublisher(ctx context.Context) (operations.ReportPublisher, error) {
	if !a.Config.Export.Sheets.Enabled() {
		return nil, nil
	}
	publisher, err := exporter.NewSheetsPublisher(ctx, a.Config.Export.Sheets, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets publisher: %w", err)
	}
	return publisher, nil
}
