// Package operations provides the stage execution framework for the
// revenue equity pipeline.
//
// A run acquires four raw datasets, derives the analysis inputs, links
// them into one district table, aggregates the equity reports, and
// exports every artifact. The package supports:
//
//   - Stage-based execution with per-stage validation
//   - Fail-fast sequential runs with full stage accounting
//   - OpenTelemetry spans and metrics per stage and per run
//   - A machine-readable run summary written on every outcome
//
// Core Components:
//
// Runner: Executes a fixed sequence of stages against one RunState.
// The first stage error aborts the run; stages after it are marked
// skipped, and the run summary is written either way.
//
// Stage: An interface that defines a single unit of work. A stage
// validates its preconditions against the run state, then executes
// and stores its outputs back on the state for later stages.
//
// RunState: Tracks the runtime state of the run and of each stage,
// and carries the datasets and derived tables between stages.
//
// The standard pipeline is five stages:
//
//	FetchStage      cache-or-API acquisition of the raw datasets
//	DeriveStage     revenue adjustment and enrollment reshaping
//	LinkStage       dataset linking with drop accounting
//	AggregateStage  equity report computation
//	ExportStage     CSV, JSON, text, Excel, and Sheets artifacts
//
// Example usage:
//
//	client := edudata.NewClient(clientCfg, logger).WithMetrics(metrics)
//	cache := edudata.NewCache(paths, logger)
//
//	stages := []operations.Stage{
//		operations.NewFetchStage(client, cache, refresh, metrics, logger),
//		operations.NewDeriveStage(logger),
//		operations.NewLinkStage(linkOpts, metrics, logger),
//		operations.NewAggregateStage(logger),
//		operations.NewExportStage(paths, cfg.Export.Excel, publisher, metrics, logger),
//	}
//
//	runner := operations.NewRunner(stages, paths, metrics, logger)
//	state := operations.NewRunState(cfg.Analysis.Year)
//	if err := runner.Run(ctx, state); err != nil {
//		return err
//	}
package operations
