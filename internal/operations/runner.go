package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"edequity/internal/config"
	apperrors "edequity/internal/errors"
	"edequity/internal/infrastructure"
)

const tracerName = "edequity/operations"

// Runner executes a fixed sequence of stages against one run state.
// Execution is sequential and fail-fast: the first stage error aborts
// the run and the stages after it are marked skipped. The run summary
// file is written whether the run completes or fails.
type Runner struct {
	stages  []Stage
	paths   *config.Paths
	metrics *infrastructure.PipelineMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewRunner creates a runner over the given stages
func NewRunner(stages []Stage, paths *config.Paths, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		stages:  stages,
		paths:   paths,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// Run executes the pipeline
func (r *Runner) Run(ctx context.Context, state *RunState) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.Int("run.year", state.Year),
		))
	defer span.End()

	for _, stage := range r.stages {
		state.AddStage(NewStageState(stage.ID(), stage.Name()))
	}

	state.Start()
	started := time.Now()
	r.logger.InfoContext(ctx, "pipeline run started",
		slog.String("run_id", state.ID),
		slog.Int("year", state.Year),
		slog.Int("stages", len(r.stages)))

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			skipRemaining(state, r.stages, "run cancelled")
			return r.finishFailed(ctx, span, state, started, err)
		}
		if err := r.executeStage(ctx, state, stage); err != nil {
			skipRemaining(state, r.stages, fmt.Sprintf("not run: stage %s did not complete", stage.ID()))
			return r.finishFailed(ctx, span, state, started, err)
		}
	}

	state.Complete()
	span.SetStatus(codes.Ok, "")
	infrastructure.RecordRunMetrics(ctx, r.metrics, state.ID, time.Since(started), true)
	r.writeSummary(ctx, state)
	r.logger.InfoContext(ctx, "pipeline run completed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", time.Since(started)),
		slog.Int("districts", len(state.Linked)),
		slog.Int("artifacts", len(state.Artifacts)))
	return nil
}

// executeStage runs one stage inside its own span, recording duration
// and outcome metrics
func (r *Runner) executeStage(ctx context.Context, state *RunState, stage Stage) error {
	st := state.GetStage(stage.ID())
	if st == nil {
		return fmt.Errorf("no state registered for stage %s", stage.ID())
	}

	ctx, span := r.tracer.Start(ctx, "stage."+stage.ID(),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("stage.id", stage.ID()),
		))
	defer span.End()

	if err := stage.Validate(state); err != nil {
		st.Skip(fmt.Sprintf("validation failed: %v", err))
		span.SetStatus(codes.Error, err.Error())
		r.logger.WarnContext(ctx, "stage validation failed",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.String("error", err.Error()))
		return apperrors.NewValidationError(fmt.Sprintf("stage %s cannot run", stage.ID()), err)
	}

	st.Start()
	r.logger.InfoContext(ctx, "stage started",
		slog.String("run_id", state.ID),
		slog.String("stage", stage.ID()),
		slog.String("name", stage.Name()))

	start := time.Now()
	err := stage.Execute(ctx, state)
	duration := time.Since(start)
	infrastructure.RecordStageMetrics(ctx, r.metrics, state.ID, stage.ID(), duration, err == nil, err)

	if err != nil {
		st.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "stage failed",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return fmt.Errorf("stage %s: %w", stage.ID(), err)
	}

	st.Complete()
	span.SetStatus(codes.Ok, "")
	r.logger.InfoContext(ctx, "stage completed",
		slog.String("run_id", state.ID),
		slog.String("stage", stage.ID()),
		slog.Duration("duration", duration))
	return nil
}

// finishFailed finalizes a failed run and still writes the summary
func (r *Runner) finishFailed(ctx context.Context, span trace.Span, state *RunState, started time.Time, err error) error {
	state.Fail(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	infrastructure.RecordRunMetrics(ctx, r.metrics, state.ID, time.Since(started), false)
	r.writeSummary(ctx, state)
	r.logger.ErrorContext(ctx, "pipeline run failed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", time.Since(started)),
		slog.String("error", err.Error()))
	return err
}

// skipRemaining marks every stage still pending as skipped
func skipRemaining(state *RunState, stages []Stage, reason string) {
	for _, stage := range stages {
		if st := state.GetStage(stage.ID()); st != nil && st.GetStatus() == StageStatusPending {
			st.Skip(reason)
		}
	}
}

// writeSummary persists the machine-readable run summary next to the
// report artifacts
func (r *Runner) writeSummary(ctx context.Context, state *RunState) {
	if r.paths == nil {
		return
	}
	data, err := json.MarshalIndent(state.Summary(), "", "  ")
	if err != nil {
		r.logger.ErrorContext(ctx, "run summary marshal failed",
			slog.String("error", err.Error()))
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.paths.RunSummaryJSON), 0755); err != nil {
		r.logger.ErrorContext(ctx, "run summary directory not created",
			slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(r.paths.RunSummaryJSON, data, 0644); err != nil {
		r.logger.ErrorContext(ctx, "run summary write failed",
			slog.String("path", r.paths.RunSummaryJSON),
			slog.String("error", err.Error()))
		return
	}
	r.logger.InfoContext(ctx, "run summary written",
		slog.String("path", r.paths.RunSummaryJSON))
}
