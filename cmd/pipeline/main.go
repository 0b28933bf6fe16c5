package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"edequity/internal/app"
)

func main() {
	year := flag.Int("year", 0, "school year to analyze (defaults to the configured year)")
	refresh := flag.Bool("refresh", false, "re-download datasets even when cached snapshots exist")
	flag.Parse()

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Interrupt received, cancelling run")
		cancel()
	}()

	application.StartDebugServer()

	state, err := application.RunPipeline(ctx, app.Options{Year: *year, Refresh: *refresh})
	if err != nil {
		slog.Error("Pipeline run failed", slog.String("error", err.Error()))
		application.Shutdown(context.Background())
		os.Exit(1)
	}

	slog.Info("Pipeline run complete",
		slog.String("run_id", state.ID),
		slog.Int("districts", len(state.Linked)),
		slog.Int("dropped", state.Drops.DroppedTotal()),
		slog.Int("artifacts", len(state.Artifacts)))

	if err := application.Shutdown(context.Background()); err != nil {
		slog.Error("Shutdown error", slog.String("error", err.Error()))
	}
}
