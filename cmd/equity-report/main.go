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
	year := flag.Int("year", 0, "school year label for the reports (defaults to the configured year)")
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
		slog.Info("Interrupt received, cancelling report build")
		cancel()
	}()

	state, err := application.RunReport(ctx, app.Options{Year: *year})
	if err != nil {
		slog.Error("Report build failed",
			slog.String("error", err.Error()),
			slog.String("hint", "run the pipeline first to produce the linked table"))
		application.Shutdown(context.Background())
		os.Exit(1)
	}

	slog.Info("Reports rebuilt",
		slog.String("run_id", state.ID),
		slog.Int("districts", len(state.Linked)),
		slog.Int("artifacts", len(state.Artifacts)))

	if err := application.Shutdown(context.Background()); err != nil {
		slog.Error("Shutdown error", slog.String("error", err.Error()))
	}
}
