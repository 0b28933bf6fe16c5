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
	year := flag.Int("year", 0, "school year to fetch (defaults to the configured year)")
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
		slog.Info("Interrupt received, cancelling fetch")
		cancel()
	}()

	state, err := application.RunFetch(ctx, app.Options{Year: *year, Refresh: *refresh})
	if err != nil {
		slog.Error("Fetch failed", slog.String("error", err.Error()))
		application.Shutdown(context.Background())
		os.Exit(1)
	}

	slog.Info("Datasets cached",
		slog.Int("year", state.Year),
		slog.Int("finance_rows", len(state.Finance)),
		slog.Int("enrollment_rows", len(state.Enrollment)),
		slog.Int("directory_rows", len(state.Directory)),
		slog.Int("cost_index_rows", len(state.CostIndex)))

	if err := application.Shutdown(context.Background()); err != nil {
		slog.Error("Shutdown error", slog.String("error", err.Error()))
	}
}
