// Package app provides application initialization and lifecycle
// management. It wires configuration, logging, telemetry, the dataset
// client and snapshot cache, and the optional debug listener into one
// unit shared by the command-line entry points.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration (defaults, edequity.yaml, EDEQ_* variables)
//	2. Resolve the filesystem layout and create directories
//	3. Initialize structured logging
//	4. Initialize OpenTelemetry tracing and metrics
//	5. Construct the dataset client and snapshot cache
//	6. Construct the debug listener when one is configured
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//		slog.Error("Failed to initialize application", "error", err)
//		os.Exit(1)
//	}
//	defer application.Shutdown(context.Background())
//
//	state, err := application.RunPipeline(ctx, app.Options{})
//
// RunFetch and RunReport run partial pipelines: acquisition only, and
// aggregation from a previously exported linked table.
package app
