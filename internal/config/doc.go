// Package config provides configuration management for the edequity
// pipeline and its command-line tools.
//
// Configuration is loaded in three layers with increasing precedence:
//
//  1. Compiled defaults (Default)
//  2. An optional edequity.yaml file next to the executable or under
//     configs/
//  3. EDEQ_* environment variables (e.g. EDEQ_ANALYSIS_YEAR,
//     EDEQ_API_RATE_LIMIT_RPS)
//
// The merged configuration is validated before use; an invalid analysis
// year or a non-positive rate limit fails fast at startup rather than
// mid-pipeline.
//
// The package also owns filesystem layout. All paths are resolved
// relative to the executable location through the Paths type, so the
// tools behave identically regardless of the working directory they are
// invoked from:
//
//	data/cache/    raw dataset snapshots, one CSV per dataset per year
//	data/reports/  linked table, summary tables, workbook, run summary
//	logs/          application logs
package config
