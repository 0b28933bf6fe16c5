// Package exporter writes the pipeline's report artifacts.
//
// This package contains four main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility. The dataset cache
// also writes through it.
//
// DistrictExporter: Streams the linked district table and the
// directory-enriched detail table to CSV.
//
// ExcelReporter: Builds the equity workbook, one sheet per summary
// table, with charts on the headline tables.
//
// SheetsPublisher: Optionally mirrors the summary tables into a Google
// Sheets spreadsheet for sharing.
//
// Example usage:
//
//	// Export the linked table
//	districtExporter := exporter.NewDistrictExporter(paths)
//	err := districtExporter.ExportLinkedDistricts(districts)
//
//	// Build the workbook
//	reporter := exporter.NewExcelReporter(paths, logger)
//	path, err := reporter.WriteWorkbook(reports, info)
package exporter
