package edudata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"edequity/internal/config"
	apperrors "edequity/internal/errors"
	"edequity/internal/exporter"
)

// Cache persists raw dataset snapshots as CSV files under the cache
// directory, one file per dataset and year. A populated cache lets the
// pipeline skip the network on repeat runs over the same year.
type Cache struct {
	paths  *config.Paths
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewCache creates a dataset cache rooted at the configured cache dir
func NewCache(paths *config.Paths, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		paths:  paths,
		writer: exporter.NewCSVWriter(paths),
		logger: logger,
	}
}

// Expected headers per dataset file. Loads validate against these so a
// stale or foreign file fails loudly instead of decoding garbage.
var (
	financeHeaders = []string{
		"leaid", "fips", "rev_total", "rev_fed_total", "rev_state_total",
		"rev_local_total", "rev_state_capital_outlay",
		"rev_local_property_sale", "payments_charter_schools",
	}
	enrollmentHeaders = []string{"leaid", "fips", "race", "sex", "grade", "enrollment"}
	directoryHeaders  = []string{"leaid", "fips", "lea_name", "state_abbr", "enrollment"}
	costIndexHeaders  = []string{"leaid", "fips", "cola"}
)

// Has reports whether a snapshot exists for the dataset stem and year
func (c *Cache) Has(stem string, year int) bool {
	_, err := os.Stat(c.paths.GetCachePath(stem, year))
	return err == nil
}

// formatCell renders a numeric cell; NaN becomes the empty cell
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseCell parses a numeric cell; the empty cell becomes NaN
func parseCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// SaveFinance writes a finance snapshot for the year
func (c *Cache) SaveFinance(year int, rows []FinanceRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Leaid,
			strconv.Itoa(r.Fips),
			formatCell(r.RevTotal),
			formatCell(r.RevFedTotal),
			formatCell(r.RevStateTotal),
			formatCell(r.RevLocalTotal),
			formatCell(r.RevStateCapitalOutlay),
			formatCell(r.RevLocalPropertySale),
			formatCell(r.PaymentsCharterSchools),
		})
	}
	return c.save(config.CacheStemFinance, year, financeHeaders, records)
}

// LoadFinance reads a finance snapshot for the year
func (c *Cache) LoadFinance(year int) ([]FinanceRow, error) {
	records, err := c.load(config.CacheStemFinance, year, financeHeaders)
	if err != nil {
		return nil, err
	}

	rows := make([]FinanceRow, 0, len(records))
	for i, rec := range records {
		row, err := parseFinanceRecord(rec)
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("finance cache record %d", i+1), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseFinanceRecord(rec []string) (FinanceRow, error) {
	var row FinanceRow
	fips, err := strconv.Atoi(rec[1])
	if err != nil {
		return row, fmt.Errorf("fips: %w", err)
	}

	row.Leaid = rec[0]
	row.Fips = fips

	numeric := []*float64{
		&row.RevTotal, &row.RevFedTotal, &row.RevStateTotal,
		&row.RevLocalTotal, &row.RevStateCapitalOutlay,
		&row.RevLocalPropertySale, &row.PaymentsCharterSchools,
	}
	for i, dst := range numeric {
		v, err := parseCell(rec[i+2])
		if err != nil {
			return row, fmt.Errorf("%s: %w", financeHeaders[i+2], err)
		}
		*dst = v
	}
	return row, nil
}

// SaveEnrollment writes an enrollment-by-race snapshot for the year
func (c *Cache) SaveEnrollment(year int, rows []EnrollmentRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Leaid,
			strconv.Itoa(r.Fips),
			r.Race,
			r.Sex,
			r.Grade,
			formatCell(r.Enrollment),
		})
	}
	return c.save(config.CacheStemEnrollment, year, enrollmentHeaders, records)
}

// LoadEnrollment reads an enrollment-by-race snapshot for the year
func (c *Cache) LoadEnrollment(year int) ([]EnrollmentRow, error) {
	records, err := c.load(config.CacheStemEnrollment, year, enrollmentHeaders)
	if err != nil {
		return nil, err
	}

	rows := make([]EnrollmentRow, 0, len(records))
	for i, rec := range records {
		fips, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("enrollment cache record %d fips", i+1), err)
		}
		enrollment, err := parseCell(rec[5])
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("enrollment cache record %d enrollment", i+1), err)
		}
		rows = append(rows, EnrollmentRow{
			Leaid:      rec[0],
			Fips:       fips,
			Race:       rec[2],
			Sex:        rec[3],
			Grade:      rec[4],
			Enrollment: enrollment,
		})
	}
	return rows, nil
}

// SaveDirectory writes a directory snapshot for the year
func (c *Cache) SaveDirectory(year int, rows []DirectoryRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Leaid,
			strconv.Itoa(r.Fips),
			r.LeaName,
			r.StateAbbr,
			formatCell(r.Enrollment),
		})
	}
	return c.save(config.CacheStemDirectory, year, directoryHeaders, records)
}

// LoadDirectory reads a directory snapshot for the year
func (c *Cache) LoadDirectory(year int) ([]DirectoryRow, error) {
	records, err := c.load(config.CacheStemDirectory, year, directoryHeaders)
	if err != nil {
		return nil, err
	}

	rows := make([]DirectoryRow, 0, len(records))
	for i, rec := range records {
		fips, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("directory cache record %d fips", i+1), err)
		}
		enrollment, err := parseCell(rec[4])
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("directory cache record %d enrollment", i+1), err)
		}
		rows = append(rows, DirectoryRow{
			Leaid:      rec[0],
			Fips:       fips,
			LeaName:    rec[2],
			StateAbbr:  rec[3],
			Enrollment: enrollment,
		})
	}
	return rows, nil
}

// SaveCostIndex writes a cost index snapshot for the year
func (c *Cache) SaveCostIndex(year int, rows []CostIndexRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Leaid,
			strconv.Itoa(r.Fips),
			formatCell(r.Cola),
		})
	}
	return c.save(config.CacheStemCostIndex, year, costIndexHeaders, records)
}

// LoadCostIndex reads a cost index snapshot for the year
func (c *Cache) LoadCostIndex(year int) ([]CostIndexRow, error) {
	records, err := c.load(config.CacheStemCostIndex, year, costIndexHeaders)
	if err != nil {
		return nil, err
	}

	rows := make([]CostIndexRow, 0, len(records))
	for i, rec := range records {
		fips, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("cost index cache record %d fips", i+1), err)
		}
		cola, err := parseCell(rec[2])
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("cost index cache record %d cola", i+1), err)
		}
		rows = append(rows, CostIndexRow{Leaid: rec[0], Fips: fips, Cola: cola})
	}
	return rows, nil
}

// save writes one snapshot file through the shared CSV writer
func (c *Cache) save(stem string, year int, headers []string, records [][]string) error {
	path := c.paths.GetCachePath(stem, year)
	if err := c.writer.WriteSimpleCSV(path, headers, records); err != nil {
		return apperrors.NewStorageError(
			fmt.Sprintf("failed to write %s snapshot", stem), err)
	}

	c.logger.Info("dataset snapshot written",
		slog.String("dataset", stem),
		slog.Int("year", year),
		slog.Int("rows", len(records)),
		slog.String("path", path))
	return nil
}

// load reads one snapshot file and validates its header row
func (c *Cache) load(stem string, year int, headers []string) ([][]string, error) {
	path := c.paths.GetCachePath(stem, year)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(
				fmt.Sprintf("%s snapshot for %d", stem, year))
		}
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("failed to open %s snapshot", stem), err)
	}
	defer file.Close()

	reader := csv.NewReader(stripBOM(file))
	reader.FieldsPerRecord = len(headers)

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("failed to read %s snapshot header", stem), err)
	}
	for i, want := range headers {
		if header[i] != want {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s snapshot header mismatch: got %q, want %q",
					stem, header[i], want), nil)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("failed to read %s snapshot", stem), err)
	}
	return records, nil
}

// stripBOM skips a UTF-8 byte order mark if present. Snapshot files are
// written with a BOM for spreadsheet compatibility.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
