package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"edequity/pkg/contracts/domain"
)

// ReadLinkedDistricts loads a previously exported linked table back
// into memory. The file must carry the exact column set written by
// ExportLinkedDistricts; empty numeric cells become NaN.
func ReadLinkedDistricts(path string) ([]domain.LinkedDistrict, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open linked table: %w", err)
	}
	defer file.Close()

	headers := linkedHeaders()
	reader := csv.NewReader(skipBOM(file))
	reader.FieldsPerRecord = len(headers)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read linked table header: %w", err)
	}
	for i, want := range headers {
		if header[i] != want {
			return nil, fmt.Errorf("linked table header mismatch: got %q, want %q",
				header[i], want)
		}
	}

	var districts []domain.LinkedDistrict
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read linked table line %d: %w", line, err)
		}
		district, err := parseLinkedRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("linked table line %d: %w", line, err)
		}
		districts = append(districts, district)
	}
	return districts, nil
}

// parseLinkedRecord inverts linkedRecord for one row
func parseLinkedRecord(rec []string) (domain.LinkedDistrict, error) {
	var d domain.LinkedDistrict

	d.Leaid = rec[0]
	fips, err := strconv.Atoi(rec[1])
	if err != nil {
		return d, fmt.Errorf("fips: %w", err)
	}
	d.Fips = fips

	headers := linkedHeaders()
	numeric := []*float64{
		&d.Enrollment,
		&d.White, &d.Black, &d.Hispanic, &d.Asian, &d.AmericanIndian,
		&d.PacificIslander, &d.TwoOrMore, &d.Unknown, &d.Other,
		&d.RevTotal,
		&d.AdjFed, &d.AdjState, &d.AdjLocal, &d.AdjStateLocal, &d.AdjTotal,
		&d.COLA,
		&d.AdjFedCOLA, &d.AdjStateCOLA, &d.AdjLocalCOLA,
		&d.AdjStateLocalCOLA, &d.AdjTotalCOLA,
		&d.PerPupilFed, &d.PerPupilState, &d.PerPupilLocal,
		&d.PerPupilStateLocal, &d.PerPupilTotal,
		&d.PctBlack, &d.PctHispanic, &d.PctWhite, &d.PctNonwhite,
	}
	for i, dst := range numeric {
		v, err := parseLinkedCell(rec[i+2])
		if err != nil {
			return d, fmt.Errorf("%s: %w", headers[i+2], err)
		}
		*dst = v
	}

	d.ConcentrationByNonwhite = domain.Concentration(rec[33])
	d.ConcentrationByBlack = domain.Concentration(rec[34])

	binBlack, err := strconv.Atoi(rec[35])
	if err != nil {
		return d, fmt.Errorf("bin_black: %w", err)
	}
	binNonwhite, err := strconv.Atoi(rec[36])
	if err != nil {
		return d, fmt.Errorf("bin_nonwhite: %w", err)
	}
	d.BinBlack = binBlack
	d.BinNonwhite = binNonwhite

	return d, nil
}

// parseLinkedCell parses a numeric cell; the empty cell becomes NaN
func parseLinkedCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// skipBOM discards a UTF-8 byte order mark if present. Exported tables
// carry one for spreadsheet compatibility.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
