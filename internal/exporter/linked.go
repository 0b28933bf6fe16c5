package exporter

import (
	"fmt"
	"sort"
	"strconv"

	"edequity/internal/config"
	"edequity/pkg/contracts/domain"
)

// DistrictExporter writes the linked analytical table and its
// directory-enriched detail variant.
type DistrictExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewDistrictExporter creates a district table exporter
func NewDistrictExporter(paths *config.Paths) *DistrictExporter {
	return &DistrictExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// DirectoryEntry carries the identifying fields joined into the detail
// export. Keyed by district identifier by the caller.
type DirectoryEntry struct {
	LeaName   string
	StateAbbr string
}

// ExportLinkedDistricts streams the full linked table to
// linked_districts.csv, sorted by district identifier.
func (d *DistrictExporter) ExportLinkedDistricts(districts []domain.LinkedDistrict) error {
	sorted := make([]domain.LinkedDistrict, len(districts))
	copy(sorted, districts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Leaid < sorted[j].Leaid
	})

	stream, err := d.csvWriter.CreateStreamWriter(d.paths.LinkedDistrictsCSV, linkedHeaders())
	if err != nil {
		return fmt.Errorf("failed to create linked table writer: %w", err)
	}

	for _, district := range sorted {
		if err := stream.WriteRecord(linkedRecord(district)); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write district %s: %w", district.Leaid, err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close linked table: %w", err)
	}
	return nil
}

// ExportDistrictDetail writes district_detail.csv: the linked table
// joined with directory names and state abbreviations. Districts with
// no directory entry keep empty name cells rather than being dropped.
func (d *DistrictExporter) ExportDistrictDetail(districts []domain.LinkedDistrict, directory map[string]DirectoryEntry) error {
	sorted := make([]domain.LinkedDistrict, len(districts))
	copy(sorted, districts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Leaid < sorted[j].Leaid
	})

	headers := append([]string{"leaid", "lea_name", "state_abbr"}, linkedHeaders()[1:]...)

	stream, err := d.csvWriter.CreateStreamWriter(d.paths.DistrictDetailCSV, headers)
	if err != nil {
		return fmt.Errorf("failed to create detail table writer: %w", err)
	}

	for _, district := range sorted {
		entry := directory[district.Leaid]
		record := append([]string{district.Leaid, entry.LeaName, entry.StateAbbr},
			linkedRecord(district)[1:]...)
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write district %s: %w", district.Leaid, err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close detail table: %w", err)
	}
	return nil
}

// linkedHeaders returns the column set of the linked table
func linkedHeaders() []string {
	return []string{
		"leaid", "fips", "enrollment",
		"white", "black", "hispanic", "asian", "american_indian",
		"pacific_islander", "two_or_more", "unknown", "other",
		"rev_total",
		"adj_fed", "adj_state", "adj_local", "adj_state_local", "adj_total",
		"cola",
		"adj_fed_cola", "adj_state_cola", "adj_local_cola",
		"adj_state_local_cola", "adj_total_cola",
		"per_pupil_fed", "per_pupil_state", "per_pupil_local",
		"per_pupil_state_local", "per_pupil_total",
		"pct_black", "pct_hispanic", "pct_white", "pct_nonwhite",
		"concentration_by_nonwhite", "concentration_by_black",
		"bin_black", "bin_nonwhite",
	}
}

// linkedRecord converts one district to a CSV row matching linkedHeaders
func linkedRecord(d domain.LinkedDistrict) []string {
	return []string{
		d.Leaid,
		strconv.Itoa(d.Fips),
		formatFloat(d.Enrollment),
		formatFloat(d.White),
		formatFloat(d.Black),
		formatFloat(d.Hispanic),
		formatFloat(d.Asian),
		formatFloat(d.AmericanIndian),
		formatFloat(d.PacificIslander),
		formatFloat(d.TwoOrMore),
		formatFloat(d.Unknown),
		formatFloat(d.Other),
		formatFloat(d.RevTotal),
		formatFloat(d.AdjFed),
		formatFloat(d.AdjState),
		formatFloat(d.AdjLocal),
		formatFloat(d.AdjStateLocal),
		formatFloat(d.AdjTotal),
		formatFloat(d.COLA),
		formatFloat(d.AdjFedCOLA),
		formatFloat(d.AdjStateCOLA),
		formatFloat(d.AdjLocalCOLA),
		formatFloat(d.AdjStateLocalCOLA),
		formatFloat(d.AdjTotalCOLA),
		formatFloat(d.PerPupilFed),
		formatFloat(d.PerPupilState),
		formatFloat(d.PerPupilLocal),
		formatFloat(d.PerPupilStateLocal),
		formatFloat(d.PerPupilTotal),
		formatFloat(d.PctBlack),
		formatFloat(d.PctHispanic),
		formatFloat(d.PctWhite),
		formatFloat(d.PctNonwhite),
		string(d.ConcentrationByNonwhite),
		string(d.ConcentrationByBlack),
		formatInt(int64(d.BinBlack)),
		formatInt(int64(d.BinNonwhite)),
	}
}
