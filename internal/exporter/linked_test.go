package exporter

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edequity/internal/config"
	"edequity/pkg/contracts/domain"
)

func testDistrict(leaid string, fips int) domain.LinkedDistrict {
	return domain.LinkedDistrict{
		Leaid:                   leaid,
		Fips:                    fips,
		Enrollment:              1000,
		White:                   400,
		Black:                   300,
		Hispanic:                200,
		Asian:                   100,
		RevTotal:                12000000,
		AdjTotal:                11500000,
		AdjTotalCOLA:            11000000,
		COLA:                    0.95,
		PerPupilTotal:           11000,
		PctBlack:                30,
		PctWhite:                40,
		PctNonwhite:             60,
		ConcentrationByNonwhite: domain.ConcentrationNonwhite,
		ConcentrationByBlack:    domain.NotConcentrated,
		BinBlack:                30,
		BinNonwhite:             60,
	}
}

func readExportedCSV(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Strip the BOM the stream writer prepends.
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportLinkedDistricts(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	exp := NewDistrictExporter(paths)

	// Deliberately unsorted input.
	districts := []domain.LinkedDistrict{
		testDistrict("0200030", 2),
		testDistrict("0100005", 1),
	}
	require.NoError(t, exp.ExportLinkedDistricts(districts))

	records := readExportedCSV(t, paths.LinkedDistrictsCSV)
	require.Len(t, records, 3)

	assert.Equal(t, linkedHeaders(), records[0])
	assert.Equal(t, "0100005", records[1][0], "rows sorted by district id")
	assert.Equal(t, "0200030", records[2][0])

	// Every record matches the header width.
	for i, record := range records {
		assert.Len(t, record, len(linkedHeaders()), "row %d", i)
	}

	// Spot-check typed columns.
	assert.Equal(t, "1", records[1][1])          // fips
	assert.Equal(t, "1000.00", records[1][2])    // enrollment
	assert.Equal(t, "nonwhite", records[1][33])  // concentration_by_nonwhite
	assert.Equal(t, "30", records[1][35])        // bin_black
}

func TestExportDistrictDetail(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	exp := NewDistrictExporter(paths)

	districts := []domain.LinkedDistrict{
		testDistrict("0100005", 1),
		testDistrict("0200030", 2),
	}
	directory := map[string]DirectoryEntry{
		"0100005": {LeaName: "ALBERTVILLE CITY", StateAbbr: "AL"},
		// 0200030 intentionally missing.
	}
	require.NoError(t, exp.ExportDistrictDetail(districts, directory))

	records := readExportedCSV(t, paths.DistrictDetailCSV)
	require.Len(t, records, 3)

	assert.Equal(t, "leaid", records[0][0])
	assert.Equal(t, "lea_name", records[0][1])
	assert.Equal(t, "state_abbr", records[0][2])

	assert.Equal(t, []string{"0100005", "ALBERTVILLE CITY", "AL"}, records[1][:3])

	// Districts without a directory match keep empty name cells.
	assert.Equal(t, []string{"0200030", "", ""}, records[2][:3])

	// The numeric columns follow, shifted by the two name columns.
	assert.Equal(t, "1000.00", records[1][4])
}

func TestLinkedRecordWidth(t *testing.T) {
	record := linkedRecord(testDistrict("0100005", 1))
	assert.Len(t, record, len(linkedHeaders()))
}
