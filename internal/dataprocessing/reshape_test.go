package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edequity/internal/edudata"
)

func enrollmentRow(leaid string, race string, count float64) edudata.EnrollmentRow {
	return edudata.EnrollmentRow{
		Leaid:      leaid,
		Fips:       1,
		Race:       race,
		Sex:        "Total",
		Grade:      "Total",
		Enrollment: count,
	}
}

func TestReshapeEnrollment(t *testing.T) {
	reshaper := NewReshaper(testLogger())

	rows := []edudata.EnrollmentRow{
		enrollmentRow("0100006", "White", 300),
		enrollmentRow("0100006", "Total", 500),
		enrollmentRow("0100005", "White", 400),
		enrollmentRow("0100005", "Black", 300),
		enrollmentRow("0100005", "Hispanic", 200),
		enrollmentRow("0100005", "Asian", 50),
		enrollmentRow("0100005", "American Indian or Alaska Native", 20),
		enrollmentRow("0100005", "Native Hawaiian or other Pacific Islander", 10),
		enrollmentRow("0100005", "Two or more races", 15),
		enrollmentRow("0100005", "Unknown", 5),
		enrollmentRow("0100005", "Total", 1000),
	}
	compositions := reshaper.ReshapeEnrollment(rows)

	require.Len(t, compositions, 2)

	// Sorted by district identifier.
	first := compositions[0]
	assert.Equal(t, "0100005", first.Leaid)
	assert.Equal(t, 1, first.Fips)
	assert.Equal(t, 400.0, first.White)
	assert.Equal(t, 300.0, first.Black)
	assert.Equal(t, 200.0, first.Hispanic)
	assert.Equal(t, 50.0, first.Asian)
	assert.Equal(t, 20.0, first.AmericanIndian)
	assert.Equal(t, 10.0, first.PacificIslander)
	assert.Equal(t, 15.0, first.TwoOrMore)
	assert.Equal(t, 5.0, first.Unknown)
	assert.Equal(t, 1000.0, first.Total)

	// Races with no reported row stay zero.
	second := compositions[1]
	assert.Equal(t, "0100006", second.Leaid)
	assert.Equal(t, 300.0, second.White)
	assert.Equal(t, 0.0, second.Black)
	assert.Equal(t, 0.0, second.Other)
}

func TestReshapeSkipsFinerStrata(t *testing.T) {
	reshaper := NewReshaper(testLogger())

	rows := []edudata.EnrollmentRow{
		enrollmentRow("0100005", "White", 400),
		{Leaid: "0100005", Fips: 1, Race: "White", Sex: "Female", Grade: "Total", Enrollment: 200},
		{Leaid: "0100005", Fips: 1, Race: "White", Sex: "Total", Grade: "Grade 9", Enrollment: 40},
		{Leaid: "0100005", Fips: 1, Race: "White", Sex: "Male", Grade: "Grade 9", Enrollment: 20},
	}
	compositions := reshaper.ReshapeEnrollment(rows)

	require.Len(t, compositions, 1)
	assert.Equal(t, 400.0, compositions[0].White, "only the Total/Total stratum counts")
}

func TestReshapeUnrecognizedLabel(t *testing.T) {
	reshaper := NewReshaper(testLogger())

	rows := []edudata.EnrollmentRow{
		enrollmentRow("0100005", "White", 400),
		enrollmentRow("0100005", "Not reported", 30),
		enrollmentRow("0100005", "Not reported", 12),
	}
	compositions := reshaper.ReshapeEnrollment(rows)

	require.Len(t, compositions, 1)
	assert.Equal(t, 42.0, compositions[0].Other, "unrecognized labels accumulate into Other")
}

func TestReshapeSuppressedCount(t *testing.T) {
	reshaper := NewReshaper(testLogger())

	rows := []edudata.EnrollmentRow{
		enrollmentRow("0100005", "White", 400),
		enrollmentRow("0100005", "Black", math.NaN()),
		enrollmentRow("0100005", "Total", 450),
	}
	compositions := reshaper.ReshapeEnrollment(rows)

	require.Len(t, compositions, 1)
	comp := compositions[0]
	assert.True(t, math.IsNaN(comp.Black), "suppressed counts stay NaN through the pivot")
	assert.Equal(t, 400.0, comp.White)
	assert.False(t, comp.HasCompleteCounts())
}

func TestReshapeOneRowPerDistrict(t *testing.T) {
	reshaper := NewReshaper(testLogger())

	rows := []edudata.EnrollmentRow{
		enrollmentRow("0100005", "White", 100),
		enrollmentRow("0100005", "White", 50),
	}
	compositions := reshaper.ReshapeEnrollment(rows)

	require.Len(t, compositions, 1)
	assert.Equal(t, 150.0, compositions[0].White, "duplicate strata sum")
}

func TestReshapeEmpty(t *testing.T) {
	reshaper := NewReshaper(testLogger())
	assert.Empty(t, reshaper.ReshapeEnrollment(nil))
}
