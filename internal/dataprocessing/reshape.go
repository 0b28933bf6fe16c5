package dataprocessing

import (
	"log/slog"
	"sort"

	"edequity/internal/edudata"
	"edequity/pkg/contracts/domain"
)

// Reshaper pivots the long-format enrollment survey into one row per
// district with a column per race category.
type Reshaper struct {
	logger *slog.Logger
}

// NewReshaper creates an enrollment reshaper
func NewReshaper(logger *slog.Logger) *Reshaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reshaper{logger: logger}
}

// ReshapeEnrollment pivots enrollment rows by race. Only the sex=Total,
// grade=Total stratum enters the pivot; finer strata would double
// count. A race with no row for a district stays zero, a suppressed
// count turns the cell NaN. Output is sorted by district identifier,
// one row per district.
func (r *Reshaper) ReshapeEnrollment(rows []edudata.EnrollmentRow) []domain.RaceComposition {
	byLeaid := make(map[string]*domain.RaceComposition)
	loggedLabels := make(map[string]bool)

	kept := 0
	for _, row := range rows {
		if !row.IsTotalStratum() {
			continue
		}
		kept++

		comp, ok := byLeaid[row.Leaid]
		if !ok {
			comp = &domain.RaceComposition{Leaid: row.Leaid, Fips: row.Fips}
			byLeaid[row.Leaid] = comp
		}

		switch row.Race {
		case "White":
			comp.White += row.Enrollment
		case "Black":
			comp.Black += row.Enrollment
		case "Hispanic":
			comp.Hispanic += row.Enrollment
		case "Asian":
			comp.Asian += row.Enrollment
		case "American Indian or Alaska Native":
			comp.AmericanIndian += row.Enrollment
		case "Native Hawaiian or other Pacific Islander":
			comp.PacificIslander += row.Enrollment
		case "Two or more races":
			comp.TwoOrMore += row.Enrollment
		case "Unknown":
			comp.Unknown += row.Enrollment
		case "Total":
			comp.Total += row.Enrollment
		default:
			if !loggedLabels[row.Race] {
				loggedLabels[row.Race] = true
				r.logger.Warn("unrecognized race label folded into Other",
					slog.String("race", row.Race))
			}
			comp.Other += row.Enrollment
		}
	}

	compositions := make([]domain.RaceComposition, 0, len(byLeaid))
	for _, comp := range byLeaid {
		compositions = append(compositions, *comp)
	}
	sort.Slice(compositions, func(i, j int) bool {
		return compositions[i].Leaid < compositions[j].Leaid
	})

	r.logger.Info("enrollment reshaped",
		slog.Int("rows_in", len(rows)),
		slog.Int("total_strata", kept),
		slog.Int("districts", len(compositions)),
		slog.Int("unrecognized_labels", len(loggedLabels)))
	return compositions
}
