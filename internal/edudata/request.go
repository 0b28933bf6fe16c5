package edudata

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"edequity/internal/config"
)

// DatasetRequest identifies one dataset collection on the provider.
// Level, source and topic are path segments; the optional subtopic
// selects a cross-tabulation (e.g. enrollment by race). A zero Year
// selects the year-independent form of the collection.
type DatasetRequest struct {
	Level     string `validate:"required,lowercase"`
	Source    string `validate:"required,lowercase"`
	Topic     string `validate:"required,lowercase"`
	Subtopic  string `validate:"omitempty,lowercase"`
	Year      int    `validate:"omitempty,gte=1986,lte=2030"`
	AddLabels bool
}

var requestValidator = validator.New()

// Validate checks the request segments against the provider's URL grammar
func (r DatasetRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Path renders the request as a provider path relative to the vintage
// segment, with a trailing slash: level/source/topic[/year][/subtopic]/.
func (r DatasetRequest) Path() string {
	segments := []string{r.Level, r.Source, r.Topic}
	if r.Year > 0 {
		segments = append(segments, fmt.Sprintf("%d", r.Year))
	}
	if r.Subtopic != "" {
		segments = append(segments, r.Subtopic)
	}
	return strings.Join(segments, "/") + "/"
}

// String implements fmt.Stringer for logging
func (r DatasetRequest) String() string {
	return r.Path()
}

// FinanceRequest returns the request for the district finance survey
func FinanceRequest(year int) DatasetRequest {
	return DatasetRequest{
		Level:  config.DatasetLevel,
		Source: config.DatasetSourceCCD,
		Topic:  config.TopicFinance,
		Year:   year,
	}
}

// EnrollmentByRaceRequest returns the request for enrollment counts
// cross-tabulated by race. Labels are requested so race arrives as a
// human-readable category rather than a numeric code.
func EnrollmentByRaceRequest(year int) DatasetRequest {
	return DatasetRequest{
		Level:     config.DatasetLevel,
		Source:    config.DatasetSourceCCD,
		Topic:     config.TopicEnrollment,
		Subtopic:  config.SubtopicRace,
		Year:      year,
		AddLabels: true,
	}
}

// DirectoryRequest returns the request for the district directory
func DirectoryRequest(year int) DatasetRequest {
	return DatasetRequest{
		Level:  config.DatasetLevel,
		Source: config.DatasetSourceCCD,
		Topic:  config.TopicDirectory,
		Year:   year,
	}
}

// CostIndexRequest returns the request for the geographic cost index
func CostIndexRequest(year int) DatasetRequest {
	return DatasetRequest{
		Level:  config.DatasetLevel,
		Source: config.DatasetSourceEDGE,
		Topic:  config.TopicCostIndex,
		Year:   year,
	}
}
