package operations

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"edequity/internal/analysis"
	"edequity/internal/edudata"
	"edequity/pkg/contracts/domain"
)

// RunStatus represents the overall pipeline run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState carries the complete state of a pipeline run. Stages read
// the artifacts earlier stages stored and store their own; the runner
// owns status transitions.
type RunState struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Year      int        `json:"year"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Stage states, keyed by stage ID; stageOrder preserves registration order
	Stages     map[string]*StageState `json:"stages"`
	stageOrder []string

	// Raw datasets as fetched (or loaded from cache)
	Finance    []edudata.FinanceRow    `json:"-"`
	Enrollment []edudata.EnrollmentRow `json:"-"`
	Directory  []edudata.DirectoryRow  `json:"-"`
	CostIndex  []edudata.CostIndexRow  `json:"-"`

	// Derived tables
	Adjusted     []domain.AdjustedFinance `json:"-"`
	Compositions []domain.RaceComposition `json:"-"`
	Linked       []domain.LinkedDistrict  `json:"-"`
	Drops        domain.DropStats         `json:"drops"`

	// Aggregated reports
	Reports analysis.ReportSet `json:"-"`

	// Paths of every file the run wrote
	Artifacts []string `json:"artifacts"`

	// Error if the run failed
	Error error `json:"error,omitempty"`
}

// NewRunState creates a new run state for the given school year
func NewRunState(year int) *RunState {
	return &RunState{
		ID:        uuid.New().String(),
		Year:      year,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Stages:    make(map[string]*StageState),
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// GetStatus returns the run status under the read lock
func (r *RunState) GetStatus() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// AddStage registers a stage state, keeping registration order
func (r *RunState) AddStage(state *StageState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.Stages[state.ID]; !exists {
		r.stageOrder = append(r.stageOrder, state.ID)
	}
	r.Stages[state.ID] = state
}

// GetStage returns the state of a specific stage
func (r *RunState) GetStage(stageID string) *StageState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Stages[stageID]
}

// AddArtifact records the path of a file the run wrote
func (r *RunState) AddArtifact(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Artifacts = append(r.Artifacts, path)
}

// Duration returns the duration of the run
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// StageSummary is one stage's entry in the run summary file
type StageSummary struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Status          StageStatus `json:"status"`
	DurationSeconds float64     `json:"duration_seconds"`
	Message         string      `json:"message,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// RunSummary is the machine-readable record of a pipeline run,
// written next to the report artifacts
type RunSummary struct {
	RunID           string          `json:"run_id"`
	Year            int             `json:"year"`
	Status          RunStatus       `json:"status"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationSeconds float64         `json:"duration_seconds"`
	Stages          []StageSummary  `json:"stages"`
	DistrictsLinked int             `json:"districts_linked"`
	Drops           domain.DropStats `json:"drop_accounting"`
	Artifacts       []string        `json:"artifacts"`
	Error           string          `json:"error,omitempty"`
}

// Summary captures the current run state for persistence
func (r *RunState) Summary() RunSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := RunSummary{
		RunID:           r.ID,
		Year:            r.Year,
		Status:          r.Status,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DistrictsLinked: len(r.Linked),
		Drops:           r.Drops,
		Artifacts:       append([]string(nil), r.Artifacts...),
	}
	if r.EndTime != nil {
		out.DurationSeconds = r.EndTime.Sub(r.StartTime).Seconds()
	}
	for _, id := range r.stageOrder {
		out.Stages = append(out.Stages, r.Stages[id].summary())
	}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return out
}
