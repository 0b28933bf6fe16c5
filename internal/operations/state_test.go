package operations

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edequity/pkg/contracts/domain"
)

func TestNewRunState(t *testing.T) {
	state := NewRunState(2018)

	assert.Len(t, state.ID, 36)
	assert.Equal(t, 2018, state.Year)
	assert.Equal(t, RunStatusPending, state.GetStatus())
	assert.NotNil(t, state.Stages)
	assert.Empty(t, state.Artifacts)
}

func TestRunStateIDsAreUnique(t *testing.T) {
	first := NewRunState(2018)
	second := NewRunState(2018)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*RunState)
		wantStatus RunStatus
		wantEnd    bool
	}{
		{
			name:       "start marks running",
			transition: func(s *RunState) { s.Start() },
			wantStatus: RunStatusRunning,
			wantEnd:    false,
		},
		{
			name: "complete sets end time",
			transition: func(s *RunState) {
				s.Start()
				s.Complete()
			},
			wantStatus: RunStatusCompleted,
			wantEnd:    true,
		},
		{
			name: "fail keeps the error",
			transition: func(s *RunState) {
				s.Start()
				s.Fail(errors.New("boom"))
			},
			wantStatus: RunStatusFailed,
			wantEnd:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewRunState(2018)
			tt.transition(state)

			assert.Equal(t, tt.wantStatus, state.GetStatus())
			if tt.wantEnd {
				assert.NotNil(t, state.EndTime)
			} else {
				assert.Nil(t, state.EndTime)
			}
		})
	}
}

func TestRunStateStageRegistration(t *testing.T) {
	state := NewRunState(2018)

	fetch := NewStageState("fetch", "Fetch datasets")
	state.AddStage(fetch)
	state.AddStage(NewStageState("derive", "Derive tables"))

	assert.Same(t, fetch, state.GetStage("fetch"))
	assert.NotNil(t, state.GetStage("derive"))
	assert.Nil(t, state.GetStage("missing"))
}

func TestRunStateAddStageKeepsSingleOrderEntry(t *testing.T) {
	state := NewRunState(2018)
	state.AddStage(NewStageState("fetch", "Fetch datasets"))

	replacement := NewStageState("fetch", "Fetch datasets")
	state.AddStage(replacement)
	state.Complete()

	summary := state.Summary()
	require.Len(t, summary.Stages, 1)
	assert.Same(t, replacement, state.GetStage("fetch"))
}

func TestRunStateArtifacts(t *testing.T) {
	state := NewRunState(2018)
	state.AddArtifact("/data/reports/linked_districts.csv")
	state.AddArtifact("/data/reports/equity_summary.txt")

	assert.Equal(t, []string{
		"/data/reports/linked_districts.csv",
		"/data/reports/equity_summary.txt",
	}, state.Artifacts)
}

func TestRunStateSummary(t *testing.T) {
	state := NewRunState(2018)

	fetch := NewStageState("fetch", "Fetch datasets")
	derive := NewStageState("derive", "Derive tables")
	link := NewStageState("link", "Link districts")
	state.AddStage(fetch)
	state.AddStage(derive)
	state.AddStage(link)

	state.Start()
	fetch.Start()
	fetch.Complete()
	derive.Start()
	derive.Fail(errors.New("boom"))
	link.Skip("not run: stage derive did not complete")

	state.Linked = []domain.LinkedDistrict{{}, {}}
	state.Drops = domain.DropStats{MissingCostIndex: 3, Kept: 2}
	state.AddArtifact("/data/reports/linked_districts.csv")
	state.Fail(errors.New("stage derive: boom"))

	summary := state.Summary()

	assert.Equal(t, state.ID, summary.RunID)
	assert.Equal(t, 2018, summary.Year)
	assert.Equal(t, RunStatusFailed, summary.Status)
	assert.Greater(t, summary.DurationSeconds, 0.0)
	assert.Equal(t, 2, summary.DistrictsLinked)
	assert.Equal(t, 3, summary.Drops.MissingCostIndex)
	assert.Equal(t, []string{"/data/reports/linked_districts.csv"}, summary.Artifacts)
	assert.Equal(t, "stage derive: boom", summary.Error)

	require.Len(t, summary.Stages, 3)
	assert.Equal(t, "fetch", summary.Stages[0].ID)
	assert.Equal(t, StageStatusCompleted, summary.Stages[0].Status)
	assert.Equal(t, "derive", summary.Stages[1].ID)
	assert.Equal(t, StageStatusFailed, summary.Stages[1].Status)
	assert.Equal(t, "boom", summary.Stages[1].Error)
	assert.Equal(t, "link", summary.Stages[2].ID)
	assert.Equal(t, StageStatusSkipped, summary.Stages[2].Status)
}

func TestRunSummaryMarshals(t *testing.T) {
	state := NewRunState(2018)
	state.AddStage(NewStageState("fetch", "Fetch datasets"))
	state.Start()
	state.GetStage("fetch").Start()
	state.GetStage("fetch").Complete()
	state.Complete()

	data, err := json.Marshal(state.Summary())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, state.ID, decoded["run_id"])
	assert.Equal(t, "completed", decoded["status"])
	assert.Contains(t, decoded, "drop_accounting")
	assert.Contains(t, decoded, "stages")
}
