package operations

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStageState(t *testing.T) {
	st := NewStageState("fetch", "Fetch datasets")

	assert.Equal(t, "fetch", st.ID)
	assert.Equal(t, "Fetch datasets", st.Name)
	assert.Equal(t, StageStatusPending, st.GetStatus())
	assert.Zero(t, st.Progress)
	assert.Nil(t, st.StartTime)
	assert.Nil(t, st.EndTime)
}

func TestStageStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*StageState)
		wantStatus StageStatus
		wantEnd    bool
	}{
		{
			name:       "start marks active without end time",
			transition: func(s *StageState) { s.Start() },
			wantStatus: StageStatusActive,
			wantEnd:    false,
		},
		{
			name: "complete sets end time and full progress",
			transition: func(s *StageState) {
				s.Start()
				s.Complete()
			},
			wantStatus: StageStatusCompleted,
			wantEnd:    true,
		},
		{
			name: "fail keeps the error",
			transition: func(s *StageState) {
				s.Start()
				s.Fail(errors.New("boom"))
			},
			wantStatus: StageStatusFailed,
			wantEnd:    true,
		},
		{
			name:       "skip records the reason",
			transition: func(s *StageState) { s.Skip("nothing to do") },
			wantStatus: StageStatusSkipped,
			wantEnd:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewStageState("link", "Link districts")
			tt.transition(st)

			assert.Equal(t, tt.wantStatus, st.GetStatus())
			if tt.wantEnd {
				assert.NotNil(t, st.EndTime)
			} else {
				assert.Nil(t, st.EndTime)
			}
		})
	}
}

func TestStageStateCompleteSetsProgress(t *testing.T) {
	st := NewStageState("derive", "Derive tables")
	st.Start()
	st.UpdateProgress(40, "halfway")
	st.Complete()

	assert.Equal(t, float64(100), st.Progress)
}

func TestStageStateFailKeepsError(t *testing.T) {
	st := NewStageState("export", "Export artifacts")
	st.Start()
	cause := errors.New("disk full")
	st.Fail(cause)

	require.NotNil(t, st.Error)
	assert.Equal(t, "disk full", st.Error.Error())
}

func TestStageStateSkipKeepsReason(t *testing.T) {
	st := NewStageState("export", "Export artifacts")
	st.Skip("validation failed: no districts")

	assert.Equal(t, "validation failed: no districts", st.Message)
}

func TestStageStateUpdateProgress(t *testing.T) {
	st := NewStageState("fetch", "Fetch datasets")
	st.Start()
	st.UpdateProgress(25, "finance dataset ready")

	assert.Equal(t, float64(25), st.Progress)
	assert.Equal(t, "finance dataset ready", st.Message)
}

func TestStageStateDuration(t *testing.T) {
	st := NewStageState("fetch", "Fetch datasets")
	assert.Zero(t, st.Duration())

	st.Start()
	time.Sleep(10 * time.Millisecond)
	st.Complete()

	first := st.Duration()
	assert.GreaterOrEqual(t, first, 10*time.Millisecond)

	// Frozen once the stage has ended
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, st.Duration())
}

func TestStageStateSummary(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(*StageState)
		validate func(*testing.T, StageSummary)
	}{
		{
			name: "completed stage has a duration",
			prepare: func(s *StageState) {
				s.Start()
				s.Complete()
			},
			validate: func(t *testing.T, sum StageSummary) {
				assert.Equal(t, StageStatusCompleted, sum.Status)
				assert.GreaterOrEqual(t, sum.DurationSeconds, 0.0)
				assert.Empty(t, sum.Error)
			},
		},
		{
			name: "failed stage carries the error string",
			prepare: func(s *StageState) {
				s.Start()
				s.Fail(errors.New("boom"))
			},
			validate: func(t *testing.T, sum StageSummary) {
				assert.Equal(t, StageStatusFailed, sum.Status)
				assert.Equal(t, "boom", sum.Error)
			},
		},
		{
			name:    "skipped stage carries the reason",
			prepare: func(s *StageState) { s.Skip("not run") },
			validate: func(t *testing.T, sum StageSummary) {
				assert.Equal(t, StageStatusSkipped, sum.Status)
				assert.Equal(t, "not run", sum.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewStageState("link", "Link districts")
			tt.prepare(st)

			sum := st.summary()
			assert.Equal(t, "link", sum.ID)
			assert.Equal(t, "Link districts", sum.Name)
			tt.validate(t, sum)
		})
	}
}

func TestBaseStage(t *testing.T) {
	base := NewBaseStage("aggregate", "Aggregate equity reports")

	assert.Equal(t, "aggregate", base.ID())
	assert.Equal(t, "Aggregate equity reports", base.Name())
	assert.NoError(t, base.Validate(NewRunState(2018)))
}
