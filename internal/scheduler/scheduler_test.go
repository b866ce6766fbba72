package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/pkg/logger"
)

type noopJob struct {
	name     string
	schedule string
}

func (j noopJob) Name() string     { return j.name }
func (j noopJob) Schedule() string { return j.schedule }

func (j noopJob) Run(_ context.Context) error { return nil }

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(noopJob{name: "daily", schedule: "0 45 8 * * MON-FRI"}))
	assert.Equal(t, []string{"daily"}, s.JobNames())

	err := s.AddJob(noopJob{name: "daily", schedule: "@hourly"})
	assert.Error(t, err, "duplicate names rejected")
}

func TestScheduler_AddJobBadSchedule(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.AddJob(noopJob{name: "broken", schedule: "not a cron expr"}))
}

func TestScheduler_RunJobUnknown(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.RunJob("missing"))
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Zero(t, h.SuccessRate())
	assert.Empty(t, h.Latest(5))

	now := time.Now()
	h.AddResult(JobResult{JobName: "daily", StartTime: now, Success: true})
	h.AddResult(JobResult{JobName: "daily", StartTime: now, Success: false, Error: "boom"})
	h.AddResult(JobResult{JobName: "daily", StartTime: now, Success: true})

	assert.InDelta(t, 2.0/3.0, h.SuccessRate(), 1e-9)

	latest := h.Latest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, "boom", latest[0].Error)
	assert.True(t, latest[1].Success)
}

func TestJobHistory_Capped(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{Success: true})
	}
	assert.Len(t, h.Results, historyLimit)
}
