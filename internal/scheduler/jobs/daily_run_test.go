package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

type stubRunner struct {
	runs    int
	dryRuns int
	err     error
}

func (s *stubRunner) Run(_ context.Context, _ time.Time, dryRun bool) (*contracts.Report, error) {
	s.runs++
	if dryRun {
		s.dryRuns++
	}
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.Report{RunID: "test"}, nil
}

func TestDailyRunJob_RunsOnWeekdays(t *testing.T) {
	runner := &stubRunner{}
	job := NewDailyRunJob(runner, "", logger.NewNop())
	job.now = func() time.Time {
		return time.Date(2026, 8, 28, 8, 45, 0, 0, time.UTC) // Friday
	}

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, runner.runs)
	assert.Zero(t, runner.dryRuns, "scheduled runs must persist")
}

func TestDailyRunJob_SkipsWeekends(t *testing.T) {
	runner := &stubRunner{}
	job := NewDailyRunJob(runner, "", logger.NewNop())
	job.now = func() time.Time {
		return time.Date(2026, 8, 29, 8, 45, 0, 0, time.UTC) // Saturday
	}

	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, runner.runs)
}

func TestDailyRunJob_PropagatesRunError(t *testing.T) {
	runner := &stubRunner{err: errors.New("ledger down")}
	job := NewDailyRunJob(runner, "", logger.NewNop())
	job.now = func() time.Time {
		return time.Date(2026, 8, 26, 8, 45, 0, 0, time.UTC) // Wednesday
	}

	assert.Error(t, job.Run(context.Background()))
}

func TestDailyRunJob_DefaultSchedule(t *testing.T) {
	job := NewDailyRunJob(&stubRunner{}, "", logger.NewNop())
	assert.Equal(t, "0 45 8 * * MON-FRI", job.Schedule())

	custom := NewDailyRunJob(&stubRunner{}, "0 0 9 * * *", logger.NewNop())
	assert.Equal(t, "0 0 9 * * *", custom.Schedule())
}
