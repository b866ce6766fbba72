package jobs

import (
	"context"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// defaultSchedule fires at 08:45 IST on weekdays, before market open.
const defaultSchedule = "0 45 8 * * MON-FRI"

// Runner executes one daily decision run.
type Runner interface {
	Run(ctx context.Context, runDate time.Time, dryRun bool) (*contracts.Report, error)
}

// DailyRunJob triggers the decision pipeline every trading morning.
type DailyRunJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

func NewDailyRunJob(runner Runner, schedule string, log *logger.Logger) *DailyRunJob {
	if schedule == "" {
		schedule = defaultSchedule
	}
	return &DailyRunJob{
		runner:   runner,
		schedule: schedule,
		logger:   log.WithField("job", "daily_run"),
		now:      time.Now,
	}
}

func (j *DailyRunJob) Name() string {
	return "daily_run"
}

func (j *DailyRunJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline for today. Weekends are skipped without
// error so manual triggers and lenient schedules stay harmless.
func (j *DailyRunJob) Run(ctx context.Context) error {
	today := j.now()
	if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
		j.logger.WithField("weekday", wd.String()).Info("Skipping run, market closed")
		return nil
	}

	report, err := j.runner.Run(ctx, today, false)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"ideas":  len(report.Ideas),
	}).Info("Daily run delivered")

	return nil
}
