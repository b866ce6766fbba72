package scheduler

import (
	"context"
	"time"
)

// Job is a named unit of scheduled work.
type Job interface {
	Name() string

	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field included.
	// Example: "0 45 8 * * MON-FRI".
	Schedule() string
}

// JobResult records one execution attempt chain.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent results for a job.
type JobHistory struct {
	Results []JobResult
}

const historyLimit = 100

func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the most recent n results, oldest first.
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n == 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// SuccessRate returns the fraction of recorded runs that succeeded.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	success := 0
	for _, result := range h.Results {
		if result.Success {
			success++
		}
	}
	return float64(success) / float64(len(h.Results))
}
