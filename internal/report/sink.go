package report

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/httputil"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// WebhookSink posts the finished report as JSON to a configured URL.
// An empty URL disables delivery, which keeps local runs quiet.
type WebhookSink struct {
	http *httputil.Client
	url  string
	log  *logger.Logger
}

func NewWebhookSink(client *httputil.Client, url string, log *logger.Logger) *WebhookSink {
	return &WebhookSink{
		http: client,
		url:  url,
		log:  log.WithField("component", "webhook_sink"),
	}
}

func (s *WebhookSink) Deliver(ctx context.Context, report *contracts.Report) error {
	if s.url == "" {
		s.log.Debug("No webhook configured, skipping delivery")
		return nil
	}

	resp, err := s.http.PostJSON(ctx, s.url, report)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.log.WithField("run_id", report.RunID).Info("Report delivered to webhook")
	return nil
}

// MemorySink retains the most recent report for the HTTP API.
type MemorySink struct {
	mu     sync.RWMutex
	latest *contracts.Report
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Deliver(_ context.Context, report *contracts.Report) error {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
	return nil
}

// Latest returns the last delivered report, nil before the first run.
func (s *MemorySink) Latest() *contracts.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// MultiSink fans a report out to several sinks. Every sink is attempted;
// the first error is returned after the fan-out completes.
type MultiSink struct {
	sinks []contracts.ReportSink
}

func NewMultiSink(sinks ...contracts.ReportSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Deliver(ctx context.Context, report *contracts.Report) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, report); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
