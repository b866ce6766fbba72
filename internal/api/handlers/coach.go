package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/akshayr/portfolio-coach/internal/audit"
	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// ReportStore serves the most recent delivered report.
type ReportStore interface {
	Latest() *contracts.Report
}

// Runner executes the decision pipeline on demand.
type Runner interface {
	Run(ctx context.Context, runDate time.Time, dryRun bool) (*contracts.Report, error)
}

// CoachHandler exposes the recommendation ledger, the latest report and
// manual run triggering.
type CoachHandler struct {
	ledger     contracts.Ledger
	reports    ReportStore
	runner     Runner
	investorID string
	logger     *logger.Logger
}

func NewCoachHandler(ledger contracts.Ledger, reports ReportStore, runner Runner, investorID string, log *logger.Logger) *CoachHandler {
	return &CoachHandler{
		ledger:     ledger,
		reports:    reports,
		runner:     runner,
		investorID: investorID,
		logger:     log,
	}
}

// GetRecommendations returns the ledger rows for one run date.
// GET /api/v1/recommendations?date=2026-08-28 (default: today)
func (h *CoachHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := time.Now().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
			return
		}
		date = parsed
	}

	recs, err := h.ledger.RecommendationsByDate(ctx, h.investorID, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read recommendations")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve recommendations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"date":    date.Format("2006-01-02"),
		"data":    recs,
	})
}

// UpdateStatusRequest marks a recommendation's lifecycle change.
type UpdateStatusRequest struct {
	Status         string   `json:"status"`
	ExecutionPrice *float64 `json:"execution_price,omitempty"`
}

// UpdateRecommendationStatus records that the investor acted on, expired
// or cancelled a recommendation. Invalid transitions are rejected.
// PUT /api/v1/recommendations/{id}/status
func (h *CoachHandler) UpdateRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := contracts.Status(req.Status)
	switch status {
	case contracts.StatusExecuted, contracts.StatusExpired, contracts.StatusCancelled:
	default:
		respondError(w, http.StatusBadRequest, "Status must be EXECUTED, EXPIRED or CANCELLED")
		return
	}

	if err := h.ledger.UpdateStatus(ctx, id, status, req.ExecutionPrice); err != nil {
		h.logger.WithError(err).WithField("id", id).Warn("Status update rejected")
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetLatestReport returns the last report produced by a run.
// GET /api/v1/report/latest
func (h *CoachHandler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	report := h.reports.Latest()
	if report == nil {
		respondError(w, http.StatusNotFound, "No report available yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// GetPerformance returns the trailing portfolio history with an
// annualized Sharpe ratio over the window.
// GET /api/v1/performance?days=30
func (h *CoachHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid days")
			return
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)
	history, err := h.ledger.HistorySince(ctx, h.investorID, since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read portfolio history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve performance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"days":    days,
		"sharpe":  audit.SharpeRatio(history),
		"data":    history,
	})
}

// TriggerRun executes the pipeline immediately. With dry_run=true the
// run persists nothing and the report is only returned inline.
// POST /api/v1/run?dry_run=true
func (h *CoachHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dryRun := r.URL.Query().Get("dry_run") == "true"

	report, err := h.runner.Run(ctx, time.Now(), dryRun)
	if err != nil {
		h.logger.WithError(err).Error("Manual run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"dry_run": dryRun,
		"data":    report,
	})
}
