package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/akshayr/portfolio-coach/internal/api/handlers"
	"github.com/akshayr/portfolio-coach/internal/scheduler"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// JobStatsProvider reports scheduler job statistics. Nil when the API
// runs without an embedded scheduler.
type JobStatsProvider interface {
	Stats() map[string]scheduler.JobStats
}

// NewRouter wires the HTTP routes and middleware.
func NewRouter(coach *handlers.CoachHandler, jobs JobStatsProvider, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/recommendations", coach.GetRecommendations).Methods("GET")
	api.HandleFunc("/recommendations/{id}/status", coach.UpdateRecommendationStatus).Methods("PUT")
	api.HandleFunc("/report/latest", coach.GetLatestReport).Methods("GET")
	api.HandleFunc("/performance", coach.GetPerformance).Methods("GET")
	api.HandleFunc("/run", coach.TriggerRun).Methods("POST")

	if jobs != nil {
		api.HandleFunc("/jobs", jobStatsHandler(jobs)).Methods("GET")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "portfolio-coach-api",
	})
}

func jobStatsHandler(jobs JobStatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    jobs.Stats(),
		})
	}
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
