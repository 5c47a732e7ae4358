// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/handlers"
	"github.com/danielhkuo/choseby/middleware"
	"github.com/danielhkuo/choseby/presets"
	"github.com/danielhkuo/choseby/store"
)

func NewRouter(db *sqlx.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	scores := store.NewSQLStore(db)

	// Initialize handlers
	decisionHandler := handlers.NewDecisionHandler(db, scores, presets.MustDefault(), cfg)
	evaluationHandler := handlers.NewEvaluationHandler(db, scores, cfg)
	resultsHandler := handlers.NewResultsHandler(db, scores, cfg)
	outcomeHandler := handlers.NewOutcomeHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /presets", middleware.WithLogging(decisionHandler.ListPresets))

	// Decision management (admin operations)
	mux.HandleFunc("POST /decisions", middleware.WithLogging(decisionHandler.CreateDecision))
	mux.HandleFunc("GET /decisions/{id}/admin", middleware.WithLogging(decisionHandler.GetDecisionAdmin))
	mux.HandleFunc("POST /decisions/{id}/criteria", middleware.WithLogging(decisionHandler.AddCriterion))
	mux.HandleFunc("POST /decisions/{id}/options", middleware.WithLogging(decisionHandler.AddOption))
	mux.HandleFunc("POST /decisions/{id}/open", middleware.WithLogging(decisionHandler.OpenDecision))
	mux.HandleFunc("POST /decisions/{id}/close", middleware.WithLogging(decisionHandler.CloseDecision))
	mux.HandleFunc("POST /decisions/{id}/outcome", middleware.WithLogging(outcomeHandler.RecordOutcome))
	mux.HandleFunc("GET /decisions/{id}/outcome", middleware.WithLogging(outcomeHandler.GetOutcome))
	mux.HandleFunc("GET /outcomes/summary", middleware.WithLogging(outcomeHandler.GetOutcomeSummary))

	// Evaluation operations (team members)
	mux.HandleFunc("POST /decisions/{slug}/join", middleware.WithLogging(evaluationHandler.JoinDecision))
	mux.HandleFunc("POST /decisions/{slug}/evaluations", middleware.WithLogging(evaluationHandler.SubmitEvaluation))
	mux.HandleFunc("GET /decisions/{slug}/my-evaluation", middleware.WithLogging(evaluationHandler.GetMyEvaluation))

	// Results retrieval (live while evaluating, sealed once closed)
	mux.HandleFunc("GET /decisions/{slug}", middleware.WithLogging(resultsHandler.GetDecision))
	mux.HandleFunc("GET /decisions/{slug}/status", middleware.WithLogging(resultsHandler.GetStatus))
	mux.HandleFunc("GET /decisions/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("choseby API v1"))
	})

	return mux
}
