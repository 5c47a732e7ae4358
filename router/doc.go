// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the choseby API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics  - Prometheus exposition
	GET /presets  - Criteria presets for common decision types

Decision management (admin, requires X-Admin-Key):

	POST /decisions               - Create decision (optionally from a preset)
	GET  /decisions/{id}/admin    - Decision with criteria and options
	POST /decisions/{id}/criteria - Add criterion (draft only)
	POST /decisions/{id}/options  - Add option (draft only)
	POST /decisions/{id}/open     - Start evaluation, returns share link
	POST /decisions/{id}/close    - Seal results in a snapshot
	POST /decisions/{id}/outcome  - Record what was actually done
	GET  /decisions/{id}/outcome  - Read the recorded outcome
	GET  /outcomes/summary        - Outcome averages over a period (no auth)

Evaluation (team members, uses share slug and X-Evaluator-Token):

	POST /decisions/{slug}/join          - Claim a display name
	POST /decisions/{slug}/evaluations   - Submit or update scores
	GET  /decisions/{slug}/my-evaluation - Own scores only

Results (public):

	GET /decisions/{slug}         - Decision, criteria and options
	GET /decisions/{slug}/status  - Participation counts
	GET /decisions/{slug}/results - Live while evaluating, sealed once closed

# Handler Initialization

All handlers share one SQL-backed score store:

	scores := store.NewSQLStore(db)
	decisionHandler := handlers.NewDecisionHandler(db, scores, presets.MustDefault(), cfg)
	evaluationHandler := handlers.NewEvaluationHandler(db, scores, cfg)
	resultsHandler := handlers.NewResultsHandler(db, scores, cfg)
	outcomeHandler := handlers.NewOutcomeHandler(db, cfg)

Every API route is wrapped with middleware.WithLogging, which also records
request latency by route pattern.
*/
package router
