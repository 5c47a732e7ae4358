// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the choseby API.

# Handler Types

Each handler is a struct with database, score store and config dependencies:

  - DecisionHandler: Decision lifecycle (create, criteria, options, open, close) and presets
  - EvaluationHandler: Joining a team and submitting scores
  - ResultsHandler: Decision info, participation and results
  - OutcomeHandler: Recording what was actually done and summarizing outcomes

Handlers are created via constructor functions:

	scores := store.NewSQLStore(db)
	decisionHandler := handlers.NewDecisionHandler(db, scores, presets.MustDefault(), cfg)

# Decision Lifecycle

Decisions progress through three states: draft → evaluating → closed

	POST /decisions                → CreateDecision (returns admin_key)
	POST /decisions/{id}/criteria  → AddCriterion (draft only, weight > 0)
	POST /decisions/{id}/options   → AddOption (draft only)
	POST /decisions/{id}/open      → OpenDecision (needs 1 criterion, 2 options)
	POST /decisions/{id}/close     → CloseDecision (seals a result snapshot)

Admin operations require the X-Admin-Key header.

# Evaluation Flow

Team members interact via the share slug:

	POST /decisions/{slug}/join        → JoinDecision (returns evaluator_token)
	POST /decisions/{slug}/evaluations → SubmitEvaluation (create or update cells)

Evaluator operations require the X-Evaluator-Token header. Scores and
confidence are 1-10; scores of 2 or below and 9 or above need a rationale.

# Results

While a decision is evaluating, GetResults aggregates the current scores
with scoring.Compute. CloseDecision stores the result set with a hash of
its inputs and from then on GetResults serves that snapshot unchanged.
No response carries an individual's scores except GetMyEvaluation, which
only returns the caller's own.
*/
package handlers
