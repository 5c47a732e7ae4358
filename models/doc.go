// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON (validated with go-playground/validator tags):

  - CreateDecisionRequest: title, description, creator_name, decision_type, urgency_level, preset
  - AddCriterionRequest: name, description, weight, category
  - AddOptionRequest: title, description, estimated_cost, timeline, risk_level
  - JoinDecisionRequest: display_name
  - SubmitEvaluationRequest: scores ([]ScoreInput)
  - RecordOutcomeRequest: selected_option_id, satisfaction, escalation, notes

# Domain Types

  - Decision: decision metadata and lifecycle state
  - Criterion: weighted evaluation dimension
  - Option: candidate course of action
  - EvaluationScore: one (evaluator, option, criterion) judgment
  - Outcome: what happened after the decision was made

# Result Types

Output of the aggregation engine. These types have no field that can hold
an evaluator identifier:

  - CriterionResult: per-cell mean, sample standard deviation, conflict
  - OptionResult: weighted score, consensus, conflict level, rank
  - DecisionResultSet: ranked options, recommendation, participation
  - ResultSnapshot: immutable result record written on close

# Constants

Status values:

	StatusDraft      = "draft"
	StatusEvaluating = "evaluating"
	StatusClosed     = "closed"

Conflict levels:

	ConflictNone, ConflictLow, ConflictMedium, ConflictHigh
*/
package models
