// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/auth"
	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/middleware"
	"github.com/danielhkuo/choseby/models"
)

// OutcomeHandler records what actually happened after a decision closed,
// closing the loop on the team's recommendation.
type OutcomeHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewOutcomeHandler(db *sqlx.DB, cfg cliparse.Config) *OutcomeHandler {
	return &OutcomeHandler{db: db, cfg: cfg}
}

// RecordOutcome handles POST /decisions/{id}/outcome
// Creates the outcome or replaces the existing one.
func (h *OutcomeHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.RecordOutcomeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := middleware.Validate(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	decision, err := getDecisionByID(ctx, h.db, decisionID)
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}
	if decision.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Outcomes can only be recorded for closed decisions")
		return
	}

	var optionExists bool
	err = h.db.GetContext(ctx, &optionExists, h.db.Rebind(`
		SELECT EXISTS(SELECT 1 FROM decision_option WHERE id = ? AND decision_id = ?)
	`), req.SelectedOptionID, decisionID)
	if err != nil {
		slog.Error("failed to check option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !optionExists {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid selected_option_id: "+req.SelectedOptionID)
		return
	}

	// Compare the choice with what the team recommended at close.
	var consensus *float64
	var followed *bool
	if decision.FinalSnapshotID != nil {
		snapshot, err := loadSnapshot(ctx, h.db, *decision.FinalSnapshotID)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err, "decision_id", decisionID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		tc := snapshot.Results.TeamConsensus
		consensus = &tc
		if snapshot.Results.RecommendedOption != nil {
			f := *snapshot.Results.RecommendedOption == req.SelectedOptionID
			followed = &f
		}
	}

	newID := uuid.NewString()
	now := time.Now().UTC()
	_, err = h.db.ExecContext(ctx, h.db.Rebind(`
		INSERT INTO decision_outcome (
			id, decision_id, selected_option_id, customer_satisfaction_score,
			escalation_occurred, resolution_time_hours, notes,
			team_consensus_score, followed_recommendation, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (decision_id) DO UPDATE SET
			selected_option_id = excluded.selected_option_id,
			customer_satisfaction_score = excluded.customer_satisfaction_score,
			escalation_occurred = excluded.escalation_occurred,
			resolution_time_hours = excluded.resolution_time_hours,
			notes = excluded.notes,
			team_consensus_score = excluded.team_consensus_score,
			followed_recommendation = excluded.followed_recommendation,
			updated_at = excluded.updated_at
	`), newID, decisionID, req.SelectedOptionID, req.CustomerSatisfactionScore,
		req.EscalationOccurred, req.ResolutionTimeHours, req.Notes,
		consensus, followed, now, now)
	if err != nil {
		slog.Error("failed to upsert outcome", "error", err, "decision_id", decisionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record outcome")
		return
	}

	var outcomeID string
	err = h.db.GetContext(ctx, &outcomeID, h.db.Rebind(`SELECT id FROM decision_outcome WHERE decision_id = ?`), decisionID)
	if err != nil {
		slog.Error("failed to load outcome id", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	status, message := http.StatusCreated, "Outcome recorded successfully"
	if outcomeID != newID {
		status, message = http.StatusOK, "Outcome updated successfully"
	}

	slog.Info("outcome recorded", "decision_id", decisionID, "outcome_id", outcomeID, "followed_recommendation", followed)

	middleware.JSONResponse(w, status, models.RecordOutcomeResponse{
		OutcomeID: outcomeID,
		Message:   message,
	})
}

// GetOutcome handles GET /decisions/{id}/outcome
func (h *OutcomeHandler) GetOutcome(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var outcome models.Outcome
	err := h.db.GetContext(r.Context(), &outcome, h.db.Rebind(`
		SELECT id, decision_id, selected_option_id, customer_satisfaction_score,
		       escalation_occurred, resolution_time_hours, notes,
		       team_consensus_score, followed_recommendation, created_at, updated_at
		FROM decision_outcome
		WHERE decision_id = ?
	`), decisionID)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No outcome recorded")
		return
	}
	if err != nil {
		slog.Error("failed to query outcome", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, outcome)
}

// outcomePeriods maps the accepted period values to how far back they reach.
// "all" has no lower bound.
var outcomePeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"all": 0,
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

// GetOutcomeSummary handles GET /outcomes/summary?period=30d
// Aggregates outcomes of decisions created in the period. Only counts and
// averages are returned, so no single decision can be read from it.
func (h *OutcomeHandler) GetOutcomeSummary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "30d"
	}
	window, ok := outcomePeriods[period]
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "period must be one of 7d, 30d, 90d, all")
		return
	}
	var since time.Time
	if window > 0 {
		since = time.Now().UTC().Add(-window)
	}

	ctx := r.Context()
	resp := models.OutcomeSummaryResponse{Period: period, DecisionTypes: map[string]int{}}

	var counts struct {
		Total  int `db:"total"`
		Closed int `db:"closed"`
	}
	err := h.db.GetContext(ctx, &counts, h.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS closed
		FROM decision
		WHERE created_at >= ?
	`), models.StatusClosed, since)
	if err != nil {
		slog.Error("failed to count decisions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	resp.TotalDecisions = counts.Total
	resp.ClosedDecisions = counts.Closed

	var agg struct {
		Recorded     int             `db:"recorded"`
		Satisfaction sql.NullFloat64 `db:"avg_satisfaction"`
		Resolution   sql.NullFloat64 `db:"avg_resolution"`
		Escalation   sql.NullFloat64 `db:"escalation_rate"`
		Followed     sql.NullFloat64 `db:"followed_rate"`
		Consensus    sql.NullFloat64 `db:"avg_consensus"`
	}
	err = h.db.GetContext(ctx, &agg, h.db.Rebind(`
		SELECT COUNT(*) AS recorded,
		       AVG(o.customer_satisfaction_score) AS avg_satisfaction,
		       AVG(o.resolution_time_hours) AS avg_resolution,
		       AVG(CASE WHEN o.escalation_occurred THEN 1.0 ELSE 0.0 END) AS escalation_rate,
		       AVG(CASE WHEN o.followed_recommendation IS NULL THEN NULL
		                WHEN o.followed_recommendation THEN 1.0 ELSE 0.0 END) AS followed_rate,
		       AVG(o.team_consensus_score) AS avg_consensus
		FROM decision_outcome o
		JOIN decision d ON d.id = o.decision_id
		WHERE d.created_at >= ?
	`), since)
	if err != nil {
		slog.Error("failed to aggregate outcomes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	resp.OutcomesRecorded = agg.Recorded
	resp.AvgCustomerSatisfaction = nullableFloat(agg.Satisfaction)
	resp.AvgResolutionHours = nullableFloat(agg.Resolution)
	resp.EscalationRate = nullableFloat(agg.Escalation)
	resp.FollowedRecommendationRate = nullableFloat(agg.Followed)
	resp.AvgTeamConsensus = nullableFloat(agg.Consensus)

	var types []struct {
		DecisionType string `db:"decision_type"`
		Count        int    `db:"count"`
	}
	err = h.db.SelectContext(ctx, &types, h.db.Rebind(`
		SELECT decision_type, COUNT(*) AS count
		FROM decision
		WHERE created_at >= ?
		GROUP BY decision_type
	`), since)
	if err != nil {
		slog.Error("failed to group decision types", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	for _, t := range types {
		name := t.DecisionType
		if name == "" {
			name = "other"
		}
		resp.DecisionTypes[name] += t.Count
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
