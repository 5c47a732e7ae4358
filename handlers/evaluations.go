// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/auth"
	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/db"
	"github.com/danielhkuo/choseby/metrics"
	"github.com/danielhkuo/choseby/middleware"
	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/scoring"
	"github.com/danielhkuo/choseby/store"
)

// defaultConfidence is used when a score is submitted without one.
const defaultConfidence = 5

type EvaluationHandler struct {
	db     *sqlx.DB
	scores store.ScoreStore
	cfg    cliparse.Config
}

func NewEvaluationHandler(db *sqlx.DB, scores store.ScoreStore, cfg cliparse.Config) *EvaluationHandler {
	return &EvaluationHandler{db: db, scores: scores, cfg: cfg}
}

// JoinDecision handles POST /decisions/{slug}/join
// Claims a display name on the team and returns the evaluator token.
func (h *EvaluationHandler) JoinDecision(w http.ResponseWriter, r *http.Request) {
	var req models.JoinDecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := middleware.Validate(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	decision, err := getDecisionBySlug(ctx, h.db, r.PathValue("slug"))
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}
	if decision.Status != models.StatusEvaluating {
		middleware.ErrorResponse(w, http.StatusConflict, "Decision is not open for evaluation")
		return
	}

	token, err := auth.GenerateEvaluatorToken()
	if err != nil {
		slog.Error("failed to generate evaluator token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join decision")
		return
	}

	_, err = h.db.ExecContext(ctx, h.db.Rebind(`
		INSERT INTO team_member (decision_id, display_name, evaluator_token, created_at)
		VALUES (?, ?, ?, ?)
	`), decision.ID, req.DisplayName, token, time.Now().UTC())
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Display name already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert team member", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join decision")
		return
	}

	slog.Info("evaluator joined", "decision_id", decision.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.JoinDecisionResponse{
		EvaluatorToken: token,
	})
}

// buildScores checks a submission against the decision's options and
// criteria and fills in defaults. It returns a client-facing message on
// the first problem.
func buildScores(req models.SubmitEvaluationRequest, criteria []models.Criterion, options []models.Option) ([]models.EvaluationScore, string) {
	validCriteria := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		validCriteria[c.ID] = true
	}
	validOptions := make(map[string]bool, len(options))
	for _, o := range options {
		validOptions[o.ID] = true
	}

	type cell struct{ option, criterion string }
	seen := make(map[cell]bool, len(req.Scores))
	scores := make([]models.EvaluationScore, 0, len(req.Scores))

	for _, in := range req.Scores {
		if !validOptions[in.OptionID] {
			return nil, "Invalid option_id: " + in.OptionID
		}
		if !validCriteria[in.CriterionID] {
			return nil, "Invalid criterion_id: " + in.CriterionID
		}
		key := cell{in.OptionID, in.CriterionID}
		if seen[key] {
			return nil, fmt.Sprintf("Duplicate score for option %s and criterion %s", in.OptionID, in.CriterionID)
		}
		seen[key] = true

		s := models.EvaluationScore{
			OptionID:    in.OptionID,
			CriterionID: in.CriterionID,
			Score:       in.Score,
			Confidence:  in.Confidence,
			Rationale:   in.Rationale,
		}
		if s.Confidence == 0 {
			s.Confidence = defaultConfidence
		}
		if err := scoring.ValidateScore(s); err != nil {
			return nil, err.Error()
		}
		if scoring.RequiresRationale(s.Score) && (s.Rationale == nil || *s.Rationale == "") {
			return nil, fmt.Sprintf("rationale is required for score %d on option %s", s.Score, s.OptionID)
		}
		scores = append(scores, s)
	}

	return scores, ""
}

// SubmitEvaluation handles POST /decisions/{slug}/evaluations
// Cells already scored by this evaluator are replaced; others are kept.
func (h *EvaluationHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	token, err := auth.EvaluatorToken(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Evaluator-Token header required")
		return
	}

	var req models.SubmitEvaluationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := middleware.Validate(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	decision, err := getDecisionBySlug(ctx, h.db, r.PathValue("slug"))
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}
	if decision.Status != models.StatusEvaluating {
		middleware.ErrorResponse(w, http.StatusConflict, "Decision is not open for evaluation")
		return
	}

	details, err := loadDetails(ctx, h.db, decision)
	if err != nil {
		slog.Error("failed to load decision details", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	scores, msg := buildScores(req, details.Criteria, details.Options)
	if msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.scores.SubmitEvaluation(ctx, store.Submission{
		DecisionID:     decision.ID,
		EvaluatorToken: token,
		IPHash:         auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt),
		UserAgent:      r.UserAgent(),
		Scores:         scores,
	})
	var scoreErr *scoring.InvalidScoreError
	switch {
	case errors.Is(err, store.ErrNotMember):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid evaluator token for this decision")
		return
	case errors.As(err, &scoreErr):
		middleware.ErrorResponse(w, http.StatusBadRequest, scoreErr.Error())
		return
	case err != nil:
		slog.Error("failed to store evaluation", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit evaluation")
		return
	}

	metrics.EvaluationSubmitted(result.Updated, len(scores))

	message := "Evaluation submitted successfully"
	if result.Updated {
		message = "Evaluation updated successfully"
	}

	slog.Info("evaluation submitted",
		"decision_id", decision.ID,
		"evaluation_id", result.EvaluationID,
		"score_count", len(scores),
		"is_update", result.Updated,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitEvaluationResponse{
		EvaluationID: result.EvaluationID,
		ScoreCount:   len(scores),
		Message:      message,
	})
}

// GetMyEvaluation handles GET /decisions/{slug}/my-evaluation
func (h *EvaluationHandler) GetMyEvaluation(w http.ResponseWriter, r *http.Request) {
	token, err := auth.EvaluatorToken(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Evaluator-Token header required")
		return
	}

	ctx := r.Context()
	decision, err := getDecisionBySlug(ctx, h.db, r.PathValue("slug"))
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}

	scores, submittedAt, err := h.scores.EvaluatorScores(ctx, decision.ID, token)
	if errors.Is(err, store.ErrNoSubmission) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No evaluation submitted yet")
		return
	}
	if err != nil {
		slog.Error("failed to load evaluation", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyEvaluationResponse{
		SubmittedAt: submittedAt,
		Scores:      scores,
	})
}
