// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/auth"
	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/metrics"
	"github.com/danielhkuo/choseby/middleware"
	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/presets"
	"github.com/danielhkuo/choseby/scoring"
	"github.com/danielhkuo/choseby/store"
)

const defaultUrgency = 3

// DecisionHandler serves the owner's side of a decision: authoring,
// lifecycle transitions and the admin view.
type DecisionHandler struct {
	db      *sqlx.DB
	scores  store.ScoreStore
	presets *presets.Catalog
	cfg     cliparse.Config
}

func NewDecisionHandler(db *sqlx.DB, scores store.ScoreStore, catalog *presets.Catalog, cfg cliparse.Config) *DecisionHandler {
	return &DecisionHandler{db: db, scores: scores, presets: catalog, cfg: cfg}
}

const insertCriterion = `
	INSERT INTO criterion (id, decision_id, name, description, weight, category, position)
	VALUES (?, ?, ?, ?, ?, ?, (SELECT COUNT(*) FROM criterion WHERE decision_id = ?))
`

// CreateDecision handles POST /decisions
func (h *DecisionHandler) CreateDecision(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := middleware.Validate(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	var seeded []models.Criterion
	if req.Preset != "" {
		preset, ok := h.presets.Get(req.Preset)
		if !ok {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown preset: "+req.Preset)
			return
		}
		seeded = preset.ToCriteria("")
		if req.DecisionType == "" {
			req.DecisionType = preset.Name
		}
	}
	if req.UrgencyLevel == 0 {
		req.UrgencyLevel = defaultUrgency
	}

	decisionID := uuid.NewString()
	adminKey := auth.GenerateAdminKey(decisionID, h.cfg.AdminKeySalt)

	ctx := r.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO decision (id, title, description, creator_name, decision_type, urgency_level, method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), decisionID, req.Title, req.Description, req.CreatorName, req.DecisionType,
		req.UrgencyLevel, models.MethodWeightedSum, models.StatusDraft, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
		return
	}

	for _, c := range seeded {
		_, err = tx.ExecContext(ctx, tx.Rebind(insertCriterion),
			uuid.NewString(), decisionID, c.Name, c.Description, c.Weight, c.Category, decisionID)
		if err != nil {
			slog.Error("failed to seed criterion", "error", err, "preset", req.Preset)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
		return
	}

	metrics.DecisionTransitioned(models.StatusDraft)
	slog.Info("decision created", "decision_id", decisionID, "creator", req.CreatorName, "preset", req.Preset)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateDecisionResponse{
		DecisionID: decisionID,
		AdminKey:   adminKey,
	})
}

// GetDecisionAdmin handles GET /decisions/{id}/admin
func (h *DecisionHandler) GetDecisionAdmin(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	decision, err := getDecisionByID(r.Context(), h.db, decisionID)
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}

	details, err := loadDetails(r.Context(), h.db, decision)
	if err != nil {
		slog.Error("failed to load decision details", "error", err, "decision_id", decisionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, details)
}

// requireDraft checks inside tx that the decision exists and is still a
// draft, writing the error response when it is not.
func requireDraft(w http.ResponseWriter, r *http.Request, tx *sqlx.Tx, decisionID, what string) bool {
	var status string
	err := tx.GetContext(r.Context(), &status, tx.Rebind(`SELECT status FROM decision WHERE id = ?`), decisionID)
	if err != nil {
		decisionLookupFailed(w, err)
		return false
	}
	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add "+what+" to a decision that is not a draft")
		return false
	}
	return true
}

// AddCriterion handles POST /decisions/{id}/criteria
func (h *DecisionHandler) AddCriterion(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.AddCriterionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := middleware.Validate(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	criterion := models.Criterion{
		ID:          uuid.NewString(),
		DecisionID:  decisionID,
		Name:        req.Name,
		Description: req.Description,
		Weight:      req.Weight,
		Category:    req.Category,
	}
	if err := scoring.ValidateWeight(criterion); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "weight must be greater than 0")
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if !requireDraft(w, r, tx, decisionID, "criteria") {
		return
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(insertCriterion),
		criterion.ID, decisionID, criterion.Name, criterion.Description, criterion.Weight, criterion.Category, decisionID)
	if err != nil {
		slog.Error("failed to insert criterion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create criterion")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create criterion")
		return
	}

	slog.Info("criterion added", "decision_id", decisionID, "criterion_id", criterion.ID, "weight", criterion.Weight)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCriterionResponse{
		CriterionID: criterion.ID,
	})
}

// AddOption handles POST /decisions/{id}/options
func (h *DecisionHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.AddOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := middleware.Validate(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if !requireDraft(w, r, tx, decisionID, "options") {
		return
	}

	optionID := uuid.NewString()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO decision_option (id, decision_id, title, description, estimated_cost, timeline, risk_level, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COUNT(*) FROM decision_option WHERE decision_id = ?))
	`), optionID, decisionID, req.Title, req.Description, req.EstimatedCost, req.Timeline, req.RiskLevel, decisionID)
	if err != nil {
		slog.Error("failed to insert option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create option")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create option")
		return
	}

	slog.Info("option added", "decision_id", decisionID, "option_id", optionID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddOptionResponse{
		OptionID: optionID,
	})
}

// OpenDecision handles POST /decisions/{id}/open
// Moves a draft to evaluating and hands out the share link.
func (h *DecisionHandler) OpenDecision(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	ctx := r.Context()
	var counts struct {
		Status   string `db:"status"`
		Criteria int    `db:"criteria"`
		Options  int    `db:"options"`
	}
	err := h.db.GetContext(ctx, &counts, h.db.Rebind(`
		SELECT d.status,
			(SELECT COUNT(*) FROM criterion c WHERE c.decision_id = d.id) AS criteria,
			(SELECT COUNT(*) FROM decision_option o WHERE o.decision_id = d.id) AS options
		FROM decision d
		WHERE d.id = ?
	`), decisionID)
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}

	if counts.Status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Decision is not in draft status")
		return
	}
	if counts.Criteria < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Decision must have at least 1 criterion")
		return
	}
	if counts.Options < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Decision must have at least 2 options")
		return
	}

	shareSlug := auth.GenerateShareSlug(decisionID, h.cfg.DecisionSlugSalt)

	res, err := h.db.ExecContext(ctx, h.db.Rebind(`
		UPDATE decision
		SET status = ?, share_slug = ?
		WHERE id = ? AND status = ?
	`), models.StatusEvaluating, shareSlug, decisionID, models.StatusDraft)
	if err != nil {
		slog.Error("failed to open decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open decision")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Decision is not in draft status")
		return
	}

	metrics.DecisionTransitioned(models.StatusEvaluating)
	slog.Info("decision opened", "decision_id", decisionID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.OpenDecisionResponse{
		ShareSlug: shareSlug,
		ShareURL:  h.cfg.ShareURL(shareSlug),
	})
}

// CloseDecision handles POST /decisions/{id}/close
// Computes the final results and seals them in an immutable snapshot.
func (h *DecisionHandler) CloseDecision(w http.ResponseWriter, r *http.Request) {
	decisionID := r.PathValue("id")
	if err := auth.AuthorizeAdmin(r, decisionID, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	ctx := r.Context()
	decision, err := getDecisionByID(ctx, h.db, decisionID)
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}
	if decision.Status != models.StatusEvaluating {
		middleware.ErrorResponse(w, http.StatusConflict, "Decision is not open for evaluation")
		return
	}

	results, inputsHash, err := computeResults(ctx, h.scores, decisionID, metrics.SourceSnapshot)
	if err != nil {
		slog.Error("failed to compute results", "error", err, "decision_id", decisionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	closedAt := time.Now().UTC()
	snapshot := models.ResultSnapshot{
		ID:         uuid.NewString(),
		DecisionID: decisionID,
		Method:     models.MethodWeightedSum,
		ComputedAt: closedAt,
		Results:    results,
		InputsHash: inputsHash,
	}
	payload, err := json.Marshal(snapshotPayload{Results: snapshot.Results, InputsHash: snapshot.InputsHash})
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE decision
		SET status = ?, closed_at = ?, final_snapshot_id = ?
		WHERE id = ? AND status = ?
	`), models.StatusClosed, closedAt, snapshot.ID, decisionID, models.StatusEvaluating)
	if err != nil {
		slog.Error("failed to close decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close decision")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Decision is not open for evaluation")
		return
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO result_snapshot (id, decision_id, method, computed_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`), snapshot.ID, decisionID, snapshot.Method, closedAt, string(payload))
	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close decision")
		return
	}

	metrics.DecisionTransitioned(models.StatusClosed)
	slog.Info("decision closed", "decision_id", decisionID, "snapshot_id", snapshot.ID, "inputs_hash", inputsHash)

	middleware.JSONResponse(w, http.StatusOK, models.CloseDecisionResponse{
		ClosedAt: closedAt,
		Snapshot: snapshot,
	})
}

// ListPresets handles GET /presets
func (h *DecisionHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string][]presets.Preset{
		"presets": h.presets.All(),
	})
}
