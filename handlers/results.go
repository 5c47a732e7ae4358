// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/metrics"
	"github.com/danielhkuo/choseby/middleware"
	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/scoring"
	"github.com/danielhkuo/choseby/store"
)

var errNoSnapshot = errors.New("closed decision has no snapshot")

// snapshotPayload is what result_snapshot.payload stores.
type snapshotPayload struct {
	Results    models.DecisionResultSet `json:"results"`
	InputsHash string                   `json:"inputs_hash"`
}

type ResultsHandler struct {
	db     *sqlx.DB
	scores store.ScoreStore
	cfg    cliparse.Config
}

func NewResultsHandler(db *sqlx.DB, scores store.ScoreStore, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, scores: scores, cfg: cfg}
}

// computeResults aggregates the current scores of a decision and returns
// the result set with a hash of the inputs it was computed from.
func computeResults(ctx context.Context, scores store.ScoreStore, decisionID, source string) (models.DecisionResultSet, string, error) {
	in, err := scores.Snapshot(ctx, decisionID)
	if err != nil {
		return models.DecisionResultSet{}, "", err
	}

	start := time.Now()
	results, err := scoring.Compute(in.Scores, in.Criteria, in.Options, in.TeamSize)
	if err != nil {
		return models.DecisionResultSet{}, "", err
	}

	levels := make([]string, len(results.RankedOptions))
	for i, opt := range results.RankedOptions {
		levels[i] = string(opt.ConflictLevel)
	}
	metrics.ObserveAggregation(source, time.Since(start), levels)

	return results, InputsHash(in), nil
}

// InputsHash fingerprints the criteria, options and scores a result was
// computed from. Evaluator identities are left out, and the lines are
// sorted, so the hash depends only on the multiset of judgments.
func InputsHash(in store.Inputs) string {
	lines := make([]string, 0, len(in.Criteria)+len(in.Options)+len(in.Scores))
	for _, c := range in.Criteria {
		lines = append(lines, "c|"+c.ID+"|"+strconv.FormatFloat(c.Weight, 'g', -1, 64))
	}
	for _, o := range in.Options {
		lines = append(lines, "o|"+o.ID)
	}
	for _, s := range in.Scores {
		lines = append(lines, fmt.Sprintf("s|%s|%s|%d|%d", s.OptionID, s.CriterionID, s.Score, s.Confidence))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func loadSnapshot(ctx context.Context, db *sqlx.DB, snapshotID string) (models.ResultSnapshot, error) {
	var row struct {
		ID         string    `db:"id"`
		DecisionID string    `db:"decision_id"`
		Method     string    `db:"method"`
		ComputedAt time.Time `db:"computed_at"`
		Payload    string    `db:"payload"`
	}
	err := db.GetContext(ctx, &row, db.Rebind(`
		SELECT id, decision_id, method, computed_at, payload
		FROM result_snapshot
		WHERE id = ?
	`), snapshotID)
	if err != nil {
		return models.ResultSnapshot{}, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("parse snapshot payload: %w", err)
	}

	return models.ResultSnapshot{
		ID:         row.ID,
		DecisionID: row.DecisionID,
		Method:     row.Method,
		ComputedAt: row.ComputedAt,
		Results:    payload.Results,
		InputsHash: payload.InputsHash,
	}, nil
}

// GetDecision handles GET /decisions/{slug}
// Returns the decision with its criteria and options. Scores are never
// included.
func (h *ResultsHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	decision, err := getDecisionBySlug(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}

	details, err := loadDetails(r.Context(), h.db, decision)
	if err != nil {
		slog.Error("failed to load decision details", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, details)
}

// GetStatus handles GET /decisions/{slug}/status
// Reports participation without revealing who has or has not submitted.
func (h *ResultsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	decision, err := getDecisionBySlug(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}

	progress, err := h.scores.Progress(r.Context(), decision.ID)
	if err != nil {
		slog.Error("failed to count progress", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var rate float64
	if progress.TeamSize > 0 {
		rate = min(1, float64(progress.Completed)/float64(progress.TeamSize))
	}

	middleware.JSONResponse(w, http.StatusOK, models.EvaluationStatusResponse{
		TotalMembers:      progress.TeamSize,
		CompletedCount:    progress.Completed,
		PendingCount:      progress.Pending(),
		ParticipationRate: rate,
		CanViewResults:    progress.Completed > 0 || decision.Status == models.StatusClosed,
	})
}

// GetResults handles GET /decisions/{slug}/results
// While evaluating, results are aggregated live from the current scores.
// Once closed, the sealed snapshot is returned and never recomputed.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	decision, err := getDecisionBySlug(ctx, h.db, r.PathValue("slug"))
	if err != nil {
		decisionLookupFailed(w, err)
		return
	}

	response := models.ResultsResponse{Decision: decision}

	switch decision.Status {
	case models.StatusClosed:
		if decision.FinalSnapshotID == nil {
			slog.Error("failed to load results", "error", errNoSnapshot, "decision_id", decision.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
			return
		}
		snapshot, err := loadSnapshot(ctx, h.db, *decision.FinalSnapshotID)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err, "decision_id", decision.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
			return
		}
		response.Results = snapshot.Results
		response.Sealed = true

	case models.StatusEvaluating:
		results, _, err := computeResults(ctx, h.scores, decision.ID, metrics.SourceLive)
		if err != nil {
			slog.Error("failed to compute results", "error", err, "decision_id", decision.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
			return
		}
		response.Results = results

	default:
		middleware.ErrorResponse(w, http.StatusConflict, "Decision has not been opened")
		return
	}

	progress, err := h.scores.Progress(ctx, decision.ID)
	if err != nil {
		slog.Error("failed to count progress", "error", err, "decision_id", decision.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	response.CompletedCount = progress.Completed
	response.PendingCount = progress.Pending()

	middleware.JSONResponse(w, http.StatusOK, response)
}
