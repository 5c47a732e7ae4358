// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/middleware"
	"github.com/danielhkuo/choseby/models"
)

const decisionColumns = `
	id, title, description, creator_name, decision_type, urgency_level,
	method, status, share_slug, closed_at, final_snapshot_id, created_at
`

func getDecisionByID(ctx context.Context, q sqlx.ExtContext, id string) (models.Decision, error) {
	var d models.Decision
	err := sqlx.GetContext(ctx, q, &d, q.Rebind(`SELECT `+decisionColumns+` FROM decision WHERE id = ?`), id)
	return d, err
}

func getDecisionBySlug(ctx context.Context, q sqlx.ExtContext, slug string) (models.Decision, error) {
	var d models.Decision
	err := sqlx.GetContext(ctx, q, &d, q.Rebind(`SELECT `+decisionColumns+` FROM decision WHERE share_slug = ?`), slug)
	return d, err
}

func listCriteria(ctx context.Context, q sqlx.ExtContext, decisionID string) ([]models.Criterion, error) {
	criteria := []models.Criterion{}
	err := sqlx.SelectContext(ctx, q, &criteria, q.Rebind(`
		SELECT id, decision_id, name, description, weight, category
		FROM criterion
		WHERE decision_id = ?
		ORDER BY position, id
	`), decisionID)
	return criteria, err
}

func listOptions(ctx context.Context, q sqlx.ExtContext, decisionID string) ([]models.Option, error) {
	options := []models.Option{}
	err := sqlx.SelectContext(ctx, q, &options, q.Rebind(`
		SELECT id, decision_id, title, description, estimated_cost, timeline, risk_level
		FROM decision_option
		WHERE decision_id = ?
		ORDER BY position, id
	`), decisionID)
	return options, err
}

func loadDetails(ctx context.Context, q sqlx.ExtContext, d models.Decision) (models.DecisionDetails, error) {
	criteria, err := listCriteria(ctx, q, d.ID)
	if err != nil {
		return models.DecisionDetails{}, err
	}
	options, err := listOptions(ctx, q, d.ID)
	if err != nil {
		return models.DecisionDetails{}, err
	}
	return models.DecisionDetails{Decision: d, Criteria: criteria, Options: options}, nil
}

// decisionLookupFailed writes the response for a failed decision lookup.
func decisionLookupFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Decision not found")
		return
	}
	slog.Error("failed to query decision", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}
