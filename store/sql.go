// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/models"
)

// SQLStore keeps scores in the evaluation and evaluation_score tables.
// Queries use ? placeholders and are rebound for the connection's driver.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// SubmitEvaluation validates every score, then writes the evaluation row and
// all of its cells in one transaction. Cells already scored by the same
// evaluator are overwritten; cells not included are left as they were.
func (s *SQLStore) SubmitEvaluation(ctx context.Context, sub Submission) (SubmitResult, error) {
	if err := validateSubmission(sub); err != nil {
		return SubmitResult{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("begin submission: %w", err)
	}
	defer tx.Rollback()

	var member bool
	err = tx.GetContext(ctx, &member, tx.Rebind(`
		SELECT EXISTS(
			SELECT 1 FROM team_member
			WHERE decision_id = ? AND evaluator_token = ?
		)
	`), sub.DecisionID, sub.EvaluatorToken)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return SubmitResult{}, ErrNotMember
	}

	// The upsert keeps the original id when the evaluator already submitted,
	// so comparing ids tells a first submission from an update.
	newID := uuid.NewString()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO evaluation (id, decision_id, evaluator_token, submitted_at, ip_hash, user_agent)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (decision_id, evaluator_token) DO UPDATE
		SET submitted_at = excluded.submitted_at, ip_hash = excluded.ip_hash, user_agent = excluded.user_agent
	`), newID, sub.DecisionID, sub.EvaluatorToken, time.Now().UTC(), sub.IPHash, sub.UserAgent)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("upsert evaluation: %w", err)
	}

	var evaluationID string
	err = tx.GetContext(ctx, &evaluationID, tx.Rebind(`
		SELECT id FROM evaluation WHERE decision_id = ? AND evaluator_token = ?
	`), sub.DecisionID, sub.EvaluatorToken)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load evaluation id: %w", err)
	}

	upsertScore := tx.Rebind(`
		INSERT INTO evaluation_score (evaluation_id, option_id, criterion_id, score, confidence, rationale)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (evaluation_id, option_id, criterion_id) DO UPDATE
		SET score = excluded.score, confidence = excluded.confidence, rationale = excluded.rationale
	`)
	for _, score := range sub.Scores {
		_, err = tx.ExecContext(ctx, upsertScore,
			evaluationID, score.OptionID, score.CriterionID, score.Score, score.Confidence, score.Rationale)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("upsert score %s/%s: %w", score.OptionID, score.CriterionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SubmitResult{}, fmt.Errorf("commit submission: %w", err)
	}

	return SubmitResult{EvaluationID: evaluationID, Updated: evaluationID != newID}, nil
}

// Snapshot reads criteria, options, scores and team size inside one
// transaction. PostgreSQL runs it at REPEATABLE READ; SQLite transactions
// are already serializable.
func (s *SQLStore) Snapshot(ctx context.Context, decisionID string) (Inputs, error) {
	var opts *sql.TxOptions
	if s.db.DriverName() == "postgres" {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return Inputs{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	in := Inputs{
		Criteria: []models.Criterion{},
		Options:  []models.Option{},
		Scores:   []models.EvaluationScore{},
	}

	err = tx.SelectContext(ctx, &in.Criteria, tx.Rebind(`
		SELECT id, decision_id, name, description, weight, category
		FROM criterion
		WHERE decision_id = ?
		ORDER BY position, id
	`), decisionID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load criteria: %w", err)
	}

	err = tx.SelectContext(ctx, &in.Options, tx.Rebind(`
		SELECT id, decision_id, title, description, estimated_cost, timeline, risk_level
		FROM decision_option
		WHERE decision_id = ?
		ORDER BY position, id
	`), decisionID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load options: %w", err)
	}

	err = tx.SelectContext(ctx, &in.Scores, tx.Rebind(`
		SELECT s.evaluation_id, s.option_id, s.criterion_id, s.score, s.confidence, s.rationale
		FROM evaluation_score s
		JOIN evaluation e ON e.id = s.evaluation_id
		WHERE e.decision_id = ?
		ORDER BY s.evaluation_id, s.option_id, s.criterion_id
	`), decisionID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load scores: %w", err)
	}

	err = tx.GetContext(ctx, &in.TeamSize, tx.Rebind(`
		SELECT COUNT(*) FROM team_member WHERE decision_id = ?
	`), decisionID)
	if err != nil {
		return Inputs{}, fmt.Errorf("count team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Inputs{}, fmt.Errorf("commit snapshot: %w", err)
	}

	return in, nil
}

// EvaluatorScores returns one evaluator's own scores and when they were last
// submitted. ErrNoSubmission means the evaluator has not submitted yet.
func (s *SQLStore) EvaluatorScores(ctx context.Context, decisionID, token string) ([]models.EvaluationScore, time.Time, error) {
	var evaluation struct {
		ID          string    `db:"id"`
		SubmittedAt time.Time `db:"submitted_at"`
	}
	err := s.db.GetContext(ctx, &evaluation, s.db.Rebind(`
		SELECT id, submitted_at FROM evaluation
		WHERE decision_id = ? AND evaluator_token = ?
	`), decisionID, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSubmission
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load evaluation: %w", err)
	}

	scores := []models.EvaluationScore{}
	err = s.db.SelectContext(ctx, &scores, s.db.Rebind(`
		SELECT evaluation_id, option_id, criterion_id, score, confidence, rationale
		FROM evaluation_score
		WHERE evaluation_id = ?
		ORDER BY option_id, criterion_id
	`), evaluation.ID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load evaluation scores: %w", err)
	}

	return scores, evaluation.SubmittedAt, nil
}

// Progress counts joined team members and submitted evaluations.
func (s *SQLStore) Progress(ctx context.Context, decisionID string) (Progress, error) {
	var p Progress
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM team_member WHERE decision_id = ?),
			(SELECT COUNT(*) FROM evaluation WHERE decision_id = ?)
	`), decisionID, decisionID).Scan(&p.TeamSize, &p.Completed)
	if err != nil {
		return Progress{}, fmt.Errorf("count progress: %w", err)
	}
	return p, nil
}
