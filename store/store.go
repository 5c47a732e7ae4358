// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/scoring"
)

var (
	ErrNotMember    = errors.New("evaluator is not a member of this decision")
	ErrNoSubmission = errors.New("no evaluation submitted")
	ErrMissingOwner = errors.New("decision and evaluator are required")
)

// Submission is everything one evaluator sends in a single request.
type Submission struct {
	DecisionID     string
	EvaluatorToken string
	IPHash         string
	UserAgent      string
	Scores         []models.EvaluationScore
}

// SubmitResult identifies the stored evaluation.
type SubmitResult struct {
	EvaluationID string
	Updated      bool // true when the evaluator had submitted before
}

// Inputs is a consistent read of everything the aggregation engine needs.
type Inputs struct {
	Criteria []models.Criterion
	Options  []models.Option
	Scores   []models.EvaluationScore
	TeamSize int
}

// Progress counts team members and submitted evaluations.
type Progress struct {
	TeamSize  int
	Completed int
}

// Pending never goes negative, even if evaluations outnumber members.
func (p Progress) Pending() int {
	if p.Completed >= p.TeamSize {
		return 0
	}
	return p.TeamSize - p.Completed
}

// ScoreStore holds raw evaluation scores. A submission is applied
// atomically and Snapshot never observes half of one.
type ScoreStore interface {
	SubmitEvaluation(ctx context.Context, sub Submission) (SubmitResult, error)
	Snapshot(ctx context.Context, decisionID string) (Inputs, error)
	EvaluatorScores(ctx context.Context, decisionID, token string) ([]models.EvaluationScore, time.Time, error)
	Progress(ctx context.Context, decisionID string) (Progress, error)
}

// validateSubmission checks every score before anything is written.
func validateSubmission(sub Submission) error {
	if sub.DecisionID == "" || sub.EvaluatorToken == "" {
		return ErrMissingOwner
	}
	for _, s := range sub.Scores {
		if err := scoring.ValidateScore(s); err != nil {
			return fmt.Errorf("invalid submission: %w", err)
		}
	}
	return nil
}
