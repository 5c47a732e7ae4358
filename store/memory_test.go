// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/scoring"
)

func newMemoryFixture(members ...string) *MemoryStore {
	m := NewMemoryStore()
	m.AddCriterion("d1", models.Criterion{ID: "c1", Name: "Cost", Weight: 2})
	m.AddCriterion("d1", models.Criterion{ID: "c2", Name: "Quality", Weight: 1})
	m.AddOption("d1", models.Option{ID: "o1", Title: "Vendor A"})
	m.AddOption("d1", models.Option{ID: "o2", Title: "Vendor B"})
	for _, token := range members {
		m.AddMember("d1", token)
	}
	return m
}

func score(optionID, criterionID string, value int) models.EvaluationScore {
	return models.EvaluationScore{OptionID: optionID, CriterionID: criterionID, Score: value, Confidence: 5}
}

func TestMemoryStoreSubmitAndSnapshot(t *testing.T) {
	ctx := context.Background()
	m := newMemoryFixture("alice", "bob")

	res, err := m.SubmitEvaluation(ctx, Submission{
		DecisionID:     "d1",
		EvaluatorToken: "alice",
		Scores:         []models.EvaluationScore{score("o1", "c1", 8), score("o1", "c2", 6)},
	})
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.NotEmpty(t, res.EvaluationID)

	in, err := m.Snapshot(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, in.Criteria, 2)
	assert.Len(t, in.Options, 2)
	assert.Len(t, in.Scores, 2)
	assert.Equal(t, 2, in.TeamSize)
	for _, s := range in.Scores {
		assert.Equal(t, res.EvaluationID, s.EvaluatorID)
	}

	p, err := m.Progress(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, Progress{TeamSize: 2, Completed: 1}, p)
	assert.Equal(t, 1, p.Pending())
}

func TestMemoryStoreResubmissionUpserts(t *testing.T) {
	ctx := context.Background()
	m := newMemoryFixture("alice")

	first, err := m.SubmitEvaluation(ctx, Submission{
		DecisionID:     "d1",
		EvaluatorToken: "alice",
		Scores:         []models.EvaluationScore{score("o1", "c1", 3), score("o1", "c2", 4)},
	})
	require.NoError(t, err)

	second, err := m.SubmitEvaluation(ctx, Submission{
		DecisionID:     "d1",
		EvaluatorToken: "alice",
		Scores:         []models.EvaluationScore{score("o1", "c1", 7)},
	})
	require.NoError(t, err)
	assert.True(t, second.Updated)
	assert.Equal(t, first.EvaluationID, second.EvaluationID)

	scores, _, err := m.EvaluatorScores(ctx, "d1", "alice")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 7, scores[0].Score, "c1 replaced")
	assert.Equal(t, 4, scores[1].Score, "c2 kept")
}

func TestMemoryStoreRejectsInvalidSubmissionAtomically(t *testing.T) {
	ctx := context.Background()
	m := newMemoryFixture("alice")

	_, err := m.SubmitEvaluation(ctx, Submission{
		DecisionID:     "d1",
		EvaluatorToken: "alice",
		Scores:         []models.EvaluationScore{score("o1", "c1", 5), score("o1", "c2", 11)},
	})
	var scoreErr *scoring.InvalidScoreError
	require.True(t, errors.As(err, &scoreErr))
	assert.Equal(t, "score", scoreErr.Field)

	in, err := m.Snapshot(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, in.Scores, "no cell of a rejected submission may be stored")
}

func TestMemoryStoreRejectsNonMember(t *testing.T) {
	m := newMemoryFixture("alice")

	_, err := m.SubmitEvaluation(context.Background(), Submission{
		DecisionID:     "d1",
		EvaluatorToken: "mallory",
		Scores:         []models.EvaluationScore{score("o1", "c1", 5)},
	})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestMemoryStoreNoSubmission(t *testing.T) {
	m := newMemoryFixture("alice")

	_, _, err := m.EvaluatorScores(context.Background(), "d1", "alice")
	assert.ErrorIs(t, err, ErrNoSubmission)
}

func TestMemoryStoreUnknownDecision(t *testing.T) {
	m := NewMemoryStore()

	in, err := m.Snapshot(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, in.Scores)
	assert.Zero(t, in.TeamSize)
}

// Snapshots taken while submissions land must only ever see whole
// submissions, never a subset of one evaluator's cells.
func TestMemoryStoreConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	const evaluators = 20

	m := newMemoryFixture()
	for i := 0; i < evaluators; i++ {
		m.AddMember("d1", fmt.Sprintf("tok-%d", i))
	}

	cells := []models.EvaluationScore{
		score("o1", "c1", 6), score("o1", "c2", 7),
		score("o2", "c1", 4), score("o2", "c2", 9),
	}

	var wg sync.WaitGroup
	for i := 0; i < evaluators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.SubmitEvaluation(ctx, Submission{
				DecisionID:     "d1",
				EvaluatorToken: fmt.Sprintf("tok-%d", i),
				Scores:         cells,
			})
			assert.NoError(t, err)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			in, err := m.Snapshot(ctx, "d1")
			if !assert.NoError(t, err) {
				return
			}
			assert.Zero(t, len(in.Scores)%len(cells), "partial submission observed")
			_, err = scoring.Compute(in.Scores, in.Criteria, in.Options, in.TeamSize)
			assert.NoError(t, err)
		}
	}()

	wg.Wait()
	<-done

	in, err := m.Snapshot(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, in.Scores, evaluators*len(cells))

	results, err := scoring.Compute(in.Scores, in.Criteria, in.Options, in.TeamSize)
	require.NoError(t, err)
	assert.Equal(t, 1.0, results.ParticipationRate)
	for _, opt := range results.RankedOptions {
		assert.Equal(t, evaluators, opt.EvaluatorCount)
		assert.Equal(t, models.ConflictNone, opt.ConflictLevel)
	}
}
