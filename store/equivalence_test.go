// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/scoring"
)

// TestSQLStoreMatchesMemoryStore replays the same submissions against both
// stores and checks that they aggregate to the same ranking.
func TestSQLStoreMatchesMemoryStore(t *testing.T) {
	ctx := context.Background()
	members := []string{"alice", "bob", "carol"}
	_, sqlStore := setupSQLite(t, members...)
	memStore := newMemoryFixture(members...)

	submissions := []Submission{
		{DecisionID: "d1", EvaluatorToken: "alice", Scores: []models.EvaluationScore{
			score("o1", "c1", 8), score("o1", "c2", 3), score("o2", "c1", 4),
		}},
		{DecisionID: "d1", EvaluatorToken: "bob", Scores: []models.EvaluationScore{
			score("o1", "c1", 3), score("o2", "c1", 6), score("o2", "c2", 7),
		}},
		// alice changes one cell and adds another
		{DecisionID: "d1", EvaluatorToken: "alice", Scores: []models.EvaluationScore{
			score("o1", "c1", 6), score("o2", "c2", 5),
		}},
	}

	for _, sub := range submissions {
		sqlRes, err := sqlStore.SubmitEvaluation(ctx, sub)
		require.NoError(t, err)
		memRes, err := memStore.SubmitEvaluation(ctx, sub)
		require.NoError(t, err)
		assert.Equal(t, memRes.Updated, sqlRes.Updated, "token %s", sub.EvaluatorToken)
	}

	sqlProgress, err := sqlStore.Progress(ctx, "d1")
	require.NoError(t, err)
	memProgress, err := memStore.Progress(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, memProgress, sqlProgress)

	want := aggregate(t, memStore)
	got := aggregate(t, sqlStore)

	assert.Equal(t, want.ParticipationRate, got.ParticipationRate)
	assert.Equal(t, want.TeamConsensus, got.TeamConsensus)
	require.NotNil(t, got.RecommendedOption)
	assert.Equal(t, *want.RecommendedOption, *got.RecommendedOption)
	require.Len(t, got.RankedOptions, len(want.RankedOptions))
	for i, w := range want.RankedOptions {
		g := got.RankedOptions[i]
		assert.Equal(t, w.OptionID, g.OptionID)
		assert.Equal(t, w.Rank, g.Rank)
		assert.Equal(t, w.WeightedScore, g.WeightedScore)
		assert.Equal(t, w.Consensus, g.Consensus)
		assert.Equal(t, w.ConflictLevel, g.ConflictLevel)
		assert.Equal(t, w.EvaluatorCount, g.EvaluatorCount)
		assert.Equal(t, w.Criteria, g.Criteria)
	}
}

func aggregate(t *testing.T, s ScoreStore) models.DecisionResultSet {
	t.Helper()

	in, err := s.Snapshot(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, in.Scores, 7)

	rs, err := scoring.Compute(in.Scores, in.Criteria, in.Options, in.TeamSize)
	require.NoError(t, err)
	return rs
}
