// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/danielhkuo/choseby/models"
)

// MaxStdDev is the consensus normalization constant: the largest population
// standard deviation possible on the 1-10 scale (an even split between 1
// and 10). Sample deviations can exceed it, so consensus is clamped.
const MaxStdDev = 4.5

// cell collects one (option, criterion) pair. Later records from the same
// evaluator replace earlier ones, matching the store's upsert semantics.
// A confidence of 0 means none was given.
type cell struct {
	index       map[string]int
	scores      []float64
	confidences []int
}

func (c *cell) add(s models.EvaluationScore) {
	if i, ok := c.index[s.EvaluatorID]; ok {
		c.scores[i] = float64(s.Score)
		c.confidences[i] = s.Confidence
		return
	}
	c.index[s.EvaluatorID] = len(c.scores)
	c.scores = append(c.scores, float64(s.Score))
	c.confidences = append(c.confidences, s.Confidence)
}

// givenConfidences appends the confidences that are on the 1-10 scale.
func (c *cell) givenConfidences(dst []float64) []float64 {
	for _, v := range c.confidences {
		if v >= models.MinScore && v <= models.MaxScore {
			dst = append(dst, float64(v))
		}
	}
	return dst
}

// Compute aggregates evaluation scores into a ranked DecisionResultSet.
//
// expectedEvaluators is the team size used for the participation rate; pass
// 0 when it is unknown. Missing data never produces an error: empty scores,
// criteria or options yield a zeroed result, and a record without a
// confidence is left out of AverageConfidence only. An error is returned
// only for inputs that should have been rejected at ingestion (weights <= 0
// or scores outside 1-10).
func Compute(scores []models.EvaluationScore, criteria []models.Criterion, options []models.Option, expectedEvaluators int) (models.DecisionResultSet, error) {
	for _, s := range scores {
		if err := validateScoreValue(s); err != nil {
			return models.DecisionResultSet{}, fmt.Errorf("compute results: %w", err)
		}
	}

	weights, err := Normalize(criteria)
	if err != nil && !errors.Is(err, ErrEmptyCriteria) {
		return models.DecisionResultSet{}, fmt.Errorf("compute results: %w", err)
	}

	knownOptions := make(map[string]bool, len(options))
	for _, opt := range options {
		knownOptions[opt.ID] = true
	}

	// option -> criterion -> cell; scores outside the active sets are ignored
	cells := make(map[string]map[string]*cell, len(options))
	optionEvaluators := make(map[string]map[string]struct{}, len(options))
	allEvaluators := make(map[string]struct{})
	for _, s := range scores {
		if !knownOptions[s.OptionID] {
			continue
		}
		if _, ok := weights[s.CriterionID]; !ok {
			continue
		}

		byCriterion, ok := cells[s.OptionID]
		if !ok {
			byCriterion = make(map[string]*cell)
			cells[s.OptionID] = byCriterion
			optionEvaluators[s.OptionID] = make(map[string]struct{})
		}
		c, ok := byCriterion[s.CriterionID]
		if !ok {
			c = &cell{index: make(map[string]int)}
			byCriterion[s.CriterionID] = c
		}
		c.add(s)

		optionEvaluators[s.OptionID][s.EvaluatorID] = struct{}{}
		allEvaluators[s.EvaluatorID] = struct{}{}
	}

	results := make([]models.OptionResult, len(options))
	for i, opt := range options {
		results[i] = computeOption(opt, criteria, weights, cells[opt.ID], len(optionEvaluators[opt.ID]))
	}

	rankOptions(results)

	resultSet := models.DecisionResultSet{
		ParticipationRate: participationRate(len(allEvaluators), expectedEvaluators, results),
		TeamConsensus:     teamConsensus(results),
		RankedOptions:     results,
	}
	if len(results) > 0 && results[0].EvaluatorCount > 0 {
		recommended := results[0].OptionID
		resultSet.RecommendedOption = &recommended
	}

	return resultSet, nil
}

// computeOption builds the result for a single option. Criteria without any
// score for this option are left out of the weighting and the option is
// flagged as partially covered.
func computeOption(opt models.Option, criteria []models.Criterion, weights map[string]float64, byCriterion map[string]*cell, evaluatorCount int) models.OptionResult {
	result := models.OptionResult{
		OptionID:       opt.ID,
		Title:          opt.Title,
		EstimatedCost:  opt.EstimatedCost,
		Timeline:       opt.Timeline,
		RiskLevel:      opt.RiskLevel,
		EvaluatorCount: evaluatorCount,
		ConflictLevel:  models.ConflictNone,
	}
	if evaluatorCount == 0 {
		return result
	}

	var means, cellWeights, stddevs, confidences []float64
	seen := make(map[string]bool, len(criteria))
	for _, criterion := range criteria {
		if seen[criterion.ID] {
			continue
		}
		seen[criterion.ID] = true

		c, ok := byCriterion[criterion.ID]
		if !ok {
			result.PartialCoverage = true
			continue
		}

		mean, _ := stats.Mean(c.scores)
		sd := sampleStdDev(c.scores)

		// A single judgment cannot disagree with anything.
		level := models.ConflictNone
		if len(c.scores) >= 2 {
			level = Classify(sd)
		}
		result.ConflictLevel = maxConflict(result.ConflictLevel, level)

		result.Criteria = append(result.Criteria, models.CriterionResult{
			CriterionID:    criterion.ID,
			Mean:           mean,
			StdDev:         sd,
			EvaluatorCount: len(c.scores),
			ConflictLevel:  level,
		})

		means = append(means, mean)
		cellWeights = append(cellWeights, weights[criterion.ID])
		stddevs = append(stddevs, sd)
		confidences = c.givenConfidences(confidences)
	}

	if len(means) == 0 {
		return result
	}

	// stat.Mean with weights divides by the weights' own sum, which
	// renormalizes over the criteria this option was actually scored on.
	result.WeightedScore = stat.Mean(means, cellWeights)
	result.AverageScore = stat.Mean(means, nil)
	if len(confidences) > 0 {
		result.AverageConfidence = stat.Mean(confidences, nil)
	}
	result.Consensus = consensus(stat.Mean(stddevs, nil))

	return result
}

// sampleStdDev divides by N-1 and is 0 for fewer than two values.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return 0
	}
	return sd
}

func consensus(meanStdDev float64) float64 {
	return clamp01(1 - meanStdDev/MaxStdDev)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// rankOptions sorts descending by weighted score, then consensus, then
// ascending option ID, and assigns 1-indexed ranks.
func rankOptions(results []models.OptionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		if a.Consensus != b.Consensus {
			return a.Consensus > b.Consensus
		}
		return a.OptionID < b.OptionID
	})

	for i := range results {
		results[i].Rank = i + 1
	}
}

func teamConsensus(results []models.OptionResult) float64 {
	if len(results) == 0 {
		return 0
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.Consensus
	}
	return stat.Mean(values, nil)
}

// participationRate divides distinct evaluators by the expected team size.
// Without a team size it falls back to the largest per-option evaluator
// count, which is an approximation.
func participationRate(distinct, expected int, results []models.OptionResult) float64 {
	if distinct == 0 {
		return 0
	}

	denominator := expected
	if denominator <= 0 {
		for _, r := range results {
			if r.EvaluatorCount > denominator {
				denominator = r.EvaluatorCount
			}
		}
	}
	if denominator <= 0 {
		return 0
	}

	return clamp01(float64(distinct) / float64(denominator))
}
