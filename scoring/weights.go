// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/danielhkuo/choseby/models"
)

// Normalize divides every criterion weight by the sum of all weights so the
// returned values sum to 1. Weights are first divided by the largest one,
// which keeps the sum finite for any set of finite weights.
func Normalize(criteria []models.Criterion) (map[string]float64, error) {
	if len(criteria) == 0 {
		return nil, ErrEmptyCriteria
	}

	raw := make([]float64, len(criteria))
	for i, c := range criteria {
		if err := ValidateWeight(c); err != nil {
			return nil, err
		}
		raw[i] = c.Weight
	}

	largest := floats.Max(raw)
	for i := range raw {
		raw[i] /= largest
	}
	total := floats.Sum(raw)
	weights := make(map[string]float64, len(criteria))
	for i, c := range criteria {
		weights[c.ID] += raw[i] / total
	}

	return weights, nil
}

// ValidateWeight rejects weights that are zero, negative, NaN or infinite.
func ValidateWeight(c models.Criterion) error {
	if !(c.Weight > 0) || math.IsInf(c.Weight, 0) {
		return &InvalidWeightError{CriterionID: c.ID, Weight: c.Weight}
	}
	return nil
}
