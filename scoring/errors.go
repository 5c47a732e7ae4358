// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/choseby/models"
)

// ErrEmptyCriteria is returned by Normalize when there is nothing to weight.
// Compute never propagates it.
var ErrEmptyCriteria = errors.New("no criteria to normalize")

// InvalidScoreError reports a score or confidence outside the 1-10 scale.
type InvalidScoreError struct {
	Field       string
	Value       int
	OptionID    string
	CriterionID string
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("%s %d for option %q criterion %q must be between %d and %d",
		e.Field, e.Value, e.OptionID, e.CriterionID, models.MinScore, models.MaxScore)
}

// InvalidWeightError reports a criterion weight that is not a positive finite number.
type InvalidWeightError struct {
	CriterionID string
	Weight      float64
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("weight %g for criterion %q must be greater than 0", e.Weight, e.CriterionID)
}
