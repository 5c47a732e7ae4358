// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/choseby/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type scoreBounds struct {
	Score      int `validate:"min=1,max=10"`
	Confidence int `validate:"min=1,max=10"`
}

type scoreOnly struct {
	Score int `validate:"min=1,max=10"`
}

// ValidateScore checks that score and confidence are on the 1-10 scale.
// It is the ingestion boundary check used before scores are stored.
func ValidateScore(s models.EvaluationScore) error {
	return scoreError(s, validate.Struct(scoreBounds{Score: s.Score, Confidence: s.Confidence}))
}

// validateScoreValue checks only the score. Compute accepts records
// without a confidence.
func validateScoreValue(s models.EvaluationScore) error {
	return scoreError(s, validate.Struct(scoreOnly{Score: s.Score}))
}

func scoreError(s models.EvaluationScore, err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate score: %w", err)
	}

	field := "score"
	value := s.Score
	if fieldErrs[0].Field() == "Confidence" {
		field = "confidence"
		value = s.Confidence
	}
	return &InvalidScoreError{
		Field:       field,
		Value:       value,
		OptionID:    s.OptionID,
		CriterionID: s.CriterionID,
	}
}

// RequiresRationale reports whether a score is extreme enough that the
// evaluator must explain it.
func RequiresRationale(score int) bool {
	return score <= 2 || score >= 9
}
