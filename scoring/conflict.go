// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import "github.com/danielhkuo/choseby/models"

// Conflict thresholds on the sample standard deviation of a cell.
// Each bound is exclusive: a deviation equal to a bound falls in the
// level below it.
const (
	HighConflictStdDev   = 2.5
	MediumConflictStdDev = 1.5
	LowConflictStdDev    = 0.5
)

// Classify maps a standard deviation to a conflict level.
func Classify(stddev float64) models.ConflictLevel {
	switch {
	case stddev > HighConflictStdDev:
		return models.ConflictHigh
	case stddev > MediumConflictStdDev:
		return models.ConflictMedium
	case stddev > LowConflictStdDev:
		return models.ConflictLow
	default:
		return models.ConflictNone
	}
}

// maxConflict returns the more severe of two levels.
func maxConflict(a, b models.ConflictLevel) models.ConflictLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
