// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/choseby/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		stddev float64
		want   models.ConflictLevel
	}{
		{0, models.ConflictNone},
		{0.49, models.ConflictNone},
		{0.5, models.ConflictNone},
		{math.Nextafter(0.5, 1), models.ConflictLow},
		{1.0, models.ConflictLow},
		{1.5, models.ConflictLow},
		{math.Nextafter(1.5, 2), models.ConflictMedium},
		{2.0, models.ConflictMedium},
		{2.5, models.ConflictMedium},
		{math.Nextafter(2.5, 3), models.ConflictHigh},
		{4.5, models.ConflictHigh},
		{6.4, models.ConflictHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.stddev), "Classify(%v)", tt.stddev)
	}
}

func TestMaxConflict(t *testing.T) {
	assert.Equal(t, models.ConflictHigh, maxConflict(models.ConflictHigh, models.ConflictLow))
	assert.Equal(t, models.ConflictMedium, maxConflict(models.ConflictNone, models.ConflictMedium))
	assert.Equal(t, models.ConflictNone, maxConflict(models.ConflictNone, models.ConflictNone))
}
