// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring implements weighted evaluation aggregation and conflict
detection for team decisions.

# Aggregation

Compute turns raw (evaluator, option, criterion) scores into a ranked
result set:

	results, err := scoring.Compute(scores, criteria, options, teamSize)

For every option and criterion it computes the mean score and the sample
standard deviation (N-1; 0 when fewer than two evaluators scored the cell).
The weighted score is

	weighted = Σ mean_c × w_c / Σ w_c    over criteria scored for the option

where w_c is the criterion weight divided by the sum of all weights.
Criteria nobody scored for an option are excluded and the option is marked
partial_coverage.

Multiplying every weight by the same positive factor leaves the weighted
scores unchanged up to floating-point rounding of the scaled weights, which
is a few ulp. Power-of-two factors scale exactly and give bit-identical
results.

Consensus is 1 − (mean standard deviation / 4.5), clamped to [0, 1].
Options without any score have consensus 0.

# Conflict Levels

Classify maps a standard deviation to a level:

	> 2.5        high
	> 1.5 ≤ 2.5  medium
	> 0.5 ≤ 1.5  low
	≤ 0.5        none

Cells with a single evaluator are always none. An option's level is the
most severe level across its criteria.

# Ranking

Options are ordered by weighted score (descending), consensus (descending)
and option ID (ascending). The first option is recommended unless no option
has any evaluator.

# Anonymity

Evaluator IDs are used only to count distinct evaluators. None of the
result types can hold one.

Compute is pure and safe for concurrent use.
*/
package scoring
