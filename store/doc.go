// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store holds raw evaluation scores.

A submission carries every cell one evaluator sends in a request and is
applied atomically: either all cells are stored or none are. Resubmitting
a cell replaces the evaluator's earlier score for it; cells left out of a
resubmission keep their previous values.

# Implementations

SQLStore is backed by the database opened in package db and works on both
PostgreSQL and SQLite:

	scores := store.NewSQLStore(conn)
	res, err := scores.SubmitEvaluation(ctx, store.Submission{...})

MemoryStore keeps everything in maps behind a sync.RWMutex. The store
tests replay the same submissions against both implementations and expect
the same aggregated results.

# Snapshots

Snapshot returns the criteria, options, scores and team size of a decision
from a single read, so an aggregation never sees half of a submission.
*/
package store
