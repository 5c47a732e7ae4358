// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open selects the driver from the configured database type:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

"postgres" uses lib/pq, "sqlite" uses the pure-Go modernc.org/sqlite driver.
SQLite connections are limited to one open connection and have foreign
keys enabled.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both drivers.

# Tables

  - decision: Decision metadata and lifecycle state
  - criterion: Weighted evaluation criteria per decision
  - decision_option: Candidate options per decision
  - team_member: Maps display names to evaluator tokens
  - evaluation: One evaluation per evaluator per decision
  - evaluation_score: Scores per (evaluation, option, criterion), 1-10
  - result_snapshot: Immutable results written on close
  - decision_outcome: Outcome recorded after the decision

# Relationships

	decision 1──* criterion
	decision 1──* decision_option
	decision 1──* team_member
	decision 1──* evaluation
	evaluation 1──* evaluation_score
	decision 1──* result_snapshot
	decision 1──1 decision_outcome

All foreign keys use ON DELETE CASCADE.

# Errors

IsUniqueViolation recognizes duplicate-key errors from either driver.
*/
package db
