// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open connects to the configured database. Queries throughout the app are
// written with ? placeholders and rebound per driver by sqlx.
func Open(dbType, url string) (*sqlx.DB, error) {
	switch dbType {
	case TypePostgres:
		conn, err := sqlx.Open("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return conn, nil

	case TypeSQLite:
		conn, err := sqlx.Open("sqlite", url)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// SQLite allows a single writer; one connection also keeps
		// :memory: databases alive for the life of the pool.
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		return conn, nil

	default:
		return nil, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", dbType)
	}
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table. Used by tests to start from a clean slate.
func DropSchema(db *sqlx.DB) error {
	for _, table := range []string{
		"decision_outcome",
		"result_snapshot",
		"evaluation_score",
		"evaluation",
		"team_member",
		"decision_option",
		"criterion",
		"decision",
	} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint on either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// The schema sticks to types both SQLite and PostgreSQL accept.
const schema = `
-- Decisions
CREATE TABLE IF NOT EXISTS decision (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_name TEXT NOT NULL,
    decision_type TEXT NOT NULL DEFAULT '',
    urgency_level INTEGER NOT NULL DEFAULT 3,
    method TEXT NOT NULL DEFAULT 'weighted_sum',
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'evaluating', 'closed')),
    share_slug TEXT UNIQUE,
    closed_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decision_share_slug ON decision(share_slug);
CREATE INDEX IF NOT EXISTS idx_decision_status ON decision(status);

-- Criteria
CREATE TABLE IF NOT EXISTS criterion (
    id TEXT PRIMARY KEY,
    decision_id TEXT NOT NULL REFERENCES decision(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    weight DOUBLE PRECISION NOT NULL CHECK (weight > 0),
    category TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_criterion_decision_id ON criterion(decision_id);

-- Options
CREATE TABLE IF NOT EXISTS decision_option (
    id TEXT PRIMARY KEY,
    decision_id TEXT NOT NULL REFERENCES decision(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    estimated_cost DOUBLE PRECISION,
    timeline TEXT NOT NULL DEFAULT '',
    risk_level TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_decision_option_decision_id ON decision_option(decision_id);

-- Team members (evaluators who joined via the share slug)
CREATE TABLE IF NOT EXISTS team_member (
    decision_id TEXT NOT NULL REFERENCES decision(id) ON DELETE CASCADE,
    display_name TEXT NOT NULL,
    evaluator_token TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (decision_id, evaluator_token),
    UNIQUE (decision_id, display_name)
);

CREATE INDEX IF NOT EXISTS idx_team_member_decision_id ON team_member(decision_id);

-- Evaluations: one per evaluator per decision
CREATE TABLE IF NOT EXISTS evaluation (
    id TEXT PRIMARY KEY,
    decision_id TEXT NOT NULL REFERENCES decision(id) ON DELETE CASCADE,
    evaluator_token TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ip_hash TEXT,
    user_agent TEXT,
    UNIQUE (decision_id, evaluator_token)
);

CREATE INDEX IF NOT EXISTS idx_evaluation_decision_id ON evaluation(decision_id);

-- Scores: one per (evaluation, option, criterion)
CREATE TABLE IF NOT EXISTS evaluation_score (
    evaluation_id TEXT NOT NULL REFERENCES evaluation(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES decision_option(id) ON DELETE CASCADE,
    criterion_id TEXT NOT NULL REFERENCES criterion(id) ON DELETE CASCADE,
    score INTEGER NOT NULL CHECK (score >= 1 AND score <= 10),
    confidence INTEGER NOT NULL CHECK (confidence >= 1 AND confidence <= 10),
    rationale TEXT,
    PRIMARY KEY (evaluation_id, option_id, criterion_id)
);

CREATE INDEX IF NOT EXISTS idx_evaluation_score_option_id ON evaluation_score(option_id);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    decision_id TEXT NOT NULL REFERENCES decision(id) ON DELETE CASCADE,
    method TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_decision_id ON result_snapshot(decision_id);

-- Outcomes: one per decision
CREATE TABLE IF NOT EXISTS decision_outcome (
    id TEXT PRIMARY KEY,
    decision_id TEXT NOT NULL UNIQUE REFERENCES decision(id) ON DELETE CASCADE,
    selected_option_id TEXT NOT NULL REFERENCES decision_option(id),
    customer_satisfaction_score INTEGER CHECK (customer_satisfaction_score >= 1 AND customer_satisfaction_score <= 5),
    escalation_occurred BOOLEAN NOT NULL DEFAULT FALSE,
    resolution_time_hours DOUBLE PRECISION,
    notes TEXT,
    team_consensus_score DOUBLE PRECISION,
    followed_recommendation BOOLEAN,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
