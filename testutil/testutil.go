// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/auth"
	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/db"
	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/store"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The connection is closed when the test finishes.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     db.TypeSQLite,
		DatabaseURL:      ":memory:",
		AdminKeySalt:     "test-admin-salt",
		DecisionSlugSalt: "test-slug-salt",
		BaseURL:          "http://localhost:3318",
	}
}

// CreateTestDecision creates a decision and returns its ID, admin key and
// share slug. status should be "draft", "evaluating", or "closed"; the slug
// is empty for drafts.
func CreateTestDecision(t *testing.T, conn *sqlx.DB, cfg cliparse.Config, status string) (decisionID, adminKey, shareSlug string) {
	t.Helper()

	decisionID = uuid.NewString()
	adminKey = auth.GenerateAdminKey(decisionID, cfg.AdminKeySalt)

	var slug *string
	if status != models.StatusDraft {
		s := auth.GenerateShareSlug(decisionID, cfg.DecisionSlugSalt)
		slug = &s
		shareSlug = s
	}

	var closedAt *time.Time
	if status == models.StatusClosed {
		now := time.Now().UTC()
		closedAt = &now
	}

	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO decision (id, title, description, creator_name, decision_type, urgency_level, method, status, share_slug, closed_at, created_at)
		VALUES (?, 'Refund for order 1042', 'Customer reports damaged goods', 'TestLead', 'refund_request', 3, ?, ?, ?, ?, ?)
	`), decisionID, models.MethodWeightedSum, status, slug, closedAt, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test decision: %v", err)
	}

	return decisionID, adminKey, shareSlug
}

// AddTestCriterion adds a criterion to a decision and returns its ID
func AddTestCriterion(t *testing.T, conn *sqlx.DB, decisionID, name string, weight float64) string {
	t.Helper()

	criterionID := uuid.NewString()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO criterion (id, decision_id, name, weight, category, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COUNT(*) FROM criterion WHERE decision_id = ?))
	`), criterionID, decisionID, name, weight, models.CategoryFinancial, decisionID)
	if err != nil {
		t.Fatalf("Failed to create test criterion: %v", err)
	}

	return criterionID
}

// AddTestOption adds an option to a decision and returns the option ID
func AddTestOption(t *testing.T, conn *sqlx.DB, decisionID, title string) string {
	t.Helper()

	optionID := uuid.NewString()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO decision_option (id, decision_id, title, risk_level, position)
		VALUES (?, ?, ?, 'low', (SELECT COUNT(*) FROM decision_option WHERE decision_id = ?))
	`), optionID, decisionID, title, decisionID)
	if err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}

	return optionID
}

// CreateTestEvaluator joins a decision's team and returns the evaluator token
func CreateTestEvaluator(t *testing.T, conn *sqlx.DB, decisionID, displayName string) string {
	t.Helper()

	token, err := auth.GenerateEvaluatorToken()
	if err != nil {
		t.Fatalf("Failed to generate evaluator token: %v", err)
	}
	_, err = conn.Exec(conn.Rebind(`
		INSERT INTO team_member (decision_id, display_name, evaluator_token, created_at)
		VALUES (?, ?, ?, ?)
	`), decisionID, displayName, token, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test evaluator: %v", err)
	}

	return token
}

// SubmitTestEvaluation stores scores for an evaluator through the SQL store
// and returns the evaluation ID
func SubmitTestEvaluation(t *testing.T, conn *sqlx.DB, decisionID, token string, scores []models.EvaluationScore) string {
	t.Helper()

	res, err := store.NewSQLStore(conn).SubmitEvaluation(context.Background(), store.Submission{
		DecisionID:     decisionID,
		EvaluatorToken: token,
		Scores:         scores,
	})
	if err != nil {
		t.Fatalf("Failed to submit test evaluation: %v", err)
	}

	return res.EvaluationID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
