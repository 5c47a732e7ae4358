// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/choseby/auth"
	"github.com/danielhkuo/choseby/cliparse"
	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/presets"
	"github.com/danielhkuo/choseby/store"
	"github.com/danielhkuo/choseby/testutil"
)

// testEnv wires every handler to one in-memory database.
type testEnv struct {
	db          *sqlx.DB
	cfg         cliparse.Config
	decisions   *DecisionHandler
	evaluations *EvaluationHandler
	results     *ResultsHandler
	outcomes    *OutcomeHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	scores := store.NewSQLStore(db)

	return &testEnv{
		db:          db,
		cfg:         cfg,
		decisions:   NewDecisionHandler(db, scores, presets.MustDefault(), cfg),
		evaluations: NewEvaluationHandler(db, scores, cfg),
		results:     NewResultsHandler(db, scores, cfg),
		outcomes:    NewOutcomeHandler(db, cfg),
	}
}

// evaluatingDecision is an opened decision with two criteria (Cost weighted
// 2, Quality weighted 1) and two options.
type evaluatingDecision struct {
	id, adminKey, slug string
	cost, quality      string
	optionA, optionB   string
}

func (e *testEnv) seedEvaluating(t *testing.T) evaluatingDecision {
	t.Helper()

	var d evaluatingDecision
	d.id, d.adminKey, d.slug = testutil.CreateTestDecision(t, e.db, e.cfg, models.StatusEvaluating)
	d.cost = testutil.AddTestCriterion(t, e.db, d.id, "Cost", 2)
	d.quality = testutil.AddTestCriterion(t, e.db, d.id, "Quality", 1)
	d.optionA = testutil.AddTestOption(t, e.db, d.id, "Full refund")
	d.optionB = testutil.AddTestOption(t, e.db, d.id, "Store credit")
	return d
}

// serve runs h against a request with the given path values set.
func serve(h http.HandlerFunc, req *http.Request, pathValues map[string]string) *httptest.ResponseRecorder {
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func adminHeaders(key string) map[string]string {
	return map[string]string{auth.AdminKeyHeader: key}
}

func evaluatorHeaders(token string) map[string]string {
	return map[string]string{auth.EvaluatorTokenHeader: token}
}

// input builds a score with a rationale, which extreme scores need.
func input(optionID, criterionID string, score int) models.ScoreInput {
	rationale := "seen this before"
	return models.ScoreInput{
		OptionID:    optionID,
		CriterionID: criterionID,
		Score:       score,
		Confidence:  7,
		Rationale:   &rationale,
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
