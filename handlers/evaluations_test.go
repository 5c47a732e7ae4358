// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/choseby/auth"
	"github.com/danielhkuo/choseby/models"
	"github.com/danielhkuo/choseby/testutil"
)

func TestJoinDecision(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedEvaluating(t)
	_, _, closedSlug := testutil.CreateTestDecision(t, env.db, env.cfg, models.StatusClosed)

	tests := []struct {
		name           string
		slug           string
		displayName    string
		expectedStatus int
	}{
		{"valid join", d.slug, "Alice", http.StatusCreated},
		{"duplicate display name", d.slug, "Alice", http.StatusConflict},
		{"second member", d.slug, "Bob", http.StatusCreated},
		{"name too short", d.slug, "A", http.StatusBadRequest},
		{"missing name", d.slug, "", http.StatusBadRequest},
		{"closed decision", closedSlug, "Carol", http.StatusConflict},
		{"unknown slug", "nope", "Dave", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/decisions/"+tt.slug+"/join",
				models.JoinDecisionRequest{DisplayName: tt.displayName}, nil)
			w := serve(env.evaluations.JoinDecision, req, map[string]string{"slug": tt.slug})
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.JoinDecisionResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.EvaluatorToken == "" {
					t.Error("Expected evaluator token")
				}
			}
		})
	}

	var members int
	env.db.Get(&members, env.db.Rebind(`SELECT COUNT(*) FROM team_member WHERE decision_id = ?`), d.id)
	if members != 2 {
		t.Errorf("Expected 2 team members, got %d", members)
	}
}

func TestSubmitEvaluation(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedEvaluating(t)
	token := testutil.CreateTestEvaluator(t, env.db, d.id, "Alice")
	stranger, _ := auth.GenerateEvaluatorToken()

	noRationale := input(d.optionA, d.cost, 10)
	noRationale.Rationale = nil
	noConfidence := input(d.optionA, d.cost, 6)
	noConfidence.Confidence = 0
	overConfident := input(d.optionA, d.cost, 5)
	overConfident.Confidence = 11

	tests := []struct {
		name           string
		token          string
		scores         []models.ScoreInput
		expectedStatus int
		errContains    string
	}{
		{
			name:           "missing token",
			token:          "",
			scores:         []models.ScoreInput{input(d.optionA, d.cost, 6)},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed token",
			token:          "not-a-token",
			scores:         []models.ScoreInput{input(d.optionA, d.cost, 6)},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token from another team",
			token:          stranger,
			scores:         []models.ScoreInput{input(d.optionA, d.cost, 6)},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty scores",
			token:          token,
			scores:         []models.ScoreInput{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "score above range",
			token:          token,
			scores:         []models.ScoreInput{input(d.optionA, d.cost, 11)},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "score below range",
			token:          token,
			scores:         []models.ScoreInput{input(d.optionA, d.cost, 0)},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "confidence above range",
			token:          token,
			scores:         []models.ScoreInput{overConfident},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown option",
			token:          token,
			scores:         []models.ScoreInput{input("other-option", d.cost, 6)},
			expectedStatus: http.StatusBadRequest,
			errContains:    "option_id",
		},
		{
			name:           "unknown criterion",
			token:          token,
			scores:         []models.ScoreInput{input(d.optionA, "other-criterion", 6)},
			expectedStatus: http.StatusBadRequest,
			errContains:    "criterion_id",
		},
		{
			name:           "duplicate cell in one request",
			token:          token,
			scores:         []models.ScoreInput{input(d.optionA, d.cost, 6), input(d.optionA, d.cost, 7)},
			expectedStatus: http.StatusBadRequest,
			errContains:    "Duplicate",
		},
		{
			name:           "extreme score without rationale",
			token:          token,
			scores:         []models.ScoreInput{noRationale},
			expectedStatus: http.StatusBadRequest,
			errContains:    "rationale",
		},
		{
			name:           "valid partial submission",
			token:          token,
			scores:         []models.ScoreInput{noConfidence, input(d.optionB, d.quality, 9)},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/decisions/"+d.slug+"/evaluations",
				models.SubmitEvaluationRequest{Scores: tt.scores}, evaluatorHeaders(tt.token))
			w := serve(env.evaluations.SubmitEvaluation, req, map[string]string{"slug": d.slug})
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.errContains != "" && !strings.Contains(w.Body.String(), tt.errContains) {
				t.Errorf("Expected error mentioning %q, got %s", tt.errContains, w.Body.String())
			}
		})
	}

	// Only the valid submission was stored
	var cells int
	env.db.Get(&cells, `SELECT COUNT(*) FROM evaluation_score`)
	if cells != 2 {
		t.Errorf("Expected 2 stored cells, got %d", cells)
	}

	var confidence int
	env.db.Get(&confidence, env.db.Rebind(`SELECT confidence FROM evaluation_score WHERE option_id = ? AND criterion_id = ?`), d.optionA, d.cost)
	if confidence != defaultConfidence {
		t.Errorf("Expected omitted confidence to default to %d, got %d", defaultConfidence, confidence)
	}
}

func TestUpdateEvaluation(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedEvaluating(t)
	token := testutil.CreateTestEvaluator(t, env.db, d.id, "Alice")

	submit := func(scores ...models.ScoreInput) models.SubmitEvaluationResponse {
		t.Helper()
		req := testutil.MakeRequest("POST", "/decisions/"+d.slug+"/evaluations",
			models.SubmitEvaluationRequest{Scores: scores}, evaluatorHeaders(token))
		w := serve(env.evaluations.SubmitEvaluation, req, map[string]string{"slug": d.slug})
		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.SubmitEvaluationResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	first := submit(input(d.optionA, d.cost, 6), input(d.optionB, d.cost, 5))
	if !strings.Contains(first.Message, "submitted") {
		t.Errorf("Expected first submission message, got %q", first.Message)
	}

	second := submit(input(d.optionA, d.cost, 8), input(d.optionA, d.quality, 7))
	if second.EvaluationID != first.EvaluationID {
		t.Error("Expected resubmission to keep the evaluation ID")
	}
	if !strings.Contains(second.Message, "updated") {
		t.Errorf("Expected update message, got %q", second.Message)
	}

	req := testutil.MakeRequest("GET", "/decisions/"+d.slug+"/my-evaluation", nil, evaluatorHeaders(token))
	w := serve(env.evaluations.GetMyEvaluation, req, map[string]string{"slug": d.slug})
	testutil.AssertStatus(t, w, http.StatusOK)

	var mine models.MyEvaluationResponse
	testutil.AssertJSON(t, w, &mine)
	got := make(map[[2]string]int)
	for _, s := range mine.Scores {
		got[[2]string{s.OptionID, s.CriterionID}] = s.Score
	}
	want := map[[2]string]int{
		{d.optionA, d.cost}:    8, // replaced
		{d.optionB, d.cost}:    5, // kept from the first submission
		{d.optionA, d.quality}: 7, // added
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d cells, got %d: %v", len(want), len(got), got)
	}
	for cell, score := range want {
		if got[cell] != score {
			t.Errorf("Cell %v: expected %d, got %d", cell, score, got[cell])
		}
	}

	var evaluations int
	env.db.Get(&evaluations, env.db.Rebind(`SELECT COUNT(*) FROM evaluation WHERE decision_id = ?`), d.id)
	if evaluations != 1 {
		t.Errorf("Expected 1 evaluation row, got %d", evaluations)
	}
}

func TestSubmitEvaluationToClosedDecision(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedEvaluating(t)
	token := testutil.CreateTestEvaluator(t, env.db, d.id, "Alice")
	env.db.MustExec(env.db.Rebind(`UPDATE decision SET status = ? WHERE id = ?`), models.StatusClosed, d.id)

	req := testutil.MakeRequest("POST", "/decisions/"+d.slug+"/evaluations",
		models.SubmitEvaluationRequest{Scores: []models.ScoreInput{input(d.optionA, d.cost, 6)}}, evaluatorHeaders(token))
	w := serve(env.evaluations.SubmitEvaluation, req, map[string]string{"slug": d.slug})
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestGetMyEvaluationNotSubmitted(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedEvaluating(t)
	token := testutil.CreateTestEvaluator(t, env.db, d.id, "Alice")

	req := testutil.MakeRequest("GET", "/decisions/"+d.slug+"/my-evaluation", nil, evaluatorHeaders(token))
	w := serve(env.evaluations.GetMyEvaluation, req, map[string]string{"slug": d.slug})
	testutil.AssertStatus(t, w, http.StatusNotFound)

	req = testutil.MakeRequest("GET", "/decisions/"+d.slug+"/my-evaluation", nil, nil)
	w = serve(env.evaluations.GetMyEvaluation, req, map[string]string{"slug": d.slug})
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestGetMyEvaluationOnlyReturnsOwnScores(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedEvaluating(t)
	alice := testutil.CreateTestEvaluator(t, env.db, d.id, "Alice")
	bob := testutil.CreateTestEvaluator(t, env.db, d.id, "Bob")
	testutil.SubmitTestEvaluation(t, env.db, d.id, alice, []models.EvaluationScore{
		{OptionID: d.optionA, CriterionID: d.cost, Score: 3, Confidence: 4},
	})
	testutil.SubmitTestEvaluation(t, env.db, d.id, bob, []models.EvaluationScore{
		{OptionID: d.optionA, CriterionID: d.cost, Score: 7, Confidence: 6},
		{OptionID: d.optionB, CriterionID: d.cost, Score: 6, Confidence: 6},
	})

	req := testutil.MakeRequest("GET", "/decisions/"+d.slug+"/my-evaluation", nil, evaluatorHeaders(alice))
	w := serve(env.evaluations.GetMyEvaluation, req, map[string]string{"slug": d.slug})
	testutil.AssertStatus(t, w, http.StatusOK)

	var mine models.MyEvaluationResponse
	testutil.AssertJSON(t, w, &mine)
	if len(mine.Scores) != 1 || mine.Scores[0].Score != 3 {
		t.Errorf("Expected only Alice's single score, got %+v", mine.Scores)
	}
}
