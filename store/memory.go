// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/choseby/models"
)

type cellKey struct {
	optionID    string
	criterionID string
}

type memoryEvaluation struct {
	id          string
	submittedAt time.Time
	cells       map[cellKey]models.EvaluationScore
}

type memoryDecision struct {
	criteria    []models.Criterion
	options     []models.Option
	members     map[string]bool
	evaluations map[string]*memoryEvaluation // keyed by evaluator token
}

// MemoryStore is a ScoreStore backed by maps. It is the reference model
// SQLStore is checked against in the store tests. A submission is applied
// under a single write lock.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions map[string]*memoryDecision
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		decisions: make(map[string]*memoryDecision),
		now:       time.Now,
	}
}

func (m *MemoryStore) decision(id string) *memoryDecision {
	d, ok := m.decisions[id]
	if !ok {
		d = &memoryDecision{
			members:     make(map[string]bool),
			evaluations: make(map[string]*memoryEvaluation),
		}
		m.decisions[id] = d
	}
	return d
}

// AddCriterion registers a criterion for a decision.
func (m *MemoryStore) AddCriterion(decisionID string, c models.Criterion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.DecisionID = decisionID
	d := m.decision(decisionID)
	d.criteria = append(d.criteria, c)
}

// AddOption registers an option for a decision.
func (m *MemoryStore) AddOption(decisionID string, o models.Option) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.DecisionID = decisionID
	d := m.decision(decisionID)
	d.options = append(d.options, o)
}

// AddMember lets token submit evaluations for the decision.
func (m *MemoryStore) AddMember(decisionID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decision(decisionID).members[token] = true
}

func (m *MemoryStore) SubmitEvaluation(_ context.Context, sub Submission) (SubmitResult, error) {
	if err := validateSubmission(sub); err != nil {
		return SubmitResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.decision(sub.DecisionID)
	if !d.members[sub.EvaluatorToken] {
		return SubmitResult{}, ErrNotMember
	}

	ev, updated := d.evaluations[sub.EvaluatorToken]
	if !updated {
		ev = &memoryEvaluation{
			id:    uuid.NewString(),
			cells: make(map[cellKey]models.EvaluationScore),
		}
		d.evaluations[sub.EvaluatorToken] = ev
	}
	ev.submittedAt = m.now()

	for _, s := range sub.Scores {
		s.EvaluatorID = ev.id
		ev.cells[cellKey{s.OptionID, s.CriterionID}] = s
	}

	return SubmitResult{EvaluationID: ev.id, Updated: updated}, nil
}

func (m *MemoryStore) Snapshot(_ context.Context, decisionID string) (Inputs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	in := Inputs{
		Criteria: []models.Criterion{},
		Options:  []models.Option{},
		Scores:   []models.EvaluationScore{},
	}
	d, ok := m.decisions[decisionID]
	if !ok {
		return in, nil
	}

	in.Criteria = append(in.Criteria, d.criteria...)
	in.Options = append(in.Options, d.options...)
	in.TeamSize = len(d.members)
	for _, ev := range d.evaluations {
		for _, s := range ev.cells {
			in.Scores = append(in.Scores, s)
		}
	}
	sortScores(in.Scores)

	return in, nil
}

func (m *MemoryStore) EvaluatorScores(_ context.Context, decisionID, token string) ([]models.EvaluationScore, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decisions[decisionID]
	if !ok {
		return nil, time.Time{}, ErrNoSubmission
	}
	ev, ok := d.evaluations[token]
	if !ok {
		return nil, time.Time{}, ErrNoSubmission
	}

	scores := make([]models.EvaluationScore, 0, len(ev.cells))
	for _, s := range ev.cells {
		scores = append(scores, s)
	}
	sortScores(scores)

	return scores, ev.submittedAt, nil
}

func (m *MemoryStore) Progress(_ context.Context, decisionID string) (Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decisions[decisionID]
	if !ok {
		return Progress{}, nil
	}
	return Progress{TeamSize: len(d.members), Completed: len(d.evaluations)}, nil
}

// sortScores gives map-backed reads the same order as the SQL store.
func sortScores(scores []models.EvaluationScore) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.EvaluatorID != b.EvaluatorID {
			return a.EvaluatorID < b.EvaluatorID
		}
		if a.OptionID != b.OptionID {
			return a.OptionID < b.OptionID
		}
		return a.CriterionID < b.CriterionID
	})
}

var (
	_ ScoreStore = (*SQLStore)(nil)
	_ ScoreStore = (*MemoryStore)(nil)
)
