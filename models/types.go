package models

import "time"

// Decision status constants
const (
	StatusDraft      = "draft"
	StatusEvaluating = "evaluating"
	StatusClosed     = "closed"
)

// Aggregation method recorded on result snapshots
const (
	MethodWeightedSum = "weighted_sum"
)

// Criterion categories (descriptive only)
const (
	CategoryClinical    = "clinical"
	CategoryFinancial   = "financial"
	CategoryOperational = "operational"
	CategoryCompliance  = "compliance"
	CategoryTechnical   = "technical"
)

// Score scale shared by scores and confidence
const (
	MinScore = 1
	MaxScore = 10
)

// ConflictLevel is the qualitative disagreement classification of an
// option/criterion cell or a whole option.
type ConflictLevel string

const (
	ConflictNone   ConflictLevel = "none"
	ConflictLow    ConflictLevel = "low"
	ConflictMedium ConflictLevel = "medium"
	ConflictHigh   ConflictLevel = "high"
)

// Severity orders conflict levels; higher is more severe.
func (c ConflictLevel) Severity() int {
	switch c {
	case ConflictLow:
		return 1
	case ConflictMedium:
		return 2
	case ConflictHigh:
		return 3
	default:
		return 0
	}
}

// Request types

type CreateDecisionRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	CreatorName  string `json:"creator_name" validate:"required,max=100"`
	DecisionType string `json:"decision_type" validate:"max=50"`
	UrgencyLevel int    `json:"urgency_level" validate:"omitempty,min=1,max=5"`
	Preset       string `json:"preset,omitempty"`
}

type AddCriterionRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Category    string  `json:"category" validate:"omitempty,oneof=clinical financial operational compliance technical"`
}

type AddOptionRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty" validate:"omitempty,min=0"`
	Timeline      string   `json:"timeline"`
	RiskLevel     string   `json:"risk_level" validate:"omitempty,oneof=low medium high"`
}

type JoinDecisionRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
}

// SubmitEvaluationRequest carries one evaluator's scores for any subset of
// (option, criterion) cells.
type SubmitEvaluationRequest struct {
	Scores []ScoreInput `json:"scores" validate:"required,min=1,dive"`
}

type ScoreInput struct {
	OptionID    string  `json:"option_id" validate:"required"`
	CriterionID string  `json:"criterion_id" validate:"required"`
	Score       int     `json:"score"`
	Confidence  int     `json:"confidence"`
	Rationale   *string `json:"rationale,omitempty"`
}

type RecordOutcomeRequest struct {
	SelectedOptionID          string   `json:"selected_option_id" validate:"required"`
	CustomerSatisfactionScore *int     `json:"customer_satisfaction_score,omitempty" validate:"omitempty,min=1,max=5"`
	EscalationOccurred        bool     `json:"escalation_occurred"`
	ResolutionTimeHours       *float64 `json:"resolution_time_hours,omitempty" validate:"omitempty,min=0"`
	Notes                     *string  `json:"notes,omitempty"`
}

// Response types

type CreateDecisionResponse struct {
	DecisionID string `json:"decision_id"`
	AdminKey   string `json:"admin_key"`
}

type AddCriterionResponse struct {
	CriterionID string `json:"criterion_id"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type OpenDecisionResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type JoinDecisionResponse struct {
	EvaluatorToken string `json:"evaluator_token"`
}

type SubmitEvaluationResponse struct {
	EvaluationID string `json:"evaluation_id"`
	ScoreCount   int    `json:"score_count"`
	Message      string `json:"message"`
}

type CloseDecisionResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type EvaluationStatusResponse struct {
	TotalMembers      int     `json:"total_members"`
	CompletedCount    int     `json:"completed_count"`
	PendingCount      int     `json:"pending_count"`
	ParticipationRate float64 `json:"participation_rate"`
	CanViewResults    bool    `json:"can_view_results"`
}

type ResultsResponse struct {
	Decision       Decision          `json:"decision"`
	Results        DecisionResultSet `json:"results"`
	CompletedCount int               `json:"completed_count"`
	PendingCount   int               `json:"pending_count"`
	Sealed         bool              `json:"sealed"`
}

// MyEvaluationResponse returns an evaluator's own scores. It is only served
// to the holder of the evaluator token.
type MyEvaluationResponse struct {
	SubmittedAt time.Time         `json:"submitted_at"`
	Scores      []EvaluationScore `json:"scores"`
}

type RecordOutcomeResponse struct {
	OutcomeID string `json:"outcome_id"`
	Message   string `json:"message"`
}

// OutcomeSummaryResponse aggregates recorded outcomes over decisions created
// in a period. Averages are omitted when nothing contributes to them.
type OutcomeSummaryResponse struct {
	Period                     string         `json:"period"`
	TotalDecisions             int            `json:"total_decisions"`
	ClosedDecisions            int            `json:"closed_decisions"`
	OutcomesRecorded           int            `json:"outcomes_recorded"`
	AvgCustomerSatisfaction    *float64       `json:"avg_customer_satisfaction,omitempty"`
	AvgResolutionHours         *float64       `json:"avg_resolution_hours,omitempty"`
	EscalationRate             *float64       `json:"escalation_rate,omitempty"`
	FollowedRecommendationRate *float64       `json:"followed_recommendation_rate,omitempty"`
	AvgTeamConsensus           *float64       `json:"avg_team_consensus,omitempty"`
	DecisionTypes              map[string]int `json:"decision_types"`
}

// Domain types

type Decision struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	CreatorName     string     `json:"creator_name" db:"creator_name"`
	DecisionType    string     `json:"decision_type" db:"decision_type"`
	UrgencyLevel    int        `json:"urgency_level" db:"urgency_level"`
	Method          string     `json:"method" db:"method"`
	Status          string     `json:"status" db:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty" db:"share_slug"`
	ClosedAt        *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty" db:"final_snapshot_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type Criterion struct {
	ID          string  `json:"id" db:"id"`
	DecisionID  string  `json:"decision_id" db:"decision_id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Weight      float64 `json:"weight" db:"weight"`
	Category    string  `json:"category" db:"category"`
}

type Option struct {
	ID            string   `json:"id" db:"id"`
	DecisionID    string   `json:"decision_id" db:"decision_id"`
	Title         string   `json:"title" db:"title"`
	Description   string   `json:"description" db:"description"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty" db:"estimated_cost"`
	Timeline      string   `json:"timeline" db:"timeline"`
	RiskLevel     string   `json:"risk_level" db:"risk_level"`
}

type DecisionDetails struct {
	Decision Decision    `json:"decision"`
	Criteria []Criterion `json:"criteria"`
	Options  []Option    `json:"options"`
}

// EvaluationScore is one scalar judgment. EvaluatorID identifies the
// submission it belongs to and is never serialized.
type EvaluationScore struct {
	EvaluatorID string  `json:"-" db:"evaluation_id"`
	OptionID    string  `json:"option_id" db:"option_id"`
	CriterionID string  `json:"criterion_id" db:"criterion_id"`
	Score       int     `json:"score" db:"score"`
	Confidence  int     `json:"confidence" db:"confidence"`
	Rationale   *string `json:"rationale,omitempty" db:"rationale"`
}

type Outcome struct {
	ID                        string    `json:"id" db:"id"`
	DecisionID                string    `json:"decision_id" db:"decision_id"`
	SelectedOptionID          string    `json:"selected_option_id" db:"selected_option_id"`
	CustomerSatisfactionScore *int      `json:"customer_satisfaction_score,omitempty" db:"customer_satisfaction_score"`
	EscalationOccurred        bool      `json:"escalation_occurred" db:"escalation_occurred"`
	ResolutionTimeHours       *float64  `json:"resolution_time_hours,omitempty" db:"resolution_time_hours"`
	Notes                     *string   `json:"notes,omitempty" db:"notes"`
	TeamConsensusScore        *float64  `json:"team_consensus_score,omitempty" db:"team_consensus_score"`
	FollowedRecommendation    *bool     `json:"followed_recommendation,omitempty" db:"followed_recommendation"`
	CreatedAt                 time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at" db:"updated_at"`
}

// Aggregation result types. None of them can carry an evaluator identity.

type CriterionResult struct {
	CriterionID    string        `json:"criterion_id"`
	Mean           float64       `json:"mean"`
	StdDev         float64       `json:"std_dev"`
	EvaluatorCount int           `json:"evaluator_count"`
	ConflictLevel  ConflictLevel `json:"conflict_level"`
}

type OptionResult struct {
	OptionID          string            `json:"option_id"`
	Title             string            `json:"title"`
	EstimatedCost     *float64          `json:"estimated_cost,omitempty"`
	Timeline          string            `json:"timeline,omitempty"`
	RiskLevel         string            `json:"risk_level,omitempty"`
	WeightedScore     float64           `json:"weighted_score"`
	AverageScore      float64           `json:"average_score"`
	EvaluatorCount    int               `json:"evaluator_count"`
	Consensus         float64           `json:"consensus"`
	ConflictLevel     ConflictLevel     `json:"conflict_level"`
	PartialCoverage   bool              `json:"partial_coverage"`
	AverageConfidence float64           `json:"average_confidence"`
	Rank              int               `json:"rank"` // 1-indexed ranking
	Criteria          []CriterionResult `json:"criteria,omitempty"`
}

type DecisionResultSet struct {
	ParticipationRate float64        `json:"participation_rate"`
	TeamConsensus     float64        `json:"team_consensus"`
	RecommendedOption *string        `json:"recommended_option"`
	RankedOptions     []OptionResult `json:"ranked_options"`
}

type ResultSnapshot struct {
	ID         string            `json:"id"`
	DecisionID string            `json:"decision_id"`
	Method     string            `json:"method"`
	ComputedAt time.Time         `json:"computed_at"`
	Results    DecisionResultSet `json:"results"`
	InputsHash string            `json:"inputs_hash"` // Hash of all scored cells for verification
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
