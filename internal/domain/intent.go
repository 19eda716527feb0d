package domain

import "time"

// ErrorCategory classifies failed session analyses.
type ErrorCategory string

const (
	CategoryInsufficientData ErrorCategory = "insufficient_data"
	CategoryPotentialSession ErrorCategory = "potential_session"
	CategoryStrangeSequence  ErrorCategory = "strange_sequence"
	CategoryOther            ErrorCategory = "other"
)

// Unknown is the fallback for any classification field the annotator's
// response did not yield.
const Unknown = "Unknown"

// Fulfillment classifications the annotator may return.
const (
	FulfillmentSuccess = "Successful Completion"
	FulfillmentPartial = "Partial Success"
	FulfillmentFailed  = "Failed with Troubleshooting"
)

// Primary-goal classifications.
const (
	GoalAdHocAnalysis = "Ad-hoc analysis/Data exploration/inspection"
	GoalPipelineSetup = "ETL/ELT pipeline setup/Data export/sharing"
	GoalDebugging     = "Troubleshooting/Debugging"
)

// Development-stage classifications.
const (
	StageCreating = "Creating new use cases"
	StageUpdating = "Updating existing use cases"
	StageTesting  = "Testing/validating configurations"
)

// Fulfillments, Goals, and Stages enumerate the closed classification sets.
var (
	Fulfillments = []string{FulfillmentSuccess, FulfillmentPartial, FulfillmentFailed}
	Goals        = []string{GoalAdHocAnalysis, GoalPipelineSetup, GoalDebugging}
	Stages       = []string{StageCreating, StageUpdating, StageTesting}
)

// Intent is the successful analysis output for one session.
type Intent struct {
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	TokenID          string    `json:"token_id"`
	ProjectID        string    `json:"project_id"`
	ConfigurationIDs []string  `json:"configuration_ids"`
	Description      string    `json:"intent_description"`
	IsSuccessful     bool      `json:"is_successful"`
	SessionID        string    `json:"session_id"`
	Fulfillment      string    `json:"fulfillment"`
	Tags             []string  `json:"tags"`
	Classification   string    `json:"classification"`
	DevelopmentStage string    `json:"development_stage"`
	Summary          string    `json:"summary"`
}

// Error is the failed analysis output for one session.
type Error struct {
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	TokenID          string        `json:"token_id"`
	ProjectID        string        `json:"project_id"`
	ConfigurationIDs []string      `json:"configuration_ids"`
	Category         ErrorCategory `json:"error_category"`
	Context          string        `json:"context,omitempty"`
}
