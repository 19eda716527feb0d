package annotate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joss/sessionlens/internal/domain"
	"github.com/joss/sessionlens/internal/summarize"
)

// sessionPayload is the JSON document embedded in the description prompt.
// Field order mirrors the document the annotator was tuned on.
type sessionPayload struct {
	StartTime               string                          `json:"start_time"`
	EndTime                 string                          `json:"end_time"`
	TokenID                 string                          `json:"token_id"`
	ProjectID               string                          `json:"project_id"`
	IsSuccessful            bool                            `json:"is_successful"`
	ConfigurationChanges    []domain.ConfigurationChange    `json:"configuration_changes"`
	ConfigurationRowChanges []domain.ConfigurationRowChange `json:"configuration_row_changes"`
	JobExecutions           []domain.JobExecution           `json:"job_executions"`
	TableEvents             []domain.TableEvent             `json:"table_events"`
	ProcessedChanges        *summarize.ProcessedChanges     `json:"processed_changes"`
	ConfigSummary           *summarize.GroupedSummary       `json:"config_summary"`
}

func describePrompt(sess *domain.Session, pc *summarize.ProcessedChanges, gs *summarize.GroupedSummary) string {
	payload := sessionPayload{
		StartTime:               sess.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		EndTime:                 sess.EndTime.Format("2006-01-02T15:04:05Z07:00"),
		TokenID:                 sess.TokenID,
		ProjectID:               sess.ProjectID,
		IsSuccessful:            sess.IsSuccessful,
		ConfigurationChanges:    sess.ConfigurationChanges,
		ConfigurationRowChanges: sess.ConfigurationRowChanges,
		JobExecutions:           sess.JobExecutions,
		TableEvents:             sess.TableEvents,
		ProcessedChanges:        pc,
		ConfigSummary:           gs,
	}
	data, _ := json.MarshalIndent(payload, "", "  ")

	return fmt.Sprintf(`Analyze the following user session data and provide a comprehensive, detailed description of the user's intent and its fulfillment.

Focus on:
1. **Multi-step processes**: Describe the full journey including initial attempts, failures, debugging steps, and iterative refinements
2. **Nuanced success assessment**: Distinguish between partial success, complete success, and specific failure points
3. **Elements integration**: Mention all data sources, transformations, and destinations involved
4. **Iterative workflows**: Recognize trial-and-error processes, configuration adjustments, and troubleshooting patterns

Session Data:
%s

Provide a comprehensive intent description that captures:
- What the user was trying to achieve (be specific about data sources, destinations, transformations)
- The technical challenges encountered (specific error messages, configuration issues)
- The iterative process of refinement and debugging
- Whether different parts of the intent were fulfilled or failed
- The overall outcome and success assessment

Examples of the detailed style expected:
- "The user intended to extract data from a MongoDB database and a MySQL database. The data extraction from MySQL (into table `+"`in.aims_searches`"+`) was successful, but the repeated attempts to extract data from MongoDB failed due to a persistent server version incompatibility, meaning this part of the intent was not fulfilled."

- "The user intended to modify two existing Snowflake transformations to filter their output tables to include only data from 2023 onwards. This involved adding new SQL filtering logic and then debugging syntax errors. The intent to correctly apply these date filters was successfully fulfilled after iterative corrections, as evidenced by subsequent successful job executions for both transformations and their downstream dependencies."

Write a single comprehensive paragraph (or multiple paragraphs if the session is complex) that thoroughly describes the user's intent and its fulfillment.`, data)
}

func fulfillmentPrompt(sess *domain.Session, pc *summarize.ProcessedChanges, description string) string {
	return fmt.Sprintf(`Analyze this user session and classify the outcome into exactly one of these categories:

1. "Successful Completion" - Intent fully achieved, all major components worked as expected
2. "Partial Success" - Some components worked, others failed, mixed results
3. "Failed with Troubleshooting" - Active problem-solving attempts, debugging activities

Session details:
- Session successful: %t
- Intent description: %s
- Job executions: %s
- Configuration changes: %s
- Table operations: %s

Job statuses in session:
%s

Return only one of the three exact category names: "Successful Completion", "Partial Success", or "Failed with Troubleshooting"`,
		sess.IsSuccessful,
		description,
		formatList(pc.JobExecutions),
		formatList(pc.ConfigurationChanges),
		formatList(pc.TableOperations),
		formatList(sess.JobStatuses()),
	)
}

func categoriesPrompt(sess *domain.Session, pc *summarize.ProcessedChanges, gs *summarize.GroupedSummary, description string) string {
	summaryJSON, _ := json.Marshal(gs)

	return fmt.Sprintf(`Analyze this user session and provide:

1. PRIMARY GOAL (choose exactly one):
- "Ad-hoc analysis/Data exploration/inspection"
- "ETL/ELT pipeline setup/Data export/sharing"
- "Troubleshooting/Debugging"

2. DEVELOPMENT STAGE (choose exactly one):
- "Creating new use cases"
- "Updating existing use cases"
- "Testing/validating configurations"

3. INTENT TAGS (list 2-4 meaningful tags that describe the intent):
Generate descriptive tags that capture the essence of what the user was trying to accomplish.
Use short, descriptive phrases that would be useful for categorizing and searching intents.

Session details:
- Intent description: %s
- Configuration changes: %s
- Job executions: %s
- Table operations: %s
- Session successful: %t

Configuration states:
- Created configurations: %d
- Modified configurations: %d

Interacting with the Keboola.sandbox component suggests ad-hoc analysis/Data exploration/inspection, but may
also be used for Troubleshooting/Debugging.

Examples of good intent tags:
- "data-extraction", "database-source", "api-source"
- "pipeline-setup", "automation", "etl"
- "troubleshooting", "connection-error", "mongodb"
- "data-transformation", "filtering", "date-range"
- "configuration-update", "parameter-change"
- "data-validation", "testing", "quality-check"

Return your answer in this exact format:
PRIMARY_GOAL: [exact category name]
DEVELOPMENT_STAGE: [exact category name]
INTENT_TAGS: [tag1], [tag2], [tag3], [tag4]`,
		description,
		summaryJSON,
		formatList(pc.JobExecutions),
		formatList(pc.TableOperations),
		sess.IsSuccessful,
		len(gs.CreatedConfigurations),
		len(gs.ModifiedConfigurations),
	)
}

func summaryPrompt(sess *domain.Session, description string) string {
	return fmt.Sprintf(`Create a concise summary (1-3 sentences) describing what the user wanted to accomplish in this session.
Write from the user's perspective using first person ("I want to...", "I need to...", "I am trying to...").

Session details:
- Intent description: %s
- Session successful: %t
- Configuration changes: %d changes
- Job executions: %d jobs
- Table events: %d events

Job results: %s

Focus on describing the user's goals and intentions, not the technical implementation details or outcomes.

Examples of good summaries:
- "I want to extract data from my MySQL database and load it into Snowflake for analysis."
- "I need to set up automated data extraction from MongoDB to create regular reports."
- "I want to modify my existing data transformations to filter out older records and only include data from 2023 onwards."
- "I am trying to troubleshoot my data pipeline because it keeps failing during the extraction step."

Return only the 1-3 sentence summary from the user's perspective, no additional text.`,
		description,
		sess.IsSuccessful,
		len(sess.ConfigurationChanges),
		len(sess.JobExecutions),
		len(sess.TableEvents),
		formatList(sess.JobStatuses()),
	)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return "[" + strings.Join(items, ", ") + "]"
}
