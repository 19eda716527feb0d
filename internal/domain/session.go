package domain

import "time"

// Session is a bounded burst of activity for one (token, project) pair.
// Events holds the full ordered event list as segmented; the typed slices
// below are the same events bucketed per kind. Sessions are not mutated
// after construction.
type Session struct {
	ID        string    `json:"session_id"`
	TokenID   string    `json:"token_id"`
	ProjectID string    `json:"project_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Events []Event `json:"-"`

	ConfigurationChanges    []ConfigurationChange    `json:"configuration_changes"`
	ConfigurationRowChanges []ConfigurationRowChange `json:"configuration_row_changes"`
	JobExecutions           []JobExecution           `json:"job_executions"`
	TableEvents             []TableEvent             `json:"table_events"`

	IsSuccessful bool `json:"is_successful"`
}

// ConfigurationIDs lists the configuration id of every configuration change
// in the session, in event order, duplicates included.
func (s *Session) ConfigurationIDs() []string {
	ids := make([]string, 0, len(s.ConfigurationChanges))
	for _, c := range s.ConfigurationChanges {
		ids = append(ids, c.ConfigurationID)
	}
	return ids
}

// JobStatuses lists the status of every job execution in event order.
func (s *Session) JobStatuses() []string {
	statuses := make([]string, 0, len(s.JobExecutions))
	for _, j := range s.JobExecutions {
		statuses = append(statuses, j.Status)
	}
	return statuses
}
