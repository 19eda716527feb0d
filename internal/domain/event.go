// Package domain defines the entities of the session analysis pipeline:
// normalized activity events, sessions, and the intent/error output records.
package domain

import (
	"strings"
	"time"
)

// EventKind tags the source stream an event came from.
type EventKind string

const (
	KindConfig    EventKind = "config"
	KindConfigRow EventKind = "config_row"
	KindJob       EventKind = "job"
	KindTable     EventKind = "table"
)

// Event is one normalized occurrence from any warehouse stream. Exactly one
// of the payload pointers is set, matching Kind. Events are immutable once
// built by the normalizer.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Config *ConfigurationChange    `json:"config,omitempty"`
	Row    *ConfigurationRowChange `json:"config_row,omitempty"`
	Job    *JobExecution           `json:"job,omitempty"`
	Table  *TableEvent             `json:"table,omitempty"`
}

// ConfigurationChange is a configuration version event. InitialState and
// FinalState start out identical; the aggregator rewrites FinalState when
// consolidating repeated touches of the same configuration.
type ConfigurationChange struct {
	ConfigurationID string         `json:"configuration_id"`
	ComponentID     string         `json:"component_id"`
	InitialState    map[string]any `json:"initial_state"`
	FinalState      map[string]any `json:"final_state"`
	IsCreated       bool           `json:"is_created"`
	IsDeleted       bool           `json:"is_deleted"`
	EventTime       time.Time      `json:"event_time"`
}

// ConfigurationRowChange is a configuration row version event.
type ConfigurationRowChange struct {
	RowID           string         `json:"configuration_row_id"`
	ConfigurationID string         `json:"configuration_id"`
	ComponentID     string         `json:"component_id"`
	InitialState    map[string]any `json:"initial_state"`
	FinalState      map[string]any `json:"final_state"`
	IsCreated       bool           `json:"is_created"`
	IsDeleted       bool           `json:"is_deleted"`
	EventTime       time.Time      `json:"event_time"`
}

// JobExecution is a single job run. Executions are never consolidated: two
// runs of the same job id stay two records.
type JobExecution struct {
	JobID           string    `json:"job_id"`
	ConfigurationID string    `json:"configuration_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// TableEvent is a storage-layer event on a table.
type TableEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	EventTime time.Time `json:"event_time"`
	TableID   string    `json:"table_id"`
	Message   string    `json:"message,omitempty"`
}

// ComponentIDFromConfiguration extracts the component id from a configuration
// id of the form project_region_component_number. Returns "unknown" when the
// id does not carry enough segments.
func ComponentIDFromConfiguration(configurationID string) string {
	parts := strings.Split(configurationID, "_")
	if len(parts) > 2 {
		return parts[2]
	}
	return "unknown"
}
