// Package warehouse provides access to the activity-event warehouse.
// Two backends implement the same six-query surface: a SQLite mirror of the
// warehouse tables and a flat-file store over CSV exports.
package warehouse

import (
	"context"
	"fmt"
	"time"
)

// ConfigVersionRow is one raw configuration version record. Timestamps stay
// strings here; parsing happens once at the normalization boundary.
type ConfigVersionRow struct {
	ConfigurationID   string
	UpdatedAt         string
	Version           int
	ConfigurationJSON string
	ChangeDescription string
}

// ConfigRowVersionRow is one raw configuration row version record.
type ConfigRowVersionRow struct {
	RowID             string
	ConfigurationID   string
	UpdatedAt         string
	Version           int
	ConfigurationJSON string
	ChangeDescription string
}

// JobRow is one raw job execution record.
type JobRow struct {
	JobID             string
	ConfigurationID   string
	StartAt           string
	CreatedAt         string
	Status            string
	ErrorType         string
	ErrorMessage      string
	ErrorMessageShort string
}

// TableEventRow is one raw table event record.
type TableEventRow struct {
	EventID   string
	TableID   string
	CreatedAt string
	Event     string
	EventType string
	Message   string
	Params    string
}

// Warehouse is the data-source contract: four range queries keyed by
// (token, project, time range) and two discovery queries. Implementations
// return rows ordered ascending by their timestamp column.
type Warehouse interface {
	ConfigurationVersions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]ConfigVersionRow, error)
	ConfigurationRowVersions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]ConfigRowVersionRow, error)
	Jobs(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]JobRow, error)
	TableEvents(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]TableEventRow, error)

	// DistinctProjectIDs returns project ids matching the substring filter.
	DistinctProjectIDs(ctx context.Context, filter string) ([]string, error)
	// DistinctTokenIDs returns token ids of projects matching the filter.
	DistinctTokenIDs(ctx context.Context, projectFilter string) ([]string, error)

	Close() error
}

// RetrievalError wraps a failed warehouse call. Retrieval failures are fatal
// for the current token and are never retried.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("warehouse %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
