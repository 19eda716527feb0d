// Package normalize turns raw warehouse records into a single time-ordered
// stream of tagged events. Validation happens here, once, so malformed
// records fail at a single well-defined point.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joss/sessionlens/internal/domain"
	"github.com/joss/sessionlens/internal/warehouse"
)

// MalformedEventError reports a raw record missing a required field or
// carrying an unparseable one. It is fatal for the whole batch: one bad
// record aborts the (token, project) run rather than silently skewing
// sessions.
type MalformedEventError struct {
	Kind  domain.EventKind
	Field string
	Value string
	Err   error
}

func (e *MalformedEventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s event: field %s=%q: %v", e.Kind, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed %s event: missing %s", e.Kind, e.Field)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

// Table events that are pure noise for intent analysis.
var noiseTableEvents = map[string]struct{}{
	"storage.tableMetadataSet":     {},
	"storage.workspaceTableCloned": {},
}

// Merge validates and parses the four raw record collections and merges them
// into one stream sorted ascending by timestamp. Ties keep source priority
// order: config, config_row, job, table.
func Merge(
	configs []warehouse.ConfigVersionRow,
	rows []warehouse.ConfigRowVersionRow,
	jobs []warehouse.JobRow,
	tables []warehouse.TableEventRow,
) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(configs)+len(rows)+len(jobs)+len(tables))

	for _, r := range configs {
		ev, err := configEvent(r)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	for _, r := range rows {
		ev, err := rowEvent(r)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	for _, r := range jobs {
		ev, err := jobEvent(r)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	for _, r := range tables {
		if _, noise := noiseTableEvents[r.Event]; noise {
			continue
		}
		ev, err := tableEvent(r)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func parseEventTime(kind domain.EventKind, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &MalformedEventError{Kind: kind, Field: field}
	}
	t, err := domain.ParseTime(value)
	if err != nil {
		return time.Time{}, &MalformedEventError{Kind: kind, Field: field, Value: value, Err: err}
	}
	return t, nil
}

func parseState(kind domain.EventKind, field, raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, &MalformedEventError{Kind: kind, Field: field, Value: raw, Err: err}
	}
	return state, nil
}

// isDeletionMarker reports whether a change description announces a delete.
func isDeletionMarker(description string) bool {
	return strings.Contains(strings.ToLower(description), "delet")
}

func configEvent(r warehouse.ConfigVersionRow) (domain.Event, error) {
	if r.ConfigurationID == "" {
		return domain.Event{}, &MalformedEventError{Kind: domain.KindConfig, Field: "kbc_component_configuration_id"}
	}
	at, err := parseEventTime(domain.KindConfig, "configuration_updated_at", r.UpdatedAt)
	if err != nil {
		return domain.Event{}, err
	}
	state, err := parseState(domain.KindConfig, "configuration_json", r.ConfigurationJSON)
	if err != nil {
		return domain.Event{}, err
	}

	return domain.Event{
		Kind:      domain.KindConfig,
		Timestamp: at,
		Config: &domain.ConfigurationChange{
			ConfigurationID: r.ConfigurationID,
			ComponentID:     domain.ComponentIDFromConfiguration(r.ConfigurationID),
			InitialState:    state,
			FinalState:      state,
			IsCreated:       r.Version == 1,
			IsDeleted:       isDeletionMarker(r.ChangeDescription),
			EventTime:       at,
		},
	}, nil
}

func rowEvent(r warehouse.ConfigRowVersionRow) (domain.Event, error) {
	if r.RowID == "" {
		return domain.Event{}, &MalformedEventError{Kind: domain.KindConfigRow, Field: "kbc_component_configuration_row_id"}
	}
	at, err := parseEventTime(domain.KindConfigRow, "configuration_row_updated_at", r.UpdatedAt)
	if err != nil {
		return domain.Event{}, err
	}
	state, err := parseState(domain.KindConfigRow, "configuration_row_json", r.ConfigurationJSON)
	if err != nil {
		return domain.Event{}, err
	}

	return domain.Event{
		Kind:      domain.KindConfigRow,
		Timestamp: at,
		Row: &domain.ConfigurationRowChange{
			RowID:           r.RowID,
			ConfigurationID: r.ConfigurationID,
			ComponentID:     domain.ComponentIDFromConfiguration(r.ConfigurationID),
			InitialState:    state,
			FinalState:      state,
			IsCreated:       r.Version == 1,
			IsDeleted:       isDeletionMarker(r.ChangeDescription),
			EventTime:       at,
		},
	}, nil
}

func jobEvent(r warehouse.JobRow) (domain.Event, error) {
	if r.JobID == "" {
		return domain.Event{}, &MalformedEventError{Kind: domain.KindJob, Field: "kbc_job_id"}
	}
	created, err := parseEventTime(domain.KindJob, "job_created_at", r.CreatedAt)
	if err != nil {
		return domain.Event{}, err
	}

	// Jobs without a recorded start fall back to the creation time.
	start := created
	if r.StartAt != "" {
		start, err = parseEventTime(domain.KindJob, "job_start_at", r.StartAt)
		if err != nil {
			return domain.Event{}, err
		}
	}

	return domain.Event{
		Kind:      domain.KindJob,
		Timestamp: created,
		Job: &domain.JobExecution{
			JobID:           r.JobID,
			ConfigurationID: r.ConfigurationID,
			StartTime:       start,
			EndTime:         created,
			Status:          r.Status,
			ErrorMessage:    r.ErrorMessage,
		},
	}, nil
}

func tableEvent(r warehouse.TableEventRow) (domain.Event, error) {
	if r.EventID == "" {
		return domain.Event{}, &MalformedEventError{Kind: domain.KindTable, Field: "kbc_table_event_id"}
	}
	at, err := parseEventTime(domain.KindTable, "event_created_at", r.CreatedAt)
	if err != nil {
		return domain.Event{}, err
	}

	return domain.Event{
		Kind:      domain.KindTable,
		Timestamp: at,
		Table: &domain.TableEvent{
			EventID:   r.EventID,
			EventType: r.Event,
			EventTime: at,
			TableID:   r.TableID,
			Message:   r.Message,
		},
	}, nil
}
