// Package aggregate consolidates a session's repeated entity touches into
// per-entity state transitions.
package aggregate

import (
	"time"

	"github.com/joss/sessionlens/internal/domain"
)

// EntityState is the consolidated view of one configuration or row across a
// session: the state at first touch, the state at last touch, and the
// create/delete flags that drive classification.
type EntityState struct {
	ID              string         `json:"id"`
	ConfigurationID string         `json:"config_id,omitempty"`
	ComponentID     string         `json:"component_id"`
	Initial         map[string]any `json:"initial_state,omitempty"`
	Final           map[string]any `json:"final_state,omitempty"`
	IsCreated       bool           `json:"is_created"`
	IsDeleted       bool           `json:"is_deleted"`
}

// TableOperation is one storage event on a table, kept in arrival order.
type TableOperation struct {
	EventType string    `json:"event_type"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

// TableActivity groups a session's operations on one table.
type TableActivity struct {
	TableID    string           `json:"id"`
	Operations []TableOperation `json:"operations"`
}

// StateChanges is the consolidated outcome of one session. Entity buckets
// are mutually exclusive: an id lands in exactly one of created, deleted, or
// modified. Jobs stay a flat, unconsolidated list.
type StateChanges struct {
	CreatedConfigurations  []EntityState `json:"created_configurations"`
	ModifiedConfigurations []EntityState `json:"modified_configurations"`
	DeletedConfigurations  []EntityState `json:"deleted_configurations"`

	CreatedRows  []EntityState `json:"created_configuration_rows"`
	ModifiedRows []EntityState `json:"modified_configuration_rows"`
	DeletedRows  []EntityState `json:"deleted_configuration_rows"`

	AffectedTables []TableActivity       `json:"affected_tables"`
	ExecutedJobs   []domain.JobExecution `json:"executed_jobs"`
}

// tracker accumulates last-write-wins entity state, remembering first-seen
// order so output stays deterministic.
type tracker struct {
	states map[string]*EntityState
	order  []string
}

func newTracker() *tracker {
	return &tracker{states: make(map[string]*EntityState)}
}

// touch records one occurrence of an entity. The first occurrence fixes the
// initial state and the created flag; every later occurrence overwrites the
// final state and the deleted flag. The created flag is never reset.
func (tr *tracker) touch(id, configurationID, componentID string, initial, final map[string]any, isCreated, isDeleted bool) {
	if st, ok := tr.states[id]; ok {
		st.Final = final
		st.IsDeleted = isDeleted
		return
	}
	tr.states[id] = &EntityState{
		ID:              id,
		ConfigurationID: configurationID,
		ComponentID:     componentID,
		Initial:         initial,
		Final:           final,
		IsCreated:       isCreated,
		IsDeleted:       isDeleted,
	}
	tr.order = append(tr.order, id)
}

// classify buckets every tracked entity. Created takes precedence over
// deleted: an entity created and then deleted in the same session counts as
// created. Known quirk, kept for output compatibility.
func (tr *tracker) classify() (created, deleted, modified []EntityState) {
	for _, id := range tr.order {
		st := tr.states[id]
		switch {
		case st.IsCreated:
			created = append(created, *st)
		case st.IsDeleted:
			deleted = append(deleted, *st)
		default:
			modified = append(modified, *st)
		}
	}
	return created, deleted, modified
}

// Consolidate scans a session's events once and produces its StateChanges.
func Consolidate(sess *domain.Session) *StateChanges {
	configs := newTracker()
	for _, c := range sess.ConfigurationChanges {
		configs.touch(c.ConfigurationID, "", c.ComponentID, c.InitialState, c.FinalState, c.IsCreated, c.IsDeleted)
	}

	rows := newTracker()
	for _, r := range sess.ConfigurationRowChanges {
		rows.touch(r.RowID, r.ConfigurationID, r.ComponentID, r.InitialState, r.FinalState, r.IsCreated, r.IsDeleted)
	}

	sc := &StateChanges{}
	sc.CreatedConfigurations, sc.DeletedConfigurations, sc.ModifiedConfigurations = configs.classify()
	sc.CreatedRows, sc.DeletedRows, sc.ModifiedRows = rows.classify()

	sc.AffectedTables = groupTables(sess.TableEvents)
	sc.ExecutedJobs = append(sc.ExecutedJobs, sess.JobExecutions...)
	return sc
}

// groupTables buckets table events per table id, preserving both the order
// tables first appear and each table's operation arrival order. Table events
// are never merged.
func groupTables(events []domain.TableEvent) []TableActivity {
	index := make(map[string]int)
	var tables []TableActivity

	for _, ev := range events {
		op := TableOperation{EventType: ev.EventType, Message: ev.Message, Time: ev.EventTime}
		if i, ok := index[ev.TableID]; ok {
			tables[i].Operations = append(tables[i].Operations, op)
			continue
		}
		index[ev.TableID] = len(tables)
		tables = append(tables, TableActivity{TableID: ev.TableID, Operations: []TableOperation{op}})
	}
	return tables
}
