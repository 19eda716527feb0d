package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/sessionlens/internal/domain"
)

func configChange(id string, state map[string]any, created, deleted bool) domain.ConfigurationChange {
	return domain.ConfigurationChange{
		ConfigurationID: id,
		ComponentID:     domain.ComponentIDFromConfiguration(id),
		InitialState:    state,
		FinalState:      state,
		IsCreated:       created,
		IsDeleted:       deleted,
	}
}

func TestConsolidateRepeatedEdits(t *testing.T) {
	// Three touches of one configuration: created, then edited twice. The
	// consolidated entity keeps the first state as initial, the last as
	// final, and lands in the created bucket.
	sess := &domain.Session{
		ConfigurationChanges: []domain.ConfigurationChange{
			configChange("1_eu_comp_9", map[string]any{"v": 1.0}, true, false),
			configChange("1_eu_comp_9", map[string]any{"v": 2.0}, false, false),
			configChange("1_eu_comp_9", map[string]any{"v": 3.0}, false, false),
		},
	}

	sc := Consolidate(sess)
	require.Len(t, sc.CreatedConfigurations, 1)
	assert.Empty(t, sc.ModifiedConfigurations)
	assert.Empty(t, sc.DeletedConfigurations)

	st := sc.CreatedConfigurations[0]
	assert.Equal(t, "1_eu_comp_9", st.ID)
	assert.Equal(t, "comp", st.ComponentID)
	assert.Equal(t, map[string]any{"v": 1.0}, st.Initial)
	assert.Equal(t, map[string]any{"v": 3.0}, st.Final)
}

func TestConsolidateClassification(t *testing.T) {
	sess := &domain.Session{
		ConfigurationChanges: []domain.ConfigurationChange{
			// Created and deleted within the session: created wins.
			configChange("1_eu_a_1", map[string]any{}, true, false),
			configChange("1_eu_a_1", map[string]any{}, false, true),
			// Edited then deleted: deleted.
			configChange("1_eu_b_1", map[string]any{}, false, false),
			configChange("1_eu_b_1", map[string]any{}, false, true),
			// Edited only: modified.
			configChange("1_eu_c_1", map[string]any{}, false, false),
		},
	}

	sc := Consolidate(sess)
	require.Len(t, sc.CreatedConfigurations, 1)
	require.Len(t, sc.DeletedConfigurations, 1)
	require.Len(t, sc.ModifiedConfigurations, 1)
	assert.Equal(t, "1_eu_a_1", sc.CreatedConfigurations[0].ID)
	assert.Equal(t, "1_eu_b_1", sc.DeletedConfigurations[0].ID)
	assert.Equal(t, "1_eu_c_1", sc.ModifiedConfigurations[0].ID)
}

func TestConsolidateDeleteFlagIsLastWriteWins(t *testing.T) {
	// A delete followed by a later non-delete touch clears the flag.
	sess := &domain.Session{
		ConfigurationChanges: []domain.ConfigurationChange{
			configChange("1_eu_a_1", map[string]any{}, false, true),
			configChange("1_eu_a_1", map[string]any{}, false, false),
		},
	}

	sc := Consolidate(sess)
	require.Len(t, sc.ModifiedConfigurations, 1)
	assert.Empty(t, sc.DeletedConfigurations)
}

func TestConsolidateRowsKeepParentConfiguration(t *testing.T) {
	sess := &domain.Session{
		ConfigurationRowChanges: []domain.ConfigurationRowChange{
			{
				RowID:           "row-1",
				ConfigurationID: "1_eu_comp_9",
				ComponentID:     "comp",
				InitialState:    map[string]any{"q": "select 1"},
				FinalState:      map[string]any{"q": "select 1"},
				IsCreated:       true,
			},
			{
				RowID:           "row-1",
				ConfigurationID: "1_eu_comp_9",
				ComponentID:     "comp",
				InitialState:    map[string]any{"q": "select 2"},
				FinalState:      map[string]any{"q": "select 2"},
			},
		},
	}

	sc := Consolidate(sess)
	require.Len(t, sc.CreatedRows, 1)

	row := sc.CreatedRows[0]
	assert.Equal(t, "row-1", row.ID)
	assert.Equal(t, "1_eu_comp_9", row.ConfigurationID)
	assert.Equal(t, map[string]any{"q": "select 1"}, row.Initial)
	assert.Equal(t, map[string]any{"q": "select 2"}, row.Final)
}

func TestConsolidateGroupsTableEvents(t *testing.T) {
	at := func(m int) time.Time { return time.Date(2024, 12, 1, 9, m, 0, 0, time.UTC) }
	sess := &domain.Session{
		TableEvents: []domain.TableEvent{
			{EventID: "e1", TableID: "in.orders", EventType: "storage.tableCreated", EventTime: at(0)},
			{EventID: "e2", TableID: "in.customers", EventType: "storage.tableImportDone", EventTime: at(1)},
			{EventID: "e3", TableID: "in.orders", EventType: "storage.tableImportDone", EventTime: at(2)},
		},
	}

	sc := Consolidate(sess)
	require.Len(t, sc.AffectedTables, 2)

	orders := sc.AffectedTables[0]
	assert.Equal(t, "in.orders", orders.TableID)
	require.Len(t, orders.Operations, 2)
	assert.Equal(t, "storage.tableCreated", orders.Operations[0].EventType)
	assert.Equal(t, "storage.tableImportDone", orders.Operations[1].EventType)

	assert.Equal(t, "in.customers", sc.AffectedTables[1].TableID)
}

func TestConsolidateJobsStayFlat(t *testing.T) {
	sess := &domain.Session{
		JobExecutions: []domain.JobExecution{
			{JobID: "j1", Status: "error"},
			{JobID: "j1", Status: "success"},
		},
	}

	sc := Consolidate(sess)
	require.Len(t, sc.ExecutedJobs, 2)
	assert.Equal(t, "error", sc.ExecutedJobs[0].Status)
	assert.Equal(t, "success", sc.ExecutedJobs[1].Status)
}

func TestConsolidateEmptySession(t *testing.T) {
	sc := Consolidate(&domain.Session{})
	assert.Empty(t, sc.CreatedConfigurations)
	assert.Empty(t, sc.AffectedTables)
	assert.Empty(t, sc.ExecutedJobs)
}
