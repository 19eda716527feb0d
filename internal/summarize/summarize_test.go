package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/sessionlens/internal/aggregate"
	"github.com/joss/sessionlens/internal/domain"
)

func TestProcessConfigurationDescriptions(t *testing.T) {
	sc := &aggregate.StateChanges{
		CreatedConfigurations: []aggregate.EntityState{
			{
				ID:          "1_eu_comp_1",
				ComponentID: "comp",
				Final:       map[string]any{"parameters": map[string]any{"host": "db"}},
			},
		},
		ModifiedConfigurations: []aggregate.EntityState{
			{
				ID:          "1_eu_comp_2",
				ComponentID: "comp",
				Initial:     map[string]any{"parameters": map[string]any{"host": "a"}},
				Final:       map[string]any{"parameters": map[string]any{"host": "b"}},
			},
			// No parameters on either side: plain sentence.
			{ID: "1_eu_comp_3", ComponentID: "comp", Initial: map[string]any{}, Final: map[string]any{}},
		},
		DeletedConfigurations: []aggregate.EntityState{
			{ID: "1_eu_comp_4", ComponentID: "comp"},
		},
	}

	pc := Process(sc)
	require.Len(t, pc.ConfigurationChanges, 4)
	assert.Equal(t, `Created configuration 1_eu_comp_1 of type comp with parameters: {"host":"db"}`, pc.ConfigurationChanges[0])
	assert.Equal(t, `Modified configuration 1_eu_comp_2 of type comp. Changes in parameters: {"host":"b"}`, pc.ConfigurationChanges[1])
	assert.Equal(t, "Modified configuration 1_eu_comp_3 of type comp", pc.ConfigurationChanges[2])
	assert.Equal(t, "Deleted configuration 1_eu_comp_4 of type comp", pc.ConfigurationChanges[3])
}

func TestProcessRowTableAndJobDescriptions(t *testing.T) {
	sc := &aggregate.StateChanges{
		CreatedRows: []aggregate.EntityState{
			{
				ID:              "row-1",
				ConfigurationID: "1_eu_comp_1",
				ComponentID:     "comp",
				Final:           map[string]any{"parameters": map[string]any{"q": "select 1"}},
			},
		},
		AffectedTables: []aggregate.TableActivity{
			{
				TableID: "in.orders",
				Operations: []aggregate.TableOperation{
					{EventType: "storage.tableImportDone", Message: "Imported 100 rows"},
					{EventType: "storage.tableCreated"},
				},
			},
		},
		ExecutedJobs: []domain.JobExecution{
			{JobID: "j1", ConfigurationID: "1_eu_comp_1", Status: "error", ErrorMessage: "timeout"},
			{JobID: "j2", ConfigurationID: "1_eu_comp_1", Status: "success"},
		},
	}

	pc := Process(sc)
	require.Len(t, pc.ConfigurationRowChanges, 1)
	assert.Equal(t, `Created configuration row row-1 for configuration 1_eu_comp_1 of type comp with parameters: {"q":"select 1"}`, pc.ConfigurationRowChanges[0])

	require.Len(t, pc.TableOperations, 2)
	assert.Equal(t, "Table in.orders: storage.tableImportDone - Imported 100 rows", pc.TableOperations[0])
	assert.Equal(t, "Table in.orders: storage.tableCreated", pc.TableOperations[1])

	require.Len(t, pc.JobExecutions, 2)
	assert.Equal(t, "Job j1 for configuration 1_eu_comp_1 executed with status error. Error: timeout", pc.JobExecutions[0])
	assert.Equal(t, "Job j2 for configuration 1_eu_comp_1 executed with status success", pc.JobExecutions[1])
}

func TestGroupSingletonAndCount(t *testing.T) {
	sc := &aggregate.StateChanges{
		CreatedConfigurations: []aggregate.EntityState{
			{ID: "1_eu_writer_1", ComponentID: "writer", Final: map[string]any{"parameters": map[string]any{"t": "x"}}},
			{ID: "1_eu_extractor_1", ComponentID: "extractor"},
			{ID: "1_eu_extractor_2", ComponentID: "extractor"},
		},
		ModifiedConfigurations: []aggregate.EntityState{
			{ID: "1_eu_writer_2", ComponentID: "writer", Final: map[string]any{"parameters": map[string]any{"t": "y"}}},
		},
	}

	gs := Group(sc)
	require.Len(t, gs.CreatedConfigurations, 2)
	assert.Equal(t, `Created a writer configuration with parameters: {"t":"x"}`, gs.CreatedConfigurations[0])
	assert.Equal(t, "Created 2 extractor configurations", gs.CreatedConfigurations[1])

	require.Len(t, gs.ModifiedConfigurations, 1)
	assert.Equal(t, `Modified a writer configuration with updated parameters: {"t":"y"}`, gs.ModifiedConfigurations[0])
}

func TestGroupRowsByParentConfiguration(t *testing.T) {
	sc := &aggregate.StateChanges{
		CreatedRows: []aggregate.EntityState{
			{ID: "r1", ConfigurationID: "1_eu_comp_1", ComponentID: "comp"},
			{ID: "r2", ConfigurationID: "1_eu_comp_1", ComponentID: "comp"},
			{ID: "r3", ConfigurationID: "1_eu_comp_2", ComponentID: "comp", Final: map[string]any{"parameters": map[string]any{"q": "1"}}},
		},
		ModifiedRows: []aggregate.EntityState{
			{ID: "r4", ConfigurationID: "1_eu_comp_2", ComponentID: "comp"},
		},
	}

	gs := Group(sc)
	require.Len(t, gs.CreatedRows, 2)
	assert.Equal(t, "Created 2 configuration rows for configuration 1_eu_comp_1", gs.CreatedRows[0])
	assert.Equal(t, `Created a configuration row for configuration 1_eu_comp_2 with parameters: {"q":"1"}`, gs.CreatedRows[1])

	require.Len(t, gs.ModifiedRows, 1)
	assert.Equal(t, "Modified a configuration row for configuration 1_eu_comp_2", gs.ModifiedRows[0])
}

func TestEmptyStateChanges(t *testing.T) {
	sc := &aggregate.StateChanges{}

	pc := Process(sc)
	assert.Empty(t, pc.ConfigurationChanges)
	assert.NotNil(t, pc.ConfigurationChanges)

	gs := Group(sc)
	assert.Empty(t, gs.CreatedConfigurations)
	assert.NotNil(t, gs.CreatedConfigurations)
}
