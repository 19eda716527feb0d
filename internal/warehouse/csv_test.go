package warehouse

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExport(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newCSVStore(t *testing.T) *CSVStore {
	t.Helper()
	dir := t.TempDir()

	writeExport(t, dir, "kbc_component_configuration_version.csv",
		`kbc_component_configuration_id,kbc_token_id,kbc_project_id,configuration_updated_at,configuration_version,configuration_json,change_description_short
1_eu_keboola.ex-db-mysql_10,tok-1,proj-1,2024-12-01T09:30:00Z,2,"{""parameters"":{""host"":""db2""}}",Change query
1_eu_keboola.ex-db-mysql_10,tok-1,proj-1,2024-12-01T09:00:00Z,1,"{""parameters"":{""host"":""db""}}",Configuration created
2_eu_keboola.snowflake_11,tok-2,proj-2,2024-12-02T09:00:00Z,1,{},
`)
	// Split across a subdirectory to exercise glob discovery.
	writeExport(t, filepath.Join(dir, "day2"), "kbc_job_2024-12-01.csv",
		`kbc_job_id,kbc_component_configuration_id,kbc_token_id,kbc_project_id,job_start_at,job_created_at,job_status,error_type,error_message,error_message_short
job-1,1_eu_keboola.ex-db-mysql_10,tok-1,proj-1,2024-12-01T09:40:00Z,2024-12-01T09:45:00Z,success,,,
`)
	writeExport(t, dir, "kbc_component_configuration_row_version.csv",
		`kbc_component_configuration_row_id,kbc_component_configuration_id,kbc_token_id,kbc_project_id,configuration_row_updated_at,configuration_row_version,configuration_row_json,change_description_short
row-1,1_eu_keboola.ex-db-mysql_10,tok-1,proj-1,2024-12-01T09:10:00Z,1,{},
`)
	writeExport(t, dir, "kbc_table_event.csv",
		`kbc_table_event_id,table_id,kbc_token_id,kbc_project_id,event_created_at,event,event_type,message,params
evt-1,in.c-main.users,tok-1,proj-1,2024-12-01T09:50:00Z,storage.tableImportDone,info,Imported 100 rows,
`)

	s, err := OpenCSV(dir)
	require.NoError(t, err)
	return s
}

func TestCSVConfigurationVersionsSorted(t *testing.T) {
	s := newCSVStore(t)

	rows, err := s.ConfigurationVersions(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// The export is out of order; the store must sort ascending.
	assert.Equal(t, 1, rows[0].Version)
	assert.Equal(t, 2, rows[1].Version)
}

func TestCSVRangeAndScopeFilter(t *testing.T) {
	s := newCSVStore(t)

	rows, err := s.ConfigurationVersions(context.Background(), "tok-2", "proj-2", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2_eu_keboola.snowflake_11", rows[0].ConfigurationID)

	narrowEnd := time.Date(2024, 12, 1, 9, 15, 0, 0, time.UTC)
	narrowed, err := s.ConfigurationVersions(context.Background(), "tok-1", "proj-1", rangeStart, narrowEnd)
	require.NoError(t, err)
	assert.Len(t, narrowed, 1)
}

func TestCSVGlobFindsSubdirectories(t *testing.T) {
	s := newCSVStore(t)

	jobs, err := s.Jobs(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].JobID)
	assert.Equal(t, "success", jobs[0].Status)
}

func TestCSVDiscovery(t *testing.T) {
	s := newCSVStore(t)

	projects, err := s.DistinctProjectIDs(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-1", "proj-2"}, projects)

	tokens, err := s.DistinctTokenIDs(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1"}, tokens)
}

func TestCSVMissingTableIsRetrievalError(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "kbc_component_configuration_version.csv",
		"kbc_component_configuration_id,kbc_token_id,kbc_project_id,configuration_updated_at,configuration_version,configuration_json,change_description_short\n")

	s, err := OpenCSV(dir)
	require.NoError(t, err)

	_, err = s.Jobs(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "kbc_job", re.Op)
}
