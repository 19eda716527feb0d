package warehouse

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSeededStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	seed := `
	INSERT INTO kbc_component_configuration_version VALUES
		('1_eu_keboola.ex-db-mysql_10', 'tok-1', 'proj-1', '2024-12-01T09:00:00Z', 1, '{"parameters":{"host":"db"}}', 'Configuration created'),
		('1_eu_keboola.ex-db-mysql_10', 'tok-1', 'proj-1', '2024-12-01T09:30:00Z', 2, '{"parameters":{"host":"db2"}}', 'Change query'),
		('2_eu_keboola.snowflake_11',   'tok-1', 'proj-1', '2024-11-01T09:00:00Z', 1, '{}', NULL),
		('9_eu_keboola.orchestrator_9', 'tok-2', 'proj-2', '2024-12-02T09:00:00Z', 3, '{}', NULL);

	INSERT INTO kbc_component_configuration_row_version VALUES
		('row-1', '1_eu_keboola.ex-db-mysql_10', 'tok-1', 'proj-1', '2024-12-01T09:10:00Z', 1, '{"parameters":{"table":"users"}}', NULL);

	INSERT INTO kbc_job VALUES
		('job-1', '1_eu_keboola.ex-db-mysql_10', 'tok-1', 'proj-1', '2024-12-01T09:40:00Z', '2024-12-01T09:45:00Z', 'success', NULL, NULL, NULL),
		('job-2', '1_eu_keboola.ex-db-mysql_10', 'tok-1', 'proj-1', '2024-12-01T10:00:00Z', '2024-12-01T10:05:00Z', 'error', 'user', 'timeout connecting', 'timeout');

	INSERT INTO kbc_table_event VALUES
		('evt-1', 'in.c-main.users', 'tok-1', 'proj-1', '2024-12-01T09:50:00Z', 'storage.tableImportDone', 'info', 'Imported 100 rows', NULL);
	`
	_, err = s.db.Exec(seed)
	require.NoError(t, err)
	return s
}

var (
	rangeStart = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
)

func TestSQLiteConfigurationVersions(t *testing.T) {
	s := openSeededStore(t)

	rows, err := s.ConfigurationVersions(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, rows, 2, "November row and other tokens must be excluded")

	assert.Equal(t, "1_eu_keboola.ex-db-mysql_10", rows[0].ConfigurationID)
	assert.Equal(t, 1, rows[0].Version)
	assert.Equal(t, "Configuration created", rows[0].ChangeDescription)
	assert.Equal(t, "2024-12-01T09:30:00Z", rows[1].UpdatedAt, "ascending order")
}

func TestSQLiteJobsNullableColumns(t *testing.T) {
	s := openSeededStore(t)

	rows, err := s.Jobs(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "success", rows[0].Status)
	assert.Empty(t, rows[0].ErrorMessage)
	assert.Equal(t, "timeout connecting", rows[1].ErrorMessage)
}

func TestSQLiteTableEventsAndRows(t *testing.T) {
	s := openSeededStore(t)

	events, err := s.TableEvents(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "storage.tableImportDone", events[0].Event)
	assert.Equal(t, "in.c-main.users", events[0].TableID)

	rows, err := s.ConfigurationRowVersions(context.Background(), "tok-1", "proj-1", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "row-1", rows[0].RowID)
	assert.Equal(t, "1_eu_keboola.ex-db-mysql_10", rows[0].ConfigurationID)
}

func TestSQLiteDiscovery(t *testing.T) {
	s := openSeededStore(t)

	projects, err := s.DistinctProjectIDs(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-1"}, projects)

	// Suffix match: the filter is applied as LIKE '%' || filter.
	projects, err = s.DistinctProjectIDs(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-1"}, projects)

	tokens, err := s.DistinctTokenIDs(context.Background(), "proj-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-2"}, tokens)
}

func TestSQLiteEmptyRange(t *testing.T) {
	s := openSeededStore(t)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	rows, err := s.Jobs(context.Background(), "tok-1", "proj-1", start, end)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
