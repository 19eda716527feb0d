package warehouse

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore serves the warehouse queries from a local SQLite mirror of the
// four warehouse tables.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Warehouse = (*SQLiteStore)(nil)

// OpenSQLite opens (and if needed creates) the SQLite warehouse mirror.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, &RetrievalError{Op: "open", Err: err}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		return nil, &RetrievalError{Op: "migrate", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kbc_component_configuration_version (
		kbc_component_configuration_id TEXT NOT NULL,
		kbc_token_id TEXT NOT NULL,
		kbc_project_id TEXT NOT NULL,
		configuration_updated_at TEXT NOT NULL,
		configuration_version INTEGER NOT NULL DEFAULT 0,
		configuration_json TEXT NOT NULL DEFAULT '{}',
		change_description_short TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_config_version_scope
		ON kbc_component_configuration_version(kbc_token_id, kbc_project_id, configuration_updated_at);

	CREATE TABLE IF NOT EXISTS kbc_component_configuration_row_version (
		kbc_component_configuration_row_id TEXT NOT NULL,
		kbc_component_configuration_id TEXT NOT NULL,
		kbc_token_id TEXT NOT NULL,
		kbc_project_id TEXT NOT NULL,
		configuration_row_updated_at TEXT NOT NULL,
		configuration_row_version INTEGER NOT NULL DEFAULT 0,
		configuration_row_json TEXT NOT NULL DEFAULT '{}',
		change_description_short TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_config_row_version_scope
		ON kbc_component_configuration_row_version(kbc_token_id, kbc_project_id, configuration_row_updated_at);

	CREATE TABLE IF NOT EXISTS kbc_job (
		kbc_job_id TEXT NOT NULL,
		kbc_component_configuration_id TEXT,
		kbc_token_id TEXT NOT NULL,
		kbc_project_id TEXT NOT NULL,
		job_start_at TEXT,
		job_created_at TEXT NOT NULL,
		job_status TEXT NOT NULL,
		error_type TEXT,
		error_message TEXT,
		error_message_short TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_job_scope
		ON kbc_job(kbc_token_id, kbc_project_id, job_created_at);

	CREATE TABLE IF NOT EXISTS kbc_table_event (
		kbc_table_event_id TEXT NOT NULL,
		table_id TEXT NOT NULL,
		kbc_token_id TEXT NOT NULL,
		kbc_project_id TEXT NOT NULL,
		event_created_at TEXT NOT NULL,
		event TEXT NOT NULL,
		event_type TEXT,
		message TEXT,
		params TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_table_event_scope
		ON kbc_table_event(kbc_token_id, kbc_project_id, event_created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rangeBound formats a query bound the same way timestamps are mirrored.
func rangeBound(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func (s *SQLiteStore) ConfigurationVersions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]ConfigVersionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kbc_component_configuration_id, configuration_updated_at,
		       configuration_version, configuration_json, change_description_short
		FROM kbc_component_configuration_version
		WHERE kbc_token_id = ? AND kbc_project_id = ?
		  AND configuration_updated_at >= ? AND configuration_updated_at <= ?
		ORDER BY configuration_updated_at
	`, tokenID, projectID, rangeBound(start), rangeBound(end))
	if err != nil {
		return nil, &RetrievalError{Op: "configuration_versions", Err: err}
	}
	defer rows.Close()

	var result []ConfigVersionRow
	for rows.Next() {
		var r ConfigVersionRow
		var desc sql.NullString
		if err := rows.Scan(&r.ConfigurationID, &r.UpdatedAt, &r.Version, &r.ConfigurationJSON, &desc); err != nil {
			return nil, &RetrievalError{Op: "configuration_versions", Err: err}
		}
		r.ChangeDescription = desc.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &RetrievalError{Op: "configuration_versions", Err: err}
	}
	return result, nil
}

func (s *SQLiteStore) ConfigurationRowVersions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]ConfigRowVersionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kbc_component_configuration_row_id, kbc_component_configuration_id,
		       configuration_row_updated_at, configuration_row_version,
		       configuration_row_json, change_description_short
		FROM kbc_component_configuration_row_version
		WHERE kbc_token_id = ? AND kbc_project_id = ?
		  AND configuration_row_updated_at >= ? AND configuration_row_updated_at <= ?
		ORDER BY configuration_row_updated_at
	`, tokenID, projectID, rangeBound(start), rangeBound(end))
	if err != nil {
		return nil, &RetrievalError{Op: "configuration_row_versions", Err: err}
	}
	defer rows.Close()

	var result []ConfigRowVersionRow
	for rows.Next() {
		var r ConfigRowVersionRow
		var desc sql.NullString
		if err := rows.Scan(&r.RowID, &r.ConfigurationID, &r.UpdatedAt, &r.Version, &r.ConfigurationJSON, &desc); err != nil {
			return nil, &RetrievalError{Op: "configuration_row_versions", Err: err}
		}
		r.ChangeDescription = desc.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &RetrievalError{Op: "configuration_row_versions", Err: err}
	}
	return result, nil
}

func (s *SQLiteStore) Jobs(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]JobRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kbc_job_id, kbc_component_configuration_id, job_start_at,
		       job_created_at, job_status, error_type, error_message, error_message_short
		FROM kbc_job
		WHERE kbc_token_id = ? AND kbc_project_id = ?
		  AND job_created_at >= ? AND job_created_at <= ?
		ORDER BY job_created_at
	`, tokenID, projectID, rangeBound(start), rangeBound(end))
	if err != nil {
		return nil, &RetrievalError{Op: "jobs", Err: err}
	}
	defer rows.Close()

	var result []JobRow
	for rows.Next() {
		var r JobRow
		var configID, startAt, errType, errMsg, errShort sql.NullString
		if err := rows.Scan(&r.JobID, &configID, &startAt, &r.CreatedAt, &r.Status, &errType, &errMsg, &errShort); err != nil {
			return nil, &RetrievalError{Op: "jobs", Err: err}
		}
		r.ConfigurationID = configID.String
		r.StartAt = startAt.String
		r.ErrorType = errType.String
		r.ErrorMessage = errMsg.String
		r.ErrorMessageShort = errShort.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &RetrievalError{Op: "jobs", Err: err}
	}
	return result, nil
}

func (s *SQLiteStore) TableEvents(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]TableEventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kbc_table_event_id, table_id, event_created_at, event,
		       event_type, message, params
		FROM kbc_table_event
		WHERE kbc_token_id = ? AND kbc_project_id = ?
		  AND event_created_at >= ? AND event_created_at <= ?
		ORDER BY event_created_at
	`, tokenID, projectID, rangeBound(start), rangeBound(end))
	if err != nil {
		return nil, &RetrievalError{Op: "table_events", Err: err}
	}
	defer rows.Close()

	var result []TableEventRow
	for rows.Next() {
		var r TableEventRow
		var eventType, message, params sql.NullString
		if err := rows.Scan(&r.EventID, &r.TableID, &r.CreatedAt, &r.Event, &eventType, &message, &params); err != nil {
			return nil, &RetrievalError{Op: "table_events", Err: err}
		}
		r.EventType = eventType.String
		r.Message = message.String
		r.Params = params.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &RetrievalError{Op: "table_events", Err: err}
	}
	return result, nil
}

func (s *SQLiteStore) DistinctProjectIDs(ctx context.Context, filter string) ([]string, error) {
	return s.distinct(ctx, "kbc_project_id", filter)
}

func (s *SQLiteStore) DistinctTokenIDs(ctx context.Context, projectFilter string) ([]string, error) {
	return s.distinct(ctx, "kbc_token_id", projectFilter)
}

func (s *SQLiteStore) distinct(ctx context.Context, column, projectFilter string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT `+column+`
		FROM kbc_component_configuration_version
		WHERE kbc_project_id LIKE '%' || ?
		ORDER BY `+column+`
	`, projectFilter)
	if err != nil {
		return nil, &RetrievalError{Op: "distinct_" + column, Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &RetrievalError{Op: "distinct_" + column, Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &RetrievalError{Op: "distinct_" + column, Err: err}
	}
	return ids, nil
}
