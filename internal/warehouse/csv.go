package warehouse

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joss/sessionlens/internal/domain"
)

// CSV export base names, one per warehouse table.
const (
	csvConfigVersions    = "kbc_component_configuration_version"
	csvConfigRowVersions = "kbc_component_configuration_row_version"
	csvJobs              = "kbc_job"
	csvTableEvents       = "kbc_table_event"
)

// CSVStore serves the warehouse queries from CSV exports. Export files are
// discovered by glob under the store directory, so both a flat layout and
// per-day subdirectories work.
type CSVStore struct {
	dir string
}

var _ Warehouse = (*CSVStore)(nil)

// OpenCSV opens a CSV-export warehouse rooted at dir.
func OpenCSV(dir string) (*CSVStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &RetrievalError{Op: "open", Err: err}
	}
	if !info.IsDir() {
		return nil, &RetrievalError{Op: "open", Err: fmt.Errorf("%s is not a directory", dir)}
	}
	return &CSVStore{dir: dir}, nil
}

// Close is a no-op; the store holds no open handles between queries.
func (s *CSVStore) Close() error { return nil }

// record is one CSV row keyed by header column.
type record map[string]string

func (r record) int(key string) int {
	n, _ := strconv.Atoi(r[key])
	return n
}

// readTable loads every export file for one table.
func (s *CSVStore) readTable(table string) ([]record, error) {
	pattern := filepath.Join(s.dir, "**", table+"*.csv")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, &RetrievalError{Op: table, Err: err}
	}
	if len(matches) == 0 {
		return nil, &RetrievalError{Op: table, Err: fmt.Errorf("no export files match %s", pattern)}
	}
	sort.Strings(matches)

	var records []record
	for _, path := range matches {
		rs, err := readCSVFile(path)
		if err != nil {
			return nil, &RetrievalError{Op: table, Err: err}
		}
		records = append(records, rs...)
	}
	return records, nil
}

func readCSVFile(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var records []record
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rec := make(record, len(header))
		for i, col := range header {
			if i < len(fields) {
				rec[col] = fields[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// filterRange keeps records for one (token, project) pair inside the
// inclusive time range, sorted ascending by the date column.
func (s *CSVStore) filterRange(table, dateColumn, tokenID, projectID string, start, end time.Time) ([]record, error) {
	records, err := s.readTable(table)
	if err != nil {
		return nil, err
	}

	type dated struct {
		at  time.Time
		rec record
	}
	var kept []dated
	for _, rec := range records {
		if rec["kbc_token_id"] != tokenID || rec["kbc_project_id"] != projectID {
			continue
		}
		at, err := domain.ParseTime(rec[dateColumn])
		if err != nil {
			return nil, &RetrievalError{Op: table, Err: err}
		}
		if at.Before(start) || at.After(end) {
			continue
		}
		kept = append(kept, dated{at: at, rec: rec})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })

	result := make([]record, len(kept))
	for i, d := range kept {
		result[i] = d.rec
	}
	return result, nil
}

func (s *CSVStore) ConfigurationVersions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]ConfigVersionRow, error) {
	records, err := s.filterRange(csvConfigVersions, "configuration_updated_at", tokenID, projectID, start, end)
	if err != nil {
		return nil, err
	}
	rows := make([]ConfigVersionRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ConfigVersionRow{
			ConfigurationID:   rec["kbc_component_configuration_id"],
			UpdatedAt:         rec["configuration_updated_at"],
			Version:           rec.int("configuration_version"),
			ConfigurationJSON: rec["configuration_json"],
			ChangeDescription: rec["change_description_short"],
		})
	}
	return rows, nil
}

func (s *CSVStore) ConfigurationRowVersions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]ConfigRowVersionRow, error) {
	records, err := s.filterRange(csvConfigRowVersions, "configuration_row_updated_at", tokenID, projectID, start, end)
	if err != nil {
		return nil, err
	}
	rows := make([]ConfigRowVersionRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ConfigRowVersionRow{
			RowID:             rec["kbc_component_configuration_row_id"],
			ConfigurationID:   rec["kbc_component_configuration_id"],
			UpdatedAt:         rec["configuration_row_updated_at"],
			Version:           rec.int("configuration_row_version"),
			ConfigurationJSON: rec["configuration_row_json"],
			ChangeDescription: rec["change_description_short"],
		})
	}
	return rows, nil
}

func (s *CSVStore) Jobs(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]JobRow, error) {
	records, err := s.filterRange(csvJobs, "job_created_at", tokenID, projectID, start, end)
	if err != nil {
		return nil, err
	}
	rows := make([]JobRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, JobRow{
			JobID:             rec["kbc_job_id"],
			ConfigurationID:   rec["kbc_component_configuration_id"],
			StartAt:           rec["job_start_at"],
			CreatedAt:         rec["job_created_at"],
			Status:            rec["job_status"],
			ErrorType:         rec["error_type"],
			ErrorMessage:      rec["error_message"],
			ErrorMessageShort: rec["error_message_short"],
		})
	}
	return rows, nil
}

func (s *CSVStore) TableEvents(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]TableEventRow, error) {
	records, err := s.filterRange(csvTableEvents, "event_created_at", tokenID, projectID, start, end)
	if err != nil {
		return nil, err
	}
	rows := make([]TableEventRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, TableEventRow{
			EventID:   rec["kbc_table_event_id"],
			TableID:   rec["table_id"],
			CreatedAt: rec["event_created_at"],
			Event:     rec["event"],
			EventType: rec["event_type"],
			Message:   rec["message"],
			Params:    rec["params"],
		})
	}
	return rows, nil
}

func (s *CSVStore) DistinctProjectIDs(ctx context.Context, filter string) ([]string, error) {
	return s.distinct("kbc_project_id", filter)
}

func (s *CSVStore) DistinctTokenIDs(ctx context.Context, projectFilter string) ([]string, error) {
	return s.distinct("kbc_token_id", projectFilter)
}

func (s *CSVStore) distinct(column, projectFilter string) ([]string, error) {
	records, err := s.readTable(csvConfigVersions)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, rec := range records {
		if !strings.Contains(rec["kbc_project_id"], projectFilter) {
			continue
		}
		seen[rec[column]] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
