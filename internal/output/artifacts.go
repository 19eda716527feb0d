package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joss/sessionlens/internal/aggregate"
	"github.com/joss/sessionlens/internal/domain"
	"github.com/joss/sessionlens/internal/summarize"
)

// ArtifactWriter writes one directory per session under the output root,
// holding the raw events plus every intermediate the annotator saw. The
// artifacts exist for auditing annotations after the fact.
type ArtifactWriter struct {
	root string
}

func NewArtifactWriter(root string) *ArtifactWriter {
	return &ArtifactWriter{root: root}
}

// changeEntry is one line of the session changelog.
type changeEntry struct {
	Date              string `json:"date"`
	Type              string `json:"type"`
	EntityID          string `json:"entity_id"`
	ChangeDescription string `json:"change_description"`
}

// WriteSession persists all artifacts for one analyzed session.
func (w *ArtifactWriter) WriteSession(sess *domain.Session, sc *aggregate.StateChanges, pc *summarize.ProcessedChanges, gs *summarize.GroupedSummary) error {
	dir := filepath.Join(w.root, sess.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	if err := w.writeRawEvents(dir, sess.Events); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "changes.json"), changelog(sess)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "state_changes.json"), sc); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "state_changes_processed.json"), pc); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "config_summary.json"), gs)
}

func (w *ArtifactWriter) writeRawEvents(dir string, events []domain.Event) error {
	f, err := os.Create(filepath.Join(dir, "raw_events.csv"))
	if err != nil {
		return fmt.Errorf("create raw_events.csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"event_type", "event_time", "event_data"}); err != nil {
		return err
	}
	for _, ev := range events {
		data, err := json.Marshal(eventPayload(ev))
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		if err := cw.Write([]string{string(ev.Kind), ev.Timestamp.Format(time.RFC3339), string(data)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func eventPayload(ev domain.Event) any {
	switch ev.Kind {
	case domain.KindConfig:
		return ev.Config
	case domain.KindConfigRow:
		return ev.Row
	case domain.KindJob:
		return ev.Job
	case domain.KindTable:
		return ev.Table
	}
	return nil
}

// changelog flattens the session into dated one-line descriptions, sorted by
// date.
func changelog(sess *domain.Session) []changeEntry {
	changes := make([]changeEntry, 0, len(sess.Events))

	for _, c := range sess.ConfigurationChanges {
		changes = append(changes, changeEntry{
			Date:              c.EventTime.Format(time.RFC3339),
			Type:              "configuration",
			EntityID:          c.ConfigurationID,
			ChangeDescription: fmt.Sprintf("Configuration %s was %s", c.ConfigurationID, verb(c.IsCreated, c.IsDeleted)),
		})
	}
	for _, r := range sess.ConfigurationRowChanges {
		changes = append(changes, changeEntry{
			Date:              r.EventTime.Format(time.RFC3339),
			Type:              "configuration_row",
			EntityID:          r.RowID,
			ChangeDescription: fmt.Sprintf("Configuration row %s was %s", r.RowID, verb(r.IsCreated, r.IsDeleted)),
		})
	}
	for _, j := range sess.JobExecutions {
		changes = append(changes, changeEntry{
			Date:              j.StartTime.Format(time.RFC3339),
			Type:              "job",
			EntityID:          j.JobID,
			ChangeDescription: fmt.Sprintf("Job %s was executed with status %s", j.JobID, j.Status),
		})
	}
	for _, t := range sess.TableEvents {
		changes = append(changes, changeEntry{
			Date:              t.EventTime.Format(time.RFC3339),
			Type:              "table_event",
			EntityID:          t.EventID,
			ChangeDescription: fmt.Sprintf("Table event %s: %s - %s", t.EventID, t.EventType, t.Message),
		})
	}

	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Date < changes[j].Date })
	return changes
}

// verb renders the change kind. Created wins over deleted, matching the
// classification rule.
func verb(isCreated, isDeleted bool) string {
	switch {
	case isCreated:
		return "created"
	case isDeleted:
		return "deleted"
	default:
		return "modified"
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
