// Package segment splits a time-ordered event stream into sessions using a
// gap-threshold policy.
package segment

import (
	"time"

	"github.com/google/uuid"

	"github.com/joss/sessionlens/internal/domain"
)

// Config holds the two gap thresholds. Both are compared independently and
// either being exceeded closes the current session. They are kept as two
// settings because product intent behind the larger threshold is still
// unresolved; collapsing them would silently change the config surface.
type Config struct {
	BreakThreshold      time.Duration
	NewSessionThreshold time.Duration
}

// DefaultConfig returns the standard thresholds: a 4 hour break and a
// 24 hour new-session gap.
func DefaultConfig() Config {
	return Config{
		BreakThreshold:      4 * time.Hour,
		NewSessionThreshold: 24 * time.Hour,
	}
}

// Segmenter builds sessions for one (token, project) pair.
type Segmenter struct {
	cfg       Config
	tokenID   string
	projectID string
}

// New creates a segmenter scoped to one (token, project) pair.
func New(tokenID, projectID string, cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg, tokenID: tokenID, projectID: projectID}
}

// Split performs a single pass over the merged stream. A gap exceeding
// either threshold closes the current session; the last open session is
// closed when the stream ends. An empty stream yields no sessions.
func (s *Segmenter) Split(events []domain.Event) []*domain.Session {
	if len(events) == 0 {
		return nil
	}

	var sessions []*domain.Session
	var current []domain.Event

	for _, ev := range events {
		if len(current) == 0 {
			current = append(current, ev)
			continue
		}

		gap := ev.Timestamp.Sub(current[len(current)-1].Timestamp)
		if gap > s.cfg.NewSessionThreshold || gap > s.cfg.BreakThreshold {
			sessions = append(sessions, s.build(current))
			current = []domain.Event{ev}
			continue
		}
		current = append(current, ev)
	}

	sessions = append(sessions, s.build(current))
	return sessions
}

func (s *Segmenter) build(events []domain.Event) *domain.Session {
	sess := &domain.Session{
		ID:        uuid.New().String(),
		TokenID:   s.tokenID,
		ProjectID: s.projectID,
		StartTime: events[0].Timestamp,
		EndTime:   events[len(events)-1].Timestamp,
		Events:    events,
	}

	for _, ev := range events {
		switch ev.Kind {
		case domain.KindConfig:
			sess.ConfigurationChanges = append(sess.ConfigurationChanges, *ev.Config)
		case domain.KindConfigRow:
			sess.ConfigurationRowChanges = append(sess.ConfigurationRowChanges, *ev.Row)
		case domain.KindJob:
			sess.JobExecutions = append(sess.JobExecutions, *ev.Job)
		case domain.KindTable:
			sess.TableEvents = append(sess.TableEvents, *ev.Table)
		}
	}

	sess.IsSuccessful = successful(sess.JobExecutions)
	return sess
}

// successful reports whether at least one job succeeded and none errored.
// A session with no jobs is not successful.
func successful(jobs []domain.JobExecution) bool {
	anySuccess := false
	for _, j := range jobs {
		switch j.Status {
		case "success":
			anySuccess = true
		case "error":
			return false
		}
	}
	return anySuccess
}
