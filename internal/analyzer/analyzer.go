// Package analyzer runs the full per-token pipeline: retrieve, normalize,
// segment, consolidate, summarize, annotate.
package analyzer

import (
	"context"
	"time"

	"github.com/joss/sessionlens/internal/aggregate"
	"github.com/joss/sessionlens/internal/annotate"
	"github.com/joss/sessionlens/internal/domain"
	"github.com/joss/sessionlens/internal/logging"
	"github.com/joss/sessionlens/internal/metrics"
	"github.com/joss/sessionlens/internal/normalize"
	"github.com/joss/sessionlens/internal/output"
	"github.com/joss/sessionlens/internal/segment"
	"github.com/joss/sessionlens/internal/summarize"
	"github.com/joss/sessionlens/internal/warehouse"
)

// Analyzer ties the pipeline stages together for one run. Artifacts may be
// nil to skip writing per-session directories.
type Analyzer struct {
	store     warehouse.Warehouse
	annotator annotate.Annotator
	artifacts *output.ArtifactWriter
	segCfg    segment.Config
	log       *logging.Logger
}

func New(store warehouse.Warehouse, annotator annotate.Annotator, artifacts *output.ArtifactWriter, segCfg segment.Config, log *logging.Logger) *Analyzer {
	if log == nil {
		log = logging.New("analyzer")
	}
	return &Analyzer{
		store:     store,
		annotator: annotator,
		artifacts: artifacts,
		segCfg:    segCfg,
		log:       log,
	}
}

// AnalyzeUserSessions processes one (token, project) pair over a time range.
// Retrieval and normalization failures abort the pair; annotation failures
// are confined to their session and surface as Error records.
func (a *Analyzer) AnalyzeUserSessions(ctx context.Context, tokenID, projectID string, start, end time.Time) ([]domain.Intent, []domain.Error, error) {
	log := a.log.WithToken(tokenID).WithProject(projectID)
	began := time.Now()

	m := metrics.Global()

	configs, err := a.store.ConfigurationVersions(ctx, tokenID, projectID, start, end)
	m.RecordQuery(err == nil)
	if err != nil {
		return nil, nil, err
	}
	rows, err := a.store.ConfigurationRowVersions(ctx, tokenID, projectID, start, end)
	m.RecordQuery(err == nil)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := a.store.Jobs(ctx, tokenID, projectID, start, end)
	m.RecordQuery(err == nil)
	if err != nil {
		return nil, nil, err
	}
	if len(jobs) == 0 {
		log.Info("no_jobs_in_range", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})
		return nil, nil, nil
	}
	tables, err := a.store.TableEvents(ctx, tokenID, projectID, start, end)
	m.RecordQuery(err == nil)
	if err != nil {
		return nil, nil, err
	}

	events, err := normalize.Merge(configs, rows, jobs, tables)
	if err != nil {
		return nil, nil, err
	}

	sessions := segment.New(tokenID, projectID, a.segCfg).Split(events)
	log.Info("sessions_identified", map[string]any{
		"sessions": len(sessions),
		"events":   len(events),
	})

	var intents []domain.Intent
	var errs []domain.Error
	for _, sess := range sessions {
		intent, err := a.analyzeSession(ctx, sess)
		m.RecordSession()
		if err != nil {
			log.Warn("session_analysis_failed", map[string]any{"session": sess.ID}, err)
			errs = append(errs, sessionError(sess, err))
			continue
		}
		intents = append(intents, *intent)
	}

	log.TimedEvent("token_analyzed", began, map[string]any{
		"intents": len(intents),
		"errors":  len(errs),
	})
	return intents, errs, nil
}

func (a *Analyzer) analyzeSession(ctx context.Context, sess *domain.Session) (*domain.Intent, error) {
	sc := aggregate.Consolidate(sess)
	pc := summarize.Process(sc)
	gs := summarize.Group(sc)

	if a.artifacts != nil {
		if err := a.artifacts.WriteSession(sess, sc, pc, gs); err != nil {
			return nil, err
		}
	}

	began := time.Now()
	intent, err := a.annotator.Annotate(ctx, sess, pc, gs)
	metrics.Global().RecordAnnotation(err == nil, time.Since(began).Milliseconds())
	return intent, err
}

// sessionError converts a per-session failure into an Error record carrying
// the session's scope.
func sessionError(sess *domain.Session, err error) domain.Error {
	return domain.Error{
		StartTime:        sess.StartTime,
		EndTime:          sess.EndTime,
		TokenID:          sess.TokenID,
		ProjectID:        sess.ProjectID,
		ConfigurationIDs: sess.ConfigurationIDs(),
		Category:         domain.CategoryOther,
		Context:          err.Error(),
	}
}
