// Package annotate asks a completion provider to describe and classify
// sessions, turning its free-text answers into Intent records.
package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/joss/sessionlens/internal/domain"
	"github.com/joss/sessionlens/internal/summarize"
	"github.com/joss/sessionlens/pkg/llm"
)

// Annotator produces the Intent record for one session.
type Annotator interface {
	Annotate(ctx context.Context, sess *domain.Session, pc *summarize.ProcessedChanges, gs *summarize.GroupedSummary) (*domain.Intent, error)
}

// AnnotationError wraps a provider failure during one annotation stage. It is
// scoped to a single session: the caller records it and moves on.
type AnnotationError struct {
	SessionID string
	Stage     string
	Err       error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotating session %s: %s: %v", e.SessionID, e.Stage, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// LLMAnnotator drives a four-call annotation flow: describe, classify
// fulfillment, classify categories, summarize. Provider failures are fatal
// for the session; a response that merely fails to parse degrades to Unknown
// fields instead.
type LLMAnnotator struct {
	provider llm.Provider
	model    string
}

func NewLLMAnnotator(provider llm.Provider, model string) *LLMAnnotator {
	return &LLMAnnotator{provider: provider, model: model}
}

func (a *LLMAnnotator) complete(ctx context.Context, sessionID, stage, prompt string) (string, error) {
	resp, err := a.provider.Complete(ctx, &llm.CompletionRequest{
		Model:  a.model,
		Prompt: prompt,
	})
	if err != nil {
		return "", &AnnotationError{SessionID: sessionID, Stage: stage, Err: err}
	}
	return strings.TrimSpace(resp), nil
}

func (a *LLMAnnotator) Annotate(ctx context.Context, sess *domain.Session, pc *summarize.ProcessedChanges, gs *summarize.GroupedSummary) (*domain.Intent, error) {
	description, err := a.complete(ctx, sess.ID, "describe", describePrompt(sess, pc, gs))
	if err != nil {
		return nil, err
	}

	rawFulfillment, err := a.complete(ctx, sess.ID, "fulfillment", fulfillmentPrompt(sess, pc, description))
	if err != nil {
		return nil, err
	}
	fulfillment := oneOf(unquote(rawFulfillment), domain.Fulfillments)

	rawCategories, err := a.complete(ctx, sess.ID, "categories", categoriesPrompt(sess, pc, gs, description))
	if err != nil {
		return nil, err
	}
	goal, stage, tags := parseCategories(rawCategories)

	summary, err := a.complete(ctx, sess.ID, "summary", summaryPrompt(sess, description))
	if err != nil {
		return nil, err
	}

	return &domain.Intent{
		StartTime:        sess.StartTime,
		EndTime:          sess.EndTime,
		TokenID:          sess.TokenID,
		ProjectID:        sess.ProjectID,
		ConfigurationIDs: sess.ConfigurationIDs(),
		Description:      description,
		IsSuccessful:     sess.IsSuccessful,
		SessionID:        sess.ID,
		Fulfillment:      fulfillment,
		Tags:             tags,
		Classification:   goal,
		DevelopmentStage: stage,
		Summary:          unquote(summary),
	}, nil
}

// parseCategories extracts the three labeled lines of the categories
// response. Missing or off-enum values fall back to Unknown; a missing tag
// line yields no tags.
func parseCategories(resp string) (goal, stage string, tags []string) {
	goal, stage = domain.Unknown, domain.Unknown
	tags = []string{}

	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "PRIMARY_GOAL:"):
			goal = oneOf(labelValue(line), domain.Goals)
		case strings.HasPrefix(line, "DEVELOPMENT_STAGE:"):
			stage = oneOf(labelValue(line), domain.Stages)
		case strings.HasPrefix(line, "INTENT_TAGS:"):
			for _, tag := range strings.Split(labelValue(line), ",") {
				if tag = unquote(strings.TrimSpace(tag)); tag != "" {
					tags = append(tags, tag)
				}
			}
		}
	}
	return goal, stage, tags
}

func labelValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return unquote(strings.TrimSpace(value))
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}

// oneOf returns value if it is a member of the closed set, Unknown otherwise.
func oneOf(value string, set []string) string {
	for _, v := range set {
		if v == value {
			return value
		}
	}
	return domain.Unknown
}

var _ Annotator = (*LLMAnnotator)(nil)
