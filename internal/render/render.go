// Package render provides terminal output formatting for analysis runs.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/sessionlens/internal/domain"
)

// Renderer handles output formatting. Pretty mode adds color and rules;
// plain mode stays pipe-friendly.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// RunHeader formats the banner printed before a run.
func (r *Renderer) RunHeader(runID, projectFilter string, start, end time.Time) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Session Analysis\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	fmt.Fprintf(&sb, "run:     %s\n", runID)
	fmt.Fprintf(&sb, "filter:  %s\n", projectFilter)
	fmt.Fprintf(&sb, "range:   %s .. %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return sb.String()
}

// TokenResult formats the one-line outcome for a processed token.
func (r *Renderer) TokenResult(projectID, tokenID string, intents, errs int, failed error) string {
	if failed != nil {
		if r.pretty {
			return fmt.Sprintf("%s %s/%s: %s\n", color.RedString("✗"), projectID, tokenID, failed)
		}
		return fmt.Sprintf("FAIL %s/%s: %s\n", projectID, tokenID, failed)
	}

	if r.pretty {
		return fmt.Sprintf("%s %s/%s: %d intents, %d errors\n",
			color.GreenString("✓"), projectID, tokenID, intents, errs)
	}
	return fmt.Sprintf("OK %s/%s: %d intents, %d errors\n", projectID, tokenID, intents, errs)
}

// Summary formats the final run totals.
func (r *Renderer) Summary(projects, tokens, intents, errs int, elapsed time.Duration) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(strings.Repeat("─", 60) + "\n")
		fmt.Fprintf(&sb, "%s %d projects, %d tokens in %s\n",
			color.CyanString("Done:"), projects, tokens, elapsed.Round(time.Second))
		fmt.Fprintf(&sb, "  %s %d intents\n", color.GreenString("✓"), intents)
		if errs > 0 {
			fmt.Fprintf(&sb, "  %s %d errors\n", color.RedString("✗"), errs)
		} else {
			fmt.Fprintf(&sb, "  ✗ 0 errors\n")
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "done: %d projects, %d tokens, %d intents, %d errors in %s\n",
		projects, tokens, intents, errs, elapsed.Round(time.Second))
	return sb.String()
}

// Intents formats a short listing of intent records.
func (r *Renderer) Intents(intents []domain.Intent) string {
	if len(intents) == 0 {
		return "No intents found\n"
	}

	var sb strings.Builder
	for _, in := range intents {
		timeStr := in.StartTime.Format("2006-01-02 15:04")

		status := "✗"
		if in.IsSuccessful {
			status = "✓"
		}
		if r.pretty {
			if in.IsSuccessful {
				status = color.GreenString("✓")
			} else {
				status = color.RedString("✗")
			}
		}

		fmt.Fprintf(&sb, "%s %s %s\n", status, color.HiBlackString(timeStr), in.Summary)
		if len(in.Tags) > 0 {
			fmt.Fprintf(&sb, "    %s\n", strings.Join(in.Tags, ", "))
		}
	}
	return sb.String()
}
