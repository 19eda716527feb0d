// Package logging provides structured JSON logging for sessionlens components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event represents a structured log event.
type Event struct {
	Timestamp string         `json:"ts"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	Event     string         `json:"event"`
	RunID     string         `json:"run_id,omitempty"`
	Project   string         `json:"project,omitempty"`
	Token     string         `json:"token,omitempty"`
	Duration  int64          `json:"duration_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Logger provides structured logging scoped to a component and, optionally,
// the (project, token) pair being processed.
type Logger struct {
	component string
	runID     string
	project   string
	token     string
	out       io.Writer
}

// New creates a new logger for a component, writing to stderr.
func New(component string) *Logger {
	return &Logger{component: component, out: os.Stderr}
}

// NewWithWriter creates a logger with an explicit destination (for tests).
func NewWithWriter(component string, out io.Writer) *Logger {
	return &Logger{component: component, out: out}
}

// WithRun sets the run id context.
func (l *Logger) WithRun(runID string) *Logger {
	c := *l
	c.runID = runID
	return &c
}

// WithProject sets the project context.
func (l *Logger) WithProject(project string) *Logger {
	c := *l
	c.project = project
	return &c
}

// WithToken sets the token context.
func (l *Logger) WithToken(token string) *Logger {
	c := *l
	c.token = token
	return &c
}

func (l *Logger) log(level Level, event string, extra map[string]any, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		RunID:     l.runID,
		Project:   l.project,
		Token:     l.token,
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}

// Debug logs a debug event.
func (l *Logger) Debug(event string, extra map[string]any) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event.
func (l *Logger) Info(event string, extra map[string]any) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event.
func (l *Logger) Warn(event string, extra map[string]any, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event.
func (l *Logger) Error(event string, extra map[string]any, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with the duration since start.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]any) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		RunID:     l.runID,
		Project:   l.project,
		Token:     l.token,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	}

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}
