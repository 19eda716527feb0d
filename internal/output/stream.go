// Package output persists analysis results: the NDJSON result streams and
// the per-session artifact directories.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StreamWriter appends one JSON record per line to a file, syncing after
// every record so results survive a crash mid-run.
type StreamWriter struct {
	f   *os.File
	enc *json.Encoder
}

// NewStreamWriter truncates or creates the file at path. Parent directories
// are created as needed.
func NewStreamWriter(path string) (*StreamWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &StreamWriter{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends one record and flushes it to disk.
func (w *StreamWriter) Write(record any) error {
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return w.f.Sync()
}

func (w *StreamWriter) Close() error {
	return w.f.Close()
}
