// Package config provides centralized configuration management.
// All environment lookups live here instead of scattered os.Getenv calls.
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// Env holds all sessionlens environment variables.
type Env struct {
	// GeminiKey is the Google Gemini API key (GEMINI_API_KEY).
	GeminiKey string

	// Model is the annotator model id (MODEL).
	Model string

	// WarehouseBackend selects the warehouse implementation, "sqlite" or
	// "csv" (SESSIONLENS_WAREHOUSE).
	WarehouseBackend string

	// WarehousePath is the sqlite database path or CSV export directory
	// (SESSIONLENS_WAREHOUSE_PATH).
	WarehousePath string

	// OutputDir is where intents.jsonl, errors.jsonl, and per-session
	// artifacts are written (SESSIONLENS_OUTPUT_DIR).
	OutputDir string
}

var (
	env     *Env
	envOnce sync.Once
)

// Get returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Get() *Env {
	envOnce.Do(func() {
		env = &Env{
			GeminiKey:        os.Getenv("GEMINI_API_KEY"),
			Model:            getEnvDefault("MODEL", "gemini-1.5-flash"),
			WarehouseBackend: getEnvDefault("SESSIONLENS_WAREHOUSE", "sqlite"),
			WarehousePath:    getEnvDefault("SESSIONLENS_WAREHOUSE_PATH", filepath.Join("data", "warehouse.db")),
			OutputDir:        getEnvDefault("SESSIONLENS_OUTPUT_DIR", "output"),
		}
	})
	return env
}

// Reset clears the cached environment (for testing).
func Reset() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
