package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MODEL", "")
	t.Setenv("SESSIONLENS_WAREHOUSE", "")
	t.Setenv("SESSIONLENS_OUTPUT_DIR", "")

	e := Get()
	assert.Equal(t, "gemini-1.5-flash", e.Model)
	assert.Equal(t, "sqlite", e.WarehouseBackend)
	assert.Equal(t, "output", e.OutputDir)
}

func TestOverrides(t *testing.T) {
	Reset()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MODEL", "gemini-1.5-pro")
	t.Setenv("SESSIONLENS_WAREHOUSE", "csv")
	t.Setenv("SESSIONLENS_WAREHOUSE_PATH", "/exports")
	t.Setenv("SESSIONLENS_OUTPUT_DIR", "/tmp/out")

	e := Get()
	assert.Equal(t, "test-key", e.GeminiKey)
	assert.Equal(t, "gemini-1.5-pro", e.Model)
	assert.Equal(t, "csv", e.WarehouseBackend)
	assert.Equal(t, "/exports", e.WarehousePath)
	assert.Equal(t, "/tmp/out", e.OutputDir)

	Reset()
}
