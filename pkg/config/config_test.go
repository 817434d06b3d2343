package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Runtime.DefaultHeapPages, cfg.Runtime.DefaultHeapPages)
}

func TestLoadConfigFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodalchaind.json")
	payload := map[string]interface{}{
		"runtime": map[string]interface{}{
			"default_heap_pages": 4096,
			"execution_method":   "compiled",
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, cfg.Runtime.DefaultHeapPages)
	assert.Equal(t, "compiled", cfg.Runtime.ExecutionMethod)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultConfig().Sync.MaxParallel, cfg.Sync.MaxParallel)
}

func TestValidateRejectsBadExecutionMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runtime.ExecutionMethod = "quantum"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroMaxParallel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.MaxParallel = 0
	assert.Error(t, cfg.Validate())
}
