package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxConcurrentTasks)
	require.Equal(t, 5*time.Minute, cfg.ConfirmationTimeout)
	require.Equal(t, 30*time.Minute, cfg.SessionTimeout)
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent_tasks: 8\nllm:\n  model: gpt-test\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.MaxConcurrentTasks)
	require.Equal(t, "gpt-test", cfg.LLM.Model)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/pantry.yaml")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxConcurrentTasks)
}
