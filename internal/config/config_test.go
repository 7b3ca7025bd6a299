package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, Init(&cfg))

	assert.Equal(t, "./docs", cfg.DocsDir)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.SearchTopK)
	assert.Equal(t, "balanced", cfg.RSEPreset)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LlmMain.URL)
}

func TestInitFromEnvironment(t *testing.T) {
	t.Setenv("DOCS_DIR", "/srv/docs")
	t.Setenv("RSE_PRESET", "precise")
	t.Setenv("MIN_SIMILARITY", "0.35")
	t.Setenv("FORCE_REINDEX", "true")

	cfg := Config{}
	require.NoError(t, Init(&cfg))

	assert.Equal(t, "/srv/docs", cfg.DocsDir)
	assert.Equal(t, "precise", cfg.RSEPreset)
	assert.InDelta(t, 0.35, float64(cfg.MinSimilarity), 1e-6)
	assert.True(t, cfg.ForceReindex)
}
