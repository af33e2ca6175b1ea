package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 20, cfg.Crawl.MaxPages)
	assert.Equal(t, 2, cfg.Crawl.MaxDepth)
	assert.Equal(t, 10*time.Second, cfg.Crawl.Timeout)
	assert.Equal(t, time.Second, cfg.Crawl.RateLimitDelay)
	assert.Equal(t, 3, cfg.Crawl.RetryAttempts)
	assert.InDelta(t, 2.0, cfg.Crawl.RetryBackoff, 0.001)
	assert.Equal(t, 24, cfg.Crawl.CacheExpireHours)
	assert.True(t, cfg.Crawl.RespectRobots)
	assert.Len(t, cfg.Crawl.UserAgents, 3)
	assert.Contains(t, cfg.Crawl.PriorityPatterns, "contact")
	assert.True(t, cfg.Crawl.UseRenderFallback)
	assert.Equal(t, 30*time.Second, cfg.Crawl.RenderTimeout)
	assert.InDelta(t, 1.0, cfg.Extraction.SourceWeights["jsonld"], 0.001)
	assert.InDelta(t, 0.95, cfg.Extraction.SourceWeights["microdata"], 0.001)
	assert.InDelta(t, 0.7, cfg.Extraction.MethodWeights["pattern_matching"], 0.001)
	assert.InDelta(t, 0.1, cfg.Extraction.ValidatorBonus["email_mx_valid"], 0.001)
	assert.Equal(t, "US", cfg.Extraction.PhoneRegion)
	assert.True(t, cfg.Extraction.CheckMX)
	assert.Equal(t, 50, cfg.Extraction.BackgroundWords)
	assert.Equal(t, 8, cfg.Extraction.SloganWords)
	assert.Equal(t, 8, cfg.Extraction.ServicesMax)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
output_dir: /tmp/scan
crawl:
  max_pages: 5
  rate_limit_delay: 250ms
  respect_robots: false
extraction:
  phone_region: GB
  slogan_max_words: 6
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/scan", cfg.OutputDir)
	assert.Equal(t, 5, cfg.Crawl.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawl.RateLimitDelay)
	assert.False(t, cfg.Crawl.RespectRobots)
	assert.Equal(t, "GB", cfg.Extraction.PhoneRegion)
	assert.Equal(t, 6, cfg.Extraction.SloganWords)
	// Untouched defaults survive partial files.
	assert.Equal(t, 2, cfg.Crawl.MaxDepth)
}

func TestWeightLookupFallbacks(t *testing.T) {
	t.Parallel()

	ec := ExtractionConfig{
		SourceWeights: map[string]float64{"jsonld": 1.0},
		MethodWeights: map[string]float64{"heuristic": 0.6},
	}

	assert.InDelta(t, 1.0, ec.SourceWeight("jsonld", 0.5), 0.001)
	assert.InDelta(t, 0.5, ec.SourceWeight("missing", 0.5), 0.001)
	assert.InDelta(t, 0.6, ec.MethodWeight("heuristic", 0.9), 0.001)
	assert.InDelta(t, 0.9, ec.MethodWeight("missing", 0.9), 0.001)
	assert.InDelta(t, 0.1, ec.Bonus("missing", 0.1), 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}

func TestLoadTaxonomy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "services.yaml")
	data := `
services:
  - canonical: Pressure Washing
    synonyms: [Pressure Washing, " power washing "]
  - canonical: ""
    synonyms: [ignored]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)
	require.Len(t, tax, 1)
	assert.Equal(t, []string{"pressure washing", "power washing"}, tax["Pressure Washing"])
}

func TestLoadTaxonomy_DefaultWhenEmptyPath(t *testing.T) {
	t.Parallel()

	tax, err := LoadTaxonomy("")
	require.NoError(t, err)
	assert.Contains(t, tax, "Pressure Washing")
	assert.Contains(t, tax["HVAC"], "heating and cooling")
}

func TestLoadTaxonomy_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadTaxonomy("/nonexistent/services.yaml")
	require.Error(t, err)
}
