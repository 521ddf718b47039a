package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Cache.AggregateCacheTTL)
	assert.Equal(t, "aggregate-rebuild-workers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
	assert.Equal(t, 1.0, cfg.Grid.CellSizeKm)
	assert.Equal(t, 30, cfg.Freshness.RecentDays)
	assert.Equal(t, runtime.NumCPU(), cfg.Freshness.ScoringWorkers)
	assert.Equal(t, 30*24*time.Hour, cfg.RecentWindow())
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Grid:      GridConfig{CellSizeKm: 5, ReferenceLat: 52.3676, ReferenceLon: 4.9041},
		Freshness: FreshnessConfig{RecentDays: 7, ScoringWorkers: 2},
	}
	cfg.applyDefaults()

	assert.Equal(t, 5.0, cfg.Grid.CellSizeKm)
	assert.Equal(t, 7, cfg.Freshness.RecentDays)
	assert.Equal(t, 2, cfg.Freshness.ScoringWorkers)

	g, err := cfg.GridConfig()
	require.NoError(t, err)
	assert.Equal(t, 52.3676, g.Reference.Lat)
}

func TestGridConfig_Invalid(t *testing.T) {
	cfg := &Config{Grid: GridConfig{CellSizeKm: -2}}

	_, err := cfg.GridConfig()
	assert.Error(t, err)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("GRID_CELL_SIZE_KM", "2.5")
	t.Setenv("GRID_REFERENCE_LAT", "48.8566")
	t.Setenv("GRID_REFERENCE_LON", "2.3522")
	t.Setenv("FRESHNESS_ZERO_COVERAGE_POLICY", "max_overlap")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://app.example.com, ,http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Grid.CellSizeKm)
	assert.Equal(t, "max_overlap", cfg.Freshness.ZeroCoveragePolicy)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.Server.CORSOrigins)
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("FRESHNESS_ZERO_COVERAGE_POLICY", "sentinel")

	_, err := Load()
	assert.Error(t, err)
}
