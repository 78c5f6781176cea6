package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lightningtracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")

	cfg, err := LoadConfigFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, DefaultMapStyle, cfg.MapStyle)
	assert.Empty(t, cfg.MapboxAccessToken)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
	t.Setenv("PORT", "")

	dir := t.TempDir()
	content := "PORT=:3000\nMAPBOX_ACCESS_TOKEN=pk.file\nSESSION_TTL=5m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(content), 0o644))

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, "pk.file", cfg.MapboxAccessToken)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("MAPBOX_ACCESS_TOKEN=pk.file\n"), 0o644))
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.env")

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "pk.env", cfg.MapboxAccessToken)
}

func TestAlertZonesAreValid(t *testing.T) {
	require.NoError(t, ValidateRings(AlertZones))
	require.Len(t, AlertZones, 3)
	assert.Equal(t, "distance-ring-10", AlertZones[0].SourceID())
	assert.Equal(t, "10 miles - High Risk", AlertZones[0].Legend())
	assert.Equal(t, "30 miles - Low Risk", AlertZones[2].Legend())
}

func TestValidateRingsRejectsBadConfig(t *testing.T) {
	tests := map[string][]model.RingSpec{
		"empty":          nil,
		"non-positive":   {{DistanceMiles: 0, Color: model.ColorHigh}},
		"not increasing": {{DistanceMiles: 20, Color: model.ColorHigh}, {DistanceMiles: 10, Color: model.ColorLow}},
		"duplicate":      {{DistanceMiles: 10, Color: model.ColorHigh}, {DistanceMiles: 10, Color: model.ColorLow}},
		"no colour":      {{DistanceMiles: 10}},
	}
	for name, rings := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateRings(rings))
		})
	}
}
