package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir())) // no config file present
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "csv", cfg.Data.GridSource)
	assert.Equal(t, 100.0, cfg.Grid.CellSizeM)
	assert.Len(t, cfg.Overpass.BBox, 4)
	assert.Equal(t, 0, cfg.Overpass.Retry.MaxAttempts, "warmup retries forever by default")

	require.Contains(t, cfg.Modes, "walk")
	require.Contains(t, cfg.Modes, "bike")
	assert.Equal(t, "walk", cfg.Modes["bike"].Profile, "bike rides the walk profile by default")
	assert.Equal(t, 16.0, cfg.Modes["bike"].SpeedKmh)
	assert.Equal(t, 5.0, cfg.Modes["walk"].SpeedKmh)
}

func TestDepartureTime(t *testing.T) {
	r := RoutingConfig{Departure: "2026-01-01T08:00:00"}
	ts, err := r.DepartureTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), ts)

	r = RoutingConfig{Departure: "2026-01-01T08:00:00+02:00"}
	_, err = r.DepartureTime()
	assert.NoError(t, err)

	r = RoutingConfig{Departure: "tomorrow"}
	_, err = r.DepartureTime()
	assert.Error(t, err)
}
