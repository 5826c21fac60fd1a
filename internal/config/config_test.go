package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AQUIFER_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Empty(t, cfg.EnhancerURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.EnhancerTimeout)
	assert.Equal(t, "@hourly", cfg.ResyncSchedule)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AQUIFER_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ENHANCER_URL", "http://localhost:8020")
	t.Setenv("ENHANCER_TIMEOUT_MS", "250")
	t.Setenv("RESYNC_SCHEDULE", "@every 10m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "http://localhost:8020", cfg.EnhancerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.EnhancerTimeout)
	assert.Equal(t, "@every 10m", cfg.ResyncSchedule)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("AQUIFER_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.Port)
	assert.False(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{Port: 8010, EnhancerTimeout: time.Second}},
		{name: "port too low", cfg: Config{Port: 0, EnhancerTimeout: time.Second}, wantErr: true},
		{name: "port too high", cfg: Config{Port: 70000, EnhancerTimeout: time.Second}, wantErr: true},
		{name: "zero timeout", cfg: Config{Port: 8010}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
