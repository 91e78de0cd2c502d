package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schliweb/docscan/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Verbose)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, models.DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, 256, cfg.Detector.InputSize)
	assert.InDelta(t, 1e-4, cfg.Detector.MinPeak, 1e-12)
	assert.True(t, cfg.Realtime.EnableRoi)
	assert.Equal(t, 1, cfg.Realtime.FrameSkip)
	assert.InDelta(t, 0.65, cfg.Realtime.EmaAlpha, 1e-9)
	assert.InDelta(t, 0.12, cfg.Realtime.RoiMarginFraction, 1e-9)
	assert.False(t, cfg.Realtime.UseContourDetector)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty log level ok", func(c *Config) { c.LogLevel = "" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "noisy" }, "invalid log_level"},
		{"zero input size", func(c *Config) { c.Detector.InputSize = 0 }, "input_size"},
		{"negative frame skip", func(c *Config) { c.Realtime.FrameSkip = -1 }, "frame_skip"},
		{"ema alpha above one", func(c *Config) { c.Realtime.EmaAlpha = 1.2 }, "ema_alpha"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestResolveModelPath(t *testing.T) {
	t.Setenv(models.EnvModelsDir, "")

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("models", models.CornerHeatmap), cfg.ResolveModelPath())

	cfg.ModelsDir = "/opt/docscan/models"
	assert.Equal(t, filepath.Join("/opt/docscan/models", models.CornerHeatmap), cfg.ResolveModelPath())

	cfg.Detector.ModelPath = "/tmp/custom.onnx"
	assert.Equal(t, "/tmp/custom.onnx", cfg.ResolveModelPath())
}
