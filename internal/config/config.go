// Package config defines the application configuration and its loader.
package config

import (
	"fmt"

	"github.com/schliweb/docscan/internal/models"
)

// Config is the root application configuration.
type Config struct {
	Verbose   bool           `mapstructure:"verbose"`
	LogLevel  string         `mapstructure:"log_level"`
	ModelsDir string         `mapstructure:"models_dir"`
	Detector  DetectorConfig `mapstructure:"detector"`
	Realtime  RealtimeConfig `mapstructure:"realtime"`
	Device    DeviceConfig   `mapstructure:"device"`
	Server    ServerConfig   `mapstructure:"server"`
}

// DetectorConfig configures the single-shot detection path.
type DetectorConfig struct {
	ModelPath  string  `mapstructure:"model_path"`
	InputSize  int     `mapstructure:"input_size"`
	MinPeak    float64 `mapstructure:"min_peak"`
	NumThreads int     `mapstructure:"num_threads"`
	DebugDir   string  `mapstructure:"debug_dir"`
}

// RealtimeConfig configures the live-preview loop.
type RealtimeConfig struct {
	EnableRoi          bool    `mapstructure:"enable_roi"`
	EnableFrameSkip    bool    `mapstructure:"enable_frame_skip"`
	FrameSkip          int     `mapstructure:"frame_skip"`
	EmaAlpha           float64 `mapstructure:"ema_alpha"`
	RoiMarginFraction  float64 `mapstructure:"roi_margin_fraction"`
	UseContourDetector bool    `mapstructure:"use_contour_detector"`
}

// DeviceConfig overrides the platform identifiers the capability profile
// is derived from. Empty values fall back to DOCSCAN_DEVICE_* variables.
type DeviceConfig struct {
	Manufacturer string `mapstructure:"manufacturer"`
	Model        string `mapstructure:"model"`
	Name         string `mapstructure:"name"`
	SDKVersion   int    `mapstructure:"sdk_version"`
}

// ServerConfig configures the streaming server.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		Verbose:   false,
		LogLevel:  "info",
		ModelsDir: models.DefaultModelsDir,
		Detector: DetectorConfig{
			ModelPath:  "",
			InputSize:  256,
			MinPeak:    1e-4,
			NumThreads: 0,
		},
		Realtime: RealtimeConfig{
			EnableRoi:          true,
			EnableFrameSkip:    true,
			FrameSkip:          1,
			EmaAlpha:           0.65,
			RoiMarginFraction:  0.12,
			UseContourDetector: false,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	if c.Detector.InputSize <= 0 {
		return fmt.Errorf("detector.input_size must be positive, got %d", c.Detector.InputSize)
	}
	if c.Realtime.FrameSkip < 0 {
		return fmt.Errorf("realtime.frame_skip must be >= 0, got %d", c.Realtime.FrameSkip)
	}
	if c.Realtime.EmaAlpha < 0 || c.Realtime.EmaAlpha > 1 {
		return fmt.Errorf("realtime.ema_alpha must be in [0,1], got %v", c.Realtime.EmaAlpha)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// ResolveModelPath returns the heatmap model path, honoring an explicit
// override before the models directory convention.
func (c *Config) ResolveModelPath() string {
	if c.Detector.ModelPath != "" {
		return c.Detector.ModelPath
	}
	return models.GetCornerModelPath(c.ModelsDir)
}
