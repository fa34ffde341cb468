// Package config loads runtime settings from PIXEL_RULER_* environment
// variables. Command-line flags override the loaded values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// Capture backends.
const (
	CaptureCommand = "command"
	CaptureNative  = "native"
)

type Config struct {
	Threshold      float64
	Mode           boundary.Mode
	Metric         boundary.Metric
	CaptureBackend string
	CaptureCommand string
	DisplayIndex   int
	HTTPAddr       string
	RequestTimeout time.Duration
	MaxUploadBytes int64
	MaxImagePixels int
	LogLevel       string
	LogFormat      string
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Threshold:      boundary.DefaultThreshold,
		Mode:           boundary.Both,
		Metric:         boundary.MetricRGB,
		CaptureBackend: CaptureCommand,
		CaptureCommand: "grim",
		HTTPAddr:       "127.0.0.1:8087",
		RequestTimeout: 30 * time.Second,
		MaxUploadBytes: 32 << 20,
		MaxImagePixels: raster.DefaultMaxPixels,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

func LoadFromEnv() (*Config, error) {
	def := Default()
	cfg := &Config{
		CaptureBackend: strings.ToLower(getEnvOrDefault("PIXEL_RULER_CAPTURE", def.CaptureBackend)),
		CaptureCommand: getEnvOrDefault("PIXEL_RULER_CAPTURE_COMMAND", def.CaptureCommand),
		HTTPAddr:       getEnvOrDefault("PIXEL_RULER_HTTP_ADDR", def.HTTPAddr),
		LogLevel:       getEnvOrDefault("PIXEL_RULER_LOG_LEVEL", def.LogLevel),
		LogFormat:      getEnvOrDefault("PIXEL_RULER_LOG_FORMAT", def.LogFormat),
	}

	var err error
	if cfg.Threshold, err = parseFloatOrDefault("PIXEL_RULER_THRESHOLD", def.Threshold); err != nil {
		return nil, err
	}
	if cfg.DisplayIndex, err = parseIntOrDefault("PIXEL_RULER_DISPLAY", 0); err != nil {
		return nil, err
	}
	size, err := parseIntOrDefault("PIXEL_RULER_MAX_UPLOAD_BYTES", int(def.MaxUploadBytes))
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(size)
	if cfg.MaxImagePixels, err = parseIntOrDefault("PIXEL_RULER_MAX_IMAGE_PIXELS", def.MaxImagePixels); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDurationOrDefault("PIXEL_RULER_REQUEST_TIMEOUT", def.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.Mode, err = boundary.ParseMode(os.Getenv("PIXEL_RULER_MODE")); err != nil {
		return nil, fmt.Errorf("invalid PIXEL_RULER_MODE: %w", err)
	}
	if cfg.Metric, err = boundary.ParseMetric(os.Getenv("PIXEL_RULER_METRIC")); err != nil {
		return nil, fmt.Errorf("invalid PIXEL_RULER_METRIC: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations. It is called again after flag
// overrides.
func (c *Config) Validate() error {
	if c.Threshold < boundary.MinThreshold || c.Threshold > boundary.MaxThreshold {
		return fmt.Errorf("threshold must be within [%g, %g] (got %g)",
			boundary.MinThreshold, boundary.MaxThreshold, c.Threshold)
	}
	switch c.CaptureBackend {
	case CaptureCommand, CaptureNative:
	default:
		return fmt.Errorf("unknown capture backend %q (want %s or %s)", c.CaptureBackend, CaptureCommand, CaptureNative)
	}
	if c.CaptureBackend == CaptureCommand && strings.TrimSpace(c.CaptureCommand) == "" {
		return fmt.Errorf("capture command must not be empty")
	}
	if c.DisplayIndex < 0 {
		return fmt.Errorf("display index must be >= 0 (got %d)", c.DisplayIndex)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be > 0 (got %s)", c.RequestTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be > 0 (got %d)", c.MaxUploadBytes)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("max image pixels must be > 0 (got %d)", c.MaxImagePixels)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return f, nil
}

func parseIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return n, nil
}

func parseDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return d, nil
}
