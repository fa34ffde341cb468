package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/config"
	"github.com/ironsheep/pixel-ruler/internal/logger"
)

// cfg is loaded from the environment and the persistent flags before any
// subcommand runs.
var cfg *config.Config

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pixel-ruler",
		Short: "Pixel Ruler",
		Long: `Measures on-screen distances by walking outward from a pixel until the
color changes. Runs as a fullscreen overlay, a one-shot CLI, an MCP server
or an HTTP API.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	f := root.PersistentFlags()
	f.Float64P("threshold", "t", boundary.DefaultThreshold, "Color distance that ends a scan")
	f.StringP("mode", "m", "both", "Measurement mode (both, horizontal, vertical)")
	f.String("metric", "rgb", "Color distance metric (rgb, cie76, ciede2000)")
	f.String("capture", config.CaptureCommand, "Capture backend (command, native)")
	f.String("capture-command", "grim", "External screenshot command, given the output path as last argument")
	f.Int("display", 0, "Display index for native capture")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newOverlayCmd(),
		newMeasureCmd(),
		newCaptureCmd(),
		newMCPCmd(),
		newHTTPCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads PIXEL_RULER_* variables, then applies any flag the user
// set explicitly.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	logger.Configure(c.LogLevel, c.LogFormat)
	cfg = c
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	var err error

	if f.Changed("threshold") {
		c.Threshold, _ = f.GetFloat64("threshold")
	}
	if f.Changed("mode") {
		v, _ := f.GetString("mode")
		if c.Mode, err = boundary.ParseMode(v); err != nil {
			return fmt.Errorf("--mode: %w", err)
		}
	}
	if f.Changed("metric") {
		v, _ := f.GetString("metric")
		if c.Metric, err = boundary.ParseMetric(v); err != nil {
			return fmt.Errorf("--metric: %w", err)
		}
	}
	if f.Changed("capture") {
		c.CaptureBackend, _ = f.GetString("capture")
	}
	if f.Changed("capture-command") {
		c.CaptureCommand, _ = f.GetString("capture-command")
	}
	if f.Changed("display") {
		c.DisplayIndex, _ = f.GetInt("display")
	}
	if f.Changed("log-level") {
		c.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		c.LogFormat, _ = f.GetString("log-format")
	}
	return nil
}
