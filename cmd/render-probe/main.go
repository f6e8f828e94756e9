// Command render-probe inspects the render bridge on this host and plays a
// URI through the CPU bridge path.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/config"
)

var (
	version = "v0.1.0"
	cfgFile string
	debug   bool
	preset  string
)

var rootCmd = &cobra.Command{
	Use:   "render-probe",
	Short: "Render bridge probe",
	Long:  `render-probe checks which render bridge a host supports and plays media through it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging("info")
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("render-probe %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./render-bridge.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&preset, "elements", "", "element preset: d3d11, generic (overrides config)")

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

// loadConfig loads, applies the --elements preset and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyPreset(cfg, preset); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("render-probe: invalid config", "error", e)
		}
		return nil, fmt.Errorf("invalid config: %w", errs[0])
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

// applyPreset swaps the device-memory elements. "generic" runs the CPU path
// on hosts without D3D11 (videoconvert + identity).
func applyPreset(cfg *config.Config, name string) error {
	switch name {
	case "":
	case "d3d11":
		cfg.Elements.Download = "d3d11download"
		cfg.Elements.Convert = "d3d11convert"
	case "generic":
		cfg.Elements.Download = "identity"
		cfg.Elements.Convert = "videoconvert"
	default:
		return fmt.Errorf("unknown element preset %q (must be d3d11 or generic)", name)
	}
	return nil
}
