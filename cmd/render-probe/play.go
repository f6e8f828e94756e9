package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	renderbridge "github.com/e7canasta/orion-care-sensor/modules/render-bridge"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/gstreamer"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/playback"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/telemetry"
)

var (
	outputDir   string
	maxFrames   int
	saveEvery   int
	metricsAddr string
)

var playCmd = &cobra.Command{
	Use:   "play [uri]",
	Short: "Play a URI through the CPU bridge and report frame statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if metricsAddr != "" {
			cfg.MetricsAddr = metricsAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return play(ctx, args[0], cfg)
	},
}

func init() {
	playCmd.Flags().StringVar(&outputDir, "output", "", "directory to save frames as PNG (optional)")
	playCmd.Flags().IntVar(&maxFrames, "max-frames", 0, "stop after this many rendered frames (0 = until EOS)")
	playCmd.Flags().IntVar(&saveEvery, "save-every", 1, "save one frame out of N")
	playCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
}

func play(ctx context.Context, uri string, cfg *config.Config) error {
	if saveEvery < 1 {
		return fmt.Errorf("invalid --save-every %d (must be >= 1)", saveEvery)
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: telemetry.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("render-probe: metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		slog.Info("render-probe: serving metrics", "addr", cfg.MetricsAddr)
	}

	fw := gstreamer.NewFramework()
	rcfg := renderbridge.Config{
		Elements:    cfg.SinkElements(),
		AppSinkName: cfg.AppSinkName,
		SinkBinName: cfg.SinkBinName,
		MaxBuffers:  cfg.MaxBuffers,
		Drop:        cfg.Drop,
		Sync:        cfg.Sync,
		Framework:   fw,
		Registerer:  reg,
	}

	// No application GL context in a CLI: always the dummy bridge
	b, err := renderbridge.New(nil, rcfg)
	if err != nil {
		return err
	}
	defer b.Close()

	pipeline, err := fw.NewPipeline("playbin", "render-probe")
	if err != nil {
		return fmt.Errorf("failed to create playbin: %w", err)
	}
	if err := pipeline.SetProperty("uri", uri); err != nil {
		return fmt.Errorf("failed to set uri: %w", err)
	}

	r := &probeRenderer{dir: outputDir, every: saveEvery, max: maxFrames, done: cancel}
	out, err := renderbridge.NewVideoOutput(b, pipeline, r, rcfg)
	if err != nil {
		return err
	}
	defer out.Stop()

	bus, err := pipeline.Bus()
	if err != nil {
		return err
	}
	monitor := playback.NewMonitor(bus, pipeline.Name())

	if err := out.Start(ctx); err != nil {
		return err
	}
	if err := pipeline.SetState(media.StatePlaying); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	defer pipeline.SetState(media.StateNull)

	slog.Info("render-probe: playing", "uri", uri, "gl", b.IsGL())
	start := time.Now()

	if cfg.StatsIntervalSeconds > 0 {
		go reportStats(ctx, out, time.Duration(cfg.StatsIntervalSeconds)*time.Second)
	}

	runErr := monitor.Run(ctx)
	out.Stop()
	printFinal(out.Stats(), monitor, r, time.Since(start))

	var perr *playback.PipelineError
	switch {
	case runErr == nil, errors.Is(runErr, playback.ErrEndOfStream):
		return nil
	case errors.As(runErr, &perr):
		return fmt.Errorf("playback failed (%s): %w", perr.Category, runErr)
	default:
		return runErr
	}
}

// probeRenderer counts frames and saves some of them.
type probeRenderer struct {
	dir   string
	every int
	max   int
	done  context.CancelFunc

	rendered atomic.Uint64
	saved    atomic.Uint64
	failed   atomic.Uint64
}

func (r *probeRenderer) Render(d renderbridge.Delivery) {
	n := r.rendered.Add(1)
	slog.Debug("render-probe: frame",
		"seq", d.Seq,
		"trace_id", d.TraceID,
		"frame", d.Frame.String(),
	)

	if r.dir != "" && (n-1)%uint64(r.every) == 0 {
		if err := saveFrame(r.dir, d); err != nil {
			r.failed.Add(1)
			slog.Error("render-probe: failed to save frame", "seq", d.Seq, "error", err)
		} else {
			r.saved.Add(1)
		}
	}

	if r.max > 0 && n >= uint64(r.max) {
		r.done()
	}
}

func reportStats(ctx context.Context, out *renderbridge.VideoOutput, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := out.Stats()
			slog.Info("render-probe: stats",
				"built", s.FramesBuilt,
				"failed", s.FramesFailed,
				"dropped", s.FramesDropped,
				"delivered", s.FramesDelivered,
			)
		}
	}
}

func printFinal(s renderbridge.OutputStats, m *playback.Monitor, r *probeRenderer, uptime time.Duration) {
	errs := m.Errors()
	fmt.Printf("\n")
	fmt.Printf("═══════════════════════════════════════════════════════════\n")
	fmt.Printf("                     Final Statistics                      \n")
	fmt.Printf("═══════════════════════════════════════════════════════════\n")
	fmt.Printf("  Uptime:             %s\n", uptime.Round(time.Second))
	fmt.Printf("  GL Bridge:          %v\n", s.GL)
	fmt.Printf("  Frames Built:       %d\n", s.FramesBuilt)
	fmt.Printf("  Frames Delivered:   %d\n", s.FramesDelivered)
	fmt.Printf("  Frames Dropped:     %d\n", s.FramesDropped)
	fmt.Printf("  Frames Failed:      %d\n", s.FramesFailed)
	for kind, n := range s.FailuresByKind {
		fmt.Printf("    %-18s %d\n", kind+":", n)
	}
	if r.dir != "" {
		fmt.Printf("  Frames Saved:       %d (%d failed)\n", r.saved.Load(), r.failed.Load())
	}
	fmt.Printf("  Bus Warnings:       %d\n", m.Warnings())
	if total := errs.Network + errs.Codec + errs.Context + errs.Auth + errs.Unknown; total > 0 {
		fmt.Printf("  Bus Errors:         network=%d codec=%d context=%d auth=%d unknown=%d\n",
			errs.Network, errs.Codec, errs.Context, errs.Auth, errs.Unknown)
	}
	fmt.Printf("═══════════════════════════════════════════════════════════\n\n")
}
