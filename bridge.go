package renderbridge

import (
	"fmt"
	"log/slog"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/bridge"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/telemetry"
)

// New returns the GL bridge when provider's context can be shared with the
// pipeline and the native elements exist, the dummy bridge otherwise. A nil
// provider always selects the dummy bridge.
//
// Returns an error only for an invalid config or metrics registration failure.
func New(provider GLContextProvider, cfg Config) (Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics, err := telemetry.New(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("render-bridge: %w", err)
	}

	b, err := bridge.Select(provider, cfg.framework(), cfg.gl(), bridge.Options{
		Elements:    cfg.Elements,
		SinkBinName: cfg.SinkBinName,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("render-bridge: bridge created",
		"gl", b.IsGL(),
		"sink_bin", cfg.SinkBinName,
	)
	return b, nil
}
