// Package negotiate answers GL need-context requests on a pipeline bus.
//
// The Observer runs as the bus sync handler, on the thread posting the message
// and before the requesting element proceeds. It only attaches a context to
// the source element and never blocks.
package negotiate

import (
	"log/slog"
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/telemetry"
)

// Observer shares the application display and GL context with pipeline
// elements. It borrows both handles; the bridge keeps ownership.
type Observer struct {
	gl      media.GL
	display media.GLDisplay
	appCtx  media.GLContext
	metrics *telemetry.Metrics

	displayAttached atomic.Uint64
	appAttached     atomic.Uint64
	failures        atomic.Uint64
}

// NewObserver returns an observer sharing display and appCtx through gl.
func NewObserver(gl media.GL, display media.GLDisplay, appCtx media.GLContext, metrics *telemetry.Metrics) *Observer {
	return &Observer{gl: gl, display: display, appCtx: appCtx, metrics: metrics}
}

// Install makes the observer the bus sync handler.
func (o *Observer) Install(bus media.Bus) {
	bus.SetSyncHandler(o.Handle)
}

// Handle is the sync handler. Every message passes.
func (o *Observer) Handle(msg media.Message) media.BusSyncReply {
	if msg.Kind() != media.MessageNeedContext {
		return media.BusPass
	}
	contextType, ok := msg.ContextType()
	if !ok {
		return media.BusPass
	}
	el, ok := msg.Source()
	if !ok {
		return media.BusPass
	}

	var err error
	switch contextType {
	case media.DisplayContextType:
		err = o.gl.SetDisplayContext(el, o.display)
		if err == nil {
			o.displayAttached.Add(1)
		}
	case media.AppContextType:
		err = o.gl.SetAppContext(el, contextType, o.appCtx)
		if err == nil {
			o.appAttached.Add(1)
		}
	default:
		return media.BusPass
	}

	if err != nil {
		o.failures.Add(1)
		slog.Warn("render-bridge: failed to attach context",
			"context_type", contextType,
			"element", el.Name(),
			"error", err,
		)
		return media.BusPass
	}

	o.metrics.ContextAttached(contextType)
	slog.Debug("render-bridge: context attached",
		"context_type", contextType,
		"element", el.Name(),
	)
	return media.BusPass
}

// Stats is a snapshot of the observer counters
type Stats struct {
	DisplayAttached uint64
	AppAttached     uint64
	Failures        uint64
}

// Stats returns the observer counters.
func (o *Observer) Stats() Stats {
	return Stats{
		DisplayAttached: o.displayAttached.Load(),
		AppAttached:     o.appAttached.Load(),
		Failures:        o.failures.Load(),
	}
}
