// Package renderbridge turns decoded video samples from a GStreamer playback
// pipeline into frames a renderer can draw.
//
// Two realizations exist behind one Bridge value:
//
//   - GL: the pipeline shares the application's EGL context, the sink delivers
//     RGBA GL memory and frames carry texture ids (zero copy).
//   - Dummy: the sink converts to BGRA system memory and frames carry a copy
//     of plane 0.
//
// New picks the GL realization when the native elements and an EGL context are
// available and falls back to the dummy one otherwise.
//
// # Quick Start
//
//	b, err := renderbridge.New(app, renderbridge.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	out, err := renderbridge.NewVideoOutput(b, playbin, renderer, renderbridge.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out.Start(ctx)
//	defer out.Stop()
//
// The renderer receives a Delivery per frame. The frame is released after
// Render returns; call Frame.Retain to keep it longer and Release when done.
//
// # Sink layout
//
// GL path:
//
//	playbin.video-sink = bin[ghost sink → d3d11download → glsinkbin(sink=appsink)]
//
// CPU path:
//
//	playbin.video-sink = bin[ghost sink → d3d11convert → d3d11download → appsink]
//
// Element names are configurable through Config.Elements.
//
// # Context sharing
//
// The GL bridge installs a bus sync handler on the pipeline that answers
// need-context messages for gst.gl.GLDisplay and gst.gl.app_context with the
// application's display and context. The pipeline's own GL context is read
// from glupload the first time a frame is built after negotiation.
package renderbridge
