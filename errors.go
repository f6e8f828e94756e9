package renderbridge

import "github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"

// Errors returned by the bridge, wrapped; match with errors.Is.
var (
	// ErrBackendUnavailable: the GL realization cannot be built on this host
	ErrBackendUnavailable = media.ErrBackendUnavailable
	// ErrMissingNativeElement: a sink element could not be created or wired
	ErrMissingNativeElement = media.ErrMissingNativeElement
	// ErrAlreadyConfigured: BuildVideoSink already succeeded on this bridge
	ErrAlreadyConfigured = media.ErrAlreadyConfigured
	// ErrUnsupportedFormat: the sample's layout cannot be handed out as a texture
	ErrUnsupportedFormat = media.ErrUnsupportedFormat
	// ErrMalformedSample: caps or buffer are missing or inconsistent
	ErrMalformedSample = media.ErrMalformedSample
)
