package media

import "errors"

var (
	// ErrBackendUnavailable means the GL realization cannot be built on this host:
	// a required element factory is missing or the application context could not be
	// wrapped. Permanent; callers fall back to the dummy realization.
	ErrBackendUnavailable = errors.New("render backend unavailable")

	// ErrMissingNativeElement means a conversion/upload element could not be
	// instantiated (or linked) while building the sink. Nothing was installed.
	ErrMissingNativeElement = errors.New("missing native element")

	// ErrAlreadyConfigured is returned by a second BuildVideoSink on one bridge.
	ErrAlreadyConfigured = errors.New("video sink already configured")

	// ErrUnsupportedFormat means the sample layout is not eligible for the active path.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrMalformedSample means the sample lacks usable caps or payload.
	ErrMalformedSample = errors.New("malformed sample")
)

// Sentinels returned by framework adapters.
var (
	// ErrIteratorDone ends an element iteration.
	ErrIteratorDone = errors.New("iterator done")
	// ErrIteratorResync means the underlying collection changed during iteration.
	// The iterator must be resynced and the walk restarted.
	ErrIteratorResync = errors.New("iterator needs resync")
	// ErrForeignObject is returned when an adapter receives an object created by a
	// different framework implementation.
	ErrForeignObject = errors.New("object does not belong to this framework")
)

// ErrorKind classifies bridge errors for telemetry labels and logs
type ErrorKind int

const (
	// KindNone is the kind of a nil error
	KindNone ErrorKind = iota
	// KindBackendUnavailable maps ErrBackendUnavailable
	KindBackendUnavailable
	// KindMissingNativeElement maps ErrMissingNativeElement
	KindMissingNativeElement
	// KindAlreadyConfigured maps ErrAlreadyConfigured
	KindAlreadyConfigured
	// KindUnsupportedFormat maps ErrUnsupportedFormat
	KindUnsupportedFormat
	// KindMalformedSample maps ErrMalformedSample
	KindMalformedSample
	// KindUnknown is any other error
	KindUnknown
)

// String returns the label used in logs and metrics
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindMissingNativeElement:
		return "missing_native_element"
	case KindAlreadyConfigured:
		return "already_configured"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindMalformedSample:
		return "malformed_sample"
	default:
		return "unknown"
	}
}

// Classify maps err (possibly wrapped) onto its ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable
	case errors.Is(err, ErrMissingNativeElement):
		return KindMissingNativeElement
	case errors.Is(err, ErrAlreadyConfigured):
		return KindAlreadyConfigured
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrMalformedSample):
		return KindMalformedSample
	default:
		return KindUnknown
	}
}
