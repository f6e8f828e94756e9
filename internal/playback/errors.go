package playback

import (
	"strings"
)

// ErrorCategory classifies pipeline bus errors for logs and counters
type ErrorCategory int

const (
	// CategoryNetwork indicates network-related failures (connection, timeout, DNS)
	CategoryNetwork ErrorCategory = iota
	// CategoryCodec indicates codec/stream failures (decode errors, negotiation)
	CategoryCodec
	// CategoryContext indicates GL/D3D11 context or display failures
	CategoryContext
	// CategoryAuth indicates authentication/authorization failures
	CategoryAuth
	// CategoryUnknown indicates unclassified errors
	CategoryUnknown
)

// String returns a human-readable string representation of the category
func (c ErrorCategory) String() string {
	switch c {
	case CategoryNetwork:
		return "network"
	case CategoryCodec:
		return "codec"
	case CategoryContext:
		return "context"
	case CategoryAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// ClassifyError categorises a bus error from its message and debug string.
//
// Matching is keyword based (GError domains are not exposed by the bindings).
// Most specific first: auth, then context, then codec, then network.
func ClassifyError(text, debug string) ErrorCategory {
	combined := strings.ToLower(text + " " + debug)

	switch {
	case containsAny(combined, authKeywords):
		return CategoryAuth
	case containsAny(combined, contextKeywords):
		return CategoryContext
	case containsAny(combined, codecKeywords):
		return CategoryCodec
	case containsAny(combined, networkKeywords):
		return CategoryNetwork
	default:
		return CategoryUnknown
	}
}

var authKeywords = []string{
	"unauthorized",
	"401",
	"403",
	"forbidden",
	"authentication",
	"credentials",
}

var contextKeywords = []string{
	"gl context",
	"glcontext",
	"gldisplay",
	"egl",
	"d3d11device",
	"d3d11 device",
	"need-context",
	"could not share context",
	"failed to create context",
}

var codecKeywords = []string{
	"codec",
	"decode",
	"not negotiated",
	"negotiation",
	"caps",
	"format",
	"h264",
	"h265",
	"no decoder",
	"missing plugin",
}

var networkKeywords = []string{
	"connection",
	"timeout",
	"timed out",
	"unreachable",
	"network",
	"dns",
	"resolve",
	"socket",
	"http",
	"could not connect",
	"failed to connect",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
