package media

import (
	"fmt"
	"slices"
	"strings"
)

// Caps features and field names used on the wire.
const (
	MediaTypeRawVideo = "video/x-raw"
	FeatureGLMemory   = "memory:GLMemory"

	FieldFormat           = "format"
	FieldWidth            = "width"
	FieldHeight           = "height"
	FieldTextureTarget    = "texture-target"
	FieldPixelAspectRatio = "pixel-aspect-ratio"

	TextureTarget2D          = "2D"
	TextureTargetExternalOES = "external-oes"
)

// CapsField is one serialized field of a caps structure
type CapsField struct {
	Name  string
	Value string // already in caps-string syntax, e.g. "(string)RGBA"
}

// StringField builds name=(string)value
func StringField(name, value string) CapsField {
	return CapsField{Name: name, Value: "(string)" + value}
}

// ListField builds name=(string){ a, b }
func ListField(name string, values ...string) CapsField {
	return CapsField{Name: name, Value: "(string){ " + strings.Join(values, ", ") + " }"}
}

// FractionField builds name=(fraction)num/den
func FractionField(name string, num, den int) CapsField {
	return CapsField{Name: name, Value: fmt.Sprintf("(fraction)%d/%d", num, den)}
}

// CapsSpec is a single-structure caps description handed to the framework as a
// caps string and parsed with gst_caps_from_string.
type CapsSpec struct {
	MediaType string
	Features  []string
	Fields    []CapsField
}

// String serializes the spec in GStreamer caps-string syntax.
func (c CapsSpec) String() string {
	var b strings.Builder
	b.WriteString(c.MediaType)
	if len(c.Features) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(c.Features, ", "))
		b.WriteString(")")
	}
	for _, f := range c.Fields {
		b.WriteString(", ")
		b.WriteString(f.Name)
		b.WriteString("=")
		b.WriteString(f.Value)
	}
	return b.String()
}

// Field returns the serialized value of name.
func (c CapsSpec) Field(name string) (string, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Caps is the read side: structure 0 of the caps attached to a sample.
// Adapters fill Fields with Go values (string, int, ...).
type Caps struct {
	MediaType string
	Features  []string
	Fields    map[string]any
}

// HasFeature reports whether the caps carry the given memory feature.
func (c Caps) HasFeature(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// GetString returns the field as a string.
func (c Caps) GetString(name string) (string, bool) {
	v, ok := c.Fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns the field as an int, accepting the integer widths adapters produce.
func (c Caps) GetInt(name string) (int, bool) {
	switch v := c.Fields[name].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}
