package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/voidnologo/bokeh-graph/internal/report"
)

// ErrUnknownFormat is returned for an output format with no renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output artifact type.
type Format string

const (
	HTML Format = "html"
	SVG  Format = "svg"
	PNG  Format = "png"
	Text Format = "text"
	JSON Format = "json"
)

// Axis and series labels shared by the chart renderers.
const (
	yAxisName   = "Fileprocesslog Count"
	lineName    = "Count"
	markersName = "Files Processed"
)

// Renderer turns a report into an artifact written to w.
type Renderer interface {
	Render(w io.Writer, r report.Report) error
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case HTML, SVG, PNG, Text, JSON:
		return f, nil
	case "txt", "table":
		return Text, nil
	default:
		return "", fmt.Errorf("%w %q (want html, svg, png, text or json)", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to HTML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return SVG
	case ".png":
		return PNG
	case ".txt":
		return Text
	case ".json":
		return JSON
	default:
		return HTML
	}
}

// New returns the renderer for f.
func New(f Format) (Renderer, error) {
	switch f {
	case HTML:
		return NewHTMLRenderer(), nil
	case SVG:
		return NewSVGRenderer(), nil
	case PNG:
		return NewPNGRenderer(), nil
	case Text:
		return NewTextRenderer(), nil
	case JSON:
		return NewJSONRenderer(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

// axisName labels the time axis with the display zone.
func axisName(r report.Report) string {
	return fmt.Sprintf("Time (%s)", r.Zone)
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer writes the report as a single indented JSON document.
type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
