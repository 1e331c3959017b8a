package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/model"
)

// DefaultLayout is the timestamp prefix written by the file-processing service.
const DefaultLayout = "2006-01-02 15:04:05"

// Auto selects format auto-detection in New.
const Auto = "auto"

// Parser extracts the timestamp prefix of a raw log line.
type Parser interface {
	Parse(raw model.RawLine) (model.LogEntry, error)
}

// ParseError reports a line whose prefix is not a recognizable timestamp.
type ParseError struct {
	Line   int
	Text   string
	Layout string
}

func (e *ParseError) Error() string {
	text := e.Text
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	if e.Layout == "" {
		return fmt.Sprintf("line %d: no timestamp prefix found in %q", e.Line, text)
	}
	return fmt.Sprintf("line %d: timestamp does not match layout %q: %q", e.Line, e.Layout, text)
}

// New returns a LayoutParser for layout, or an AutoParser when layout is
// empty or "auto". Timestamps without a zone are read in loc.
func New(layout string, loc *time.Location) Parser {
	if layout == "" || strings.EqualFold(layout, Auto) {
		return NewAutoParser(loc)
	}
	return NewLayoutParser(layout, loc)
}

// ---------------------------------------------------------------------------
// Layout Parser (fixed Go reference layout)
// ---------------------------------------------------------------------------

// LayoutParser reads a timestamp in one fixed layout from the start of a line.
type LayoutParser struct {
	layout string
	fields int
	loc    *time.Location
}

func NewLayoutParser(layout string, loc *time.Location) *LayoutParser {
	if loc == nil {
		loc = time.UTC
	}
	return &LayoutParser{
		layout: layout,
		fields: len(strings.Fields(layout)),
		loc:    loc,
	}
}

func (p *LayoutParser) Parse(raw model.RawLine) (model.LogEntry, error) {
	ts, ok := parsePrefix(raw.Text, p.layout, p.fields, p.loc)
	if !ok {
		return model.LogEntry{}, &ParseError{Line: raw.Number, Text: raw.Text, Layout: p.layout}
	}
	return entry(raw, ts), nil
}

// ---------------------------------------------------------------------------
// Auto Parser (format auto-detection)
// ---------------------------------------------------------------------------

// layouts are the sortable timestamp prefixes tried by AutoParser, most
// specific first so fractional seconds are not silently dropped.
var layouts = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05.000",
	DefaultLayout,
	time.RFC3339, // also accepts fractional seconds
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05.000000",
	"2006/01/02 15:04:05.000",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
}

// AutoParser tries each known layout and sticks with the first one that
// matches, since a log file almost never mixes prefix formats.
type AutoParser struct {
	loc  *time.Location
	last int // index into layouts of the last match, -1 before any
}

func NewAutoParser(loc *time.Location) *AutoParser {
	if loc == nil {
		loc = time.UTC
	}
	return &AutoParser{loc: loc, last: -1}
}

func (p *AutoParser) Parse(raw model.RawLine) (model.LogEntry, error) {
	if p.last >= 0 {
		l := layouts[p.last]
		if ts, ok := parsePrefix(raw.Text, l, len(strings.Fields(l)), p.loc); ok {
			return entry(raw, ts), nil
		}
	}
	for i, l := range layouts {
		if i == p.last {
			continue
		}
		if ts, ok := parsePrefix(raw.Text, l, len(strings.Fields(l)), p.loc); ok {
			p.last = i
			return entry(raw, ts), nil
		}
	}
	return model.LogEntry{}, &ParseError{Line: raw.Number, Text: raw.Text}
}

// Layout returns the layout detected so far, or "" if none matched yet.
func (p *AutoParser) Layout() string {
	if p.last < 0 {
		return ""
	}
	return layouts[p.last]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func entry(raw model.RawLine, ts time.Time) model.LogEntry {
	return model.LogEntry{
		Timestamp: ts,
		Line:      raw.Number,
		Raw:       raw.Text,
	}
}

// parsePrefix joins the first n whitespace-separated fields of line and
// parses them with layout. Brackets and a trailing separator around the
// timestamp ("[2024-01-01 06:00:00]", "2024-01-01 06:00:00 |") are ignored.
func parsePrefix(line, layout string, n int, loc *time.Location) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) < n || n == 0 {
		return time.Time{}, false
	}
	prefix := strings.Join(fields[:n], " ")
	prefix = strings.TrimLeft(prefix, "[(")
	prefix = strings.TrimRight(prefix, "]),|:;")

	ts, err := time.ParseInLocation(layout, prefix, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
