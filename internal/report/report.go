package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/aggregator"
	"github.com/voidnologo/bokeh-graph/internal/model"
	"github.com/voidnologo/bokeh-graph/internal/parser"
	"github.com/voidnologo/bokeh-graph/internal/source"
	"go.uber.org/zap"
)

// DateLayout is the accepted format for --start and --end.
const DateLayout = "2006-01-02"

// DefaultInterval is the bucket width in minutes when none is given.
const DefaultInterval = 5

// DateError reports a --start or --end value that is not a calendar date.
type DateError struct {
	Field string
	Value string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid %s date %q (want YYYY-mm-dd)", e.Field, e.Value)
}

func (e *DateError) Unwrap() error { return e.Err }

// ParseDate parses a YYYY-mm-dd date as midnight in loc.
func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, &DateError{Field: field, Value: value, Err: err}
	}
	return t, nil
}

// Options configures one run of the pipeline.
type Options struct {
	File     string // path or glob matching exactly one file
	Start    string // YYYY-mm-dd, inclusive
	End      string // YYYY-mm-dd, exclusive
	Interval int    // minutes

	Location    *time.Location // date range and display; default UTC
	LogLocation *time.Location // zoneless log timestamps; default UTC
	Layout      string         // Go layout or "auto"
	Policy      aggregator.Policy
	SkipInvalid bool
	Title       string
}

// Report is the immutable result of one run, ready for rendering.
type Report struct {
	Title     string          `json:"title"`
	Source    string          `json:"source"`
	Interval  int             `json:"interval_minutes"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Zone      string          `json:"zone"`
	Summaries []model.Summary `json:"summaries"`
	Lines     int             `json:"lines"`    // non-blank lines read
	Total     int             `json:"total"`    // entries counted in a bucket
	Excluded  int             `json:"excluded"` // entries outside the range
	Invalid   int             `json:"invalid"`  // lines skipped with --skip-invalid
}

// Builder runs source → parser → aggregator for a fixed set of options.
// A Builder may be reused; every Build starts from scratch.
type Builder struct {
	opts   Options
	start  time.Time
	end    time.Time
	logger *zap.Logger
}

// NewBuilder validates opts. Date and interval errors surface here so they
// are reported before the log file is touched.
func NewBuilder(opts Options, logger *zap.Logger) (*Builder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LogLocation == nil {
		opts.LogLocation = time.UTC
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("%w: got %d minutes", aggregator.ErrInvalidInterval, opts.Interval)
	}
	if opts.File == "" {
		return nil, errors.New("no log file given")
	}

	start, err := ParseDate("start", opts.Start, opts.Location)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate("end", opts.End, opts.Location)
	if err != nil {
		return nil, err
	}

	if opts.Title == "" {
		opts.Title = fmt.Sprintf("Files per %d minutes", opts.Interval)
	}

	return &Builder{opts: opts, start: start, end: end, logger: logger}, nil
}

// Path resolves the configured file pattern.
func (b *Builder) Path() (string, error) {
	return source.Resolve(b.opts.File)
}

// Build reads the log file and aggregates it into a Report.
func (b *Builder) Build() (Report, error) {
	path, err := b.Path()
	if err != nil {
		return Report{}, err
	}

	agg, err := aggregator.New(aggregator.Config{
		Start:    b.start,
		End:      b.end,
		Interval: time.Duration(b.opts.Interval) * time.Minute,
		Policy:   b.opts.Policy,
		Location: b.opts.Location,
	})
	if err != nil {
		return Report{}, err
	}

	lines, err := source.ReadLines(path)
	if err != nil {
		return Report{}, err
	}

	p := parser.New(b.opts.Layout, b.opts.LogLocation)
	entries := make([]model.LogEntry, 0, len(lines))
	invalid := 0
	for _, raw := range lines {
		entry, err := p.Parse(raw)
		if err != nil {
			if !b.opts.SkipInvalid {
				return Report{}, fmt.Errorf("%s: %w", path, err)
			}
			invalid++
			b.logger.Debug("skipping line without timestamp", zap.Int("line", raw.Number))
			continue
		}
		entries = append(entries, entry)
	}

	res := agg.Aggregate(entries)

	fields := []zap.Field{
		zap.String("file", path),
		zap.Int("lines", len(lines)),
		zap.Int("buckets", len(res.Buckets)),
		zap.Int("counted", res.Total),
		zap.Int("excluded", res.Excluded),
		zap.Int("invalid", invalid),
	}
	if ap, ok := p.(*parser.AutoParser); ok {
		fields = append(fields, zap.String("layout", ap.Layout()))
	}
	b.logger.Info("aggregated log file", fields...)

	return Report{
		Title:     b.opts.Title,
		Source:    path,
		Interval:  b.opts.Interval,
		Start:     b.start,
		End:       b.end,
		Zone:      zoneName(b.start),
		Summaries: res.Summaries,
		Lines:     len(lines),
		Total:     res.Total,
		Excluded:  res.Excluded,
		Invalid:   invalid,
	}, nil
}

// zoneName prefers the IANA name ("America/Chicago") over the abbreviation.
func zoneName(t time.Time) string {
	if name := t.Location().String(); name != "" && name != "Local" {
		return name
	}
	abbr, _ := t.Zone()
	return abbr
}
