package report

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/aggregator"
	"github.com/voidnologo/bokeh-graph/internal/parser"
)

const sample = `2024-01-01 06:01:00 processed a.csv
2024-01-01 06:02:00 processed b.csv
2024-01-01 06:03:00 processed c.csv
2024-01-01 06:04:00 processed d.csv
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fileprocess.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func build(t *testing.T, opts Options) Report {
	t.Helper()
	b, err := NewBuilder(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBuild(t *testing.T) {
	path := writeLog(t, sample)

	r := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-02", Interval: 5})

	if r.Title != "Files per 5 minutes" {
		t.Errorf("unexpected title %q", r.Title)
	}
	if len(r.Summaries) != 288 {
		t.Fatalf("expected 288 summaries, got %d", len(r.Summaries))
	}
	if r.Lines != 4 || r.Total != 4 || r.Excluded != 0 || r.Invalid != 0 {
		t.Errorf("unexpected totals: lines=%d total=%d excluded=%d invalid=%d", r.Lines, r.Total, r.Excluded, r.Invalid)
	}

	// 06:00 is the 72nd five-minute bucket of the day.
	s := r.Summaries[72]
	if s.Count != 4 || s.AvgPerMinute != 0.8 {
		t.Errorf("expected 06:00 bucket count 4 rate 0.8, got %+v", s)
	}
	if r.Zone != "UTC" {
		t.Errorf("expected zone UTC, got %q", r.Zone)
	}
}

func TestBuildDefaults(t *testing.T) {
	path := writeLog(t, sample)

	r := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-02"})

	if r.Interval != DefaultInterval {
		t.Errorf("expected default interval %d, got %d", DefaultInterval, r.Interval)
	}
}

func TestBuildIdempotent(t *testing.T) {
	path := writeLog(t, sample)
	b, err := NewBuilder(Options{File: path, Start: "2024-01-01", End: "2024-01-02", Interval: 15}, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical reports from repeated builds")
	}
}

func TestBuildStartEqualsEnd(t *testing.T) {
	path := writeLog(t, sample)

	r := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-01", Interval: 5})

	if len(r.Summaries) != 0 {
		t.Errorf("expected empty summaries, got %d", len(r.Summaries))
	}
}

func TestBuildTimeZone(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// UTC log, Chicago day: 06:01 UTC is 00:01 CST, first hour of the day.
	path := writeLog(t, sample)

	r := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-02", Interval: 60, Location: chicago})

	if r.Summaries[0].Count != 4 {
		t.Errorf("expected all entries in the first hour, got %d", r.Summaries[0].Count)
	}
	if r.Summaries[0].Time.Hour() != 0 {
		t.Errorf("expected display hour 0, got %d", r.Summaries[0].Time.Hour())
	}
	if r.Zone != "America/Chicago" {
		t.Errorf("expected zone America/Chicago, got %q", r.Zone)
	}
}

func TestBuildMalformedLine(t *testing.T) {
	path := writeLog(t, sample+"garbage without timestamp\n")

	b, err := NewBuilder(Options{File: path, Start: "2024-01-01", End: "2024-01-02", Layout: parser.DefaultLayout}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Build()

	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Line != 5 {
		t.Errorf("expected line 5, got %d", perr.Line)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected error to name the file, got %q", err)
	}
}

func TestBuildSkipInvalid(t *testing.T) {
	path := writeLog(t, "header line\n"+sample)

	r := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-02", SkipInvalid: true})

	if r.Invalid != 1 || r.Total != 4 {
		t.Errorf("expected invalid=1 total=4, got invalid=%d total=%d", r.Invalid, r.Total)
	}
}

func TestBuildExcludedAndClamp(t *testing.T) {
	path := writeLog(t, "2023-12-31 23:59:59 late\n"+sample+"2024-01-02 00:00:00 next day\n")

	dropped := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-02"})
	if dropped.Excluded != 2 || dropped.Total != 4 {
		t.Errorf("drop: expected excluded=2 total=4, got %d/%d", dropped.Excluded, dropped.Total)
	}

	clamped := build(t, Options{File: path, Start: "2024-01-01", End: "2024-01-02", Policy: aggregator.Clamp})
	if clamped.Excluded != 0 || clamped.Total != 6 {
		t.Errorf("clamp: expected excluded=0 total=6, got %d/%d", clamped.Excluded, clamped.Total)
	}
}

func TestNewBuilderErrors(t *testing.T) {
	path := writeLog(t, sample)

	_, err := NewBuilder(Options{File: path, Start: "2024-13-01", End: "2024-01-02"}, nil)
	var derr *DateError
	if !errors.As(err, &derr) || derr.Field != "start" {
		t.Errorf("expected start DateError, got %v", err)
	}

	_, err = NewBuilder(Options{File: path, Start: "2024-01-01", End: "tomorrow"}, nil)
	if !errors.As(err, &derr) || derr.Field != "end" || derr.Value != "tomorrow" {
		t.Errorf("expected end DateError, got %v", err)
	}

	_, err = NewBuilder(Options{File: path, Start: "2024-01-01", End: "2024-01-02", Interval: -1}, nil)
	if !errors.Is(err, aggregator.ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}

	if _, err := NewBuilder(Options{Start: "2024-01-01", End: "2024-01-02"}, nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildMissingFile(t *testing.T) {
	b, err := NewBuilder(Options{File: filepath.Join(t.TempDir(), "missing.log"), Start: "2024-01-01", End: "2024-01-02"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
