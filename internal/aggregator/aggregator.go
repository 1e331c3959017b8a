package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/model"
)

// ErrInvalidInterval is returned when the bucket width is not positive.
var ErrInvalidInterval = errors.New("interval must be positive")

// Policy decides what happens to entries outside [Start, End).
type Policy int

const (
	// Drop excludes out-of-range entries and reports them in Result.Excluded.
	Drop Policy = iota
	// Clamp counts entries before Start in the first bucket and entries at
	// or after End in the last one.
	Clamp
)

func (p Policy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	default:
		return "drop"
	}
}

// ParsePolicy maps "drop" or "clamp" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return Drop, nil
	case "clamp":
		return Clamp, nil
	default:
		return Drop, fmt.Errorf("unknown out-of-range policy %q (want drop or clamp)", s)
	}
}

// Config holds the bucketing parameters for one run.
type Config struct {
	Start    time.Time
	End      time.Time
	Interval time.Duration
	Policy   Policy
	// Location is used for Summary.Time. Defaults to Start's location.
	Location *time.Location
}

// Result holds the output of a single aggregation pass.
type Result struct {
	Buckets   []model.Bucket
	Summaries []model.Summary
	Total     int // entries counted in some bucket
	Excluded  int // entries dropped by the out-of-range policy
}

// Aggregator assigns log entries to fixed-width time buckets.
type Aggregator struct {
	cfg        Config
	boundaries []time.Time
}

// New validates cfg and precomputes the bucket boundaries.
func New(cfg Config) (*Aggregator, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, cfg.Interval)
	}
	if cfg.Location == nil {
		cfg.Location = cfg.Start.Location()
	}
	return &Aggregator{
		cfg:        cfg,
		boundaries: Boundaries(cfg.Start, cfg.End, cfg.Interval),
	}, nil
}

// Boundaries returns start, start+interval, ... up to but excluding the
// first boundary >= end. It returns nil when start >= end or interval <= 0.
func Boundaries(start, end time.Time, interval time.Duration) []time.Time {
	if interval <= 0 || !start.Before(end) {
		return nil
	}
	n := int((end.Sub(start) + interval - 1) / interval)
	out := make([]time.Time, 0, n)
	for t := start; t.Before(end); t = t.Add(interval) {
		out = append(out, t)
	}
	return out
}

// Boundaries returns the precomputed bucket start times.
func (a *Aggregator) Boundaries() []time.Time {
	return a.boundaries
}

// Locate returns the index of the bucket holding ts, or -1 if the entry is
// outside [Start, End) and the policy drops it.
func (a *Aggregator) Locate(ts time.Time) int {
	n := len(a.boundaries)
	if n == 0 {
		return -1
	}

	if ts.Before(a.cfg.Start) {
		if a.cfg.Policy == Clamp {
			return 0
		}
		return -1
	}
	if !ts.Before(a.cfg.End) {
		if a.cfg.Policy == Clamp {
			return n - 1
		}
		return -1
	}

	// Rightmost boundary <= ts.
	i := sort.Search(n, func(i int) bool { return a.boundaries[i].After(ts) })
	return i - 1
}

// Aggregate tallies entries into buckets and derives per-bucket rates.
// Entry order does not matter.
func (a *Aggregator) Aggregate(entries []model.LogEntry) Result {
	counts := make([]int, len(a.boundaries))

	var res Result
	for _, e := range entries {
		idx := a.Locate(e.Timestamp)
		if idx < 0 {
			res.Excluded++
			continue
		}
		counts[idx]++
		res.Total++
	}

	res.Buckets = make([]model.Bucket, len(a.boundaries))
	res.Summaries = make([]model.Summary, len(a.boundaries))
	for i, start := range a.boundaries {
		end := a.cfg.End
		if i+1 < len(a.boundaries) {
			end = a.boundaries[i+1]
		}
		res.Buckets[i] = model.Bucket{Start: start, End: end, Count: counts[i]}
		res.Summaries[i] = a.summarize(res.Buckets[i])
	}

	return res
}

// summarize derives the rates of b from the configured interval. A shorter
// final bucket is still divided by the full interval.
func (a *Aggregator) summarize(b model.Bucket) model.Summary {
	minutes := a.cfg.Interval.Minutes()
	return model.Summary{
		Time:         b.Start.In(a.cfg.Location),
		Count:        b.Count,
		AvgPerMinute: float64(b.Count) / minutes,
		AvgPerSecond: float64(b.Count) / (minutes * 60),
	}
}
