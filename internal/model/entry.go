package model

import "time"

// RawLine is a single line read from a log file.
type RawLine struct {
	Text   string
	Number int    // 1-based line number
	Source string // originating file path
}

// LogEntry represents a log line with its timestamp prefix parsed.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Line      int       `json:"line"`
	Raw       string    `json:"raw"`
}

// Bucket is the half-open time slot [Start, End).
type Bucket struct {
	Start time.Time
	End   time.Time
	Count int
}

// Summary is the per-bucket record fed to the chart.
type Summary struct {
	Time         time.Time `json:"time"`
	Count        int       `json:"count"`
	AvgPerMinute float64   `json:"avg_per_minute"`
	AvgPerSecond float64   `json:"avg_per_second"`
}
