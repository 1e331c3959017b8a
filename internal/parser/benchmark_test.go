package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/model"
)

// BenchmarkLayoutParser measures fixed-layout prefix parsing throughput.
func BenchmarkLayoutParser(b *testing.B) {
	p := NewLayoutParser(DefaultLayout, time.UTC)
	line := model.RawLine{Text: "2024-01-01 06:01:00 processed file /data/in/report-0001.csv", Number: 1}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(line)
	}
}

// BenchmarkAutoParser measures auto-detection once the layout has settled.
func BenchmarkAutoParser(b *testing.B) {
	p := NewAutoParser(time.UTC)

	lines := make([]model.RawLine, 1000)
	for i := range lines {
		lines[i] = model.RawLine{
			Text:   fmt.Sprintf("2024-01-01T%02d:%02d:00Z processed file %d", (i/60)%24, i%60, i),
			Number: i + 1,
		}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(lines[i%1000])
	}
}
