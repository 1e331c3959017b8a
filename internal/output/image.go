package output

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/voidnologo/bokeh-graph/internal/report"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned by static renderers for a report without buckets.
var ErrNoData = errors.New("nothing to plot: the date range produced no buckets")

var colorOlive = drawing.Color{R: 128, G: 128, B: 0, A: 255}

// ImageRenderer draws a static chart with the same traces as the HTML page.
type ImageRenderer struct {
	provider chart.RendererProvider
}

// NewSVGRenderer returns an ImageRenderer producing SVG.
func NewSVGRenderer() *ImageRenderer { return &ImageRenderer{provider: chart.SVG} }

// NewPNGRenderer returns an ImageRenderer producing PNG.
func NewPNGRenderer() *ImageRenderer { return &ImageRenderer{provider: chart.PNG} }

func (r *ImageRenderer) Render(w io.Writer, rep report.Report) error {
	if len(rep.Summaries) == 0 {
		return ErrNoData
	}

	xs := make([]time.Time, len(rep.Summaries))
	ys := make([]float64, len(rep.Summaries))
	peak := 0.0
	for i, s := range rep.Summaries {
		xs[i] = s.Time
		ys[i] = float64(s.Count)
		if ys[i] > peak {
			peak = ys[i]
		}
	}
	// go-chart needs at least two X values to compute a range.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Duration(rep.Interval)*time.Minute))
		ys = append(ys, ys[0])
	}

	loc := rep.Summaries[0].Time.Location()
	graph := chart.Chart{
		Title:      rep.Title,
		Width:      1000,
		Height:     500,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           axisName(rep),
			ValueFormatter: tickFormatter(loc),
			Style:          chart.Style{TextRotationDegrees: 45},
		},
		// Fixed from zero: go-chart rejects a flat series with an auto range.
		YAxis: chart.YAxis{
			Name:  yAxisName,
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(math.Ceil(peak*1.1), 1)},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    lineName,
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorAlternateGray, StrokeWidth: 1},
			},
			chart.TimeSeries{
				Name:    markersName,
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(colorOlive),
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(r.provider, w)
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

// tickFormatter prints HH:MM, or the date for ticks on midnight in loc.
func tickFormatter(loc *time.Location) chart.ValueFormatter {
	return func(v interface{}) string {
		var t time.Time
		switch typed := v.(type) {
		case time.Time:
			t = typed
		case float64:
			t = time.Unix(0, int64(typed))
		case int64:
			t = time.Unix(0, typed)
		default:
			return ""
		}
		t = t.In(loc)
		if t.Hour() == 0 && t.Minute() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("15:04")
	}
}
