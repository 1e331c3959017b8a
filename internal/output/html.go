package output

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/voidnologo/bokeh-graph/internal/model"
	"github.com/voidnologo/bokeh-graph/internal/report"
)

const (
	// tooltipFormatter shows the bucket time and count of a hovered marker.
	tooltipFormatter = `function (p) {
		return p.seriesName + '<br/>Time: ' + p.name + '<br/>Count: ' + p.value[1];
	}`

	// axisFormatter prints HH:MM ticks and switches to the date on day
	// boundaries. Points are plotted as wall-clock UTC, hence getUTC*.
	axisFormatter = `function (value) {
		var d = new Date(value);
		var pad = function (n) { return (n < 10 ? '0' : '') + n; };
		if (d.getUTCHours() === 0 && d.getUTCMinutes() === 0) {
			return d.getUTCFullYear() + '-' + pad(d.getUTCMonth() + 1) + '-' + pad(d.getUTCDate());
		}
		return pad(d.getUTCHours()) + ':' + pad(d.getUTCMinutes());
	}`

	// reloadScript reconnects the page to the preview server's websocket
	// and reloads once a rebuilt report is announced.
	reloadScript = `(function () {
		var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
		var ws = new WebSocket(proto + location.host + '%s');
		ws.onmessage = function () { location.reload(); };
	})();`
)

// HTMLRenderer writes an interactive chart page: a gray line of counts over
// time, olive markers with a hover tooltip, and a zoomable time axis.
type HTMLRenderer struct {
	// ReloadPath, when set, is the websocket path the page listens on for
	// reload notifications.
	ReloadPath string
	// AssetsHost overrides where the echarts JavaScript is loaded from.
	AssetsHost string
}

func NewHTMLRenderer() *HTMLRenderer { return &HTMLRenderer{} }

func (r *HTMLRenderer) Render(w io.Writer, rep report.Report) error {
	return r.chart(rep).Render(w)
}

func (r *HTMLRenderer) chart(rep report.Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  rep.Title,
			Width:      "1000px",
			Height:     "500px",
			AssetsHost: r.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    rep.Title,
			Subtitle: filepath.Base(rep.Source),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: opts.FuncOpts(tooltipFormatter),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: axisName(rep),
			Type: "time",
			AxisLabel: &opts.AxisLabel{
				Rotate:    45,
				Formatter: string(opts.FuncOpts(axisFormatter)),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yAxisName,
			Type: "value",
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: 0, End: 100},
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
		),
	)

	lineData := make([]opts.LineData, 0, len(rep.Summaries))
	markers := make([]opts.ScatterData, 0, len(rep.Summaries))
	for _, s := range rep.Summaries {
		point := []interface{}{wallClockMillis(s.Time), s.Count}
		lineData = append(lineData, opts.LineData{Value: point})
		markers = append(markers, opts.ScatterData{Name: timeLabel(s), Value: point})
	}

	line.AddSeries(lineName, lineData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "gray", Width: 1}),
	)

	scatter := charts.NewScatter()
	scatter.AddSeries(markersName, markers,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "white", BorderColor: "olive"}),
	)
	line.Overlap(scatter)

	if r.ReloadPath != "" {
		line.AddJSFuncs(fmt.Sprintf(reloadScript, r.ReloadPath))
	}

	return line
}

// wallClockMillis encodes t's wall clock in its own zone as a UTC epoch, so
// the browser shows the report zone regardless of where it runs.
func wallClockMillis(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC).UnixMilli()
}

func timeLabel(s model.Summary) string {
	return s.Time.Format("2006-01-02 15:04:05")
}
