package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/voidnologo/bokeh-graph/internal/report"
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true)
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true) // cyan
	styleEmpty  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleBusy   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleNote   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TextRenderer prints a per-bucket table for the terminal. Empty buckets
// are dimmed and the busiest ones highlighted.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer { return &TextRenderer{} }

func (r *TextRenderer) Render(w io.Writer, rep report.Report) error {
	peak := 0
	for _, s := range rep.Summaries {
		if s.Count > peak {
			peak = s.Count
		}
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(rep.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "TOTALS: Files Processed: %d\n", rep.Total)
	if rep.Excluded > 0 || rep.Invalid > 0 {
		b.WriteString(styleNote.Render(fmt.Sprintf("(%d outside range, %d without timestamp)", rep.Excluded, rep.Invalid)))
		b.WriteString("\n")
	}
	b.WriteString(styleHeader.Render(fmt.Sprintf("%-19s    %5s    %7s    %7s", "Time", "Count", "Avg/min", "Avg/sec")))
	b.WriteString("\n")

	for _, s := range rep.Summaries {
		row := fmt.Sprintf("%-19s    %5d    %7.2f    %7.3f", timeLabel(s), s.Count, s.AvgPerMinute, s.AvgPerSecond)
		switch {
		case s.Count == 0:
			row = styleEmpty.Render(row)
		case s.Count == peak:
			row = styleBusy.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
