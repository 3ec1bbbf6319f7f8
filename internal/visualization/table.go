package visualization

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nvandessel/coopnet/internal/sweep"
)

// SummaryOptions controls RenderSummaryTable.
type SummaryOptions struct {
	Title string

	// SparklineWidth adds a trend column when positive.
	SparklineWidth int
}

// RenderSummaryTable writes one row per run: T, S, final cooperator
// fraction, tail mean and deviation, and the error of failed runs.
func RenderSummaryTable(w io.Writer, runs []sweep.RunReport, opts SummaryOptions) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if opts.Title != "" {
		t.SetTitle(opts.Title)
	}

	header := table.Row{"#", "T", "S", "Final", "Tail mean", "Tail std"}
	if opts.SparklineWidth > 0 {
		header = append(header, "Trend")
	}
	header = append(header, "Error")
	t.AppendHeader(header)

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, run := range runs {
		row := table.Row{run.Index, fmtFloat(run.Params.T), fmtFloat(run.Params.S)}
		if run.Failed() {
			row = append(row, "-", "-", "-")
		} else {
			row = append(row, fmtFloat(run.FinalFraction), fmtFloat(run.TailMean), fmtFloat(run.TailStd))
		}
		if opts.SparklineWidth > 0 {
			row = append(row, Sparkline(run.Fractions, opts.SparklineWidth))
		}
		row = append(row, run.Err)
		t.AppendRow(row)
	}
	t.Render()
}

// fmtFloat prints up to four decimals without trailing zeros.
func fmtFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(f, 'f', 4, 64), "0"), ".")
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders fractions in [0, 1] as at most width block characters.
// Longer series are bucketed by averaging.
func Sparkline(fractions []float64, width int) string {
	if len(fractions) == 0 || width <= 0 {
		return ""
	}
	if width > len(fractions) {
		width = len(fractions)
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		lo := i * len(fractions) / width
		hi := (i + 1) * len(fractions) / width
		sum := 0.0
		for _, f := range fractions[lo:hi] {
			sum += f
		}
		v := sum / float64(hi-lo)
		v = math.Max(0, math.Min(1, v))
		idx := int(math.Round(v * float64(len(sparkRunes)-1)))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
