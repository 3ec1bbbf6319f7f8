package visualization

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/coopnet/internal/sweep"
)

// SeriesFormat selects how per-round series are exported.
type SeriesFormat string

const (
	SeriesCSV   SeriesFormat = "csv"
	SeriesArrow SeriesFormat = "arrow"
)

// SeriesFormatFor picks the export format from a file extension.
func SeriesFormatFor(path string) (SeriesFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return SeriesCSV, nil
	case ".arrow", ".ipc", ".feather":
		return SeriesArrow, nil
	default:
		return "", fmt.Errorf("unsupported series file %q (use .csv or .arrow)", path)
	}
}

// WriteSeries writes runs in the given format.
func WriteSeries(w io.Writer, format SeriesFormat, runs []sweep.RunReport) error {
	switch format {
	case SeriesCSV:
		return WriteSeriesCSV(w, runs)
	case SeriesArrow:
		return WriteSeriesArrow(w, runs)
	default:
		return fmt.Errorf("unknown series format %q", format)
	}
}

var seriesHeader = []string{"run", "t", "s", "step", "fraction"}

// WriteSeriesCSV writes one row per (run, round) in long form. Failed runs
// contribute no rows.
func WriteSeriesCSV(w io.Writer, runs []sweep.RunReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for _, run := range runs {
		t := strconv.FormatFloat(run.Params.T, 'g', -1, 64)
		s := strconv.FormatFloat(run.Params.S, 'g', -1, 64)
		for step, f := range run.Fractions {
			rec := []string{
				strconv.Itoa(run.Index),
				t,
				s,
				strconv.Itoa(step + 1),
				strconv.FormatFloat(f, 'g', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SeriesSchema is the Arrow schema written by WriteSeriesArrow.
var SeriesSchema = arrow.NewSchema([]arrow.Field{
	{Name: "run", Type: arrow.PrimitiveTypes.Int32},
	{Name: "t", Type: arrow.PrimitiveTypes.Float64},
	{Name: "s", Type: arrow.PrimitiveTypes.Float64},
	{Name: "step", Type: arrow.PrimitiveTypes.Int32},
	{Name: "fraction", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteSeriesArrow writes the same columns as WriteSeriesCSV as an Arrow IPC
// file with one record batch per run.
func WriteSeriesArrow(w io.Writer, runs []sweep.RunReport) error {
	mem := memory.NewGoAllocator()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(SeriesSchema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, SeriesSchema)
	defer b.Release()

	for _, run := range runs {
		if len(run.Fractions) == 0 {
			continue
		}
		runCol := b.Field(0).(*array.Int32Builder)
		tCol := b.Field(1).(*array.Float64Builder)
		sCol := b.Field(2).(*array.Float64Builder)
		stepCol := b.Field(3).(*array.Int32Builder)
		fracCol := b.Field(4).(*array.Float64Builder)

		for step, f := range run.Fractions {
			runCol.Append(int32(run.Index))
			tCol.Append(run.Params.T)
			sCol.Append(run.Params.S)
			stepCol.Append(int32(step + 1))
			fracCol.Append(f)
		}

		rec := b.NewRecord()
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			fw.Close()
			return fmt.Errorf("write run %d: %w", run.Index, err)
		}
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return nil
}
