package warehouse

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/salesetl/internal/frame"
)

// column is a typed destination column.
type column struct {
	name string
	kind frame.Kind
}

func columnsOf(f *frame.Frame) []column {
	cols := make([]column, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = column{name: c, kind: f.ColumnKind(c)}
	}
	return cols
}

// castCell converts v to the Go type stored in a column of kind. Columns
// that widened to text get every value formatted as a string.
func castCell(v any, kind frame.Kind) any {
	if v == nil {
		return nil
	}
	switch kind {
	case frame.KindInt:
		switch x := v.(type) {
		case int64:
			return x
		case int:
			return int64(x)
		}
	case frame.KindFloat:
		if x, ok := frame.ToFloat(v); ok {
			return x
		}
		return nil
	case frame.KindTime:
		if t, ok := v.(time.Time); ok {
			return t
		}
		return nil
	case frame.KindString:
		return formatCell(v)
	}
	return v
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func castRows(f *frame.Frame, cols []column) [][]any {
	rows := make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]any, len(cols))
		for i, c := range cols {
			out[i] = castCell(row[i], c.kind)
		}
		rows[r] = out
	}
	return rows
}
